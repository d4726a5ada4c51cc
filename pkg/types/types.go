// Package types defines the immutable domain entities produced by the
// format parsers: vectors, meshes, polygons, resources, lights and audio
// streams. Entities are constructed once from decoded byte regions and
// never mutated afterwards; transformations return new values.
package types

import (
	"fmt"
	"math"
)

// Vector3d is a 3D point or direction in the game's world space.
// The fields are declared in the (x, z, y) order the files store them in;
// Y is the world "up" axis.
type Vector3d struct {
	X float64
	Z float64
	Y float64
}

// Add returns v + other.
func (v Vector3d) Add(other Vector3d) Vector3d {
	return Vector3d{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Subtract returns v - other.
func (v Vector3d) Subtract(other Vector3d) Vector3d {
	return Vector3d{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Magnitude returns the Euclidean length of the vector.
func (v Vector3d) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// HorizontalDistance returns the distance between v and other projected
// onto the horizontal (X/Z) plane, ignoring the up axis.
func (v Vector3d) HorizontalDistance(other Vector3d) float64 {
	return math.Hypot(v.X-other.X, v.Z-other.Z)
}

// WithY returns a copy of the vector with the up coordinate replaced.
func (v Vector3d) WithY(y float64) Vector3d {
	return Vector3d{X: v.X, Y: y, Z: v.Z}
}

// Quaternion is a rotation stored in the files as 16.16 fixed-point.
type Quaternion struct {
	W float64
	X float64
	Z float64
	Y float64
}

// UV is a texture coordinate pair.
type UV struct {
	U float64
	V float64
}

// Color is an 8-bit RGBA color.
type Color struct {
	Red   uint8
	Green uint8
	Blue  uint8
	Alpha uint8
}

// RGBFloat returns the color channels scaled to [0, 1], without alpha.
func (c Color) RGBFloat() (r, g, b float64) {
	return float64(c.Red) / 255, float64(c.Green) / 255, float64(c.Blue) / 255
}

// RGBAFloat returns all four channels scaled to [0, 1].
func (c Color) RGBAFloat() (r, g, b, a float64) {
	r, g, b = c.RGBFloat()
	return r, g, b, float64(c.Alpha) / 255
}

// Matrix3x3 is a rotation matrix with named row vectors, declared in the
// same (x, z, y) row order the files use.
type Matrix3x3 struct {
	X Vector3d
	Z Vector3d
	Y Vector3d
}

// Vertex carries a location and, depending on the source format, an
// optional normal and vertex color.
type Vertex struct {
	Location Vector3d
	Normal   *Vector3d
	Color    *Color
}

// RoadEffect is the gameplay surface type of a driveable polygon.
type RoadEffect uint8

const (
	RoadNotDriveable RoadEffect = 0
	RoadDriveable    RoadEffect = 1
	RoadGravel       RoadEffect = 2
	RoadDirt         RoadEffect = 3
	RoadSnow         RoadEffect = 4
	RoadIce          RoadEffect = 5
)

// String returns a human-readable surface type name.
func (e RoadEffect) String() string {
	switch e {
	case RoadNotDriveable:
		return "NotDriveable"
	case RoadDriveable:
		return "Driveable"
	case RoadGravel:
		return "Gravel"
	case RoadDirt:
		return "Dirt"
	case RoadSnow:
		return "Snow"
	case RoadIce:
		return "Ice"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(e))
	}
}

// CollisionType describes how the player car interacts with a track object.
type CollisionType uint8

const (
	CollisionNone         CollisionType = 0
	CollisionSolid        CollisionType = 1
	CollisionDestructible CollisionType = 2
)

// String returns a human-readable collision type name.
func (t CollisionType) String() string {
	switch t {
	case CollisionNone:
		return "None"
	case CollisionSolid:
		return "Solid"
	case CollisionDestructible:
		return "Destructible"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Action identifies the situation an object animation plays in.
type Action int

const (
	ActionDefaultLoop Action = iota + 1
	ActionDestroyLowSpeed
	ActionDestroyHighSpeed
)

// BlendMode selects how a texture resource is composited.
type BlendMode int

const (
	BlendNone BlendMode = iota
	BlendAlpha
	BlendAdditive
)

// ShapeKeyType identifies the purpose of an alternate vertex set.
type ShapeKeyType int

// ShapeKeyDamage is the crash-deformation pose of a vehicle part.
const ShapeKeyDamage ShapeKeyType = 1

// ShapeKey is a named alternate vertex-position set blendable against a
// mesh's base pose. Must have the same vertex count as the base mesh.
type ShapeKey struct {
	Type      ShapeKeyType
	Locations []Vector3d
}

// Polygon is a textured 3- or 4-vertex face of a drawable mesh.
type Polygon struct {
	Face             []int
	UV               []UV
	Material         int
	BackfaceCulling  bool
	IsLane           bool
	Transparent      bool
	HighlyReflective bool
	NonReflective    bool
	Billboard        bool
	AnimationTicks   int
	AnimationCount   int
}

// Edge identifies one side of a collision polygon.
type Edge uint8

const (
	EdgeFront Edge = 1 << iota
	EdgeLeft
	EdgeBack
	EdgeRight
)

// String returns a human-readable edge name.
func (e Edge) String() string {
	switch e {
	case EdgeFront:
		return "Front"
	case EdgeLeft:
		return "Left"
	case EdgeBack:
		return "Back"
	case EdgeRight:
		return "Right"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(e))
	}
}

// CollisionPolygon is a face of a collision mesh. Edges lists the sides
// a wall rises from.
type CollisionPolygon struct {
	Face             []int
	Edges            []Edge
	HasFiniteHeight  bool
	HasWallCollision bool
}

// DrawableMesh is renderable geometry with per-vertex attributes.
type DrawableMesh struct {
	Vertices  []Vertex
	Polygons  []Polygon
	ShapeKeys []ShapeKey
}

// CollisionMesh is gameplay collision geometry with a surface effect.
type CollisionMesh struct {
	Vertices        []Vertex
	Polygons        []CollisionPolygon
	CollisionEffect RoadEffect
}

// Animation is a keyframed rigid transform track. Locations and
// Quaternions always have equal length.
type Animation struct {
	Length      int
	Delay       int
	Locations   []Vector3d
	Quaternions []Quaternion
}

// AnimationAction binds an animation to the action that triggers it.
// The animation may be shared between objects.
type AnimationAction struct {
	Action    Action
	Animation *Animation
}

// TrackSegment is one block of the track: its drawable geometry, the
// collision meshes derived from driveable polygons, and the ordered AI
// waypoints passing through it.
type TrackSegment struct {
	Mesh            DrawableMesh
	CollisionMeshes []CollisionMesh
	Waypoints       []Vector3d
}

// TrackObject is a placed scenery or gameplay object.
type TrackObject struct {
	Mesh          DrawableMesh
	CollisionType CollisionType
	Location      *Vector3d
	Transform     *Matrix3x3
	Actions       []AnimationAction
}

// Part is a named piece of vehicle geometry with its pivot location.
type Part struct {
	Name     string
	Location Vector3d
	Mesh     DrawableMesh
}

// Image is the pixel payload of a texture resource.
type Image interface {
	isImage()
}

// RawImage is an image kept in its original container encoding (TGA).
type RawImage struct {
	Data []byte
}

func (RawImage) isImage() {}

// Bitmap is a decoded RGBA image, 4 bytes per pixel, row-major.
type Bitmap struct {
	Data   []byte
	Width  int
	Height int
}

func (Bitmap) isImage() {}

// Resource is a named texture with its compositing flags. Resource
// identity for deduplication purposes is the name, not the content.
type Resource struct {
	Name        string
	Image       Image
	Mirrored    bool
	NonMirrored bool
	BlendMode   BlendMode
}

// Compression tags the encoding of audio sample data.
type Compression int

const (
	CompressionPCM Compression = iota
	CompressionADPCM
)

// AudioStream is one sound sample as stored in an audio bank.
type AudioStream struct {
	NumChannels int
	SampleRate  int
	LoopStart   int
	LoopLength  int
	Compression Compression
	Samples     []byte
}

// LightStub is an unresolved track light: a position plus the glow
// identifier resolved later against the track INI attribute table.
type LightStub struct {
	Location Vector3d
	GlowID   int
}

// LightAttributes is a glow definition from the track INI.
type LightAttributes struct {
	Identifier      int
	Color           Color
	Blinks          bool
	BlinkIntervalMs int
	FlareSize       float64
}

// TrackLight is a fully resolved track light.
type TrackLight struct {
	Location        Vector3d
	Color           Color
	Blinks          bool
	BlinkIntervalMs int
	FlareSize       float64
}

// VehicleLightKind classifies a vehicle light dummy.
type VehicleLightKind int

const (
	VehicleHeadlight VehicleLightKind = iota + 1
	VehicleTaillight
	VehicleBrakelight
	VehicleReverseLight
	VehicleSiren
	VehicleSignal
)

// String returns a human-readable light kind name.
func (k VehicleLightKind) String() string {
	switch k {
	case VehicleHeadlight:
		return "Headlight"
	case VehicleTaillight:
		return "Taillight"
	case VehicleBrakelight:
		return "Brakelight"
	case VehicleReverseLight:
		return "ReverseLight"
	case VehicleSiren:
		return "Siren"
	case VehicleSignal:
		return "Signal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// VehicleLight is a light position on a vehicle with resolved attributes.
type VehicleLight struct {
	Location Vector3d
	Kind     VehicleLightKind
	Color    Color
	Blinks   bool
}

// DirectionalLight is the track sun. Angles are in radians.
type DirectionalLight struct {
	Rho    float64
	Theta  float64
	Radius float64
}

// EulerXYZ returns the sun orientation as XYZ Euler angles.
func (d DirectionalLight) EulerXYZ() Vector3d {
	return Vector3d{X: 0, Y: d.Theta, Z: math.Pi/2 - d.Rho}
}

// Horizon holds the three horizon strip colors from the track INI.
type Horizon struct {
	SunSide      Color
	TopSide      Color
	OppositeSide Color
}

// Camera is one node of a track camera path.
type Camera struct {
	Location  Vector3d
	Transform Matrix3x3
}
