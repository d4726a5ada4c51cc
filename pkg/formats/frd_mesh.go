package formats

import (
	"fmt"

	"github.com/e-rk/speedtools/pkg/types"
)

// frdHighPolyChunks marks the chunks that make up the high-resolution
// track geometry. The first four tiers are progressively coarser
// levels of detail and are skipped.
var frdHighPolyChunks = [frdNumChunks]bool{
	4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 10: true,
}

// frdCollisionChunk is the chunk whose polygons the driveable records
// index into.
const frdCollisionChunk = 4

// frdCanonicalUV is the texture mapping of an untransformed quad.
var frdCanonicalUV = [4]types.UV{{U: 1, V: 1}, {U: 0, V: 1}, {U: 0, V: 0}, {U: 1, V: 0}}

// TrackSegments converts the parsed segments to drawable and collision
// geometry. The returned slice has one entry per segment.
func (f *Frd) TrackSegments() ([]types.TrackSegment, error) {
	segments := make([]types.TrackSegment, len(f.Segments))
	for i := range f.Segments {
		segment, err := makeTrackSegment(&f.Segments[i])
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segments[i] = segment
	}
	return segments, nil
}

// Objects returns all placed objects, segment-local chunks first, then
// the global chunks. Objects from global chunks have no segment
// attribute table and always get CollisionNone.
func (f *Frd) Objects() ([]types.TrackObject, error) {
	var objects []types.TrackObject
	for i := range f.Segments {
		segment := &f.Segments[i]
		for _, chunk := range segment.ObjectChunks {
			for j := range chunk.Objects {
				obj, err := makeTrackObject(&chunk.Objects[j], segment.ObjectAttributes)
				if err != nil {
					return nil, fmt.Errorf("segment %d: %w", i, err)
				}
				objects = append(objects, obj)
			}
		}
	}
	for _, chunk := range f.GlobalChunks {
		for j := range chunk.Objects {
			obj, err := makeTrackObject(&chunk.Objects[j], nil)
			if err != nil {
				return nil, fmt.Errorf("global chunk: %w", err)
			}
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

// LightStubs returns the light sources of every segment as location
// plus glow identifier pairs.
func (f *Frd) LightStubs() []types.LightStub {
	var stubs []types.LightStub
	for i := range f.Segments {
		for _, light := range f.Segments[i].LightSources {
			stubs = append(stubs, types.LightStub{
				Location: fixedVector(light.Location),
				GlowID:   int(light.Type & 0x1F),
			})
		}
	}
	return stubs
}

func makeTrackSegment(segment *FrdSegment) (types.TrackSegment, error) {
	vertices := make([]types.Vertex, len(segment.Vertices))
	for i, v := range segment.Vertices {
		vertices[i] = types.Vertex{
			Location: floatVector(v),
			Color:    shadingColor(segment.Shadings[i]),
		}
	}

	var polygons []types.Polygon
	for c, highPoly := range frdHighPolyChunks {
		if !highPoly {
			continue
		}
		for _, p := range segment.Chunks[c].Polygons {
			polygons = append(polygons, makePolygon(p))
		}
	}

	collisionMeshes, err := makeCollisionMeshes(segment)
	if err != nil {
		return types.TrackSegment{}, err
	}

	waypoints := make([]types.Vector3d, len(segment.Waypoints))
	for i, w := range segment.Waypoints {
		waypoints[i] = floatVector(w)
	}

	return types.TrackSegment{
		Mesh: types.DrawableMesh{
			Vertices: vertices,
			Polygons: polygons,
		},
		CollisionMeshes: collisionMeshes,
		Waypoints:       waypoints,
	}, nil
}

// makePolygon converts a face record to a domain polygon, applying the
// texture transform flags to the canonical quad mapping and collapsing
// repeated vertex indices.
func makePolygon(p FrdPolygon) types.Polygon {
	uv := frdCanonicalUV
	if p.MirrorY() {
		uv[1].V, uv[2].V = uv[2].V, uv[1].V
		uv[0].V, uv[3].V = uv[3].V, uv[0].V
	}
	if p.MirrorX() {
		uv[0].U, uv[1].U = uv[1].U, uv[0].U
		uv[2].U, uv[3].U = uv[3].U, uv[2].U
	}
	if p.Invert() {
		for i := range uv {
			uv[i].U = 1 - uv[i].U
			uv[i].V = 1 - uv[i].V
		}
	}
	if p.Rotate() {
		uv[0].V = 1 - uv[0].V
		uv[1].U = 1 - uv[1].U
		uv[2].V = 1 - uv[2].V
		uv[3].U = 1 - uv[3].U
	}

	var face []int
	var faceUV []types.UV
	seen := make(map[uint16]bool, 4)
	for i, v := range p.Face {
		if seen[v] {
			continue
		}
		seen[v] = true
		face = append(face, int(v))
		faceUV = append(faceUV, uv[i])
	}

	polygon := types.Polygon{
		Face:             face,
		UV:               faceUV,
		Material:         int(p.Texture),
		BackfaceCulling:  p.BackfaceCulling(),
		IsLane:           p.Lane(),
		Transparent:      p.Flags&frdFlagTransparent != 0,
		HighlyReflective: p.Flags&frdFlagHighlyReflective != 0,
		NonReflective:    p.Flags&frdFlagNonReflective != 0,
		Billboard:        p.Flags&frdFlagBillboard != 0,
	}
	if p.Animated() {
		polygon.AnimationCount = int(p.AnimCount)
		polygon.AnimationTicks = int(p.AnimTicks)
	}
	return polygon
}

// makeCollisionMeshes groups the driveable records into meshes. Records
// are split wherever the polygon index sequence breaks, then grouped by
// road effect within each contiguous run. Non-driveable groups are
// dropped.
func makeCollisionMeshes(segment *FrdSegment) ([]types.CollisionMesh, error) {
	collisionPolygons := segment.Chunks[frdCollisionChunk].Polygons

	var meshes []types.CollisionMesh
	var group []FrdDriveablePolygon
	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		effect := types.RoadEffect(group[0].RoadEffect)
		if effect != types.RoadNotDriveable {
			mesh, err := makeCollisionMesh(segment, collisionPolygons, group, effect)
			if err != nil {
				return err
			}
			meshes = append(meshes, mesh)
		}
		group = nil
		return nil
	}

	for i, p := range segment.DriveablePolygons {
		if i > 0 {
			prev := segment.DriveablePolygons[i-1]
			if p.PolygonIndex != prev.PolygonIndex+1 || p.RoadEffect != prev.RoadEffect {
				if err := flush(); err != nil {
					return nil, err
				}
			}
		}
		group = append(group, p)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return meshes, nil
}

func makeCollisionMesh(segment *FrdSegment, collisionPolygons []FrdPolygon, group []FrdDriveablePolygon, effect types.RoadEffect) (types.CollisionMesh, error) {
	vertices := make([]types.Vertex, len(segment.Vertices))
	for i, v := range segment.Vertices {
		vertices[i] = types.Vertex{Location: floatVector(v)}
	}

	polygons := make([]types.CollisionPolygon, 0, len(group))
	for _, p := range group {
		if int(p.PolygonIndex) >= len(collisionPolygons) {
			return types.CollisionMesh{}, fmt.Errorf("%w: driveable polygon %d of %d",
				ErrFrdIndexOutOfRange, p.PolygonIndex, len(collisionPolygons))
		}
		source := collisionPolygons[p.PolygonIndex]
		face := make([]int, len(source.Face))
		for i, v := range source.Face {
			face[i] = int(v)
		}
		polygons = append(polygons, types.CollisionPolygon{
			Face:             face,
			Edges:            decodeEdges(p.Edges),
			HasFiniteHeight:  p.HasFiniteHeight(),
			HasWallCollision: p.HasWallCollision(),
		})
	}

	return types.CollisionMesh{
		Vertices:        vertices,
		Polygons:        polygons,
		CollisionEffect: effect,
	}, nil
}

func decodeEdges(mask uint8) []types.Edge {
	var edges []types.Edge
	for _, e := range []types.Edge{types.EdgeFront, types.EdgeLeft, types.EdgeBack, types.EdgeRight} {
		if mask&uint8(e) != 0 {
			edges = append(edges, e)
		}
	}
	return edges
}

func makeTrackObject(obj *FrdObject, attributes []FrdObjectAttribute) (types.TrackObject, error) {
	vertices := make([]types.Vertex, len(obj.Vertices))
	for i, v := range obj.Vertices {
		vertices[i] = types.Vertex{
			Location: floatVector(v),
			Color:    shadingColor(obj.Shadings[i]),
		}
	}
	polygons := make([]types.Polygon, len(obj.Polygons))
	for i, p := range obj.Polygons {
		polygons[i] = makePolygon(p)
	}

	result := types.TrackObject{
		Mesh: types.DrawableMesh{
			Vertices: vertices,
			Polygons: polygons,
		},
		CollisionType: types.CollisionNone,
	}

	location := floatVector(obj.Location)
	switch obj.Type {
	case FrdObjectNormal1, FrdObjectNormal2:
		result.Location = &location
		// A dangling attribute index means no collision rather
		// than a malformed file.
		if attributes != nil && int(obj.AttributeIndex) < len(attributes) {
			result.CollisionType = types.CollisionType(attributes[obj.AttributeIndex].CollisionType)
		}
	case FrdObjectSpecial:
		transform := makeMatrix(obj.Transform)
		result.Location = &location
		result.Transform = &transform
	case FrdObjectAnimated:
		animation, err := makeAnimation(obj)
		if err != nil {
			return types.TrackObject{}, err
		}
		result.Actions = []types.AnimationAction{
			{Action: types.ActionDefaultLoop, Animation: animation},
		}
	default:
		return types.TrackObject{}, fmt.Errorf("unknown object type %d", obj.Type)
	}
	return result, nil
}

func makeAnimation(obj *FrdObject) (*types.Animation, error) {
	if len(obj.Keyframes) == 0 {
		return nil, fmt.Errorf("animated object with no keyframes")
	}
	animation := &types.Animation{
		Length:      len(obj.Keyframes),
		Delay:       int(obj.AnimDelay),
		Locations:   make([]types.Vector3d, len(obj.Keyframes)),
		Quaternions: make([]types.Quaternion, len(obj.Keyframes)),
	}
	for i, kf := range obj.Keyframes {
		animation.Locations[i] = fixedVector(kf.Location)
		animation.Quaternions[i] = types.Quaternion{
			X: fixedToFloat(int32(kf.Quaternion[0])),
			Y: fixedToFloat(int32(kf.Quaternion[1])),
			Z: fixedToFloat(int32(kf.Quaternion[2])),
			W: fixedToFloat(int32(kf.Quaternion[3])),
		}
	}
	return animation, nil
}

// makeMatrix builds a rotation matrix from nine column-major floats.
func makeMatrix(values [9]float32) types.Matrix3x3 {
	row := func(i int) types.Vector3d {
		return types.Vector3d{
			X: float64(values[i]),
			Y: float64(values[i+3]),
			Z: float64(values[i+6]),
		}
	}
	return types.Matrix3x3{X: row(0), Y: row(1), Z: row(2)}
}

func floatVector(v [3]float32) types.Vector3d {
	return types.Vector3d{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

func fixedVector(v [3]int32) types.Vector3d {
	return types.Vector3d{X: fixedToFloat(v[0]), Y: fixedToFloat(v[1]), Z: fixedToFloat(v[2])}
}

func shadingColor(s FrdShading) *types.Color {
	return &types.Color{Red: s.Red, Green: s.Green, Blue: s.Blue, Alpha: s.Alpha}
}
