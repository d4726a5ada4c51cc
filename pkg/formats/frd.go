// FRD track parser. An FRD file holds the whole track: per-segment
// geometry at several resolutions, driveable-polygon collision records,
// placed objects with optional animations, and light sources.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// FRD format errors.
var (
	ErrTruncatedFrd      = errors.New("truncated FRD data")
	ErrInvalidFrdCount   = errors.New("invalid FRD element count")
	ErrFrdIndexOutOfRange = errors.New("FRD polygon index out of range")
)

// frdNumChunks is the number of geometry chunks per segment. The chunk
// roles are fixed by the format; see frdHighPolyChunks.
const frdNumChunks = 11

const frdHeaderSize = 28

// FRD object types.
const (
	FrdObjectNormal1  uint8 = 1
	FrdObjectNormal2  uint8 = 2
	FrdObjectSpecial  uint8 = 3
	FrdObjectAnimated uint8 = 4
)

// FRD polygon flag bits.
const (
	frdFlagBackfaceCulling = 1 << iota
	frdFlagLane
	frdFlagMirrorX
	frdFlagMirrorY
	frdFlagInvert
	frdFlagRotate
	frdFlagTransparent
	frdFlagHighlyReflective
	frdFlagNonReflective
	frdFlagBillboard
	frdFlagAnimated
)

// FRD driveable polygon flag bits.
const (
	frdFlagWallCollision = 1 << iota
	frdFlagFiniteHeight
)

// FrdPolygon is one textured face record.
type FrdPolygon struct {
	Face      [4]uint16
	Texture   uint16
	Flags     uint16
	AnimCount uint8
	AnimTicks uint8
}

// BackfaceCulling reports whether the face is culled when viewed from behind.
func (p FrdPolygon) BackfaceCulling() bool { return p.Flags&frdFlagBackfaceCulling != 0 }

// Lane reports whether the face is a road lane marking.
func (p FrdPolygon) Lane() bool { return p.Flags&frdFlagLane != 0 }

// MirrorX reports the horizontal texture mirror flag.
func (p FrdPolygon) MirrorX() bool { return p.Flags&frdFlagMirrorX != 0 }

// MirrorY reports the vertical texture mirror flag.
func (p FrdPolygon) MirrorY() bool { return p.Flags&frdFlagMirrorY != 0 }

// Invert reports the texture inversion flag.
func (p FrdPolygon) Invert() bool { return p.Flags&frdFlagInvert != 0 }

// Rotate reports the texture rotation flag.
func (p FrdPolygon) Rotate() bool { return p.Flags&frdFlagRotate != 0 }

// Animated reports whether AnimCount and AnimTicks are meaningful.
func (p FrdPolygon) Animated() bool { return p.Flags&frdFlagAnimated != 0 }

// FrdChunk is one resolution tier of segment geometry.
type FrdChunk struct {
	Polygons []FrdPolygon
}

// FrdShading is a per-vertex color, stored B,G,R,A.
type FrdShading struct {
	Blue  uint8
	Green uint8
	Red   uint8
	Alpha uint8
}

// FrdLightSource is a light stub: the low 5 bits of Type are the glow
// identifier, the location is 16.16 fixed-point.
type FrdLightSource struct {
	Type     uint8
	_        [3]uint8
	Location [3]int32
}

// FrdObjectAttribute maps an object attribute index to a collision type.
type FrdObjectAttribute struct {
	CollisionType uint8
	_             [3]uint8
}

// FrdDriveablePolygon links a collision record to a high-resolution
// track polygon by index.
type FrdDriveablePolygon struct {
	PolygonIndex uint16
	RoadEffect   uint8
	Edges        uint8
	Flags        uint8
	_            [3]uint8
}

// HasWallCollision reports whether walls rise from the tagged edges.
func (p FrdDriveablePolygon) HasWallCollision() bool { return p.Flags&frdFlagWallCollision != 0 }

// HasFiniteHeight reports whether the wall has a bounded height.
func (p FrdDriveablePolygon) HasFiniteHeight() bool { return p.Flags&frdFlagFiniteHeight != 0 }

// FrdKeyframe is one animation keyframe: a 16.16 fixed-point location
// and a 16.16 fixed-point quaternion stored as four int16.
type FrdKeyframe struct {
	Location   [3]int32
	Quaternion [4]int16 // x, y, z, w
}

// FrdObject is a placed object: its header fields plus its geometry.
type FrdObject struct {
	Type           uint8
	AttributeIndex uint8
	Location       [3]float32
	Vertices       [][3]float32
	Shadings       []FrdShading
	Polygons       []FrdPolygon
	Transform      [9]float32 // special objects only
	AnimDelay      int32      // animated objects only
	Keyframes      []FrdKeyframe
}

// FrdObjectChunk groups the objects of one segment area.
type FrdObjectChunk struct {
	Objects []FrdObject
}

// FrdSegment is one track block.
type FrdSegment struct {
	Vertices          [][3]float32
	Shadings          []FrdShading
	Waypoints         [][3]float32
	LightSources      []FrdLightSource
	ObjectAttributes  []FrdObjectAttribute
	Chunks            [frdNumChunks]FrdChunk
	DriveablePolygons []FrdDriveablePolygon
	ObjectChunks      []FrdObjectChunk
}

// Frd is a parsed track file.
type Frd struct {
	Segments     []FrdSegment
	GlobalChunks []FrdObjectChunk
}

// ParseFrd parses an FRD track from raw bytes.
func ParseFrd(data []byte) (*Frd, error) {
	if len(data) < frdHeaderSize+4 {
		return nil, ErrTruncatedFrd
	}
	r := bytes.NewReader(data[frdHeaderSize:])

	numSegments, err := readCount(r, 4096)
	if err != nil {
		return nil, fmt.Errorf("segment count: %w", err)
	}

	frd := &Frd{Segments: make([]FrdSegment, numSegments)}
	for i := 0; i < numSegments; i++ {
		if err := parseSegment(r, &frd.Segments[i]); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
	}

	numGlobal, err := readCount(r, 4096)
	if err != nil {
		return nil, fmt.Errorf("global chunk count: %w", err)
	}
	frd.GlobalChunks = make([]FrdObjectChunk, numGlobal)
	for i := 0; i < numGlobal; i++ {
		if err := parseObjectChunk(r, &frd.GlobalChunks[i]); err != nil {
			return nil, fmt.Errorf("global chunk %d: %w", i, err)
		}
	}
	return frd, nil
}

// ParseFrdFile parses an FRD track from disk.
func ParseFrdFile(path string) (*Frd, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading FRD file: %w", err)
	}
	return ParseFrd(data)
}

func parseSegment(r *bytes.Reader, segment *FrdSegment) error {
	numVertices, err := readCount(r, 1<<20)
	if err != nil {
		return fmt.Errorf("vertex count: %w", err)
	}
	segment.Vertices = make([][3]float32, numVertices)
	if err := binary.Read(r, binary.LittleEndian, &segment.Vertices); err != nil {
		return fmt.Errorf("%w: vertices", ErrTruncatedFrd)
	}
	segment.Shadings = make([]FrdShading, numVertices)
	if err := binary.Read(r, binary.LittleEndian, &segment.Shadings); err != nil {
		return fmt.Errorf("%w: vertex shadings", ErrTruncatedFrd)
	}

	numWaypoints, err := readCount(r, 1<<16)
	if err != nil {
		return fmt.Errorf("waypoint count: %w", err)
	}
	segment.Waypoints = make([][3]float32, numWaypoints)
	if err := binary.Read(r, binary.LittleEndian, &segment.Waypoints); err != nil {
		return fmt.Errorf("%w: waypoints", ErrTruncatedFrd)
	}

	numLights, err := readCount(r, 1<<16)
	if err != nil {
		return fmt.Errorf("light source count: %w", err)
	}
	segment.LightSources = make([]FrdLightSource, numLights)
	if err := binary.Read(r, binary.LittleEndian, &segment.LightSources); err != nil {
		return fmt.Errorf("%w: light sources", ErrTruncatedFrd)
	}

	numAttributes, err := readCount(r, 1<<16)
	if err != nil {
		return fmt.Errorf("object attribute count: %w", err)
	}
	segment.ObjectAttributes = make([]FrdObjectAttribute, numAttributes)
	if err := binary.Read(r, binary.LittleEndian, &segment.ObjectAttributes); err != nil {
		return fmt.Errorf("%w: object attributes", ErrTruncatedFrd)
	}

	for c := range segment.Chunks {
		polygons, err := parsePolygons(r)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", c, err)
		}
		segment.Chunks[c].Polygons = polygons
	}

	numDriveable, err := readCount(r, 1<<20)
	if err != nil {
		return fmt.Errorf("driveable polygon count: %w", err)
	}
	segment.DriveablePolygons = make([]FrdDriveablePolygon, numDriveable)
	if err := binary.Read(r, binary.LittleEndian, &segment.DriveablePolygons); err != nil {
		return fmt.Errorf("%w: driveable polygons", ErrTruncatedFrd)
	}

	numObjectChunks, err := readCount(r, 4096)
	if err != nil {
		return fmt.Errorf("object chunk count: %w", err)
	}
	segment.ObjectChunks = make([]FrdObjectChunk, numObjectChunks)
	for i := range segment.ObjectChunks {
		if err := parseObjectChunk(r, &segment.ObjectChunks[i]); err != nil {
			return fmt.Errorf("object chunk %d: %w", i, err)
		}
	}
	return nil
}

func parsePolygons(r *bytes.Reader) ([]FrdPolygon, error) {
	numPolygons, err := readCount(r, 1<<20)
	if err != nil {
		return nil, fmt.Errorf("polygon count: %w", err)
	}
	polygons := make([]FrdPolygon, numPolygons)
	if err := binary.Read(r, binary.LittleEndian, &polygons); err != nil {
		return nil, fmt.Errorf("%w: polygons", ErrTruncatedFrd)
	}
	return polygons, nil
}

func parseObjectChunk(r *bytes.Reader, chunk *FrdObjectChunk) error {
	numObjects, err := readCount(r, 1<<16)
	if err != nil {
		return fmt.Errorf("object count: %w", err)
	}
	chunk.Objects = make([]FrdObject, numObjects)
	for i := range chunk.Objects {
		if err := parseObject(r, &chunk.Objects[i]); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
	}
	return nil
}

func parseObject(r *bytes.Reader, obj *FrdObject) error {
	var header struct {
		Type           uint8
		AttributeIndex uint8
		_              uint16
		Location       [3]float32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("%w: object header", ErrTruncatedFrd)
	}
	obj.Type = header.Type
	obj.AttributeIndex = header.AttributeIndex
	obj.Location = header.Location

	numVertices, err := readCount(r, 1<<20)
	if err != nil {
		return fmt.Errorf("vertex count: %w", err)
	}
	obj.Vertices = make([][3]float32, numVertices)
	if err := binary.Read(r, binary.LittleEndian, &obj.Vertices); err != nil {
		return fmt.Errorf("%w: object vertices", ErrTruncatedFrd)
	}
	obj.Shadings = make([]FrdShading, numVertices)
	if err := binary.Read(r, binary.LittleEndian, &obj.Shadings); err != nil {
		return fmt.Errorf("%w: object shadings", ErrTruncatedFrd)
	}

	obj.Polygons, err = parsePolygons(r)
	if err != nil {
		return err
	}

	switch obj.Type {
	case FrdObjectSpecial:
		if err := binary.Read(r, binary.LittleEndian, &obj.Transform); err != nil {
			return fmt.Errorf("%w: object transform", ErrTruncatedFrd)
		}
	case FrdObjectAnimated:
		var animHeader struct {
			NumKeyframes int32
			Delay        int32
		}
		if err := binary.Read(r, binary.LittleEndian, &animHeader); err != nil {
			return fmt.Errorf("%w: animation header", ErrTruncatedFrd)
		}
		if animHeader.NumKeyframes < 0 || animHeader.NumKeyframes > 1<<16 {
			return fmt.Errorf("%w: %d keyframes", ErrInvalidFrdCount, animHeader.NumKeyframes)
		}
		obj.AnimDelay = animHeader.Delay
		obj.Keyframes = make([]FrdKeyframe, animHeader.NumKeyframes)
		if err := binary.Read(r, binary.LittleEndian, &obj.Keyframes); err != nil {
			return fmt.Errorf("%w: animation keyframes", ErrTruncatedFrd)
		}
	}
	return nil
}

// readCount reads an element count and rejects values outside the sane
// range for the field.
func readCount(r *bytes.Reader, limit int) (int, error) {
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrTruncatedFrd
		}
		return 0, err
	}
	if count < 0 || int(count) > limit {
		return 0, fmt.Errorf("%w: %d", ErrInvalidFrdCount, count)
	}
	return int(count), nil
}
