// FCE vehicle mesh parser. An FCE file holds the car body split into
// named parts, each with its own vertex and triangle window into the
// shared tables, plus dummy markers used for light placement and a
// second vertex table describing the damaged shape.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/e-rk/speedtools/pkg/types"
)

// FCE format errors.
var (
	ErrInvalidFceVersion = errors.New("invalid FCE version")
	ErrTruncatedFce      = errors.New("truncated FCE data")
)

const (
	fceVersion    = 0x00101014
	fceMaxDummies = 16
	fceMaxParts   = 64
	fceNameLength = 64
)

// FCE triangle flag bits.
const (
	fceFlagTransparent      = 1 << iota
	fceFlagHighlyReflective = 1 << 1
	fceFlagNoCulling        = 1 << 2
	fceFlagNonReflective    = 1 << 3
)

// PartResolution marks how detailed a part's geometry is.
type PartResolution int

const (
	ResolutionHigh PartResolution = iota
	ResolutionMedium
	ResolutionLow
)

// fcePartNames maps the part tags used by the game to readable names
// and resolutions. Tags not listed here pass through unchanged at high
// resolution.
var fcePartNames = map[string]struct {
	name       string
	resolution PartResolution
}{
	":HB":   {"body", ResolutionHigh},
	":HLFW": {"wheel_front_left", ResolutionHigh},
	":HRFW": {"wheel_front_right", ResolutionHigh},
	":HLRW": {"wheel_rear_left", ResolutionHigh},
	":HRRW": {"wheel_rear_right", ResolutionHigh},
	":MB":   {"body_medium", ResolutionMedium},
	":MLFW": {"wheel_front_left_medium", ResolutionMedium},
	":MRFW": {"wheel_front_right_medium", ResolutionMedium},
	":MLRW": {"wheel_rear_left_medium", ResolutionMedium},
	":MRRW": {"wheel_rear_right_medium", ResolutionMedium},
	":LB":   {"body_low", ResolutionLow},
	":TB":   {"body_tiny", ResolutionLow},
	":OC":   {"cockpit", ResolutionHigh},
	":OND":  {"driver_no_hands", ResolutionHigh},
	":OD":   {"driver", ResolutionHigh},
	":OH":   {"steering_wheel", ResolutionHigh},
	":ODL":  {"dashboard_lights", ResolutionHigh},
	":OLB":  {"brake_front_left", ResolutionHigh},
	":ORB":  {"brake_front_right", ResolutionHigh},
	":OLM":  {"mirror_left", ResolutionHigh},
	":ORM":  {"mirror_right", ResolutionHigh},
}

// fceLightColors maps a dummy name color code to an RGBA value.
var fceLightColors = map[byte]types.Color{
	'W': {Red: 255, Green: 255, Blue: 255, Alpha: 255},
	'R': {Red: 255, Green: 0, Blue: 0, Alpha: 255},
	'B': {Red: 0, Green: 0, Blue: 255, Alpha: 255},
	'O': {Red: 255, Green: 165, Blue: 0, Alpha: 255},
	'Y': {Red: 255, Green: 255, Blue: 0, Alpha: 255},
}

// fceLightKinds maps a dummy name kind code to the light kind.
var fceLightKinds = map[byte]types.VehicleLightKind{
	'H': types.VehicleHeadlight,
	'T': types.VehicleTaillight,
	'B': types.VehicleBrakelight,
	'R': types.VehicleReverseLight,
	'S': types.VehicleSiren,
	'I': types.VehicleSignal,
}

// FceTriangle is one face record with its per-corner texture mapping.
type FceTriangle struct {
	Texture uint32
	Face    [3]uint32
	Flags   uint32
	U       [3]float32
	V       [3]float32
}

// FcePart is a named window into the vertex and triangle tables.
type FcePart struct {
	Name       string
	Resolution PartResolution
	Location   types.Vector3d
	Vertices   [][3]float32
	Normals    [][3]float32
	Damaged    [][3]float32
	Triangles  []FceTriangle
}

// FceDummy is a named marker position.
type FceDummy struct {
	Name     string
	Location types.Vector3d
}

// Fce is a parsed vehicle mesh.
type Fce struct {
	HalfSize types.Vector3d
	Parts    []FcePart
	Dummies  []FceDummy
}

// ParseFce parses an FCE vehicle mesh from raw bytes.
func ParseFce(data []byte) (*Fce, error) {
	r := bytes.NewReader(data)
	var header struct {
		_            uint32
		Version      uint32
		_            uint32
		NumTriangles uint32
		NumVertices  uint32
		_            uint32
		VertexOffset uint32
		NormalOffset uint32
		TriOffset    uint32
		_            [2]uint32
		DamageVertexOffset uint32
		DamageNormalOffset uint32
		_            [2]uint32
		HalfSize     [3]float32
		NumDummies   uint32
		Dummies      [fceMaxDummies][3]float32
		NumParts     uint32
		PartLocations [fceMaxParts][3]float32
		FirstVertex  [fceMaxParts]uint32
		NumPartVertices [fceMaxParts]uint32
		FirstTriangle [fceMaxParts]uint32
		NumPartTriangles [fceMaxParts]uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header", ErrTruncatedFce)
	}
	if header.Version != fceVersion {
		return nil, fmt.Errorf("%w: %#08x", ErrInvalidFceVersion, header.Version)
	}
	if header.NumDummies > fceMaxDummies {
		return nil, fmt.Errorf("%w: %d dummies", ErrTruncatedFce, header.NumDummies)
	}
	if header.NumParts > fceMaxParts {
		return nil, fmt.Errorf("%w: %d parts", ErrTruncatedFce, header.NumParts)
	}

	dummyNames := make([]string, fceMaxDummies)
	for i := range dummyNames {
		name, err := readFceName(r)
		if err != nil {
			return nil, fmt.Errorf("dummy name %d: %w", i, err)
		}
		dummyNames[i] = name
	}
	partNames := make([]string, fceMaxParts)
	for i := range partNames {
		name, err := readFceName(r)
		if err != nil {
			return nil, fmt.Errorf("part name %d: %w", i, err)
		}
		partNames[i] = name
	}

	vertices := make([][3]float32, header.NumVertices)
	if err := binary.Read(r, binary.LittleEndian, &vertices); err != nil {
		return nil, fmt.Errorf("%w: vertices", ErrTruncatedFce)
	}
	normals := make([][3]float32, header.NumVertices)
	if err := binary.Read(r, binary.LittleEndian, &normals); err != nil {
		return nil, fmt.Errorf("%w: normals", ErrTruncatedFce)
	}
	triangles := make([]FceTriangle, header.NumTriangles)
	if err := binary.Read(r, binary.LittleEndian, &triangles); err != nil {
		return nil, fmt.Errorf("%w: triangles", ErrTruncatedFce)
	}
	damaged := make([][3]float32, header.NumVertices)
	if err := binary.Read(r, binary.LittleEndian, &damaged); err != nil {
		return nil, fmt.Errorf("%w: damaged vertices", ErrTruncatedFce)
	}

	fce := &Fce{
		HalfSize: types.Vector3d{
			X: float64(header.HalfSize[0]),
			Y: float64(header.HalfSize[1]),
			Z: float64(header.HalfSize[2]),
		},
	}

	for i := 0; i < int(header.NumDummies); i++ {
		fce.Dummies = append(fce.Dummies, FceDummy{
			Name:     dummyNames[i],
			Location: floatVector(header.Dummies[i]),
		})
	}

	for i := 0; i < int(header.NumParts); i++ {
		firstVertex := int(header.FirstVertex[i])
		numVertices := int(header.NumPartVertices[i])
		firstTriangle := int(header.FirstTriangle[i])
		numTriangles := int(header.NumPartTriangles[i])
		if firstVertex+numVertices > len(vertices) {
			return nil, fmt.Errorf("%w: part %d vertex window", ErrTruncatedFce, i)
		}
		if firstTriangle+numTriangles > len(triangles) {
			return nil, fmt.Errorf("%w: part %d triangle window", ErrTruncatedFce, i)
		}

		name := partNames[i]
		resolution := ResolutionHigh
		if known, ok := fcePartNames[name]; ok {
			name = known.name
			resolution = known.resolution
		}
		fce.Parts = append(fce.Parts, FcePart{
			Name:       name,
			Resolution: resolution,
			Location:   floatVector(header.PartLocations[i]),
			Vertices:   vertices[firstVertex : firstVertex+numVertices],
			Normals:    normals[firstVertex : firstVertex+numVertices],
			Damaged:    damaged[firstVertex : firstVertex+numVertices],
			Triangles:  triangles[firstTriangle : firstTriangle+numTriangles],
		})
	}
	return fce, nil
}

// ParseFceFile parses an FCE vehicle mesh from disk.
func ParseFceFile(path string) (*Fce, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading FCE file: %w", err)
	}
	return ParseFce(data)
}

// HighResParts converts the high-resolution parts to domain meshes.
// Part-local triangle indices are produced by rebasing each face on the
// part's vertex window, and the damaged vertex table becomes a damage
// shape key on every part.
func (f *Fce) HighResParts() ([]types.Part, error) {
	var parts []types.Part
	for i := range f.Parts {
		part := &f.Parts[i]
		if part.Resolution != ResolutionHigh {
			continue
		}
		mesh, err := makePartMesh(part)
		if err != nil {
			return nil, fmt.Errorf("part %q: %w", part.Name, err)
		}
		parts = append(parts, types.Part{
			Name:     part.Name,
			Location: part.Location,
			Mesh:     mesh,
		})
	}
	return parts, nil
}

// Lights decodes the dummies whose names describe vehicle lights. The
// first name byte selects the kind, the second the color, and a third
// byte of 'Y' marks a blinking light. Dummies with unknown codes are
// skipped.
func (f *Fce) Lights() []types.VehicleLight {
	var lights []types.VehicleLight
	for _, dummy := range f.Dummies {
		if len(dummy.Name) < 2 {
			continue
		}
		kind, ok := fceLightKinds[dummy.Name[0]]
		if !ok {
			continue
		}
		color, ok := fceLightColors[dummy.Name[1]]
		if !ok {
			continue
		}
		lights = append(lights, types.VehicleLight{
			Location: dummy.Location,
			Kind:     kind,
			Color:    color,
			Blinks:   len(dummy.Name) > 2 && dummy.Name[2] == 'Y',
		})
	}
	return lights
}

func makePartMesh(part *FcePart) (types.DrawableMesh, error) {
	vertices := make([]types.Vertex, len(part.Vertices))
	for i := range part.Vertices {
		normal := floatVector(part.Normals[i])
		vertices[i] = types.Vertex{
			Location: floatVector(part.Vertices[i]),
			Normal:   &normal,
		}
	}

	polygons := make([]types.Polygon, len(part.Triangles))
	for i, triangle := range part.Triangles {
		face := make([]int, 3)
		uv := make([]types.UV, 3)
		for c := 0; c < 3; c++ {
			index := int(triangle.Face[c])
			if index >= len(part.Vertices) {
				return types.DrawableMesh{}, fmt.Errorf("triangle %d corner index %d out of %d vertices",
					i, index, len(part.Vertices))
			}
			face[c] = index
			uv[c] = types.UV{U: float64(triangle.U[c]), V: 1 - float64(triangle.V[c])}
		}
		polygons[i] = types.Polygon{
			Face:             face,
			UV:               uv,
			Material:         int(triangle.Texture),
			BackfaceCulling:  triangle.Flags&fceFlagNoCulling == 0,
			Transparent:      triangle.Flags&fceFlagTransparent != 0,
			HighlyReflective: triangle.Flags&fceFlagHighlyReflective != 0,
			NonReflective:    triangle.Flags&fceFlagNonReflective != 0,
		}
	}

	damaged := make([]types.Vector3d, len(part.Damaged))
	for i, v := range part.Damaged {
		damaged[i] = floatVector(v)
	}

	return types.DrawableMesh{
		Vertices: vertices,
		Polygons: polygons,
		ShapeKeys: []types.ShapeKey{
			{Type: types.ShapeKeyDamage, Locations: damaged},
		},
	}, nil
}

func readFceName(r *bytes.Reader) (string, error) {
	raw := make([]byte, fceNameLength)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", ErrTruncatedFce
	}
	return readString(raw), nil
}
