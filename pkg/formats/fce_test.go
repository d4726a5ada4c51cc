package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/e-rk/speedtools/pkg/types"
)

// fceFixture describes a single-part test mesh.
type fceFixture struct {
	partName  string
	dummyName string
	triFlags  uint32
}

// makeFce builds a mesh with one part of three vertices and one
// triangle, and one dummy marker.
func makeFce(f fceFixture) []byte {
	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	w(uint32(0))          // unknown
	w(uint32(fceVersion)) // version
	w(uint32(0))          // unknown
	w(uint32(1))          // triangles
	w(uint32(3))          // vertices
	w(uint32(0))          // unknown
	w(uint32(0))          // vertex table offset
	w(uint32(0))          // normal table offset
	w(uint32(0))          // triangle table offset
	w([2]uint32{})        // unknown
	w(uint32(0))          // damaged vertex table offset
	w(uint32(0))          // damaged normal table offset
	w([2]uint32{})        // unknown
	w([3]float32{2, 1, 4})
	w(uint32(1)) // dummies
	var dummies [fceMaxDummies][3]float32
	dummies[0] = [3]float32{0.5, 1.5, 2.5}
	w(dummies)
	w(uint32(1)) // parts
	var locations [fceMaxParts][3]float32
	locations[0] = [3]float32{1, 2, 3}
	w(locations)
	var firstVertex, numVertices, firstTriangle, numTriangles [fceMaxParts]uint32
	numVertices[0] = 3
	numTriangles[0] = 1
	w(firstVertex)
	w(numVertices)
	w(firstTriangle)
	w(numTriangles)

	name := func(s string) {
		raw := make([]byte, fceNameLength)
		copy(raw, s)
		buf.Write(raw)
	}
	name(f.dummyName)
	for i := 1; i < fceMaxDummies; i++ {
		name("")
	}
	name(f.partName)
	for i := 1; i < fceMaxParts; i++ {
		name("")
	}

	w([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}) // vertices
	w([][3]float32{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}}) // normals
	w(FceTriangle{
		Texture: 3,
		Face:    [3]uint32{0, 1, 2},
		Flags:   f.triFlags,
		U:       [3]float32{0, 1, 0},
		V:       [3]float32{0, 0, 1},
	})
	w([][3]float32{{0, 0.25, 0}, {1, 0.25, 0}, {0, 1.25, 0}}) // damaged
	return buf.Bytes()
}

func TestParseFce(t *testing.T) {
	fce, err := ParseFce(makeFce(fceFixture{partName: ":HB", dummyName: "HW"}))
	if err != nil {
		t.Fatalf("ParseFce() error = %v", err)
	}
	if len(fce.Parts) != 1 {
		t.Fatalf("len(Parts) = %d, want 1", len(fce.Parts))
	}
	part := fce.Parts[0]
	if part.Name != "body" {
		t.Errorf("part name = %q, want %q", part.Name, "body")
	}
	if part.Resolution != ResolutionHigh {
		t.Errorf("resolution = %v, want ResolutionHigh", part.Resolution)
	}
	if part.Location.X != 1 || part.Location.Y != 2 || part.Location.Z != 3 {
		t.Errorf("location = %+v", part.Location)
	}
	if len(part.Vertices) != 3 || len(part.Triangles) != 1 {
		t.Errorf("part windows = %d vertices, %d triangles", len(part.Vertices), len(part.Triangles))
	}
	if fce.HalfSize.X != 2 || fce.HalfSize.Y != 1 || fce.HalfSize.Z != 4 {
		t.Errorf("half size = %+v", fce.HalfSize)
	}
}

func TestParseFceBadVersion(t *testing.T) {
	data := makeFce(fceFixture{partName: ":HB"})
	binary.LittleEndian.PutUint32(data[4:], 0xDEAD)
	if _, err := ParseFce(data); !errors.Is(err, ErrInvalidFceVersion) {
		t.Errorf("ParseFce() error = %v, want ErrInvalidFceVersion", err)
	}
}

func TestParseFceTruncated(t *testing.T) {
	data := makeFce(fceFixture{partName: ":HB"})
	for _, n := range []int{0, 16, len(data) / 2, len(data) - 4} {
		if _, err := ParseFce(data[:n]); !errors.Is(err, ErrTruncatedFce) {
			t.Errorf("ParseFce(%d bytes) error = %v, want ErrTruncatedFce", n, err)
		}
	}
}

func TestParseFceUnknownPartName(t *testing.T) {
	fce, err := ParseFce(makeFce(fceFixture{partName: ":XYZZY"}))
	if err != nil {
		t.Fatalf("ParseFce() error = %v", err)
	}
	part := fce.Parts[0]
	if part.Name != ":XYZZY" {
		t.Errorf("part name = %q, want raw tag", part.Name)
	}
	if part.Resolution != ResolutionHigh {
		t.Errorf("resolution = %v, want ResolutionHigh", part.Resolution)
	}
}

func TestHighResParts(t *testing.T) {
	fce, err := ParseFce(makeFce(fceFixture{partName: ":MB"}))
	if err != nil {
		t.Fatalf("ParseFce() error = %v", err)
	}
	parts, err := fce.HighResParts()
	if err != nil {
		t.Fatalf("HighResParts() error = %v", err)
	}
	if len(parts) != 0 {
		t.Fatalf("medium part kept: %+v", parts)
	}

	fce, err = ParseFce(makeFce(fceFixture{partName: ":HB"}))
	if err != nil {
		t.Fatalf("ParseFce() error = %v", err)
	}
	parts, err = fce.HighResParts()
	if err != nil {
		t.Fatalf("HighResParts() error = %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("len(parts) = %d, want 1", len(parts))
	}
	mesh := parts[0].Mesh
	if len(mesh.Vertices) != 3 || len(mesh.Polygons) != 1 {
		t.Fatalf("mesh = %d vertices, %d polygons", len(mesh.Vertices), len(mesh.Polygons))
	}
	polygon := mesh.Polygons[0]
	if polygon.Material != 3 {
		t.Errorf("material = %d, want 3", polygon.Material)
	}
	// V coordinates are flipped.
	if got := polygon.UV[2]; got.U != 0 || math.Abs(got.V-0) > 1e-9 {
		t.Errorf("UV[2] = %+v, want {0 0}", got)
	}
	if got := polygon.UV[0]; math.Abs(got.V-1) > 1e-9 {
		t.Errorf("UV[0].V = %v, want 1", got.V)
	}
	if !polygon.BackfaceCulling {
		t.Error("BackfaceCulling = false, want true when culling flag unset")
	}
	if len(mesh.ShapeKeys) != 1 || mesh.ShapeKeys[0].Type != types.ShapeKeyDamage {
		t.Fatalf("shape keys = %+v", mesh.ShapeKeys)
	}
	if got := mesh.ShapeKeys[0].Locations[0].Y; math.Abs(got-0.25) > 1e-9 {
		t.Errorf("damaged Y = %v, want 0.25", got)
	}
}

func TestHighResPartsTriangleFlags(t *testing.T) {
	fce, err := ParseFce(makeFce(fceFixture{
		partName: ":HB",
		triFlags: fceFlagTransparent | fceFlagNoCulling | fceFlagNonReflective,
	}))
	if err != nil {
		t.Fatalf("ParseFce() error = %v", err)
	}
	parts, err := fce.HighResParts()
	if err != nil {
		t.Fatalf("HighResParts() error = %v", err)
	}
	polygon := parts[0].Mesh.Polygons[0]
	if !polygon.Transparent || !polygon.NonReflective || polygon.HighlyReflective {
		t.Errorf("flags = %+v", polygon)
	}
	if polygon.BackfaceCulling {
		t.Error("BackfaceCulling = true, want false when culling flag set")
	}
}

func TestLights(t *testing.T) {
	tests := []struct {
		name   string
		dummy  string
		want   []types.VehicleLight
	}{
		{
			name:  "white headlight",
			dummy: "HW",
			want: []types.VehicleLight{{
				Kind:  types.VehicleHeadlight,
				Color: types.Color{Red: 255, Green: 255, Blue: 255, Alpha: 255},
			}},
		},
		{
			name:  "blinking red siren",
			dummy: "SRY",
			want: []types.VehicleLight{{
				Kind:   types.VehicleSiren,
				Color:  types.Color{Red: 255, Alpha: 255},
				Blinks: true,
			}},
		},
		{
			name:  "unknown kind skipped",
			dummy: "XW",
		},
		{
			name:  "unknown color skipped",
			dummy: "HQ",
		},
		{
			name:  "empty name skipped",
			dummy: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fce, err := ParseFce(makeFce(fceFixture{partName: ":HB", dummyName: tt.dummy}))
			if err != nil {
				t.Fatalf("ParseFce() error = %v", err)
			}
			lights := fce.Lights()
			if len(lights) != len(tt.want) {
				t.Fatalf("len(lights) = %d, want %d", len(lights), len(tt.want))
			}
			for i, want := range tt.want {
				got := lights[i]
				if got.Kind != want.Kind || got.Color != want.Color || got.Blinks != want.Blinks {
					t.Errorf("light %d = %+v, want %+v", i, got, want)
				}
				if got.Location.X != 0.5 {
					t.Errorf("light %d location = %+v", i, got.Location)
				}
			}
		})
	}
}
