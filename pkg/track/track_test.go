package track

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/e-rk/speedtools/pkg/types"
)

// trackWriter assembles binary fixtures.
type trackWriter struct {
	buf bytes.Buffer
}

func (w *trackWriter) le(v any)      { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *trackWriter) pad(n int)     { w.buf.Write(make([]byte, n)) }
func (w *trackWriter) bytes() []byte { return w.buf.Bytes() }

func (w *trackWriter) vec(x, y, z float32) {
	w.le([3]float32{x, y, z})
}

// buildFrd writes a one-segment track: a unit quad with one wall-tagged
// driveable polygon, numWaypoints waypoints, one light source of glow
// identifier 2, and one destructible object.
func buildFrd(numWaypoints int) []byte {
	var w trackWriter
	w.pad(28)
	w.le(uint32(1)) // segments

	w.le(uint32(4))
	w.vec(0, 0, 0)
	w.vec(1, 0, 0)
	w.vec(1, 0, 1)
	w.vec(0, 0, 1)
	w.pad(4 * 4) // shadings

	w.le(uint32(numWaypoints))
	for i := 0; i < numWaypoints; i++ {
		w.vec(float32(i), 0, 0.5)
	}

	w.le(uint32(1)) // light sources
	w.buf.WriteByte(2)
	w.pad(3)
	w.le([3]int32{7 << 16, 0, 0})

	w.le(uint32(1)) // object attributes
	w.buf.WriteByte(uint8(types.CollisionDestructible))
	w.pad(3)

	for c := 0; c < 11; c++ {
		if c == 4 {
			w.le(uint32(1))
			w.le([4]uint16{0, 1, 2, 3}) // face
			w.le(uint16(0))             // texture
			w.le(uint16(0))             // flags
			w.pad(2)                    // animation fields
		} else {
			w.le(uint32(0))
		}
	}

	w.le(uint32(1)) // driveable polygons
	w.le(uint16(0))
	w.buf.WriteByte(uint8(types.RoadDriveable))
	w.buf.WriteByte(uint8(types.EdgeFront))
	w.buf.WriteByte(1) // wall collision
	w.pad(3)

	w.le(uint32(1)) // object chunks
	w.le(uint32(1)) // objects
	w.buf.WriteByte(1)
	w.buf.WriteByte(0)
	w.pad(2)
	w.vec(5, 0, 5)
	w.le(uint32(1)) // object vertices
	w.vec(0, 0, 0)
	w.pad(4)        // shading
	w.le(uint32(0)) // object polygons

	w.le(uint32(0)) // global chunks
	return w.bytes()
}

// buildQfs wraps an FSH atlas of 1x1 32-bit bitmaps in a literal-only
// Refpack stream. Resources tagged mirrored carry a "<mirrored>" text
// block.
func buildQfs(names []string, mirrored map[string]bool) []byte {
	var fsh trackWriter
	fsh.buf.WriteString("SHPI")
	fsh.le(uint32(0))
	fsh.le(uint32(len(names)))
	fsh.buf.WriteString("GIMX")

	type pending struct{ patch, body int }
	directory := make([]pending, len(names))
	for i, name := range names {
		raw := make([]byte, 4)
		copy(raw, name)
		fsh.buf.Write(raw)
		directory[i].patch = fsh.buf.Len()
		fsh.le(uint32(0))
	}
	for i, name := range names {
		directory[i].body = fsh.buf.Len()
		next := 0
		if mirrored[name] {
			next = 4 + 12 + 4
		}
		fsh.buf.WriteByte(0x7D) // 32-bit bitmap
		fsh.buf.WriteByte(uint8(next))
		fsh.pad(2)
		fsh.le(uint16(1))
		fsh.le(uint16(1))
		fsh.pad(8)
		fsh.buf.Write([]byte{1, 2, 3, 4})
		if mirrored[name] {
			text := "<mirrored>"
			fsh.buf.WriteByte(0x6F)
			fsh.pad(3)
			fsh.le(uint16(len(text)))
			fsh.buf.WriteString(text)
		}
	}
	data := fsh.bytes()
	for _, p := range directory {
		binary.LittleEndian.PutUint32(data[p.patch:], uint32(p.body))
	}

	// Refpack wrapper: literal opcodes in multiples of four, stop
	// opcode for the tail.
	out := []byte{0x10, 0xFB, uint8(len(data) >> 16), uint8(len(data) >> 8), uint8(len(data))}
	rest := data
	for len(rest) >= 4 {
		n := len(rest) / 4 * 4
		if n > 112 {
			n = 112
		}
		out = append(out, 0xE0+uint8(n/4-1))
		out = append(out, rest[:n]...)
		rest = rest[n:]
	}
	out = append(out, 0xFC+uint8(len(rest)))
	return append(out, rest...)
}

const testIni = `
[track glows]
glow2=[255,255,128,0],1,250,0,1.5

[sun]
hasSun=1
angleRho=0.25
angleTheta=0.0
radius=2.0

[light]
AmbientRed=100
AmbientGreen=100
AmbientBlue=100

[strip]
hrzSunColor=[255,200,100]
hrzSkyTopColor=[0,0,64]
hrzOppositeSunColor=[32,32,32]
`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeTrackDir lays out a loadable base-variant track directory.
func writeTrackDir(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "TR.FRD"), buildFrd(2))
	writeFile(t, filepath.Join(dir, "TR0.QFS"), buildQfs([]string{"t0", "t1"}, map[string]bool{"t1": true}))
	writeFile(t, filepath.Join(dir, "TR.INI"), []byte(testIni))
	writeFile(t, filepath.Join(dir, "SKY.QFS"),
		buildQfs([]string{"HDC1", "HDC2", "HDW1", "HNC1", "SUND", "SUNN"}, nil))

	var cam trackWriter
	cam.le(int32(1))
	cam.vec(1, 2, 3)
	cam.le([9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1})
	writeFile(t, filepath.Join(dir, "TR.CAM"), cam.bytes())

	var can trackWriter
	can.le(uint16(1))
	can.le(uint16(16))
	can.le([3]int32{0, 0, 0})
	can.le([4]int16{0, 0, 0, 16384})
	writeFile(t, filepath.Join(dir, "TR02.CAN"), can.bytes())

	var heights trackWriter
	heights.le(int32(2))
	heights.le([]float32{3, 1.5})
	writeFile(t, filepath.Join(dir, "HEIGHTS.SIM"), heights.bytes())
}

func TestOpenTrack(t *testing.T) {
	dir := t.TempDir()
	writeTrackDir(t, dir)

	track, err := Open(dir, "", Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	segments := track.TrackSegments()
	if len(segments) != 1 {
		t.Fatalf("len(segments) = %d, want 1", len(segments))
	}
	segment := segments[0]
	if len(segment.Mesh.Vertices) != 4 {
		t.Errorf("mesh vertices = %d, want 4", len(segment.Mesh.Vertices))
	}
	// One driveable mesh plus the synthesized wall mesh.
	if len(segment.CollisionMeshes) != 2 {
		t.Fatalf("collision meshes = %d, want 2", len(segment.CollisionMeshes))
	}
	wall := segment.CollisionMeshes[1]
	if len(wall.Polygons) != 1 {
		t.Fatalf("wall polygons = %d, want 1", len(wall.Polygons))
	}
	if len(wall.Polygons[0].Face) != 4 {
		t.Errorf("wall face = %v, want a quad", wall.Polygons[0].Face)
	}
	// The closest samples carry heights 3 and 1.5; the minimum wins.
	var raised bool
	for _, vertex := range wall.Vertices {
		if vertex.Location.Y == 1.5 {
			raised = true
		}
		if vertex.Location.Y != 0 && vertex.Location.Y != 1.5 {
			t.Errorf("unexpected wall vertex height %v", vertex.Location.Y)
		}
	}
	if !raised {
		t.Error("no wall vertex raised to 1.5")
	}

	objects := track.Objects()
	if len(objects) != 1 {
		t.Fatalf("len(objects) = %d, want 1", len(objects))
	}
	obj := objects[0]
	if obj.CollisionType != types.CollisionDestructible {
		t.Errorf("CollisionType = %v", obj.CollisionType)
	}
	if len(obj.Actions) != 1 || obj.Actions[0].Action != types.ActionDestroyLowSpeed {
		t.Fatalf("Actions = %+v, want destroy low speed", obj.Actions)
	}
	if obj.Actions[0].Animation == nil || obj.Actions[0].Animation.Length != 1 {
		t.Errorf("destroy animation = %+v", obj.Actions[0].Animation)
	}

	lights := track.Lights()
	if len(lights) != 1 {
		t.Fatalf("len(lights) = %d, want 1", len(lights))
	}
	light := lights[0]
	if light.Location.X != 7 {
		t.Errorf("light location = %+v", light.Location)
	}
	if !light.Blinks || light.BlinkIntervalMs != 250 || light.FlareSize != 1.5 {
		t.Errorf("light = %+v", light)
	}
	if light.Color.Red != 255 || light.Color.Green != 128 {
		t.Errorf("light color = %+v", light.Color)
	}

	cameras := track.Cameras()
	if len(cameras) != 1 || cameras[0].Location.X != 1 {
		t.Errorf("cameras = %+v", cameras)
	}

	if track.Sun() == nil || track.Sun().Radius != 2 {
		t.Errorf("sun = %+v", track.Sun())
	}
	if track.Ambient().Red != 255 {
		t.Errorf("ambient = %+v", track.Ambient())
	}
	if track.Horizon().TopSide.Blue != 64 {
		t.Errorf("horizon = %+v", track.Horizon())
	}

	// Day weather-free skies are the "HDC" images with one index
	// character; other variants and the sun billboards are excluded.
	sky := track.SkyResources()
	if len(sky) != 2 || sky[0].Name != "HDC1" || sky[1].Name != "HDC2" {
		names := make([]string, len(sky))
		for i, r := range sky {
			names[i] = r.Name
		}
		t.Errorf("sky resources = %v, want [HDC1 HDC2]", names)
	}
	if sun, ok := track.SunResource(); !ok || sun.Name != "SUND" {
		t.Errorf("sun resource = %+v, ok = %v, want SUND", sun, ok)
	}

	// The mirrored variant "t1" is filtered out of the base variant.
	resources := track.TrackResources()
	if len(resources) != 1 || resources[0].Name != "t0" {
		t.Fatalf("resources = %+v, want only t0", resources)
	}
	resource, err := track.PolygonMaterial(segment.Mesh.Polygons[0])
	if err != nil {
		t.Fatalf("PolygonMaterial() error = %v", err)
	}
	if resource.Name != "t0" {
		t.Errorf("material = %q, want t0", resource.Name)
	}
	if _, err := track.PolygonMaterial(types.Polygon{Material: 9}); !errors.Is(err, ErrUnknownMaterial) {
		t.Errorf("out of range material error = %v, want ErrUnknownMaterial", err)
	}
	if _, err := track.PolygonMaterial(types.Polygon{IsLane: true}); !errors.Is(err, ErrUnknownSfx) {
		t.Errorf("lane without sfx error = %v, want ErrUnknownSfx", err)
	}
}

func TestOpenTrackMirrored(t *testing.T) {
	dir := t.TempDir()
	writeTrackDir(t, dir)

	track, err := Open(dir, "", Options{Mirrored: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	resources := track.TrackResources()
	names := make([]string, len(resources))
	for i, r := range resources {
		names[i] = r.Name
	}
	// Both survive: t0 is untagged, t1 is the mirrored variant.
	if len(names) != 2 || names[0] != "t0" || names[1] != "t1" {
		t.Errorf("resources = %v, want [t0 t1]", names)
	}
}

func TestOpenTrackMissing(t *testing.T) {
	if _, err := Open(t.TempDir(), "", Options{}); !errors.Is(err, ErrVariantNotFound) {
		t.Errorf("Open() error = %v, want ErrVariantNotFound", err)
	}
}

func TestResolveLightsUnknownGlow(t *testing.T) {
	stubs := []types.LightStub{{GlowID: 9}}
	glows := map[int]types.LightAttributes{2: {}}

	_, err := resolveLights(stubs, glows)
	if !errors.Is(err, ErrUnknownGlow) {
		t.Fatalf("resolveLights() error = %v, want ErrUnknownGlow", err)
	}
	if !strings.Contains(err.Error(), "glow9") {
		t.Errorf("resolveLights() error = %q, want the glow identifier named", err)
	}
}

func TestVariantFallback(t *testing.T) {
	dir := t.TempDir()
	writeTrackDir(t, dir)
	// The night geometry has three waypoints instead of two.
	writeFile(t, filepath.Join(dir, "TRN.FRD"), buildFrd(3))

	day, err := Open(dir, "", Options{})
	if err != nil {
		t.Fatalf("Open(day) error = %v", err)
	}
	if got := len(day.TrackSegments()[0].Waypoints); got != 2 {
		t.Errorf("day waypoints = %d, want 2", got)
	}

	// Night prefers TRN.FRD but falls back to the base variant for
	// every file that has no night version.
	night, err := Open(dir, "", Options{Night: true})
	if err != nil {
		t.Fatalf("Open(night) error = %v", err)
	}
	if got := len(night.TrackSegments()[0].Waypoints); got != 3 {
		t.Errorf("night waypoints = %d, want 3", got)
	}

	// Night plus weather walks NW, N, base.
	both, err := Open(dir, "", Options{Night: true, Weather: true})
	if err != nil {
		t.Fatalf("Open(night+weather) error = %v", err)
	}
	if got := len(both.TrackSegments()[0].Waypoints); got != 3 {
		t.Errorf("night+weather waypoints = %d, want 3", got)
	}
}

func TestWallHeightUsesMinimumOfNearest(t *testing.T) {
	samples := []heightSample{
		{location: types.Vector3d{X: 1}, height: 5},   // nearest
		{location: types.Vector3d{X: 2}, height: 2},   // second
		{location: types.Vector3d{X: 3}, height: 4},    // third
		{location: types.Vector3d{X: 50}, height: 0.1}, // far outlier, ignored
	}
	got := wallHeightAt(types.Vector3d{}, samples)
	if got != 2 {
		t.Errorf("wallHeightAt = %v, want 2 (minimum of three nearest)", got)
	}
}

func TestWallHeightFewSamples(t *testing.T) {
	if got := wallHeightAt(types.Vector3d{}, nil); got != 0 {
		t.Errorf("wallHeightAt(no samples) = %v, want 0", got)
	}
	samples := []heightSample{{location: types.Vector3d{X: 1}, height: 7}}
	if got := wallHeightAt(types.Vector3d{}, samples); got != 7 {
		t.Errorf("wallHeightAt(one sample) = %v, want 7", got)
	}
}
