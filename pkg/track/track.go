// Package track loads a complete track directory: geometry, textures,
// ambience and cameras, resolved for a chosen daytime, weather and
// mirror variant.
package track

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/e-rk/speedtools/pkg/formats"
	"github.com/e-rk/speedtools/pkg/types"
)

// Track loading errors.
var (
	ErrVariantNotFound = errors.New("no track file variant found")
	ErrUnknownMaterial = errors.New("unknown material")
	ErrUnknownSfx      = errors.New("unknown sfx resource")
	ErrUnknownGlow     = errors.New("unknown glow identifier")
)

// Options selects the track variant to load.
type Options struct {
	Mirrored bool
	Night    bool
	Weather  bool
}

// variantSuffixes returns the file suffix fallback chain for the
// options: the most specific variant first, the base variant last.
func (o Options) variantSuffixes() []string {
	switch {
	case o.Night && o.Weather:
		return []string{"NW", "N", ""}
	case o.Night:
		return []string{"N", ""}
	case o.Weather:
		return []string{"W", ""}
	default:
		return []string{""}
	}
}

// Track is a fully loaded track.
type Track struct {
	options Options

	segments  []types.TrackSegment
	objects   []types.TrackObject
	lights    []types.TrackLight
	cameras   []types.Camera
	resources []types.Resource
	sky       []types.Resource
	sfx       map[string]types.Resource
	ini       *formats.TrackIni
}

// Open loads the track in directory. gameRoot points at the game
// installation root and is used for the shared effect textures; it may
// be empty, in which case lane markings cannot be resolved.
func Open(directory, gameRoot string, options Options) (*Track, error) {
	track := &Track{options: options}

	frdPath, err := variantFile(directory, "TR", ".FRD", options)
	if err != nil {
		return nil, err
	}
	frd, err := formats.ParseFrdFile(frdPath)
	if err != nil {
		return nil, fmt.Errorf("track geometry: %w", err)
	}

	qfsPath, err := variantFile(directory, "TR", "0.QFS", options)
	if err != nil {
		return nil, err
	}
	atlas, err := formats.ParseQfsFile(qfsPath)
	if err != nil {
		return nil, fmt.Errorf("track textures: %w", err)
	}
	textures, err := atlas.TextureResources()
	if err != nil {
		return nil, fmt.Errorf("track textures: %w", err)
	}
	track.resources = types.UniqueResourceNames(filterMirrored(textures, options.Mirrored))

	iniPath, err := variantFile(directory, "TR", ".INI", options)
	if err != nil {
		return nil, err
	}
	track.ini, err = formats.ParseTrackIniFile(iniPath)
	if err != nil {
		return nil, fmt.Errorf("track ambience: %w", err)
	}

	if skyPath, err := variantFile(directory, "SKY", ".QFS", options); err == nil {
		skyAtlas, err := formats.ParseQfsFile(skyPath)
		if err != nil {
			return nil, fmt.Errorf("sky textures: %w", err)
		}
		sky, err := skyAtlas.TextureResources()
		if err != nil {
			return nil, fmt.Errorf("sky textures: %w", err)
		}
		track.sky = sky
	}

	if camPath, err := variantFile(directory, "TR", ".CAM", options); err == nil {
		track.cameras, err = formats.ParseCamFile(camPath)
		if err != nil {
			return nil, fmt.Errorf("track cameras: %w", err)
		}
	}

	if gameRoot != "" {
		sfxPath := filepath.Join(gameRoot, "Data", "GAMEART", "SFX.FSH")
		if _, err := os.Stat(sfxPath); err == nil {
			sfxAtlas, err := formats.ParseFshFile(sfxPath)
			if err != nil {
				return nil, fmt.Errorf("sfx textures: %w", err)
			}
			sfx, err := sfxAtlas.TextureResources()
			if err != nil {
				return nil, fmt.Errorf("sfx textures: %w", err)
			}
			track.sfx = make(map[string]types.Resource, len(sfx))
			for _, resource := range sfx {
				track.sfx[resource.Name] = resource
			}
		}
	}

	track.segments, err = frd.TrackSegments()
	if err != nil {
		return nil, fmt.Errorf("track segments: %w", err)
	}
	if heights, err := formats.ParseHeightsFile(filepath.Join(directory, "HEIGHTS.SIM")); err == nil {
		raiseWalls(track.segments, heights)
	}

	track.objects, err = frd.Objects()
	if err != nil {
		return nil, fmt.Errorf("track objects: %w", err)
	}
	attachDestroyActions(track.objects, directory)

	track.lights, err = resolveLights(frd.LightStubs(), track.ini.Glows)
	if err != nil {
		return nil, fmt.Errorf("track lights: %w", err)
	}
	return track, nil
}

// variantFile resolves prefix+variant+suffix inside directory, walking
// the fallback chain until an existing file is found.
func variantFile(directory, prefix, suffix string, options Options) (string, error) {
	for _, variant := range options.variantSuffixes() {
		path := filepath.Join(directory, prefix+variant+suffix)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s*%s in %s", ErrVariantNotFound, prefix, suffix, directory)
}

// filterMirrored keeps the texture variants matching the mirror option.
func filterMirrored(resources []types.Resource, mirrored bool) []types.Resource {
	kept := make([]types.Resource, 0, len(resources))
	for _, resource := range resources {
		if mirrored && resource.NonMirrored {
			continue
		}
		if !mirrored && resource.Mirrored {
			continue
		}
		kept = append(kept, resource)
	}
	return kept
}

// attachDestroyActions loads the destruction animations and attaches
// them to every destructible object. The animations are shared.
func attachDestroyActions(objects []types.TrackObject, directory string) {
	var actions []types.AnimationAction
	if animation, err := formats.ParseCanFile(filepath.Join(directory, "TR02.CAN")); err == nil {
		actions = append(actions, types.AnimationAction{
			Action:    types.ActionDestroyLowSpeed,
			Animation: animation,
		})
	}
	if animation, err := formats.ParseCanFile(filepath.Join(directory, "TR03.CAN")); err == nil {
		actions = append(actions, types.AnimationAction{
			Action:    types.ActionDestroyHighSpeed,
			Animation: animation,
		})
	}
	if len(actions) == 0 {
		return
	}
	for i := range objects {
		if objects[i].CollisionType == types.CollisionDestructible {
			objects[i].Actions = append(objects[i].Actions, actions...)
		}
	}
}

// resolveLights joins light stubs with their glow attributes. A stub
// whose glow identifier has no attribute entry is an error: the INI
// table must describe every glow the geometry references.
func resolveLights(stubs []types.LightStub, glows map[int]types.LightAttributes) ([]types.TrackLight, error) {
	lights := make([]types.TrackLight, 0, len(stubs))
	for _, stub := range stubs {
		glow, ok := glows[stub.GlowID]
		if !ok {
			return nil, fmt.Errorf("%w: glow%d", ErrUnknownGlow, stub.GlowID)
		}
		lights = append(lights, types.TrackLight{
			Location:        stub.Location,
			Color:           glow.Color,
			Blinks:          glow.Blinks,
			BlinkIntervalMs: glow.BlinkIntervalMs,
			FlareSize:       glow.FlareSize,
		})
	}
	return lights, nil
}

// TrackSegments returns the track geometry, one entry per segment, with
// synthesized walls included in the collision meshes.
func (t *Track) TrackSegments() []types.TrackSegment { return t.segments }

// Objects returns all placed track objects, destruction animations
// attached to destructible ones.
func (t *Track) Objects() []types.TrackObject { return t.objects }

// Lights returns the resolved track lights.
func (t *Track) Lights() []types.TrackLight { return t.lights }

// Cameras returns the replay camera positions, if the track has any.
func (t *Track) Cameras() []types.Camera { return t.cameras }

// TrackResources returns the track textures with unique names, indexed
// by material identifier.
func (t *Track) TrackResources() []types.Resource { return t.resources }

// Sun returns the track sun, or nil when the track has none.
func (t *Track) Sun() *types.DirectionalLight { return t.ini.Sun }

// Ambient returns the ambient light color.
func (t *Track) Ambient() types.Color { return t.ini.Ambient }

// Horizon returns the horizon strip colors.
func (t *Track) Horizon() types.Horizon { return t.ini.Horizon }

// PolygonMaterial resolves the texture resource of a drawable polygon.
// Lane markings live in the shared effect atlas, everything else in the
// track atlas.
func (t *Track) PolygonMaterial(polygon types.Polygon) (types.Resource, error) {
	if polygon.IsLane {
		name := "lin" + strconv.Itoa(polygon.Material)
		resource, ok := t.sfx[name]
		if !ok {
			return types.Resource{}, fmt.Errorf("%w: %s", ErrUnknownSfx, name)
		}
		return resource, nil
	}
	if polygon.Material < 0 || polygon.Material >= len(t.resources) {
		return types.Resource{}, fmt.Errorf("%w: %d of %d", ErrUnknownMaterial, polygon.Material, len(t.resources))
	}
	return t.resources[polygon.Material], nil
}

// SkyResources returns the sky dome textures for the loaded variant.
// Sky image names are the variant prefix plus one index character,
// like "HDC1".
func (t *Track) SkyResources() []types.Resource {
	prefix := skyName(t.options)
	var matched []types.Resource
	for _, resource := range t.sky {
		if len(resource.Name) == len(prefix)+1 && strings.HasPrefix(resource.Name, prefix) {
			matched = append(matched, resource)
		}
	}
	return matched
}

// SunResource returns the sun billboard texture for the loaded variant.
// Weather takes precedence over night.
func (t *Track) SunResource() (types.Resource, bool) {
	name := "SUND"
	switch {
	case t.options.Weather:
		name = "SUNW"
	case t.options.Night:
		name = "SUNN"
	}
	for _, resource := range t.sky {
		if resource.Name == name {
			return resource, true
		}
	}
	return types.Resource{}, false
}

func dayChar(options Options) string {
	if options.Night {
		return "N"
	}
	return "D"
}

func skyName(options Options) string {
	if options.Weather {
		return "H" + dayChar(options) + "W"
	}
	return "H" + dayChar(options) + "C"
}
