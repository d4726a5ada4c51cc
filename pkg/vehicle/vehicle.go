// Package vehicle loads a vehicle archive: body and interior meshes,
// textures, performance data and engine sounds.
package vehicle

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/e-rk/speedtools/pkg/formats"
	"github.com/e-rk/speedtools/pkg/types"
)

// Vehicle loading errors.
var (
	ErrNoBodyMesh = errors.New("archive has no body mesh")
)

// EngineSound joins a bank stream with its load and coast envelope
// table entries. At least one of Load and Coast is set.
type EngineSound struct {
	Patch  int
	Stream *types.AudioStream
	Load   *formats.SoundTableEntry
	Coast  *formats.SoundTableEntry
}

// Vehicle is a fully loaded vehicle archive.
type Vehicle struct {
	Body         []types.Part
	Interior     []types.Part
	Lights       []types.VehicleLight
	Materials    map[string]types.Resource
	Performance  *formats.Performance
	EngineSounds []EngineSound
}

// bodyMeshNames lists the body mesh entry names in load preference
// order. Helicopter opponents ship "hel.fce" instead of "car.fce".
var bodyMeshNames = []string{"car.fce", "hel.fce"}

// Load reads a vehicle VIV archive from disk.
func Load(path string) (*Vehicle, error) {
	archive, err := formats.ParseVivFile(path)
	if err != nil {
		return nil, fmt.Errorf("vehicle archive: %w", err)
	}
	return FromArchive(archive)
}

// FromArchive assembles a vehicle from a parsed archive.
func FromArchive(archive *formats.Viv) (*Vehicle, error) {
	vehicle := &Vehicle{Materials: make(map[string]types.Resource)}

	body, err := bodyMesh(archive)
	if err != nil {
		return nil, err
	}
	vehicle.Body, err = body.HighResParts()
	if err != nil {
		return nil, fmt.Errorf("body mesh: %w", err)
	}
	vehicle.Lights = body.Lights()

	if entry, ok := archive.Entry("dash.fce"); ok {
		interior, err := formats.ParseFce(entry.Body)
		if err != nil {
			return nil, fmt.Errorf("interior mesh: %w", err)
		}
		vehicle.Interior, err = interior.HighResParts()
		if err != nil {
			return nil, fmt.Errorf("interior mesh: %w", err)
		}
	}

	for _, entry := range archive.Entries {
		if !strings.EqualFold(filepath.Ext(entry.Name), ".tga") {
			continue
		}
		name := strings.TrimSuffix(entry.Name, filepath.Ext(entry.Name))
		vehicle.Materials[name] = types.Resource{
			Name:  name,
			Image: types.RawImage{Data: entry.Body},
		}
	}

	if entry, ok := archive.Entry("carp.txt"); ok {
		vehicle.Performance, err = formats.ParsePerformance(entry.Body)
		if err != nil {
			return nil, fmt.Errorf("performance data: %w", err)
		}
	}

	vehicle.EngineSounds, err = engineSounds(archive)
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

// BodyTexture returns the main body texture, if the archive has one.
func (v *Vehicle) BodyTexture() (types.Resource, bool) {
	for _, name := range []string{"car00", "hel00"} {
		if resource, ok := v.Materials[name]; ok {
			return resource, true
		}
	}
	return types.Resource{}, false
}

// InteriorTexture returns the dashboard texture, if the archive has one.
func (v *Vehicle) InteriorTexture() (types.Resource, bool) {
	resource, ok := v.Materials["dash00"]
	return resource, ok
}

func bodyMesh(archive *formats.Viv) (*formats.Fce, error) {
	for _, name := range bodyMeshNames {
		entry, ok := archive.Entry(name)
		if !ok {
			continue
		}
		mesh, err := formats.ParseFce(entry.Body)
		if err != nil {
			return nil, fmt.Errorf("body mesh %s: %w", name, err)
		}
		return mesh, nil
	}
	return nil, ErrNoBodyMesh
}

// engineSounds joins the sound bank with the load and coast tables.
// Bank streams referenced by neither table are dropped, and so are
// table entries whose patch has no stream.
func engineSounds(archive *formats.Viv) ([]EngineSound, error) {
	entry, ok := archive.Entry("car.bnk")
	if !ok {
		return nil, nil
	}
	bank, err := formats.ParseBnk(entry.Body)
	if err != nil {
		return nil, fmt.Errorf("sound bank: %w", err)
	}
	load, err := soundTable(archive, "car.ctb")
	if err != nil {
		return nil, err
	}
	coast, err := soundTable(archive, "car.ltb")
	if err != nil {
		return nil, err
	}

	var sounds []EngineSound
	for patch, stream := range bank.Streams {
		if stream == nil {
			continue
		}
		sound := EngineSound{Patch: patch, Stream: stream}
		if load != nil {
			if entry, ok := load.Entry(patch); ok {
				e := entry
				sound.Load = &e
			}
		}
		if coast != nil {
			if entry, ok := coast.Entry(patch); ok {
				e := entry
				sound.Coast = &e
			}
		}
		if sound.Load == nil && sound.Coast == nil {
			continue
		}
		sounds = append(sounds, sound)
	}
	return sounds, nil
}

func soundTable(archive *formats.Viv, name string) (*formats.SoundTable, error) {
	entry, ok := archive.Entry(name)
	if !ok {
		return nil, nil
	}
	table, err := formats.ParseSoundTable(entry.Body)
	if err != nil {
		return nil, fmt.Errorf("sound table %s: %w", name, err)
	}
	return table, nil
}
