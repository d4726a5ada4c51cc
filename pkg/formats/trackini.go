// Track INI parser. The INI file carries the track ambience: glow
// attributes for light sources, the sun light, ambient color, and the
// horizon gradient.
package formats

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/e-rk/speedtools/pkg/types"
)

// ErrInvalidGlow reports a malformed glow attribute line.
var ErrInvalidGlow = errors.New("invalid glow attributes")

// TrackIni is the parsed track ambience description.
type TrackIni struct {
	Glows   map[int]types.LightAttributes
	Sun     *types.DirectionalLight
	Ambient types.Color
	Horizon types.Horizon
}

// ParseTrackIni parses track ambience from raw INI bytes.
func ParseTrackIni(data []byte) (*TrackIni, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading track INI: %w", err)
	}
	result := &TrackIni{Glows: make(map[int]types.LightAttributes)}

	for _, key := range file.Section("track glows").Keys() {
		var id int
		if _, err := fmt.Sscanf(key.Name(), "glow%d", &id); err != nil {
			continue
		}
		attributes, err := parseGlow(id, key.Value())
		if err != nil {
			return nil, err
		}
		result.Glows[id] = attributes
	}

	sun := file.Section("sun")
	if sun.Key("hasSun").MustInt(0) != 0 {
		// Angles are stored in turns.
		result.Sun = &types.DirectionalLight{
			Rho:    sun.Key("angleRho").MustFloat64(0) * 2 * math.Pi,
			Theta:  sun.Key("angleTheta").MustFloat64(0) * 2 * math.Pi,
			Radius: sun.Key("radius").MustFloat64(0),
		}
	}

	light := file.Section("light")
	result.Ambient = types.Color{
		Red:   percentColor(light.Key("AmbientRed").MustFloat64(0)),
		Green: percentColor(light.Key("AmbientGreen").MustFloat64(0)),
		Blue:  percentColor(light.Key("AmbientBlue").MustFloat64(0)),
		Alpha: 255,
	}

	strip := file.Section("strip")
	result.Horizon = types.Horizon{
		SunSide:      parseRGB(strip.Key("hrzSunColor").String()),
		TopSide:      parseRGB(strip.Key("hrzSkyTopColor").String()),
		OppositeSide: parseRGB(strip.Key("hrzOppositeSunColor").String()),
	}
	return result, nil
}

// ParseTrackIniFile parses track ambience from disk.
func ParseTrackIniFile(path string) (*TrackIni, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading track INI: %w", err)
	}
	return ParseTrackIni(data)
}

// parseGlow decodes a "[a,r,g,b],blinks,interval,unused,flareSize"
// attribute line.
func parseGlow(id int, value string) (types.LightAttributes, error) {
	value = strings.ReplaceAll(value, " ", "")
	var a, r, g, b, blinks, interval, unused int
	var flareSize float64
	_, err := fmt.Sscanf(value, "[%d,%d,%d,%d],%d,%d,%d,%f",
		&a, &r, &g, &b, &blinks, &interval, &unused, &flareSize)
	if err != nil {
		return types.LightAttributes{}, fmt.Errorf("%w: glow%d=%q", ErrInvalidGlow, id, value)
	}
	return types.LightAttributes{
		Identifier:      id,
		Color:           types.Color{Red: uint8(r), Green: uint8(g), Blue: uint8(b), Alpha: uint8(a)},
		Blinks:          blinks != 0,
		BlinkIntervalMs: interval,
		FlareSize:       flareSize,
	}, nil
}

// parseRGB decodes a "[r,g,b]" color. Malformed values yield black.
func parseRGB(value string) types.Color {
	value = strings.ReplaceAll(value, " ", "")
	var r, g, b int
	if _, err := fmt.Sscanf(value, "[%d,%d,%d]", &r, &g, &b); err != nil {
		return types.Color{Alpha: 255}
	}
	return types.Color{Red: uint8(r), Green: uint8(g), Blue: uint8(b), Alpha: 255}
}

func percentColor(percent float64) uint8 {
	value := percent * 255 / 100
	if value < 0 {
		value = 0
	}
	if value > 255 {
		value = 255
	}
	return uint8(value)
}
