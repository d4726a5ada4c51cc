// FSH texture atlas parser. An FSH file is a "SHPI" directory of named
// resources; each resource is a chain of typed blocks holding bitmaps,
// palettes and free-text metadata.
package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/e-rk/speedtools/pkg/types"
)

// FSH format errors.
var (
	ErrInvalidFshMagic  = errors.New("invalid FSH magic: expected 'SHPI'")
	ErrTruncatedFsh     = errors.New("truncated FSH data")
	ErrUnknownBlockType = errors.New("unknown FSH block type")
	ErrMissingBitmap    = errors.New("resource has no bitmap block")
	ErrAmbiguousBitmap  = errors.New("resource has multiple bitmap blocks")
	ErrMissingPalette   = errors.New("8-bit bitmap has no palette block")
)

// FshDataType identifies an FSH block kind. The set is fixed and closed.
type FshDataType uint8

const (
	FshBitmap8      FshDataType = 0x7B // palette-indexed, 1 byte per pixel
	FshBitmap16     FshDataType = 0x78 // RGB565
	FshBitmap16A    FshDataType = 0x7E // ARGB1555
	FshBitmap32     FshDataType = 0x7D // BGRA
	FshPaletteBlock FshDataType = 0x2A
	FshTextBlock    FshDataType = 0x6F
)

// String returns a human-readable block type name.
func (t FshDataType) String() string {
	switch t {
	case FshBitmap8:
		return "Bitmap8"
	case FshBitmap16:
		return "Bitmap16"
	case FshBitmap16A:
		return "Bitmap16Alpha"
	case FshBitmap32:
		return "Bitmap32"
	case FshPaletteBlock:
		return "Palette"
	case FshTextBlock:
		return "Text"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
	}
}

// FshBlock is one typed block of a resource chain.
type FshBlock interface {
	fshBlock()
}

// FshBitmap is an undecoded bitmap block. Data holds the raw pixels in
// the encoding named by Code.
type FshBitmap struct {
	Code   FshDataType
	Width  int
	Height int
	Data   []byte
}

func (FshBitmap) fshBlock() {}

// FshPalette is a color table for sibling 8-bit bitmaps.
type FshPalette struct {
	Colors []types.Color
}

func (FshPalette) fshBlock() {}

// FshText is a free-text metadata block carrying substring markers such
// as "<mirrored>" and "<additive>".
type FshText struct {
	Text string
}

func (FshText) fshBlock() {}

// FshResource is one named entry of the atlas directory. Err is set when
// the resource body could not be parsed; other resources in the same
// atlas are unaffected.
type FshResource struct {
	Name   string
	Blocks []FshBlock
	Err    error
}

// Fsh is a parsed texture atlas.
type Fsh struct {
	Resources []FshResource
}

const fshHeaderSize = 16

// ParseFsh parses an FSH atlas from raw bytes. Malformed individual
// resources are recorded on the resource and do not fail the atlas.
func ParseFsh(data []byte) (*Fsh, error) {
	if len(data) < fshHeaderSize {
		return nil, ErrTruncatedFsh
	}
	if string(data[:4]) != "SHPI" {
		return nil, ErrInvalidFshMagic
	}
	numResources := int(binary.LittleEndian.Uint32(data[8:]))

	fsh := &Fsh{Resources: make([]FshResource, 0, numResources)}
	offset := fshHeaderSize
	for i := 0; i < numResources; i++ {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("%w: directory entry %d", ErrTruncatedFsh, i)
		}
		name := readString(data[offset : offset+4])
		bodyOffset := int(binary.LittleEndian.Uint32(data[offset+4:]))
		offset += 8

		resource := FshResource{Name: name}
		blocks, err := parseBlocks(data, bodyOffset)
		if err != nil {
			resource.Err = fmt.Errorf("resource %q: %w", name, err)
		} else {
			resource.Blocks = blocks
		}
		fsh.Resources = append(fsh.Resources, resource)
	}
	return fsh, nil
}

// ParseFshFile parses an FSH atlas from disk.
func ParseFshFile(path string) (*Fsh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading FSH file: %w", err)
	}
	return ParseFsh(data)
}

// parseBlocks walks the block chain starting at offset. Each block opens
// with a code byte and a 24-bit offset to the next block (0 = last).
func parseBlocks(data []byte, offset int) ([]FshBlock, error) {
	var blocks []FshBlock
	for {
		if offset < 0 || offset+4 > len(data) {
			return nil, fmt.Errorf("%w: block header at %d", ErrTruncatedFsh, offset)
		}
		code := FshDataType(data[offset])
		next := int(data[offset+1]) | int(data[offset+2])<<8 | int(data[offset+3])<<16
		body := data[offset+4:]

		block, err := parseBlock(code, body)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)

		if next == 0 {
			return blocks, nil
		}
		offset += next
	}
}

func parseBlock(code FshDataType, body []byte) (FshBlock, error) {
	switch code {
	case FshBitmap8, FshBitmap16, FshBitmap16A, FshBitmap32:
		if len(body) < 12 {
			return nil, fmt.Errorf("%w: bitmap block header", ErrTruncatedFsh)
		}
		width := int(binary.LittleEndian.Uint16(body[0:]))
		height := int(binary.LittleEndian.Uint16(body[2:]))
		size := width * height * bytesPerPixel(code)
		if len(body) < 12+size {
			return nil, fmt.Errorf("%w: %dx%d %s pixel data", ErrTruncatedFsh, width, height, code)
		}
		return FshBitmap{Code: code, Width: width, Height: height, Data: body[12 : 12+size]}, nil
	case FshPaletteBlock:
		if len(body) < 12 {
			return nil, fmt.Errorf("%w: palette block header", ErrTruncatedFsh)
		}
		count := int(binary.LittleEndian.Uint16(body[0:]))
		if len(body) < 12+count*4 {
			return nil, fmt.Errorf("%w: palette with %d colors", ErrTruncatedFsh, count)
		}
		colors := make([]types.Color, count)
		for i := range colors {
			colors[i] = bgraColor(body[12+i*4:])
		}
		return FshPalette{Colors: colors}, nil
	case FshTextBlock:
		if len(body) < 2 {
			return nil, fmt.Errorf("%w: text block header", ErrTruncatedFsh)
		}
		length := int(binary.LittleEndian.Uint16(body[0:]))
		if len(body) < 2+length {
			return nil, fmt.Errorf("%w: text block of %d bytes", ErrTruncatedFsh, length)
		}
		return FshText{Text: string(body[2 : 2+length])}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownBlockType, uint8(code))
	}
}

func bytesPerPixel(code FshDataType) int {
	switch code {
	case FshBitmap8:
		return 1
	case FshBitmap16, FshBitmap16A:
		return 2
	default:
		return 4
	}
}

func bgraColor(b []byte) types.Color {
	return types.Color{Blue: b[0], Green: b[1], Red: b[2], Alpha: b[3]}
}

// TextureResources converts every parseable resource into a decoded
// domain resource. Failures are joined into the returned error but never
// prevent the remaining resources from decoding.
func (f *Fsh) TextureResources() ([]types.Resource, error) {
	resources := make([]types.Resource, 0, len(f.Resources))
	var errs []error
	for _, resource := range f.Resources {
		if resource.Err != nil {
			errs = append(errs, resource.Err)
			continue
		}
		converted, err := makeResource(resource)
		if err != nil {
			errs = append(errs, fmt.Errorf("resource %q: %w", resource.Name, err))
			continue
		}
		resources = append(resources, converted)
	}
	return resources, errors.Join(errs...)
}

func makeResource(resource FshResource) (types.Resource, error) {
	bitmap, err := oneBitmap(resource.Blocks)
	if err != nil {
		return types.Resource{}, err
	}
	decoded, err := decodeBitmap(bitmap, resource.Blocks)
	if err != nil {
		return types.Resource{}, err
	}

	var text string
	for _, block := range resource.Blocks {
		if t, ok := block.(FshText); ok {
			text = t.Text
			break
		}
	}
	additive := strings.Contains(text, "<additive>")

	blendMode := types.BlendNone
	switch {
	case bitmap.Code == FshBitmap32:
		blendMode = types.BlendAlpha
	case additive:
		blendMode = types.BlendAdditive
	}
	return types.Resource{
		Name:        resource.Name,
		Image:       decoded,
		Mirrored:    strings.Contains(text, "<mirrored>"),
		NonMirrored: strings.Contains(text, "<nonmirrored>"),
		BlendMode:   blendMode,
	}, nil
}

func oneBitmap(blocks []FshBlock) (FshBitmap, error) {
	var found *FshBitmap
	for _, block := range blocks {
		bitmap, ok := block.(FshBitmap)
		if !ok {
			continue
		}
		if found != nil {
			return FshBitmap{}, ErrAmbiguousBitmap
		}
		b := bitmap
		found = &b
	}
	if found == nil {
		return FshBitmap{}, ErrMissingBitmap
	}
	return *found, nil
}

// decodeBitmap expands an encoded bitmap block into an RGBA bitmap.
// 8-bit bitmaps require a sibling palette in the same resource.
func decodeBitmap(bitmap FshBitmap, blocks []FshBlock) (types.Bitmap, error) {
	pixels := bitmap.Width * bitmap.Height
	out := make([]byte, pixels*4)

	switch bitmap.Code {
	case FshBitmap8:
		var palette *FshPalette
		for _, block := range blocks {
			if p, ok := block.(FshPalette); ok {
				palette = &p
				break
			}
		}
		if palette == nil {
			return types.Bitmap{}, ErrMissingPalette
		}
		for i, idx := range bitmap.Data {
			if int(idx) >= len(palette.Colors) {
				return types.Bitmap{}, fmt.Errorf("palette index %d out of range (%d colors)", idx, len(palette.Colors))
			}
			putColor(out[i*4:], palette.Colors[idx])
		}
	case FshBitmap16:
		for i := 0; i < pixels; i++ {
			v := binary.LittleEndian.Uint16(bitmap.Data[i*2:])
			out[i*4+0] = expand5(uint8(v >> 11 & 0x1F))
			out[i*4+1] = expand6(uint8(v >> 5 & 0x3F))
			out[i*4+2] = expand5(uint8(v & 0x1F))
			out[i*4+3] = 0xFF
		}
	case FshBitmap16A:
		for i := 0; i < pixels; i++ {
			v := binary.LittleEndian.Uint16(bitmap.Data[i*2:])
			out[i*4+0] = expand5(uint8(v >> 10 & 0x1F))
			out[i*4+1] = expand5(uint8(v >> 5 & 0x1F))
			out[i*4+2] = expand5(uint8(v & 0x1F))
			if v&0x8000 != 0 {
				out[i*4+3] = 0xFF
			}
		}
	case FshBitmap32:
		for i := 0; i < pixels; i++ {
			putColor(out[i*4:], bgraColor(bitmap.Data[i*4:]))
		}
	}
	return types.Bitmap{Data: out, Width: bitmap.Width, Height: bitmap.Height}, nil
}

func putColor(dst []byte, c types.Color) {
	dst[0] = c.Red
	dst[1] = c.Green
	dst[2] = c.Blue
	dst[3] = c.Alpha
}

// expand5 scales a 5-bit channel to 8 bits.
func expand5(v uint8) uint8 {
	return v<<3 | v>>2
}

// expand6 scales a 6-bit channel to 8 bits.
func expand6(v uint8) uint8 {
	return v<<2 | v>>4
}
