// Package export writes decoded assets out as common interchange
// formats: PNG or TGA for textures and WAV for bank sounds.
package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/e-rk/speedtools/pkg/types"
)

// SaveImage writes a texture into dir, choosing the container from the
// image kind: decoded bitmaps become PNG files and raw TGA payloads
// are written out unchanged. Returns the path of the written file.
func SaveImage(dir, name string, img types.Image) (string, error) {
	switch img := img.(type) {
	case types.Bitmap:
		path := filepath.Join(dir, name+".png")
		if err := imgio.Save(path, toNRGBA(img), imgio.PNGEncoder()); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		return path, nil
	case types.RawImage:
		path := filepath.Join(dir, name+".tga")
		if err := os.WriteFile(path, img.Data, 0644); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		return path, nil
	default:
		return "", fmt.Errorf("texture %s: unsupported image kind %T", name, img)
	}
}

// SaveResources writes all textures into dir, which is created if
// missing. Resources sharing a name overwrite each other, so callers
// should deduplicate first.
func SaveResources(dir string, resources []types.Resource) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, resource := range resources {
		if _, err := SaveImage(dir, resource.Name, resource.Image); err != nil {
			return err
		}
	}
	return nil
}

// toNRGBA copies a decoded bitmap into an image suitable for encoding.
func toNRGBA(bitmap types.Bitmap) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, bitmap.Width, bitmap.Height))
	copy(img.Pix, bitmap.Data)
	return img
}
