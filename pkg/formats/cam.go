// CAM replay camera parser.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/e-rk/speedtools/pkg/types"
)

// CAM format errors.
var (
	ErrInvalidCamCount = errors.New("invalid CAM camera count")
	ErrTruncatedCam    = errors.New("truncated CAM data")
)

// ParseCam parses the replay cameras of a track.
func ParseCam(data []byte) ([]types.Camera, error) {
	r := bytes.NewReader(data)
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: camera count", ErrTruncatedCam)
	}
	if count < 0 || count > 1<<16 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCamCount, count)
	}
	cameras := make([]types.Camera, count)
	for i := range cameras {
		var record struct {
			Location  [3]float32
			Transform [9]float32
		}
		if err := binary.Read(r, binary.LittleEndian, &record); err != nil {
			return nil, fmt.Errorf("%w: camera %d", ErrTruncatedCam, i)
		}
		cameras[i] = types.Camera{
			Location:  floatVector(record.Location),
			Transform: makeMatrix(record.Transform),
		}
	}
	return cameras, nil
}

// ParseCamFile parses the replay cameras from disk.
func ParseCamFile(path string) ([]types.Camera, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CAM file: %w", err)
	}
	return ParseCam(data)
}
