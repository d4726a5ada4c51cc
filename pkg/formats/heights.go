// Waypoint wall height table parser.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Height table errors.
var (
	ErrInvalidHeightCount = errors.New("invalid height count")
	ErrTruncatedHeights   = errors.New("truncated height data")
)

// ParseHeights parses the per-waypoint wall height table.
func ParseHeights(data []byte) ([]float64, error) {
	r := bytes.NewReader(data)
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: count", ErrTruncatedHeights)
	}
	if count < 0 || count > 1<<20 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHeightCount, count)
	}
	raw := make([]float32, count)
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("%w: values", ErrTruncatedHeights)
	}
	heights := make([]float64, count)
	for i, v := range raw {
		heights[i] = float64(v)
	}
	return heights, nil
}

// ParseHeightsFile parses the wall height table from disk.
func ParseHeightsFile(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading height file: %w", err)
	}
	return ParseHeights(data)
}
