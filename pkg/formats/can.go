// CAN animation parser. A CAN file holds a single keyframed animation
// used for object destruction sequences.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/e-rk/speedtools/pkg/types"
)

// CAN format errors.
var (
	ErrInvalidCanCount = errors.New("invalid CAN keyframe count")
	ErrTruncatedCan    = errors.New("truncated CAN data")
)

// ParseCan parses an animation from raw bytes.
func ParseCan(data []byte) (*types.Animation, error) {
	r := bytes.NewReader(data)
	var header struct {
		NumKeyframes uint16
		Delay        uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header", ErrTruncatedCan)
	}
	if header.NumKeyframes == 0 {
		return nil, fmt.Errorf("%w: 0", ErrInvalidCanCount)
	}
	animation := &types.Animation{
		Length:      int(header.NumKeyframes),
		Delay:       int(header.Delay),
		Locations:   make([]types.Vector3d, header.NumKeyframes),
		Quaternions: make([]types.Quaternion, header.NumKeyframes),
	}
	for i := 0; i < int(header.NumKeyframes); i++ {
		var kf struct {
			Location   [3]int32
			Quaternion [4]int16 // x, y, z, w
		}
		if err := binary.Read(r, binary.LittleEndian, &kf); err != nil {
			return nil, fmt.Errorf("%w: keyframe %d", ErrTruncatedCan, i)
		}
		animation.Locations[i] = fixedVector(kf.Location)
		animation.Quaternions[i] = types.Quaternion{
			X: fixedToFloat(int32(kf.Quaternion[0])),
			Y: fixedToFloat(int32(kf.Quaternion[1])),
			Z: fixedToFloat(int32(kf.Quaternion[2])),
			W: fixedToFloat(int32(kf.Quaternion[3])),
		}
	}
	return animation, nil
}

// ParseCanFile parses an animation from disk.
func ParseCanFile(path string) (*types.Animation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CAN file: %w", err)
	}
	return ParseCan(data)
}
