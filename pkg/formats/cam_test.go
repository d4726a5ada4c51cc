package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestParseCam(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(1))
	binary.Write(&buf, binary.LittleEndian, [3]float32{10, 20, 30})
	binary.Write(&buf, binary.LittleEndian, [9]float32{0, 1, 2, 3, 4, 5, 6, 7, 8})

	cameras, err := ParseCam(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseCam() error = %v", err)
	}
	if len(cameras) != 1 {
		t.Fatalf("len(cameras) = %d, want 1", len(cameras))
	}
	camera := cameras[0]
	if camera.Location.X != 10 || camera.Location.Y != 20 || camera.Location.Z != 30 {
		t.Errorf("location = %+v", camera.Location)
	}
	if camera.Transform.Y.X != 1 || camera.Transform.Y.Y != 4 || camera.Transform.Y.Z != 7 {
		t.Errorf("transform row Y = %+v", camera.Transform.Y)
	}
}

func TestParseCamErrors(t *testing.T) {
	if _, err := ParseCam(nil); !errors.Is(err, ErrTruncatedCam) {
		t.Errorf("empty error = %v, want ErrTruncatedCam", err)
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(-2))
	if _, err := ParseCam(buf.Bytes()); !errors.Is(err, ErrInvalidCamCount) {
		t.Errorf("negative count error = %v, want ErrInvalidCamCount", err)
	}

	buf.Reset()
	binary.Write(&buf, binary.LittleEndian, int32(2))
	binary.Write(&buf, binary.LittleEndian, [3]float32{})
	if _, err := ParseCam(buf.Bytes()); !errors.Is(err, ErrTruncatedCam) {
		t.Errorf("truncated error = %v, want ErrTruncatedCam", err)
	}
}
