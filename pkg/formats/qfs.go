// QFS container parser. A QFS file is a Refpack-compressed FSH atlas:
// a two-byte signature, a 24-bit big-endian expanded length, and the
// compressed stream.
package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/e-rk/speedtools/pkg/refpack"
)

// QFS format errors.
var (
	ErrInvalidQfsMagic = errors.New("invalid QFS signature")
	ErrTruncatedQfs    = errors.New("truncated QFS data")
)

const qfsHeaderSize = 5

// ParseQfs decompresses a QFS container and parses the FSH atlas inside.
func ParseQfs(data []byte) (*Fsh, error) {
	if len(data) < qfsHeaderSize {
		return nil, ErrTruncatedQfs
	}
	if data[0] != 0x10 || data[1] != 0xFB {
		return nil, ErrInvalidQfsMagic
	}
	expanded := int(data[2])<<16 | int(data[3])<<8 | int(data[4])

	decompressed, err := refpack.Decode(data[qfsHeaderSize:], expanded)
	if err != nil {
		return nil, fmt.Errorf("decompressing QFS: %w", err)
	}
	return ParseFsh(decompressed)
}

// ParseQfsFile parses a QFS container from disk.
func ParseQfsFile(path string) (*Fsh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading QFS file: %w", err)
	}
	return ParseQfs(data)
}

// ParseFshOrQfs dispatches on the file extension the way the game data
// is shipped: ".qfs" wraps a compressed FSH, ".fsh" is stored plain.
func ParseFshOrQfs(path string) (*Fsh, error) {
	if strings.EqualFold(filepath.Ext(path), ".qfs") {
		return ParseQfsFile(path)
	}
	return ParseFshFile(path)
}
