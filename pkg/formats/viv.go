// VIV archive parser. A VIV file is a flat big-endian "BIGF" directory
// of named entries; vehicle archives hold the car model, textures,
// performance table and engine audio bank.
package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// VIV format errors.
var (
	ErrInvalidVivMagic = errors.New("invalid VIV magic: expected 'BIGF'")
	ErrTruncatedViv    = errors.New("truncated VIV data")
)

const vivHeaderSize = 16

// VivEntry is a single named file inside the archive.
type VivEntry struct {
	Name string
	Body []byte
}

// Viv is a parsed VIV archive directory.
type Viv struct {
	Entries []VivEntry
}

// ParseViv parses a VIV archive from raw bytes.
func ParseViv(data []byte) (*Viv, error) {
	if len(data) < vivHeaderSize {
		return nil, ErrTruncatedViv
	}
	if string(data[:4]) != "BIGF" {
		return nil, ErrInvalidVivMagic
	}

	numEntries := binary.BigEndian.Uint32(data[8:])
	viv := &Viv{Entries: make([]VivEntry, 0, numEntries)}

	offset := vivHeaderSize
	for i := uint32(0); i < numEntries; i++ {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("%w: directory entry %d", ErrTruncatedViv, i)
		}
		bodyOffset := int(binary.BigEndian.Uint32(data[offset:]))
		bodyLength := int(binary.BigEndian.Uint32(data[offset+4:]))
		offset += 8

		name := readString(data[offset:])
		offset += len(name) + 1

		if bodyOffset < 0 || bodyLength < 0 || bodyOffset+bodyLength > len(data) {
			return nil, fmt.Errorf("%w: entry %q extends past end of archive", ErrTruncatedViv, name)
		}
		viv.Entries = append(viv.Entries, VivEntry{
			Name: name,
			Body: data[bodyOffset : bodyOffset+bodyLength],
		})
	}
	return viv, nil
}

// ParseVivFile parses a VIV archive from disk.
func ParseVivFile(path string) (*Viv, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading VIV file: %w", err)
	}
	return ParseViv(data)
}

// Entry returns the named entry, or false if the archive has none.
func (v *Viv) Entry(name string) (VivEntry, bool) {
	for _, entry := range v.Entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return VivEntry{}, false
}
