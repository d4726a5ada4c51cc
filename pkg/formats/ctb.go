// CTB sound table parser. The load and coast tables map engine RPM
// ranges to bank patches with volume and pitch envelopes.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// CTB format errors.
var (
	ErrInvalidCtbMagic = errors.New("invalid CTB magic")
	ErrTruncatedCtb    = errors.New("truncated CTB data")
)

var ctbMagic = []byte("CTBl")

// SoundTableEntry maps one RPM range to a bank patch.
type SoundTableEntry struct {
	Patch    uint16
	Volume   uint8
	_        uint8
	PitchMin uint16
	PitchMax uint16
	RpmMin   uint16
	RpmMax   uint16
}

// SoundTable is a parsed engine sound table.
type SoundTable struct {
	Entries []SoundTableEntry
}

// ParseSoundTable parses a sound table from raw bytes.
func ParseSoundTable(data []byte) (*SoundTable, error) {
	r := bytes.NewReader(data)
	magic := make([]byte, 4)
	if _, err := r.Read(magic); err != nil || !bytes.Equal(magic, ctbMagic) {
		return nil, ErrInvalidCtbMagic
	}
	var numEntries uint32
	if err := binary.Read(r, binary.LittleEndian, &numEntries); err != nil {
		return nil, fmt.Errorf("%w: entry count", ErrTruncatedCtb)
	}
	table := &SoundTable{Entries: make([]SoundTableEntry, numEntries)}
	if err := binary.Read(r, binary.LittleEndian, &table.Entries); err != nil {
		return nil, fmt.Errorf("%w: entries", ErrTruncatedCtb)
	}
	return table, nil
}

// ParseSoundTableFile parses a sound table from disk.
func ParseSoundTableFile(path string) (*SoundTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CTB file: %w", err)
	}
	return ParseSoundTable(data)
}

// Entry returns the table entry for a bank patch.
func (t *SoundTable) Entry(patch int) (SoundTableEntry, bool) {
	for _, entry := range t.Entries {
		if int(entry.Patch) == patch {
			return entry, true
		}
	}
	return SoundTableEntry{}, false
}
