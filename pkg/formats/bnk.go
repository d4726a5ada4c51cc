// BNK sound bank parser. A bank is a table of sound slots, each
// pointing at a PT header that describes the sample data with a
// type-length-value stream.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/e-rk/speedtools/pkg/adpcm"
	"github.com/e-rk/speedtools/pkg/types"
)

// BNK format errors.
var (
	ErrInvalidBnkMagic = errors.New("invalid BNK magic")
	ErrInvalidPtMagic  = errors.New("invalid PT header magic")
	ErrTruncatedBnk    = errors.New("truncated BNK data")
	ErrUnterminatedPt  = errors.New("unterminated PT header")
)

var (
	bnkMagic = []byte("BNKl")
	ptMagic  = []byte("PT\x00\x00")
)

// PT header TLV types.
const (
	tlvChannels       = 0x82
	tlvCompression    = 0x83
	tlvSampleRate     = 0x84
	tlvNumSamples     = 0x85
	tlvLoopOffset     = 0x86
	tlvLoopLength     = 0x87
	tlvDataOffset     = 0x88
	tlvBytesPerSample = 0x92
	tlvSubheader      = 0xA0
	tlvEnd            = 0xFF
)

// bnkCompressionADPCM is the compression TLV value that selects EA
// ADPCM encoding. Any other value means raw signed 16-bit PCM.
const bnkCompressionADPCM = 7

// Bnk is a parsed sound bank. Streams is indexed by slot; empty slots
// hold nil.
type Bnk struct {
	Streams []*types.AudioStream
}

// ParseBnk parses a sound bank from raw bytes.
func ParseBnk(data []byte) (*Bnk, error) {
	r := bytes.NewReader(data)
	magic := make([]byte, 4)
	if _, err := r.Read(magic); err != nil || !bytes.Equal(magic, bnkMagic) {
		return nil, ErrInvalidBnkMagic
	}
	var header struct {
		Version   uint16
		NumSounds uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header", ErrTruncatedBnk)
	}
	offsets := make([]uint32, header.NumSounds)
	if err := binary.Read(r, binary.LittleEndian, &offsets); err != nil {
		return nil, fmt.Errorf("%w: slot table", ErrTruncatedBnk)
	}

	bank := &Bnk{Streams: make([]*types.AudioStream, header.NumSounds)}
	for i, offset := range offsets {
		if offset == 0 {
			continue
		}
		stream, err := parseSound(data, int(offset))
		if err != nil {
			return nil, fmt.Errorf("sound %d: %w", i, err)
		}
		bank.Streams[i] = stream
	}
	return bank, nil
}

// ParseBnkFile parses a sound bank from disk.
func ParseBnkFile(path string) (*Bnk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading BNK file: %w", err)
	}
	return ParseBnk(data)
}

func parseSound(data []byte, offset int) (*types.AudioStream, error) {
	if offset+len(ptMagic) > len(data) {
		return nil, ErrTruncatedBnk
	}
	if !bytes.Equal(data[offset:offset+len(ptMagic)], ptMagic) {
		return nil, ErrInvalidPtMagic
	}
	header := ptHeader{data: data, offset: offset + len(ptMagic)}

	stream := &types.AudioStream{
		NumChannels: int(header.lookupDefault(tlvChannels, 1)),
		SampleRate:  int(header.lookupDefault(tlvSampleRate, 22050)),
		LoopStart:   int(header.lookupDefault(tlvLoopOffset, 0)),
		LoopLength:  int(header.lookupDefault(tlvLoopLength, 0)),
		Compression: types.CompressionPCM,
	}
	if err := header.err(); err != nil {
		return nil, err
	}
	if header.lookupDefault(tlvCompression, 0) == bnkCompressionADPCM {
		stream.Compression = types.CompressionADPCM
	}
	numSamples := int(header.lookupDefault(tlvNumSamples, 0))
	bytesPerSample := int(header.lookupDefault(tlvBytesPerSample, 2))
	dataOffset, ok := header.lookup(tlvDataOffset)
	if !ok {
		return nil, fmt.Errorf("%w: no data offset", ErrTruncatedBnk)
	}
	if err := header.err(); err != nil {
		return nil, err
	}

	var size int
	if stream.Compression == types.CompressionADPCM {
		size = adpcm.CompressedSize(numSamples, stream.NumChannels)
	} else {
		size = numSamples * stream.NumChannels * bytesPerSample
	}
	start := int(dataOffset)
	if start < 0 || start+size > len(data) {
		return nil, fmt.Errorf("%w: sample data", ErrTruncatedBnk)
	}
	stream.Samples = data[start : start+size]
	return stream, nil
}

// ptHeader walks a PT TLV stream. Values are big-endian and at most
// four bytes. A subheader entry points at a nested stream that is
// searched when the outer one misses.
type ptHeader struct {
	data    []byte
	offset  int
	lastErr error
}

func (h *ptHeader) err() error { return h.lastErr }

func (h *ptHeader) lookup(want uint8) (uint32, bool) {
	return h.search(h.offset, want, 0)
}

func (h *ptHeader) lookupDefault(want uint8, fallback uint32) uint32 {
	if value, ok := h.lookup(want); ok {
		return value
	}
	return fallback
}

func (h *ptHeader) search(pos int, want uint8, depth int) (uint32, bool) {
	if depth > 4 {
		h.lastErr = fmt.Errorf("%w: subheader loop", ErrUnterminatedPt)
		return 0, false
	}
	var subheader uint32
	haveSubheader := false
	for {
		if pos >= len(h.data) {
			h.lastErr = ErrUnterminatedPt
			return 0, false
		}
		tlvType := h.data[pos]
		if tlvType == tlvEnd {
			break
		}
		if pos+1 >= len(h.data) {
			h.lastErr = ErrUnterminatedPt
			return 0, false
		}
		length := int(h.data[pos+1])
		if length > 4 || pos+2+length > len(h.data) {
			h.lastErr = fmt.Errorf("%w: bad TLV length %d", ErrUnterminatedPt, length)
			return 0, false
		}
		var value uint32
		for _, b := range h.data[pos+2 : pos+2+length] {
			value = value<<8 | uint32(b)
		}
		if tlvType == want {
			return value, true
		}
		if tlvType == tlvSubheader {
			subheader = value
			haveSubheader = true
		}
		pos += 2 + length
	}
	if haveSubheader {
		return h.search(int(subheader), want, depth+1)
	}
	return 0, false
}
