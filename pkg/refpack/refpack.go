// Package refpack implements the decoder for the Refpack compression
// format, the LZ77 variant used by the game's QFS containers.
//
// A Refpack stream is a sequence of opcodes. Each opcode first copies a
// number of literal bytes from the input, then appends a back-reference:
// a run of bytes each equal to the output byte refdist positions behind
// the current end. References may overlap the bytes they produce, so the
// copy is byte-at-a-time by construction.
package refpack

import (
	"errors"
	"fmt"
)

// Decode errors.
var (
	ErrLengthMismatch = errors.New("refpack: decompressed length mismatch")
	ErrTruncated      = errors.New("refpack: truncated input")
)

type opcode struct {
	proclen int
	reflen  int
	refdist int
}

func (op opcode) isStop() bool {
	return op.proclen < 4 && op.reflen == 0 && op.refdist == 0
}

// Decode decompresses a Refpack stream. The expanded length is declared
// by the enclosing container; a final output of any other length is an
// error.
func Decode(compressed []byte, expandedLength int) ([]byte, error) {
	out := make([]byte, 0, expandedLength)
	pos := 0

	for {
		op, size, err := decodeOpcode(compressed[pos:])
		if err != nil {
			return nil, err
		}
		pos += size

		if pos+op.proclen > len(compressed) {
			return nil, fmt.Errorf("%w: literal run of %d bytes at offset %d", ErrTruncated, op.proclen, pos)
		}
		out = append(out, compressed[pos:pos+op.proclen]...)
		pos += op.proclen

		if op.refdist > len(out) {
			return nil, fmt.Errorf("%w: reference distance %d exceeds output length %d", ErrTruncated, op.refdist, len(out))
		}
		for i := 0; i < op.reflen; i++ {
			out = append(out, out[len(out)-op.refdist])
		}

		if op.isStop() {
			break
		}
	}

	if len(out) != expandedLength {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(out), expandedLength)
	}
	return out, nil
}

// decodeOpcode reads one opcode from the head of data and returns it
// together with its encoded size. The four opcode classes are selected
// by the top bits of the first byte; all 256 values are covered.
func decodeOpcode(data []byte) (opcode, int, error) {
	if len(data) == 0 {
		return opcode{}, 0, fmt.Errorf("%w: missing opcode", ErrTruncated)
	}
	a := int(data[0])

	switch {
	case a&0x80 == 0: // 0b0xxxxxxx, 2-byte
		if len(data) < 2 {
			return opcode{}, 0, fmt.Errorf("%w: short 2-byte opcode", ErrTruncated)
		}
		b := int(data[1])
		return opcode{
			proclen: a & 0x03,
			reflen:  (a&0x1C)>>2 + 3,
			refdist: (a&0x60)<<3 + b + 1,
		}, 2, nil
	case a&0xC0 == 0x80: // 0b10xxxxxx, 3-byte
		if len(data) < 3 {
			return opcode{}, 0, fmt.Errorf("%w: short 3-byte opcode", ErrTruncated)
		}
		b, c := int(data[1]), int(data[2])
		return opcode{
			proclen: (b & 0xC0) >> 6,
			reflen:  a&0x3F + 4,
			refdist: (b&0x3F)<<8 + c + 1,
		}, 3, nil
	case a&0xE0 == 0xC0: // 0b110xxxxx, 4-byte
		if len(data) < 4 {
			return opcode{}, 0, fmt.Errorf("%w: short 4-byte opcode", ErrTruncated)
		}
		b, c, d := int(data[1]), int(data[2]), int(data[3])
		return opcode{
			proclen: a & 0x03,
			reflen:  (a&0x0C)<<6 + d + 5,
			refdist: (a&0x10)<<12 + b<<8 + c + 1,
		}, 4, nil
	default: // 0b111xxxxx, 1-byte literal run or stop
		proclen := a & 0x03
		if a < 0xFC {
			proclen = (a&0x1F + 1) << 2
		}
		return opcode{proclen: proclen}, 1, nil
	}
}
