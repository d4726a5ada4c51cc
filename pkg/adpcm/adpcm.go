// Package adpcm decodes the EA ADPCM audio encoding used by the game's
// sound banks into interleaved little-endian 16-bit PCM.
//
// The stream is a sequence of frames. A frame opens with one control
// byte whose nibbles select the predictor coefficient pair per channel;
// stereo frames carry a second control byte with per-channel shift
// amounts, while mono packs the shift into the low nibble of the first
// byte. The remaining frame bytes hold 4-bit signed deltas, two per
// byte, expanded through a second-order predictor with rolling state.
package adpcm

// coeffTable maps a control nibble to its predictor coefficients:
// index n selects coeff1, index n+4 selects coeff2.
var coeffTable = [20]int{0, 240, 460, 392, 0, 0, -208, -220, 0, 1, 3, 4, 7, 8, 10, 11, 0, -1, -3, -4}

const (
	monoFrameSize   = 15
	stereoFrameSize = 30
)

// FrameSize returns the byte size of one compressed frame for the given
// channel count: one control byte plus 14 sample bytes for mono, two
// control bytes plus 28 sample bytes for stereo.
func FrameSize(numChannels int) int {
	if numChannels == 2 {
		return stereoFrameSize
	}
	return monoFrameSize
}

// CompressedSize returns the exact byte length of the compressed region
// holding numSamples samples per channel. Used by bank parsers to slice
// ADPCM payloads, which carry no length field of their own.
func CompressedSize(numSamples, numChannels int) int {
	var data, headers int
	if numChannels == 2 {
		// One byte holds a left and a right delta.
		data = numSamples
		headers = 2 * ceilDiv(data, 28)
	} else {
		data = numSamples / 2
		headers = ceilDiv(data, 14)
	}
	return data + headers
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Decode converts an ADPCM stream into interleaved little-endian 16-bit
// PCM. numChannels must be 1 or 2. Trailing bytes not forming a whole
// frame are ignored; decoding never reads past the end of the buffer.
func Decode(stream []byte, numChannels int) []byte {
	var currentLeft, previousLeft int
	var currentRight, previousRight int

	frameSize := FrameSize(numChannels)
	frames := len(stream) / frameSize
	out := make([]byte, 0, frames*(frameSize-numChannels)*2*2)
	pos := 0

	for frame := 0; frame < frames; frame++ {
		control := stream[pos]
		pos++
		coeff1l := coeffTable[control>>4]
		coeff2l := coeffTable[control>>4+4]
		coeff1r := coeffTable[control&0x0F]
		coeff2r := coeffTable[control&0x0F+4]

		var shiftLeft, shiftRight uint
		if numChannels == 2 {
			shifts := int(int8(stream[pos]))
			pos++
			shiftLeft = uint(20 - shifts>>4)
			shiftRight = uint(20 - shifts&0x0F)
		} else {
			shiftLeft = uint(20 - int(control&0x0F))
		}

		sampleBytes := frameSize - numChannels
		for i := 0; i < sampleBytes; i++ {
			b := int(int8(stream[pos]))
			pos++

			next := signExtend4(b>>4)<<shiftLeft + currentLeft*coeff1l + previousLeft*coeff2l + 0x80
			previousLeft = currentLeft
			currentLeft = clipInt16(next >> 8)
			out = appendSample(out, currentLeft)

			if numChannels == 2 {
				next = signExtend4(b)<<shiftRight + currentRight*coeff1r + previousRight*coeff2r + 0x80
				previousRight = currentRight
				currentRight = clipInt16(next >> 8)
				out = appendSample(out, currentRight)
			} else {
				next = signExtend4(b)<<shiftLeft + currentLeft*coeff1l + previousLeft*coeff2l + 0x80
				previousLeft = currentLeft
				currentLeft = clipInt16(next >> 8)
				out = appendSample(out, currentLeft)
			}
		}
	}
	return out
}

func signExtend4(value int) int {
	return (value & 0x07) - (value & 0x08)
}

func clipInt16(a int) int {
	if a < -32768 {
		return -32768
	}
	if a > 32767 {
		return 32767
	}
	return a
}

func appendSample(out []byte, sample int) []byte {
	return append(out, byte(sample), byte(sample>>8))
}
