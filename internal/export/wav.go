package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/e-rk/speedtools/pkg/adpcm"
	"github.com/e-rk/speedtools/pkg/types"
)

const wavBitsPerSample = 16

// WriteWav writes a bank sound as a 16-bit PCM WAV file. Compressed
// streams are decoded first. Streams with a loop get a sampler chunk
// carrying the loop points, which audio tools read back as a sustain
// loop.
func WriteWav(w io.Writer, stream *types.AudioStream) error {
	samples := stream.Samples
	if stream.Compression == types.CompressionADPCM {
		samples = adpcm.Decode(samples, stream.NumChannels)
	}

	blockAlign := stream.NumChannels * wavBitsPerSample / 8
	var fmtChunk bytes.Buffer
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(stream.NumChannels))
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(stream.SampleRate))
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(stream.SampleRate*blockAlign))
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(wavBitsPerSample))

	var body bytes.Buffer
	writeChunk(&body, "fmt ", fmtChunk.Bytes())
	writeChunk(&body, "data", samples)
	if stream.LoopLength > 0 {
		writeChunk(&body, "smpl", samplerChunk(stream))
	}

	var header bytes.Buffer
	header.WriteString("RIFF")
	binary.Write(&header, binary.LittleEndian, uint32(4+body.Len()))
	header.WriteString("WAVE")

	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

// SaveSound writes a bank sound to a WAV file at path.
func SaveSound(path string, stream *types.AudioStream) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWav(f, stream); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func writeChunk(buf *bytes.Buffer, id string, body []byte) {
	buf.WriteString(id)
	binary.Write(buf, binary.LittleEndian, uint32(len(body)))
	buf.Write(body)
	if len(body)%2 != 0 {
		buf.WriteByte(0)
	}
}

// samplerChunk builds an smpl chunk with a single forward loop. Loop
// points are in sample frames and the end point is inclusive.
func samplerChunk(stream *types.AudioStream) []byte {
	var buf bytes.Buffer
	u32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }
	u32(0) // manufacturer
	u32(0) // product
	if stream.SampleRate > 0 {
		u32(uint32(1e9 / stream.SampleRate)) // sample period, ns
	} else {
		u32(0)
	}
	u32(60) // MIDI unity note
	u32(0)  // MIDI pitch fraction
	u32(0)  // SMPTE format
	u32(0)  // SMPTE offset
	u32(1)  // number of loops
	u32(0)  // sampler data size
	u32(0)  // cue point ID
	u32(0)  // loop type, forward
	u32(uint32(stream.LoopStart))
	u32(uint32(stream.LoopStart + stream.LoopLength - 1))
	u32(0) // fraction
	u32(0) // play count, infinite
	return buf.Bytes()
}
