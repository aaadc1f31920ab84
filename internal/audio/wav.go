// Package audio holds small PCM/WAV helpers shared by the STT provider
// adapters and the echo suppressor.
package audio

import (
	"bytes"
	"encoding/binary"
)

const (
	wavHeaderSize  = 44
	bitsPerSample  = 16
	wavChannels    = 1
	bytesPerSample = bitsPerSample / 8
)

// wavHeader is the canonical 44-byte PCM WAV header, laid out field-for-field
// so it can be written with a single binary.Write instead of one call per
// chunk field.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// NewWavBuffer wraps raw 16-bit mono PCM in a minimal WAV container, since
// the Groq and OpenAI STT multipart uploads expect a named audio file rather
// than a bare PCM blob. pcm with a trailing odd byte is truncated to the last
// whole sample rather than rejected, since a dropped sample at the very tail
// of an utterance is inaudible.
func NewWavBuffer(pcm []byte, sampleRate int) []byte {
	if len(pcm)%bytesPerSample != 0 {
		pcm = pcm[:len(pcm)-len(pcm)%bytesPerSample]
	}

	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(wavHeaderSize - 8 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   wavChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * wavChannels * bytesPerSample),
		BlockAlign:    wavChannels * bytesPerSample,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	binary.Write(buf, binary.LittleEndian, h)
	buf.Write(pcm)
	return buf.Bytes()
}
