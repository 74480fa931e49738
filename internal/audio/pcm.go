package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeF32LE serializes samples as little-endian 32-bit float PCM,
// the wire format the Kokoro engine emits.
func EncodeF32LE(samples []float32) []byte {
	data := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(s))
	}
	return data
}

// DecodeF32LE parses little-endian 32-bit float PCM into samples.
func DecodeF32LE(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("pcm data length %d is not aligned to 4-byte samples", len(data))
	}
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples, nil
}

// EncodeS16LE serializes samples as little-endian signed 16-bit PCM,
// clipping out-of-range values. Used for playback and WAV output.
func EncodeS16LE(samples []float32) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(clipS16(s)))
	}
	return data
}

func clipS16(s float32) int16 {
	v := s * 32767
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}
