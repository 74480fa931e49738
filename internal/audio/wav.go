package audio

import (
	"fmt"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// SaveWAV writes the buffer to path as a mono 16-bit PCM WAV file,
// creating parent directories as needed.
func SaveWAV(buf *Buffer, path string) error {
	if buf.Len() == 0 {
		return ErrEmptyBuffer
	}
	if buf.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrSampleRate, buf.SampleRate)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.SampleRate, wavBitDepth, 1, 1)

	ints := make([]int, buf.Len())
	for i, s := range buf.Samples {
		ints[i] = int(clipS16(s))
	}
	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		Data:           ints,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}

// LoadWAV reads a WAV file into a float32 buffer. Multichannel files
// are mixed down to mono by averaging.
func LoadWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = wavBitDepth
	}
	scale := float32(int(1) << (bitDepth - 1))

	channels := pcm.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	frames := len(pcm.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(pcm.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float32(channels)
	}

	return &Buffer{Samples: samples, SampleRate: pcm.Format.SampleRate}, nil
}
