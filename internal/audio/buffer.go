package audio

import (
	"errors"
	"math"
	"time"
)

// DefaultSampleRate is the native sample rate of the Kokoro model family.
const DefaultSampleRate = 24000

// Common errors for audio buffers.
var (
	ErrEmptyBuffer = errors.New("audio buffer is empty")
	ErrNoSegments  = errors.New("no audio segments provided")
	ErrSampleRate  = errors.New("invalid sample rate")
)

// Buffer holds mono 32-bit float samples at a fixed sample rate.
// A Buffer is exclusively owned by the pipeline stage currently
// holding it; stages hand buffers on rather than sharing them.
type Buffer struct {
	// Samples are mono samples, nominally in [-1, 1] after normalization.
	Samples []float32

	// SampleRate is the sample rate in Hz.
	SampleRate int
}

// NewBuffer creates a buffer wrapping the given samples.
func NewBuffer(samples []float32, sampleRate int) *Buffer {
	return &Buffer{Samples: samples, SampleRate: sampleRate}
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Len()) / float64(b.SampleRate) * float64(time.Second))
}

// Peak returns the maximum absolute sample value.
func (b *Buffer) Peak() float32 {
	var peak float32
	for _, s := range b.Samples {
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}
	return peak
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	samples := make([]float32, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{Samples: samples, SampleRate: b.SampleRate}
}

// Append concatenates other onto b in place and returns b.
// The sample rates must already agree; callers are expected to work
// in the engine-native rate throughout.
func (b *Buffer) Append(other *Buffer) *Buffer {
	b.Samples = append(b.Samples, other.Samples...)
	return b
}

// Concat concatenates buffers in order into a single new buffer.
func Concat(buffers []*Buffer, sampleRate int) *Buffer {
	total := 0
	for _, buf := range buffers {
		total += buf.Len()
	}
	samples := make([]float32, 0, total)
	for _, buf := range buffers {
		samples = append(samples, buf.Samples...)
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate}
}

// Silence returns a zero-filled buffer of the given duration.
func Silence(d time.Duration, sampleRate int) *Buffer {
	n := int(d.Seconds() * float64(sampleRate))
	if n < 0 {
		n = 0
	}
	return &Buffer{Samples: make([]float32, n), SampleRate: sampleRate}
}
