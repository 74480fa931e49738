package engine

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/aparsoft/kokoro-go/internal/audio"
)

// Mock is a deterministic synthetic engine for tests and the
// dashboard demo mode. It produces a quiet sine tone whose duration
// scales with word count, emitted in two sub-buffers to exercise
// stream collection.
type Mock struct {
	sampleRate int

	mu        sync.Mutex
	callCount int

	// Test controls.
	SynthesizeErr error
	CountErr      error
	TokensFor     func(text string) int
}

// NewMock creates a mock engine at the given sample rate.
func NewMock(sampleRate int) *Mock {
	return &Mock{sampleRate: sampleRate}
}

// Synthesize produces a synthetic tone, ~0.3 s per word.
func (m *Mock) Synthesize(_ context.Context, text, _ string, speed float64) (*Stream, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.SynthesizeErr != nil {
		return nil, m.SynthesizeErr
	}

	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	if speed <= 0 {
		speed = 1.0
	}
	samples := int(float64(words) * 0.3 / speed * float64(m.sampleRate))
	if samples < m.sampleRate/10 {
		samples = m.sampleRate / 10
	}

	tone := make([]float32, samples)
	for i := range tone {
		tone[i] = 0.3 * float32(math.Sin(2*math.Pi*220*float64(i)/float64(m.sampleRate)))
	}

	half := len(tone) / 2
	return StreamOf(
		audio.NewBuffer(tone[:half], m.sampleRate),
		audio.NewBuffer(tone[half:], m.sampleRate),
	), nil
}

// CountTokens estimates one token per four characters, or defers to
// TokensFor when set.
func (m *Mock) CountTokens(_ context.Context, text string) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	if m.TokensFor != nil {
		return m.TokensFor(text), nil
	}
	return len(text) / 4, nil
}

// CallCount returns how many synthesis calls were made.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Close implements Synthesizer.
func (m *Mock) Close() error {
	return nil
}

var _ Synthesizer = (*Mock)(nil)
