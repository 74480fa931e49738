package audio

import (
	"math"
	"testing"
	"time"
)

// speechLike builds a buffer with silence at both ends and a loud
// midsection, roughly resembling a trimmed-speech test signal.
func speechLike(sampleRate int) *Buffer {
	samples := make([]float32, sampleRate) // 1 second
	for i := sampleRate / 4; i < 3*sampleRate/4; i++ {
		samples[i] = 0.5 * float32(math.Sin(2*math.Pi*220*float64(i)/float64(sampleRate)))
	}
	return NewBuffer(samples, sampleRate)
}

func TestEnhanceEmptyBuffer(t *testing.T) {
	_, err := Enhance(NewBuffer(nil, DefaultSampleRate), DefaultEnhanceOptions())
	if err == nil {
		t.Fatal("expected error for empty buffer")
	}
}

func TestEnhanceNormalizesPeak(t *testing.T) {
	buf := speechLike(DefaultSampleRate)

	opts := EnhanceOptions{Normalize: true}
	out, err := Enhance(buf, opts)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	peak := out.Peak()
	if math.Abs(float64(peak)-1.0) > 1e-5 {
		t.Errorf("expected peak 1.0 after normalization, got %f", peak)
	}

	// Input must not be modified.
	if buf.Peak() > 0.51 {
		t.Errorf("input buffer was modified, peak %f", buf.Peak())
	}
}

func TestEnhanceTrimsSilence(t *testing.T) {
	buf := speechLike(DefaultSampleRate)

	opts := EnhanceOptions{
		TrimSilence:    true,
		TrimDB:         30.0,
		TrailingMargin: 100 * time.Millisecond,
	}
	out, err := Enhance(buf, opts)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	if out.Len() >= buf.Len() {
		t.Errorf("expected trimmed buffer shorter than input: %d >= %d", out.Len(), buf.Len())
	}

	// The signal occupies the middle half second; the trimmed result
	// must retain it, plus the trailing margin.
	minLen := DefaultSampleRate / 2
	if out.Len() < minLen {
		t.Errorf("trimmed too aggressively: %d < %d samples", out.Len(), minLen)
	}
}

func TestEnhanceAllSilenceKeepsBuffer(t *testing.T) {
	buf := NewBuffer(make([]float32, DefaultSampleRate/10), DefaultSampleRate)

	opts := EnhanceOptions{TrimSilence: true, TrimDB: 30.0}
	out, err := Enhance(buf, opts)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if out.Len() == 0 {
		t.Error("silent input must not produce an empty buffer")
	}
}

func TestEnhanceFade(t *testing.T) {
	samples := make([]float32, DefaultSampleRate)
	for i := range samples {
		samples[i] = 1.0
	}
	buf := NewBuffer(samples, DefaultSampleRate)

	opts := EnhanceOptions{Fade: true, FadeDuration: 100 * time.Millisecond}
	out, err := Enhance(buf, opts)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	if out.Samples[0] != 0 {
		t.Errorf("expected first sample 0 after fade-in, got %f", out.Samples[0])
	}
	if last := out.Samples[out.Len()-1]; last > 0.01 {
		t.Errorf("expected last sample near 0 after fade-out, got %f", last)
	}
	mid := out.Samples[out.Len()/2]
	if mid != 1.0 {
		t.Errorf("fade must not touch the middle, got %f", mid)
	}
	// 100 ms at 24 kHz is a 2400-sample ramp; its inner edge must reach
	// unity exactly so the fade region is no wider than requested.
	if v := out.Samples[2399]; v != 1.0 {
		t.Errorf("fade-in ramp does not reach unity at its inner edge: %f", v)
	}
	if v := out.Samples[out.Len()-2400]; v != 1.0 {
		t.Errorf("fade-out ramp does not reach unity at its inner edge: %f", v)
	}
}

func TestEnhanceFadeCappedForShortBuffers(t *testing.T) {
	// 100 samples at 24 kHz is far shorter than the 100 ms ramp; the
	// fade must cap at 25% per side.
	samples := make([]float32, 100)
	for i := range samples {
		samples[i] = 1.0
	}
	buf := NewBuffer(samples, DefaultSampleRate)

	out, err := Enhance(buf, EnhanceOptions{Fade: true, FadeDuration: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	if out.Samples[25] != 1.0 {
		t.Errorf("fade exceeded 25%% cap: sample 25 = %f", out.Samples[25])
	}
	if out.Samples[74] != 1.0 {
		t.Errorf("fade exceeded 25%% cap: sample 74 = %f", out.Samples[74])
	}
}

func TestEnhanceIdempotentOnEnhancedAudio(t *testing.T) {
	buf := speechLike(DefaultSampleRate)
	opts := DefaultEnhanceOptions()

	once, err := Enhance(buf, opts)
	if err != nil {
		t.Fatalf("first Enhance failed: %v", err)
	}
	twice, err := Enhance(once, opts)
	if err != nil {
		t.Fatalf("second Enhance failed: %v", err)
	}

	peakDelta := math.Abs(float64(once.Peak()) - float64(twice.Peak()))
	if peakDelta > 0.01 {
		t.Errorf("peak changed by %f on re-enhancement", peakDelta)
	}

	lenDelta := once.Len() - twice.Len()
	if lenDelta < 0 {
		lenDelta = -lenDelta
	}
	// Allow a fade/trim boundary's worth of drift.
	if lenDelta > DefaultSampleRate/5 {
		t.Errorf("length changed by %d samples on re-enhancement", lenDelta)
	}
}

func TestEnhanceDeterministic(t *testing.T) {
	buf := speechLike(DefaultSampleRate)
	opts := DefaultEnhanceOptions()

	a, err := Enhance(buf, opts)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	b, err := Enhance(buf, opts)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	if a.Len() != b.Len() {
		t.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs: %f vs %f", i, a.Samples[i], b.Samples[i])
		}
	}
}

func TestPercentileOf(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{"empty", nil, 10, 0},
		{"single", []float64{5}, 10, 5},
		{"median", []float64{1, 2, 3, 4, 5}, 50, 3},
		{"min", []float64{1, 2, 3}, 0, 1},
		{"max", []float64{1, 2, 3}, 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentileOf(tt.values, tt.p)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("percentileOf(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.expected)
			}
		})
	}
}
