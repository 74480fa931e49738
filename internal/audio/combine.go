package audio

import (
	"time"

	"github.com/charmbracelet/log"
)

// Combine concatenates segments into one buffer, separated by silence
// gaps, with a short linear fade at the head and tail of every segment
// to prevent boundary clicks. No gap is appended after the last
// segment. Combining zero segments is a caller error.
func Combine(segments []*Buffer, sampleRate int, gapDuration, crossfadeDuration time.Duration) (*Buffer, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	log.Debug("combining segments",
		"count", len(segments),
		"gap", gapDuration,
		"crossfade", crossfadeDuration)

	crossfadeSamples := int(crossfadeDuration.Seconds() * float64(sampleRate))
	gap := Silence(gapDuration, sampleRate)

	total := 0
	for _, seg := range segments {
		total += seg.Len()
	}
	total += gap.Len() * (len(segments) - 1)

	out := make([]float32, 0, total)
	for i, seg := range segments {
		out = append(out, fadedEdges(seg, crossfadeSamples)...)
		if i < len(segments)-1 {
			out = append(out, gap.Samples...)
		}
	}

	combined := &Buffer{Samples: out, SampleRate: sampleRate}
	log.Debug("segments combined", "samples", combined.Len())
	return combined, nil
}

// fadedEdges returns a copy of the segment with linear fade-in/out at
// its edges. Segments no longer than the fade are passed through
// unchanged rather than faded into silence.
func fadedEdges(seg *Buffer, crossfadeSamples int) []float32 {
	samples := make([]float32, seg.Len())
	copy(samples, seg.Samples)

	if crossfadeSamples <= 1 || len(samples) <= crossfadeSamples {
		return samples
	}

	// Linear ramp over [0, 1] inclusive; the inner edge of the fade
	// stays at unity so the fade never bleeds into the segment body.
	for i := 0; i < crossfadeSamples; i++ {
		ramp := float32(i) / float32(crossfadeSamples-1)
		samples[i] *= ramp
		samples[len(samples)-1-i] *= ramp
	}
	return samples
}
