package audio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

// Silence-trim analysis resolution. Finer than the usual 2048/512 STFT
// defaults so soft consonant endings are not clipped.
const (
	trimFrameLength = 512
	trimHopLength   = 128
)

// EnhanceOptions controls the post-synthesis enhancement pipeline.
// Each stage can be toggled independently.
type EnhanceOptions struct {
	// Normalize peak-normalizes the buffer to full scale.
	Normalize bool

	// TrimSilence removes leading/trailing silence.
	TrimSilence bool

	// TrimDB is the threshold below peak, in dB, under which audio
	// counts as silence. Higher values trim less aggressively.
	TrimDB float64

	// TrailingMargin is re-added after trimming at the trailing edge.
	// Some voices have soft word endings that naive trimming clips.
	TrailingMargin time.Duration

	// NoiseGate applies spectral noise gating.
	NoiseGate bool

	// NoiseGatePercentile is the magnitude percentile used as the
	// noise floor. Bins below it are zeroed. Crude but effective for
	// the low, stationary noise floor Kokoro produces.
	NoiseGatePercentile float64

	// Fade applies linear fade-in/out ramps at both ends.
	Fade bool

	// FadeDuration is the ramp length, capped at 25% of the buffer.
	FadeDuration time.Duration
}

// DefaultEnhanceOptions returns the enhancement settings used for
// generated speech unless overridden by configuration.
func DefaultEnhanceOptions() EnhanceOptions {
	return EnhanceOptions{
		Normalize:           true,
		TrimSilence:         true,
		TrimDB:              30.0,
		TrailingMargin:      100 * time.Millisecond,
		NoiseGate:           true,
		NoiseGatePercentile: 10.0,
		Fade:                true,
		FadeDuration:        100 * time.Millisecond,
	}
}

// Enhance applies the post-processing pipeline to a buffer and returns
// a new buffer. The input is not modified. The transformation is
// deterministic for identical inputs and options.
func Enhance(buf *Buffer, opts EnhanceOptions) (*Buffer, error) {
	if buf.Len() == 0 {
		return nil, ErrEmptyBuffer
	}
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSampleRate, buf.SampleRate)
	}

	log.Debug("enhancing audio",
		"samples", buf.Len(),
		"sample_rate", buf.SampleRate,
		"normalize", opts.Normalize,
		"trim_silence", opts.TrimSilence)

	out := buf.Clone()

	if opts.Normalize {
		normalize(out.Samples)
	}

	if opts.TrimSilence {
		out.Samples = trimSilence(out.Samples, out.SampleRate, opts.TrimDB, opts.TrailingMargin)
		if len(out.Samples) == 0 {
			// Entirely silent input; trimming everything away would
			// violate the non-empty invariant downstream.
			out = buf.Clone()
		}
	}

	if opts.NoiseGate {
		gated, err := noiseGate(out.Samples, opts.NoiseGatePercentile)
		if err != nil {
			return nil, fmt.Errorf("noise gate: %w", err)
		}
		out.Samples = gated
	}

	if opts.Fade {
		applyFade(out.Samples, out.SampleRate, opts.FadeDuration)
	}

	log.Debug("audio enhanced", "samples", out.Len())
	return out, nil
}

// normalize scales samples so the peak hits full scale. A silent
// buffer is left untouched.
func normalize(samples []float32) {
	var peak float32
	for _, s := range samples {
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	scale := 1 / peak
	for i := range samples {
		samples[i] *= scale
	}
}

// trimSilence removes leading and trailing regions whose frame RMS
// falls more than trimDB below the loudest frame, then re-adds a
// short margin of the original audio at the trailing edge.
func trimSilence(samples []float32, sampleRate int, trimDB float64, trailingMargin time.Duration) []float32 {
	if len(samples) <= trimFrameLength {
		return samples
	}

	var frames []float64
	for start := 0; start+trimFrameLength <= len(samples); start += trimHopLength {
		frames = append(frames, frameRMS(samples[start:start+trimFrameLength]))
	}

	maxRMS := 0.0
	for _, r := range frames {
		if r > maxRMS {
			maxRMS = r
		}
	}
	if maxRMS == 0 {
		return nil
	}

	// Frames quieter than (peak - trimDB) count as silence.
	threshold := maxRMS * math.Pow(10, -trimDB/20)

	first, last := -1, -1
	for i, r := range frames {
		if r > threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil
	}

	start := first * trimHopLength
	end := last*trimHopLength + trimFrameLength
	if end > len(samples) {
		end = len(samples)
	}

	// Preserve the soft tail beyond the detected end.
	margin := int(trailingMargin.Seconds() * float64(sampleRate))
	if end+margin < len(samples) {
		end += margin
	} else {
		end = len(samples)
	}

	return samples[start:end]
}

func frameRMS(frame []float32) float64 {
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// noiseGate zeroes STFT magnitude bins below the given percentile of
// all magnitudes, reconstructing with the original phase and length.
func noiseGate(samples []float32, percentile float64) ([]float32, error) {
	frames, err := stft(samples)
	if err != nil {
		return nil, err
	}

	// Collect all magnitudes to locate the noise floor.
	var magnitudes []float64
	for _, frame := range frames {
		for _, bin := range frame {
			magnitudes = append(magnitudes, cmplxAbs(bin))
		}
	}
	floor := percentileOf(magnitudes, percentile)

	for _, frame := range frames {
		for i, bin := range frame {
			if cmplxAbs(bin) < floor {
				frame[i] = 0
			}
		}
	}

	return istft(frames, len(samples)), nil
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// percentileOf returns the p-th percentile (0-100) by linear
// interpolation between closest ranks.
func percentileOf(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// applyFade applies linear fade-in and fade-out ramps in place. The
// ramp length is capped at a quarter of the buffer so very short
// buffers keep most of their energy.
func applyFade(samples []float32, sampleRate int, fadeDuration time.Duration) {
	fadeSamples := int(fadeDuration.Seconds() * float64(sampleRate))
	if max := len(samples) / 4; fadeSamples > max {
		fadeSamples = max
	}
	if fadeSamples <= 1 {
		return
	}

	// Linear ramp over [0, 1] inclusive, matching fadedEdges.
	for i := 0; i < fadeSamples; i++ {
		ramp := float32(i) / float32(fadeSamples-1)
		samples[i] *= ramp
		samples[len(samples)-1-i] *= ramp
	}
}
