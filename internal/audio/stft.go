package audio

import (
	"errors"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// STFT parameters for the noise gate. 2048/512 matches the analysis
// resolution the trimming stage deliberately does NOT use; the gate
// works on whole spectral frames, not edges, so the coarser grid is
// fine and four times cheaper.
const (
	stftFrameLength = 2048
	stftHopLength   = 512
)

var errTooShortForSTFT = errors.New("buffer too short for spectral transform")

// stft computes a short-time Fourier transform with a Hann window.
// Each returned frame holds stftFrameLength complex bins.
func stft(samples []float32) ([][]complex128, error) {
	if len(samples) == 0 {
		return nil, errTooShortForSTFT
	}

	// Pad the tail so every sample is covered by at least one frame.
	padded := samples
	if rem := (len(samples) - stftFrameLength) % stftHopLength; len(samples) < stftFrameLength || rem != 0 {
		target := stftFrameLength
		if len(samples) > stftFrameLength {
			target = len(samples) + stftHopLength - rem
		}
		padded = make([]float32, target)
		copy(padded, samples)
	}

	win := window.Hann(stftFrameLength)

	var frames [][]complex128
	for start := 0; start+stftFrameLength <= len(padded); start += stftHopLength {
		frame := make([]float64, stftFrameLength)
		for i := range frame {
			frame[i] = float64(padded[start+i]) * win[i]
		}
		frames = append(frames, fft.FFTReal(frame))
	}
	return frames, nil
}

// istft reconstructs a time-domain signal of the given length via
// windowed overlap-add, normalizing by the accumulated window energy.
func istft(frames [][]complex128, length int) []float32 {
	win := window.Hann(stftFrameLength)

	total := (len(frames)-1)*stftHopLength + stftFrameLength
	acc := make([]float64, total)
	norm := make([]float64, total)

	for f, frame := range frames {
		td := fft.IFFT(frame)
		offset := f * stftHopLength
		for i := 0; i < stftFrameLength; i++ {
			acc[offset+i] += real(td[i]) * win[i]
			norm[offset+i] += win[i] * win[i]
		}
	}

	out := make([]float32, length)
	for i := 0; i < length && i < total; i++ {
		if norm[i] > 1e-9 {
			out[i] = float32(acc[i] / norm[i])
		}
	}
	return out
}
