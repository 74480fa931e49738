//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player plays finished buffers on the default output device. It is
// a convenience for the CLI's --play flag, not part of the synthesis
// pipeline. The oto context is created once and reused.
type Player struct {
	context    *oto.Context
	sampleRate int
}

// NewPlayer creates a player for mono audio at the given sample rate.
func NewPlayer(sampleRate int) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrSampleRate, sampleRate)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("create audio context: %w", err)
	}
	<-ready

	return &Player{context: ctx, sampleRate: sampleRate}, nil
}

// Close suspends the audio device.
func (p *Player) Close() error {
	return p.context.Suspend()
}

// Play blocks until the buffer has finished playing or ctx is
// canceled. Cancellation stops playback immediately.
func (p *Player) Play(ctx context.Context, buf *Buffer) error {
	if buf.Len() == 0 {
		return ErrEmptyBuffer
	}

	// Keep the PCM bytes alive for the whole playback; oto reads
	// from the reader asynchronously.
	pcm := EncodeS16LE(buf.Samples)
	player := p.context.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	defer player.Close()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
