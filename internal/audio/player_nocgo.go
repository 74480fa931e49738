//go:build nocgo
// +build nocgo

package audio

import (
	"context"
	"errors"
)

// Playback stubs for builds without CGO audio support.

var errNoAudio = errors.New("audio playback not available in nocgo build")

// Player is a stub; playback requires CGO.
type Player struct{}

// NewPlayer reports that playback is unavailable.
func NewPlayer(sampleRate int) (*Player, error) {
	return nil, errNoAudio
}

// Close is a no-op on the stub player.
func (p *Player) Close() error {
	return nil
}

// Play reports that playback is unavailable.
func (p *Player) Play(ctx context.Context, buf *Buffer) error {
	return errNoAudio
}
