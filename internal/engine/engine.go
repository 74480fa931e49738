package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind selects one of the supported engine backends. The set is
// closed: new backends are added here, not registered dynamically.
type Kind string

const (
	// KindSubprocess runs the Kokoro engine as a child process
	// speaking newline-delimited JSON over stdin/stdout.
	KindSubprocess Kind = "subprocess"

	// KindServer talks to a running Kokoro HTTP server.
	KindServer Kind = "server"

	// KindMock is a deterministic synthetic engine for tests and the
	// dashboard demo mode.
	KindMock Kind = "mock"
)

// Common engine errors.
var (
	ErrUnknownKind       = errors.New("unknown engine kind")
	ErrEngineUnavailable = errors.New("TTS engine is not available")
	ErrSynthesisFailed   = errors.New("audio synthesis failed")
	ErrPhonemizeFailed   = errors.New("phonemization failed")
)

// Synthesizer is the single polymorphic interface over all engine
// backends. Implementations are not required to be safe for
// concurrent use; the facade serializes calls per engine instance.
type Synthesizer interface {
	// Synthesize converts text to speech, returning a lazy stream of
	// raw audio sub-buffers in emission order.
	Synthesize(ctx context.Context, text, voice string, speed float64) (*Stream, error)

	// CountTokens returns the phoneme token count the model will see
	// for text. Errors are recoverable by the caller's heuristic.
	CountTokens(ctx context.Context, text string) (int, error)

	// Close releases engine resources.
	Close() error
}

// Config describes how to reach the engine for one language.
type Config struct {
	// Kind selects the backend.
	Kind Kind

	// Lang is the Kokoro language code the instance serves.
	Lang string

	// Command is the engine command line for KindSubprocess.
	Command string

	// URL is the server base URL for KindServer.
	URL string

	// SampleRate is the engine-native sample rate.
	SampleRate int

	// Timeout bounds a single engine request.
	Timeout time.Duration
}

// New creates a synthesizer for the configured backend. The switch is
// exhaustive over Kind.
func New(cfg Config) (Synthesizer, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 24000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}

	switch cfg.Kind {
	case KindSubprocess:
		return newSubprocessEngine(cfg)
	case KindServer:
		return newServerEngine(cfg)
	case KindMock:
		return NewMock(cfg.SampleRate), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}
