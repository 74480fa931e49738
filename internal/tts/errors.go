package tts

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the pipeline stage that produced it, so
// callers can distinguish a bad request from a broken engine without
// matching on message strings.
type Kind int

const (
	// KindValidation covers bad request parameters: unknown voice,
	// out-of-range speed, malformed chunking thresholds. Detected
	// before any synthesis work.
	KindValidation Kind = iota

	// KindEngine covers failures inside the Kokoro engine during
	// synthesis or phonemization.
	KindEngine

	// KindAudio covers enhancement and combination failures.
	KindAudio

	// KindIO covers file reads and writes.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEngine:
		return "engine"
	case KindAudio:
		return "audio"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error wraps a stage failure with its Kind. Unwrap exposes the
// underlying error so errors.Is still matches sentinels.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of err, or KindEngine if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindEngine
}

var (
	// ErrEmptyText is returned when a request carries no text to speak.
	ErrEmptyText = errors.New("text is empty")

	// ErrInvalidVoice is returned for a voice identifier that is not
	// in the Kokoro catalog.
	ErrInvalidVoice = errors.New("invalid voice")

	// ErrSpeedOutOfRange is returned when speed falls outside the
	// configured bounds.
	ErrSpeedOutOfRange = errors.New("speed out of range")

	// ErrNoTexts is returned when a batch request carries no texts.
	ErrNoTexts = errors.New("no texts to generate")

	// ErrNoSegments is returned when a podcast request carries no
	// segments.
	ErrNoSegments = errors.New("no podcast segments")

	// ErrTooManySegments is returned when a podcast request exceeds
	// the configured segment limit.
	ErrTooManySegments = errors.New("too many podcast segments")
)
