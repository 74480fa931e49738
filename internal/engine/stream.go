package engine

import (
	"errors"
	"io"

	"github.com/aparsoft/kokoro-go/internal/audio"
)

// Stream is a lazy, finite, non-restartable sequence of audio buffers
// produced by one synthesis call. Callers either iterate with Next or
// drain it with Collect; mixing the two is fine, restarting is not.
type Stream struct {
	next    func() (*audio.Buffer, error)
	cleanup func()
	done    bool
}

// NewStream wraps a pull function. The function returns io.EOF when
// the sequence is exhausted.
func NewStream(next func() (*audio.Buffer, error)) *Stream {
	return &Stream{next: next}
}

// NewStreamWithCleanup wraps a pull function plus a cleanup hook that
// Close invokes when the caller abandons the stream before draining
// it. The pull function remains responsible for its own cleanup on
// EOF and terminal errors.
func NewStreamWithCleanup(next func() (*audio.Buffer, error), cleanup func()) *Stream {
	return &Stream{next: next, cleanup: cleanup}
}

// Close releases whatever the stream holds open. Closing a drained,
// failed, or already-closed stream is a no-op.
func (s *Stream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.cleanup != nil {
		s.cleanup()
	}
	return nil
}

// StreamOf returns a stream over a fixed set of buffers.
func StreamOf(buffers ...*audio.Buffer) *Stream {
	i := 0
	return NewStream(func() (*audio.Buffer, error) {
		if i >= len(buffers) {
			return nil, io.EOF
		}
		buf := buffers[i]
		i++
		return buf, nil
	})
}

// Next returns the next sub-buffer, or io.EOF after the last one.
// Any other error is terminal; the stream must be abandoned.
func (s *Stream) Next() (*audio.Buffer, error) {
	if s.done {
		return nil, io.EOF
	}
	buf, err := s.next()
	if err != nil {
		s.done = true
		return nil, err
	}
	return buf, nil
}

// Collect drains the stream and concatenates the sub-buffers in
// emission order into a single buffer.
func (s *Stream) Collect() (*audio.Buffer, error) {
	var parts []*audio.Buffer
	sampleRate := 0
	for {
		buf, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if buf.Len() == 0 {
			continue
		}
		sampleRate = buf.SampleRate
		parts = append(parts, buf)
	}
	if len(parts) == 0 {
		return nil, ErrSynthesisFailed
	}
	return audio.Concat(parts, sampleRate), nil
}
