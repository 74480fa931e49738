package chunker

import (
	"context"

	"github.com/charmbracelet/log"
)

// Phonemizer converts text to its phoneme representation and reports
// the token count the synthesis model will see. The Kokoro engine's
// G2P step implements this.
type Phonemizer interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Counter reports token counts for text. It never fails: when the
// phonemizer errors (missing language backend, malformed input), it
// falls back to a character-count heuristic.
type Counter struct {
	phonemizer Phonemizer
}

// NewCounter creates a token counter backed by the given phonemizer.
// A nil phonemizer always uses the heuristic.
func NewCounter(phonemizer Phonemizer) *Counter {
	return &Counter{phonemizer: phonemizer}
}

// Count returns a non-negative token estimate for text.
func (c *Counter) Count(ctx context.Context, text string) int {
	if c.phonemizer != nil {
		n, err := c.phonemizer.CountTokens(ctx, text)
		if err == nil && n >= 0 {
			return n
		}
		if err != nil {
			log.Warn("token count fell back to estimate", "error", err)
		}
	}
	return estimateTokens(text)
}

// estimateTokens approximates the phoneme token count. One token per
// four characters is the established rule of thumb for this model
// family.
func estimateTokens(text string) int {
	return len(text) / 4
}
