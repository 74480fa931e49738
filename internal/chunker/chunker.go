package chunker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

// Kokoro accepts up to 510 tokens per pass but speech quality degrades
// well before that; these defaults keep chunks in the model's sweet
// spot.
const (
	// DefaultMinTargetTokens avoids emitting very short chunks.
	DefaultMinTargetTokens = 100

	// DefaultMaxTargetTokens is the greedy packing target.
	DefaultMaxTargetTokens = 250

	// DefaultAbsoluteMaxTokens is the hard limit before rushed speech.
	DefaultAbsoluteMaxTokens = 450

	// DefaultTailMinTokens is the minimum for the final trailing
	// chunk, deliberately smaller than the interior minimum so short
	// closing fragments still merge back instead of standing alone.
	DefaultTailMinTokens = 20
)

// ErrInvalidPolicy reports malformed chunking thresholds.
var ErrInvalidPolicy = errors.New("invalid chunking policy")

// Policy holds the token thresholds that bound chunk sizes.
// Invariant: MinTargetTokens <= MaxTargetTokens <= AbsoluteMaxTokens.
type Policy struct {
	// MinTargetTokens is the minimum size for interior chunks; a
	// smaller chunk merges into its predecessor. The first chunk is
	// exempt (there is nothing earlier to merge into).
	MinTargetTokens int

	// MaxTargetTokens bounds greedy accumulation.
	MaxTargetTokens int

	// AbsoluteMaxTokens is the hard per-chunk limit. Only a single
	// indivisible word may exceed it.
	AbsoluteMaxTokens int

	// TailMinTokens is the minimum for the final chunk before it
	// merges back into the previous one.
	TailMinTokens int
}

// DefaultPolicy returns the Kokoro-tuned thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinTargetTokens:   DefaultMinTargetTokens,
		MaxTargetTokens:   DefaultMaxTargetTokens,
		AbsoluteMaxTokens: DefaultAbsoluteMaxTokens,
		TailMinTokens:     DefaultTailMinTokens,
	}
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	if p.MinTargetTokens <= 0 || p.MaxTargetTokens <= 0 || p.AbsoluteMaxTokens <= 0 {
		return fmt.Errorf("%w: thresholds must be positive", ErrInvalidPolicy)
	}
	if p.MinTargetTokens > p.MaxTargetTokens {
		return fmt.Errorf("%w: min %d > max %d", ErrInvalidPolicy, p.MinTargetTokens, p.MaxTargetTokens)
	}
	if p.MaxTargetTokens > p.AbsoluteMaxTokens {
		return fmt.Errorf("%w: max %d > absolute max %d", ErrInvalidPolicy, p.MaxTargetTokens, p.AbsoluteMaxTokens)
	}
	if p.TailMinTokens < 0 {
		return fmt.Errorf("%w: tail minimum must be non-negative", ErrInvalidPolicy)
	}
	return nil
}

// Chunk is a contiguous fragment of the input text with its estimated
// token count.
type Chunk struct {
	Text   string
	Tokens int
}

// Chunker splits text into token-bounded chunks. Split is a pure
// function of its input; a Chunker is safe for concurrent use.
type Chunker struct {
	counter *Counter
	policy  Policy
}

// New creates a chunker with the given token counter and policy.
func New(counter *Counter, policy Policy) *Chunker {
	return &Chunker{counter: counter, policy: policy}
}

// Sentence boundaries: terminal punctuation (with optional closing
// quotes/brackets) followed by whitespace. Clause boundaries: comma or
// semicolon followed by whitespace. Delimiters stay with the text
// before them so no characters are lost.
var (
	sentenceBoundary = regexp.MustCompile(`[.!?]+["')\]]*\s+`)
	clauseBoundary   = regexp.MustCompile(`[,;]\s+`)
)

// Split chunks text using a sentence, clause, word fallback cascade.
// Every chunk stays within the policy's absolute maximum except when a
// single word alone exceeds it, which is emitted as-is. It never
// returns an empty chunk; whitespace-only input yields no chunks.
func (c *Chunker) Split(ctx context.Context, text string) []Chunk {
	p := c.policy

	var chunks []Chunk
	var current []string
	currentTokens := 0

	emit := func() {
		if len(current) > 0 {
			chunks = append(chunks, Chunk{Text: strings.Join(current, " "), Tokens: currentTokens})
			current = nil
			currentTokens = 0
		}
	}
	mergeIntoLast := func() {
		if len(current) == 0 {
			return
		}
		last := &chunks[len(chunks)-1]
		last.Text += " " + strings.Join(current, " ")
		last.Tokens += currentTokens
		current = nil
		currentTokens = 0
	}
	// pack greedily accumulates one unit, flushing when it overflows
	// the target. Used for clause and word granularity, where the
	// interior minimum no longer applies.
	pack := func(unit string, tokens int) {
		if currentTokens+tokens <= p.MaxTargetTokens {
			current = append(current, unit)
			currentTokens += tokens
			return
		}
		emit()
		current = []string{unit}
		currentTokens = tokens
	}

	for _, sentence := range splitOn(text, sentenceBoundary) {
		sentenceTokens := c.counter.Count(ctx, sentence)

		// An oversized sentence is recursively split on clause
		// boundaries, then on words.
		if sentenceTokens > p.AbsoluteMaxTokens {
			emit()
			for _, clause := range splitOn(sentence, clauseBoundary) {
				clauseTokens := c.counter.Count(ctx, clause)
				if clauseTokens > p.AbsoluteMaxTokens {
					for _, word := range strings.Fields(clause) {
						pack(word, c.counter.Count(ctx, word))
					}
				} else {
					pack(clause, clauseTokens)
				}
			}
			continue
		}

		if currentTokens+sentenceTokens <= p.MaxTargetTokens {
			current = append(current, sentence)
			currentTokens += sentenceTokens
			continue
		}

		// The accumulated chunk is full. Emit it if it meets the
		// interior minimum; otherwise merge it into the previous
		// chunk. The very first chunk is always emitted.
		if currentTokens >= p.MinTargetTokens || len(chunks) == 0 {
			emit()
		} else {
			mergeIntoLast()
		}
		current = []string{sentence}
		currentTokens = sentenceTokens
	}

	// Trailing chunk: a smaller threshold applies so short closing
	// fragments merge back rather than standing alone.
	if len(current) > 0 {
		if currentTokens >= p.TailMinTokens || len(chunks) == 0 {
			emit()
		} else {
			mergeIntoLast()
		}
	}

	log.Debug("text chunked", "chunks", len(chunks))
	return chunks
}

// splitOn splits text at each boundary match, keeping the delimiter
// with the preceding fragment and dropping empty fragments.
func splitOn(text string, boundary *regexp.Regexp) []string {
	var parts []string
	last := 0
	for _, loc := range boundary.FindAllStringIndex(text, -1) {
		if part := strings.TrimSpace(text[last:loc[1]]); part != "" {
			parts = append(parts, part)
		}
		last = loc[1]
	}
	if part := strings.TrimSpace(text[last:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}
