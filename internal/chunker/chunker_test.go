package chunker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// charPhonemizer counts one token per character, making test token
// budgets easy to reason about.
type charPhonemizer struct{}

func (charPhonemizer) CountTokens(_ context.Context, text string) (int, error) {
	return len(text), nil
}

// failingPhonemizer always errors to exercise the fallback path.
type failingPhonemizer struct{}

func (failingPhonemizer) CountTokens(context.Context, string) (int, error) {
	return 0, errors.New("g2p backend unavailable")
}

func charChunker(policy Policy) *Chunker {
	return New(NewCounter(charPhonemizer{}), policy)
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"default", DefaultPolicy(), false},
		{"min greater than max", Policy{MinTargetTokens: 300, MaxTargetTokens: 250, AbsoluteMaxTokens: 450, TailMinTokens: 20}, true},
		{"max greater than absolute", Policy{MinTargetTokens: 100, MaxTargetTokens: 500, AbsoluteMaxTokens: 450, TailMinTokens: 20}, true},
		{"zero threshold", Policy{MinTargetTokens: 0, MaxTargetTokens: 250, AbsoluteMaxTokens: 450}, true},
		{"negative tail", Policy{MinTargetTokens: 100, MaxTargetTokens: 250, AbsoluteMaxTokens: 450, TailMinTokens: -1}, true},
		{"equal thresholds", Policy{MinTargetTokens: 100, MaxTargetTokens: 100, AbsoluteMaxTokens: 100, TailMinTokens: 20}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("error %v is not ErrInvalidPolicy", err)
			}
		})
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	// Two short sentences well under the minimum still come out as
	// one chunk: the first chunk is always emitted.
	c := New(NewCounter(nil), DefaultPolicy())

	chunks := c.Split(context.Background(), "Hello. World.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Hello. World." {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	c := charChunker(DefaultPolicy())

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if chunks := c.Split(context.Background(), input); len(chunks) != 0 {
			t.Errorf("input %q produced %d chunks, want 0", input, len(chunks))
		}
	}
}

func TestSplitLongTextTokenBound(t *testing.T) {
	// A long paragraph of ordinary sentences must produce multiple
	// chunks, each within the target, with boundaries at sentence
	// ends (every chunk ends with terminal punctuation).
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "This is ordinary sentence number %d in a long paragraph. ", i)
	}
	text := strings.TrimSpace(sb.String())

	policy := DefaultPolicy()
	c := charChunker(policy)
	chunks := c.Split(context.Background(), text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Tokens > policy.MaxTargetTokens {
			t.Errorf("chunk %d has %d tokens, exceeds target %d", i, chunk.Tokens, policy.MaxTargetTokens)
		}
		if !strings.HasSuffix(chunk.Text, ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, chunk.Text)
		}
	}
}

func TestSplitCoverage(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"plain sentences", "First sentence. Second one! A third? Final."},
		{"clauses", "Alpha, beta, gamma; delta, epsilon. Short tail."},
		{"no terminal punctuation", "a stream of words without any punctuation at all"},
		{"quoted", `He said "stop." Then left.`},
	}

	c := charChunker(Policy{MinTargetTokens: 5, MaxTargetTokens: 20, AbsoluteMaxTokens: 30, TailMinTokens: 2})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := c.Split(context.Background(), tt.text)

			var joined strings.Builder
			for _, chunk := range chunks {
				if chunk.Text == "" {
					t.Fatal("produced an empty chunk")
				}
				joined.WriteString(chunk.Text)
				joined.WriteString(" ")
			}
			if got, want := stripSpace(joined.String()), stripSpace(tt.text); got != want {
				t.Errorf("coverage broken:\n got %q\nwant %q", got, want)
			}
		})
	}
}

func TestSplitOversizedSentenceFallsBackToClauses(t *testing.T) {
	// One sentence of ~120 chars with clause boundaries, absolute max
	// of 60 tokens: must split at commas, not give up.
	clause := strings.Repeat("x", 38)
	text := clause + ", " + clause + ", " + clause + "."

	policy := Policy{MinTargetTokens: 10, MaxTargetTokens: 50, AbsoluteMaxTokens: 60, TailMinTokens: 5}
	chunks := charChunker(policy).Split(context.Background(), text)

	if len(chunks) < 2 {
		t.Fatalf("expected clause-level split, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Tokens > policy.AbsoluteMaxTokens {
			t.Errorf("chunk %d exceeds absolute max: %d tokens", i, chunk.Tokens)
		}
	}
}

func TestSplitOversizedWordEmittedWhole(t *testing.T) {
	// A single indivisible word above the absolute maximum is an
	// accepted edge case: emitted as its own chunk, never an error.
	word := strings.Repeat("z", 500)

	policy := DefaultPolicy()
	chunks := charChunker(policy).Split(context.Background(), word)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != word {
		t.Error("oversized word was altered")
	}
	if chunks[0].Tokens <= policy.AbsoluteMaxTokens {
		t.Errorf("test word should exceed absolute max, got %d tokens", chunks[0].Tokens)
	}
}

func TestSplitWordFallbackPacking(t *testing.T) {
	// An oversized clause with no commas forces word-level packing.
	words := make([]string, 40)
	for i := range words {
		words[i] = strings.Repeat("w", 9)
	}
	text := strings.Join(words, " ") + "."

	policy := Policy{MinTargetTokens: 10, MaxTargetTokens: 50, AbsoluteMaxTokens: 60, TailMinTokens: 5}
	chunks := charChunker(policy).Split(context.Background(), text)

	if len(chunks) < 2 {
		t.Fatalf("expected word-level packing into multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Tokens > policy.AbsoluteMaxTokens {
			t.Errorf("chunk %d exceeds absolute max: %d tokens", i, chunk.Tokens)
		}
	}

	var joined []string
	for _, chunk := range chunks {
		joined = append(joined, chunk.Text)
	}
	if got, want := stripSpace(strings.Join(joined, " ")), stripSpace(text); got != want {
		t.Error("word fallback lost content")
	}
}

func TestSplitShortTailMergesBack(t *testing.T) {
	// Sentences of 60 tokens each fill one chunk apiece at max 60.
	// The trailing 3-token fragment then starts a fresh chunk, falls
	// under the tail minimum, and must merge into the last chunk
	// instead of standing alone.
	sentence := strings.Repeat("a", 59) + "."
	text := strings.Repeat(sentence+" ", 4) + "ok."

	policy := Policy{MinTargetTokens: 20, MaxTargetTokens: 60, AbsoluteMaxTokens: 150, TailMinTokens: 20}
	chunks := charChunker(policy).Split(context.Background(), text)

	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	last := chunks[len(chunks)-1]
	if last.Text == "ok." {
		t.Error("short trailing fragment was emitted standalone")
	}
	if !strings.HasSuffix(last.Text, "ok.") {
		t.Errorf("trailing fragment lost: %q", last.Text)
	}
}

func TestCounterFallback(t *testing.T) {
	tests := []struct {
		name       string
		phonemizer Phonemizer
		text       string
		expected   int
	}{
		{"nil phonemizer uses estimate", nil, "twelve chars", 3},
		{"failure uses estimate", failingPhonemizer{}, "twelve chars", 3},
		{"phonemizer count wins", charPhonemizer{}, "twelve chars", 12},
		{"empty text", charPhonemizer{}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCounter(tt.phonemizer).Count(context.Background(), tt.text)
			if got != tt.expected {
				t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}
}
