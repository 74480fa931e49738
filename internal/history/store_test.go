package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entries := []Entry{
		{Mode: "generate", Voice: "am_michael", Speed: 1.0, TextLength: 12, Duration: 2 * time.Second, OutputPath: "a.wav"},
		{Mode: "podcast", Voice: "af_bella", Speed: 1.2, TextLength: 400, Duration: 30 * time.Second, OutputPath: "b.wav"},
	}
	for i, e := range entries {
		e.CreatedAt = time.Date(2025, 6, 1, 12, i, 0, 0, time.UTC)
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	// Newest first.
	if got[0].Mode != "podcast" {
		t.Errorf("first entry mode = %q, want podcast", got[0].Mode)
	}
	if got[0].Duration != 30*time.Second {
		t.Errorf("duration = %v, want 30s", got[0].Duration)
	}
	if got[1].Voice != "am_michael" {
		t.Errorf("second entry voice = %q, want am_michael", got[1].Voice)
	}
	if got[0].ID == "" || got[1].ID == "" {
		t.Error("expected generated IDs")
	}
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := Entry{
			Mode:      "generate",
			Voice:     "am_michael",
			Speed:     1.0,
			CreatedAt: time.Date(2025, 6, 1, 12, i, 0, 0, time.UTC),
		}
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d entries, want 0", len(got))
	}
}
