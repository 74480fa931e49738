package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aparsoft/kokoro-go/internal/audio"
)

func TestServerEngineSynthesize(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3, -0.1}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			http.NotFound(w, r)
			return
		}
		var req speechRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Input != "hello" || req.Voice != "am_michael" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		w.Write(audio.EncodeF32LE(samples)) //nolint:errcheck
	}))
	defer srv.Close()

	eng, err := New(Config{Kind: KindServer, URL: srv.URL, SampleRate: 24000, Lang: "a"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	stream, err := eng.Synthesize(context.Background(), "hello", "am_michael", 1.0)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	buf, err := stream.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if buf.Len() != len(samples) {
		t.Fatalf("length = %d, want %d", buf.Len(), len(samples))
	}
	for i, want := range samples {
		if buf.Samples[i] != want {
			t.Errorf("sample %d = %f, want %f", i, buf.Samples[i], want)
		}
	}
}

func TestServerEngineCountTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/phonemize" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(phonemizeResponse{Phonemes: "hʌloʊ", TokenCount: 5}) //nolint:errcheck
	}))
	defer srv.Close()

	eng, err := New(Config{Kind: KindServer, URL: srv.URL, SampleRate: 24000, Lang: "a"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	n, err := eng.CountTokens(context.Background(), "hello")
	if err != nil {
		t.Fatalf("CountTokens failed: %v", err)
	}
	if n != 5 {
		t.Errorf("token count = %d, want 5", n)
	}
}

func TestServerEngineErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	eng, err := New(Config{Kind: KindServer, URL: srv.URL, SampleRate: 24000})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := eng.Synthesize(context.Background(), "hello", "af", 1.0); err == nil {
		t.Fatal("expected error on 503 response")
	}
	if _, err := eng.CountTokens(context.Background(), "hello"); err == nil {
		t.Fatal("expected error on 503 response")
	}
}

func TestCachePerLanguageReuse(t *testing.T) {
	cache := NewCache(Config{Kind: KindMock, SampleRate: 24000})
	defer cache.Close()

	a1, err := cache.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	a2, err := cache.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a1 != a2 {
		t.Error("same language returned different engine instances")
	}

	h, err := cache.Get("h")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if h == a1 {
		t.Error("different languages share an engine instance")
	}
}

func TestCacheClose(t *testing.T) {
	cache := NewCache(Config{Kind: KindMock, SampleRate: 24000})
	if _, err := cache.Get("a"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
