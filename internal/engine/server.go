package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aparsoft/kokoro-go/internal/audio"
)

// serverEngine talks to a running Kokoro HTTP server (for example a
// Kokoro-FastAPI deployment). Speech comes back as one raw f32le body
// which the stream exposes in fixed-size sub-buffers.
type serverEngine struct {
	baseURL    string
	lang       string
	sampleRate int
	client     *http.Client
}

// streamChunkSamples is the sub-buffer size the server stream yields.
const streamChunkSamples = 24000

type speechRequest struct {
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed"`
	Lang           string  `json:"lang"`
	SampleRate     int     `json:"sample_rate"`
	ResponseFormat string  `json:"response_format"`
}

type phonemizeRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

type phonemizeResponse struct {
	Phonemes   string `json:"phonemes"`
	TokenCount int    `json:"token_count"`
}

func newServerEngine(cfg Config) (*serverEngine, error) {
	url := strings.TrimRight(cfg.URL, "/")
	if url == "" {
		return nil, fmt.Errorf("%w: server URL is empty", ErrEngineUnavailable)
	}
	return &serverEngine{
		baseURL:    url,
		lang:       cfg.Lang,
		sampleRate: cfg.SampleRate,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Synthesize posts the speech request and chunks the raw PCM response
// into a stream.
func (e *serverEngine) Synthesize(ctx context.Context, text, voice string, speed float64) (*Stream, error) {
	body, err := e.post(ctx, "/v1/audio/speech", speechRequest{
		Input:          text,
		Voice:          voice,
		Speed:          speed,
		Lang:           e.lang,
		SampleRate:     e.sampleRate,
		ResponseFormat: "pcm_f32le",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	samples, err := audio.DecodeF32LE(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	var parts []*audio.Buffer
	for start := 0; start < len(samples); start += streamChunkSamples {
		end := start + streamChunkSamples
		if end > len(samples) {
			end = len(samples)
		}
		parts = append(parts, audio.NewBuffer(samples[start:end], e.sampleRate))
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: server returned no audio", ErrSynthesisFailed)
	}
	return StreamOf(parts...), nil
}

// CountTokens asks the server's phonemize endpoint for the count.
func (e *serverEngine) CountTokens(ctx context.Context, text string) (int, error) {
	body, err := e.post(ctx, "/v1/phonemize", phonemizeRequest{Text: text, Lang: e.lang})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPhonemizeFailed, err)
	}

	var resp phonemizeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPhonemizeFailed, err)
	}
	if resp.TokenCount > 0 {
		return resp.TokenCount, nil
	}
	return len(resp.Phonemes), nil
}

func (e *serverEngine) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}

	log.Debug("engine server request", "path", path, "elapsed", time.Since(started))
	return body, nil
}

// Close is a no-op: the HTTP client holds no resources worth freeing.
func (e *serverEngine) Close() error {
	return nil
}

var _ Synthesizer = (*serverEngine)(nil)
