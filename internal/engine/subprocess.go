package engine

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/aparsoft/kokoro-go/internal/audio"
)

// subprocessEngine drives a Kokoro runner child process. A fresh
// process is started per request with the request JSON on stdin,
// avoiding shared-stdin race conditions; the runner answers with
// newline-delimited JSON frames on stdout.
type subprocessEngine struct {
	command    []string
	lang       string
	sampleRate int

	// The model process is not safe for concurrent invocation.
	mu sync.Mutex
}

// subprocessRequest is the JSON request written to the runner.
type subprocessRequest struct {
	Op         string  `json:"op"` // "synthesize" or "phonemize"
	Text       string  `json:"text"`
	Voice      string  `json:"voice,omitempty"`
	Speed      float64 `json:"speed,omitempty"`
	Lang       string  `json:"lang"`
	SampleRate int     `json:"sample_rate"`
}

// subprocessFrame is one NDJSON response line from the runner.
type subprocessFrame struct {
	// PCMBase64 carries little-endian float32 mono samples.
	PCMBase64 string `json:"pcm_base64,omitempty"`
	Final     bool   `json:"final,omitempty"`

	// Phonemize responses.
	Phonemes   string `json:"phonemes,omitempty"`
	TokenCount int    `json:"token_count,omitempty"`

	Error string `json:"error,omitempty"`
}

func newSubprocessEngine(cfg Config) (*subprocessEngine, error) {
	args := strings.Fields(cfg.Command)
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: engine command is empty", ErrEngineUnavailable)
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, args[0], err)
	}
	return &subprocessEngine{
		command:    args,
		lang:       cfg.Lang,
		sampleRate: cfg.SampleRate,
	}, nil
}

// Synthesize starts the runner and returns a stream that reads PCM
// frames lazily as the runner emits them.
func (e *subprocessEngine) Synthesize(ctx context.Context, text, voice string, speed float64) (*Stream, error) {
	e.mu.Lock()

	cmd, stdout, err := e.start(ctx, subprocessRequest{
		Op:         "synthesize",
		Text:       text,
		Voice:      voice,
		Speed:      speed,
		Lang:       e.lang,
		SampleRate: e.sampleRate,
	})
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	// The engine lock is held until the stream drains, fails, or is
	// closed; an abandoned stream must not leave the engine locked.
	var once sync.Once
	release := func(kill bool) {
		once.Do(func() {
			if kill {
				_ = cmd.Process.Kill()
			}
			_ = cmd.Wait()
			e.mu.Unlock()
		})
	}
	finish := func() { release(false) }

	return NewStreamWithCleanup(func() (*audio.Buffer, error) {
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var frame subprocessFrame
			if err := json.Unmarshal(line, &frame); err != nil {
				finish()
				return nil, fmt.Errorf("%w: malformed frame: %v", ErrSynthesisFailed, err)
			}
			if frame.Error != "" {
				finish()
				return nil, fmt.Errorf("%w: %s", ErrSynthesisFailed, frame.Error)
			}

			pcm, err := base64.StdEncoding.DecodeString(frame.PCMBase64)
			if err != nil {
				finish()
				return nil, fmt.Errorf("%w: bad pcm payload: %v", ErrSynthesisFailed, err)
			}
			samples, err := audio.DecodeF32LE(pcm)
			if err != nil {
				finish()
				return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
			}
			return audio.NewBuffer(samples, e.sampleRate), nil
		}

		if err := scanner.Err(); err != nil {
			finish()
			return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
		}
		finish()
		return nil, io.EOF
	}, func() { release(true) }), nil
}

// CountTokens asks the runner's G2P step for the token count.
func (e *subprocessEngine) CountTokens(ctx context.Context, text string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd, stdout, err := e.start(ctx, subprocessRequest{
		Op:   "phonemize",
		Text: text,
		Lang: e.lang,
	})
	if err != nil {
		return 0, err
	}
	defer cmd.Wait() //nolint:errcheck

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrPhonemizeFailed, err)
		}
		return 0, fmt.Errorf("%w: no response", ErrPhonemizeFailed)
	}

	var frame subprocessFrame
	if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPhonemizeFailed, err)
	}
	if frame.Error != "" {
		return 0, fmt.Errorf("%w: %s", ErrPhonemizeFailed, frame.Error)
	}
	if frame.TokenCount > 0 {
		return frame.TokenCount, nil
	}
	return len(frame.Phonemes), nil
}

// start launches the runner with the encoded request on stdin.
func (e *subprocessEngine) start(ctx context.Context, req subprocessRequest) (*exec.Cmd, io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...) //nolint:gosec
	cmd.Stdin = strings.NewReader(string(payload) + "\n")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	log.Debug("starting engine process", "command", e.command[0], "op", req.Op, "lang", req.Lang)
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return cmd, stdout, nil
}

// Close is a no-op: the engine holds no persistent process.
func (e *subprocessEngine) Close() error {
	return nil
}

var _ Synthesizer = (*subprocessEngine)(nil)
