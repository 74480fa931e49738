// Package tts orchestrates the full text-to-speech pipeline: request
// validation, token-aware chunking, per-chunk synthesis, segment
// combination, enhancement, and output. It is the single entry point
// the CLI, MCP server, and dashboard adapters call into.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aparsoft/kokoro-go/internal/audio"
	"github.com/aparsoft/kokoro-go/internal/chunker"
	"github.com/aparsoft/kokoro-go/internal/engine"
)

// Speed bounds accepted by every generation mode.
const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// Options configures an Engine. Zero fields are filled in by New from
// DefaultOptions.
type Options struct {
	// Engine describes the backend; Lang is filled in per voice.
	Engine engine.Config

	// Voice is the default voice for requests that name none.
	Voice string

	// Speed is the default speed multiplier.
	Speed float64

	// Enhance is the default enhancement toggle.
	Enhance bool

	// EnhanceOptions tunes the enhancement pipeline.
	EnhanceOptions audio.EnhanceOptions

	// Chunking bounds chunk sizes for long texts.
	Chunking chunker.Policy

	// SampleRate is the engine-native sample rate.
	SampleRate int

	// ChunkGap is the silence inserted between stitched chunks of one
	// text.
	ChunkGap time.Duration

	// ScriptGap is the default silence between script segments.
	ScriptGap time.Duration

	// PodcastGap is the default silence between podcast segments,
	// larger than ChunkGap so speaker turns read as turns.
	PodcastGap time.Duration

	// Crossfade is the edge fade applied to each combined segment.
	Crossfade time.Duration

	// MaxPodcastSegments caps a single podcast request.
	MaxPodcastSegments int
}

// DefaultOptions returns the Kokoro-tuned defaults.
func DefaultOptions() Options {
	return Options{
		Engine:             engine.Config{Kind: engine.KindSubprocess, Command: "kokoro-engine"},
		Voice:              "am_michael",
		Speed:              1.0,
		Enhance:            true,
		EnhanceOptions:     audio.DefaultEnhanceOptions(),
		Chunking:           chunker.DefaultPolicy(),
		SampleRate:         audio.DefaultSampleRate,
		ChunkGap:           200 * time.Millisecond,
		ScriptGap:          500 * time.Millisecond,
		PodcastGap:         600 * time.Millisecond,
		Crossfade:          100 * time.Millisecond,
		MaxPodcastSegments: 50,
	}
}

// Engine is the facade over the whole pipeline. It owns a per-language
// cache of backend instances, created lazily and torn down by Close.
// Generation calls are synchronous; the backend instance is not assumed
// safe for concurrent invocation, so callers wanting parallelism use
// separate Engines.
type Engine struct {
	opts  Options
	cache *engine.Cache
}

// New creates a facade. The chunking policy and default parameters are
// validated once here so every later request can trust them.
func New(opts Options) (*Engine, error) {
	def := DefaultOptions()
	if opts.Voice == "" {
		opts.Voice = def.Voice
	}
	if opts.Speed == 0 {
		opts.Speed = def.Speed
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = def.SampleRate
	}
	if opts.Chunking == (chunker.Policy{}) {
		opts.Chunking = def.Chunking
	}
	if opts.ChunkGap <= 0 {
		opts.ChunkGap = def.ChunkGap
	}
	if opts.ScriptGap <= 0 {
		opts.ScriptGap = def.ScriptGap
	}
	if opts.PodcastGap <= 0 {
		opts.PodcastGap = def.PodcastGap
	}
	if opts.Crossfade <= 0 {
		opts.Crossfade = def.Crossfade
	}
	if opts.MaxPodcastSegments <= 0 {
		opts.MaxPodcastSegments = def.MaxPodcastSegments
	}

	if err := opts.Chunking.Validate(); err != nil {
		return nil, wrapErr(KindValidation, "new engine", err)
	}
	if !engine.IsValidVoice(opts.Voice) {
		return nil, wrapErr(KindValidation, "new engine", fmt.Errorf("%w: %q", ErrInvalidVoice, opts.Voice))
	}
	if opts.Speed < MinSpeed || opts.Speed > MaxSpeed {
		return nil, wrapErr(KindValidation, "new engine", fmt.Errorf("%w: %g not in [%g, %g]", ErrSpeedOutOfRange, opts.Speed, MinSpeed, MaxSpeed))
	}

	base := opts.Engine
	base.SampleRate = opts.SampleRate
	return &Engine{opts: opts, cache: engine.NewCache(base)}, nil
}

// Close shuts down all cached backend instances.
func (e *Engine) Close() error {
	return e.cache.Close()
}

// Request describes one generation call. Zero-value Voice and Speed
// fall back to the configured defaults; a nil Enhance does the same.
type Request struct {
	Text       string
	Voice      string
	Speed      float64
	Enhance    *bool
	OutputPath string
}

// Result is the outcome of a generation call. Buffer is always set;
// Path is set only when the request named an output file.
type Result struct {
	Buffer *audio.Buffer
	Path   string
	Chunks int
}

// Duration reports the length of the generated audio.
func (r *Result) Duration() time.Duration {
	return r.Buffer.Duration()
}

// resolve applies defaults and validates the per-request parameters.
func (e *Engine) resolve(req Request) (Request, error) {
	if strings.TrimSpace(req.Text) == "" {
		return req, wrapErr(KindValidation, "validate request", ErrEmptyText)
	}
	if req.Voice == "" {
		req.Voice = e.opts.Voice
	}
	if req.Speed == 0 {
		req.Speed = e.opts.Speed
	}
	if !engine.IsValidVoice(req.Voice) {
		return req, wrapErr(KindValidation, "validate request", fmt.Errorf("%w: %q", ErrInvalidVoice, req.Voice))
	}
	if req.Speed < MinSpeed || req.Speed > MaxSpeed {
		return req, wrapErr(KindValidation, "validate request", fmt.Errorf("%w: %g not in [%g, %g]", ErrSpeedOutOfRange, req.Speed, MinSpeed, MaxSpeed))
	}
	return req, nil
}

func (e *Engine) enhanceEnabled(req Request) bool {
	if req.Enhance != nil {
		return *req.Enhance
	}
	return e.opts.Enhance
}

// backend returns the engine instance serving the voice's language.
func (e *Engine) backend(voice string) (engine.Synthesizer, error) {
	eng, err := e.cache.Get(engine.LangCode(voice))
	if err != nil {
		return nil, wrapErr(KindEngine, "create engine", err)
	}
	return eng, nil
}

// Generate converts text to speech. Texts whose token count exceeds
// the chunking maximum are split at sentence boundaries, synthesized
// chunk by chunk in order, and stitched with short silence gaps.
// Enhancement runs once on the fully assembled buffer so trims and
// fades only touch the true start and end of the utterance.
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	req, err := e.resolve(req)
	if err != nil {
		return nil, err
	}

	eng, err := e.backend(req.Voice)
	if err != nil {
		return nil, err
	}

	log.Info("generating speech",
		"text_length", len(req.Text),
		"voice", req.Voice,
		"speed", req.Speed,
		"enhance", e.enhanceEnabled(req))

	buf, chunks, err := e.synthesizeBudgeted(ctx, eng, req.Text, req.Voice, req.Speed)
	if err != nil {
		return nil, err
	}

	if e.enhanceEnabled(req) {
		buf, err = audio.Enhance(buf, e.opts.EnhanceOptions)
		if err != nil {
			return nil, wrapErr(KindAudio, "enhance", err)
		}
	}

	res := &Result{Buffer: buf, Chunks: chunks}
	if req.OutputPath != "" {
		if err := saveOutput(buf, req.OutputPath); err != nil {
			return nil, err
		}
		res.Path = req.OutputPath
	}

	log.Info("speech generated", "duration", buf.Duration(), "samples", buf.Len(), "chunks", chunks)
	return res, nil
}

// synthesizeBudgeted is the direct-or-chunked path shared by every
// generation mode. Texts within the token maximum go through a single
// engine call; longer texts are split, synthesized chunk by chunk, and
// stitched with the chunk gap so no engine call exceeds the budget.
func (e *Engine) synthesizeBudgeted(ctx context.Context, eng engine.Synthesizer, text, voice string, speed float64) (*audio.Buffer, int, error) {
	counter := chunker.NewCounter(eng)
	tokens := counter.Count(ctx, text)
	if tokens <= e.opts.Chunking.MaxTargetTokens {
		buf, err := e.synthesize(ctx, eng, text, voice, speed)
		return buf, 1, err
	}

	parts := chunker.New(counter, e.opts.Chunking).Split(ctx, text)
	log.Info("text exceeds optimal length, chunking", "tokens", tokens, "chunks", len(parts))

	segments := make([]*audio.Buffer, 0, len(parts))
	for i, part := range parts {
		log.Debug("processing chunk",
			"chunk", i+1,
			"total", len(parts),
			"tokens", part.Tokens,
			"preview", preview(part.Text))

		seg, err := e.synthesize(ctx, eng, part.Text, voice, speed)
		if err != nil {
			return nil, 0, err
		}
		segments = append(segments, seg)
	}

	buf, err := audio.Combine(segments, e.opts.SampleRate, e.opts.ChunkGap, e.opts.Crossfade)
	if err != nil {
		return nil, 0, wrapErr(KindAudio, "combine chunks", err)
	}
	return buf, len(parts), nil
}

// synthesize runs one engine call and drains its stream into a single
// buffer. Any engine failure aborts the whole request; a truncated
// voiceover is a worse outcome than an explicit error.
func (e *Engine) synthesize(ctx context.Context, eng engine.Synthesizer, text, voice string, speed float64) (*audio.Buffer, error) {
	stream, err := eng.Synthesize(ctx, text, voice, speed)
	if err != nil {
		return nil, wrapErr(KindEngine, "synthesize", err)
	}
	buf, err := stream.Collect()
	if err != nil {
		return nil, wrapErr(KindEngine, "synthesize", err)
	}
	return buf, nil
}

// GenerateStream returns the raw sub-buffers as the engine emits them,
// chunking long texts the same way Generate does. No enhancement or
// gap insertion is applied; callers consume the stream for real-time
// playback or their own processing.
func (e *Engine) GenerateStream(ctx context.Context, req Request) (*engine.Stream, error) {
	req, err := e.resolve(req)
	if err != nil {
		return nil, err
	}

	eng, err := e.backend(req.Voice)
	if err != nil {
		return nil, err
	}

	counter := chunker.NewCounter(eng)
	tokens := counter.Count(ctx, req.Text)

	texts := []string{req.Text}
	if tokens > e.opts.Chunking.MaxTargetTokens {
		parts := chunker.New(counter, e.opts.Chunking).Split(ctx, req.Text)
		texts = texts[:0]
		for _, part := range parts {
			texts = append(texts, part.Text)
		}
	}
	log.Info("generating speech stream", "voice", req.Voice, "chunks", len(texts))

	// Chain the per-chunk streams into one lazy sequence. Closing the
	// outer stream closes whichever inner stream is in flight so the
	// backend is released when a caller abandons playback.
	var current *engine.Stream
	i := 0
	return engine.NewStreamWithCleanup(func() (*audio.Buffer, error) {
		for {
			if current == nil {
				if i >= len(texts) {
					return nil, io.EOF
				}
				s, err := eng.Synthesize(ctx, texts[i], req.Voice, req.Speed)
				if err != nil {
					return nil, wrapErr(KindEngine, "synthesize", err)
				}
				current = s
				i++
			}
			buf, err := current.Next()
			if errors.Is(err, io.EOF) {
				current = nil
				continue
			}
			if err != nil {
				return nil, wrapErr(KindEngine, "synthesize", err)
			}
			return buf, nil
		}
	}, func() {
		if current != nil {
			_ = current.Close()
			current = nil
		}
	}), nil
}

// BatchRequest describes a batch of independent texts, each written to
// its own numbered file under OutputDir.
type BatchRequest struct {
	Texts     []string
	OutputDir string
	Voice     string
	Speed     float64
	Enhance   *bool
	Prefix    string
}

// BatchGenerate generates one file per text, named
// <prefix>_001.wav onward. Texts are processed one at a time; the
// first failure aborts the batch.
func (e *Engine) BatchGenerate(ctx context.Context, req BatchRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return nil, wrapErr(KindValidation, "batch generate", ErrNoTexts)
	}
	if req.Prefix == "" {
		req.Prefix = "audio"
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, wrapErr(KindIO, "create "+req.OutputDir, err)
	}

	log.Info("batch generation started", "texts", len(req.Texts), "dir", req.OutputDir)

	paths := make([]string, 0, len(req.Texts))
	for i, text := range req.Texts {
		out := filepath.Join(req.OutputDir, fmt.Sprintf("%s_%03d.wav", req.Prefix, i+1))
		res, err := e.Generate(ctx, Request{
			Text:       text,
			Voice:      req.Voice,
			Speed:      req.Speed,
			Enhance:    req.Enhance,
			OutputPath: out,
		})
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i+1, err)
		}
		paths = append(paths, res.Path)
		log.Info("batch item generated", "index", i+1, "path", res.Path)
	}

	log.Info("batch generation completed", "files", len(paths))
	return paths, nil
}

// ScriptRequest describes a full script file to turn into one
// voiceover.
type ScriptRequest struct {
	ScriptPath string
	OutputPath string
	Gap        time.Duration
	Voice      string
	Speed      float64
	Enhance    *bool
}

// ProcessScript reads a script file, chunks it for optimal token
// distribution, synthesizes each chunk, and combines them with gaps
// into a single output file.
func (e *Engine) ProcessScript(ctx context.Context, req ScriptRequest) (*Result, error) {
	if req.Gap <= 0 {
		req.Gap = e.opts.ScriptGap
	}

	script, err := os.ReadFile(req.ScriptPath)
	if err != nil {
		return nil, wrapErr(KindIO, "read "+req.ScriptPath, err)
	}

	gen := Request{Text: string(script), Voice: req.Voice, Speed: req.Speed, Enhance: req.Enhance}
	gen, err = e.resolve(gen)
	if err != nil {
		return nil, err
	}

	eng, err := e.backend(gen.Voice)
	if err != nil {
		return nil, err
	}

	counter := chunker.NewCounter(eng)
	parts := chunker.New(counter, e.opts.Chunking).Split(ctx, gen.Text)
	log.Info("processing script", "path", req.ScriptPath, "chunks", len(parts))

	segments := make([]*audio.Buffer, 0, len(parts))
	for i, part := range parts {
		log.Info("processing chunk", "chunk", i+1, "total", len(parts), "tokens", part.Tokens)
		seg, err := e.synthesize(ctx, eng, part.Text, gen.Voice, gen.Speed)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	buf, err := audio.Combine(segments, e.opts.SampleRate, req.Gap, e.opts.Crossfade)
	if err != nil {
		return nil, wrapErr(KindAudio, "combine segments", err)
	}

	if e.enhanceEnabled(gen) {
		buf, err = audio.Enhance(buf, e.opts.EnhanceOptions)
		if err != nil {
			return nil, wrapErr(KindAudio, "enhance", err)
		}
	}

	if err := saveOutput(buf, req.OutputPath); err != nil {
		return nil, err
	}

	log.Info("script processed", "output", req.OutputPath, "chunks", len(parts), "duration", buf.Duration())
	return &Result{Buffer: buf, Path: req.OutputPath, Chunks: len(parts)}, nil
}

// PodcastSegment is one speaker turn with its own voice and speed.
type PodcastSegment struct {
	Text  string
	Voice string
	Speed float64
}

// PodcastRequest describes a multi-voice composition.
type PodcastRequest struct {
	Segments   []PodcastSegment
	OutputPath string
	Gap        time.Duration
	Enhance    *bool
}

// GeneratePodcast synthesizes each segment with its own voice and
// speed and combines them with the podcast gap. All segments are
// validated before any synthesis starts, so a typo in segment twelve
// fails fast instead of after eleven segments of work.
func (e *Engine) GeneratePodcast(ctx context.Context, req PodcastRequest) (*Result, error) {
	if len(req.Segments) == 0 {
		return nil, wrapErr(KindValidation, "generate podcast", ErrNoSegments)
	}
	if len(req.Segments) > e.opts.MaxPodcastSegments {
		return nil, wrapErr(KindValidation, "generate podcast",
			fmt.Errorf("%w: %d > %d", ErrTooManySegments, len(req.Segments), e.opts.MaxPodcastSegments))
	}
	if req.Gap <= 0 {
		req.Gap = e.opts.PodcastGap
	}

	resolved := make([]Request, len(req.Segments))
	for i, seg := range req.Segments {
		r, err := e.resolve(Request{Text: seg.Text, Voice: seg.Voice, Speed: seg.Speed})
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		resolved[i] = r
	}

	log.Info("generating podcast", "segments", len(resolved), "gap", req.Gap)

	buffers := make([]*audio.Buffer, 0, len(resolved))
	for i, r := range resolved {
		eng, err := e.backend(r.Voice)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		// Long segments are chunked the same way Generate chunks long
		// texts, so the per-call token budget holds inside a podcast.
		buf, _, err := e.synthesizeBudgeted(ctx, eng, r.Text, r.Voice, r.Speed)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		buffers = append(buffers, buf)
	}

	buf, err := audio.Combine(buffers, e.opts.SampleRate, req.Gap, e.opts.Crossfade)
	if err != nil {
		return nil, wrapErr(KindAudio, "combine segments", err)
	}

	enhance := e.opts.Enhance
	if req.Enhance != nil {
		enhance = *req.Enhance
	}
	if enhance {
		buf, err = audio.Enhance(buf, e.opts.EnhanceOptions)
		if err != nil {
			return nil, wrapErr(KindAudio, "enhance", err)
		}
	}

	res := &Result{Buffer: buf, Chunks: len(resolved)}
	if req.OutputPath != "" {
		if err := saveOutput(buf, req.OutputPath); err != nil {
			return nil, err
		}
		res.Path = req.OutputPath
	}

	log.Info("podcast generated", "segments", len(resolved), "duration", buf.Duration())
	return res, nil
}

// saveOutput writes the buffer in the container the path's extension
// selects. An unsupported format is the caller's mistake, not an I/O
// failure.
func saveOutput(buf *audio.Buffer, path string) error {
	if err := audio.Save(buf, path); err != nil {
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			return wrapErr(KindValidation, "save "+path, err)
		}
		return wrapErr(KindIO, "save "+path, err)
	}
	return nil
}

// ListVoices returns the voice catalog grouped by category.
func ListVoices() map[string][]string {
	return engine.ListVoices()
}

func preview(text string) string {
	if len(text) > 50 {
		return text[:50]
	}
	return text
}

