// Package mcpserver exposes the generation pipeline as MCP tools over
// stdio, so editor assistants and agent frameworks can drive speech
// generation as part of their workflows.
package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aparsoft/kokoro-go/internal/history"
	"github.com/aparsoft/kokoro-go/internal/tts"
)

// Server wires the facade into an MCP tool server.
type Server struct {
	engine  *tts.Engine
	store   *history.Store // may be nil
	name    string
	version string
}

// New creates a server around an existing facade. store may be nil to
// disable history recording.
func New(engine *tts.Engine, store *history.Store, version string) *Server {
	return &Server{
		engine:  engine,
		store:   store,
		name:    "kokoro-go",
		version: version,
	}
}

// GenerateSpeechParams are the inputs for the generate_speech tool.
type GenerateSpeechParams struct {
	Text       string   `json:"text" mcp:"The text to convert to speech"`
	Voice      *string  `json:"voice,omitempty" mcp:"Voice to use (e.g. 'am_michael', 'af_bella'; see list_voices)"`
	Speed      *float64 `json:"speed,omitempty" mcp:"Speech speed multiplier (0.5-2.0, default: 1.0)"`
	Enhance    *bool    `json:"enhance,omitempty" mcp:"Apply audio enhancement (default: true)"`
	OutputFile string   `json:"output_file" mcp:"Output WAV file path"`
}

// ListVoicesParams has no inputs; the tool takes no arguments.
type ListVoicesParams struct{}

// BatchGenerateParams are the inputs for the batch_generate tool.
type BatchGenerateParams struct {
	Texts     []string `json:"texts" mcp:"Texts to convert, one output file per text"`
	OutputDir string   `json:"output_dir" mcp:"Directory for the numbered output files"`
	Voice     *string  `json:"voice,omitempty" mcp:"Voice to use for all texts"`
	Speed     *float64 `json:"speed,omitempty" mcp:"Speech speed multiplier (0.5-2.0)"`
	Prefix    *string  `json:"prefix,omitempty" mcp:"Output filename prefix (default: 'audio')"`
}

// ProcessScriptParams are the inputs for the process_script tool.
type ProcessScriptParams struct {
	ScriptFile string   `json:"script_file" mcp:"Path to the script text file"`
	OutputFile string   `json:"output_file" mcp:"Output WAV file path"`
	Voice      *string  `json:"voice,omitempty" mcp:"Voice to use"`
	Speed      *float64 `json:"speed,omitempty" mcp:"Speech speed multiplier (0.5-2.0)"`
	Gap        *float64 `json:"gap_duration,omitempty" mcp:"Gap between segments in seconds (default: 0.5)"`
}

// PodcastSegmentParams is one speaker turn in generate_podcast.
type PodcastSegmentParams struct {
	Text  string   `json:"text" mcp:"The segment text"`
	Voice *string  `json:"voice,omitempty" mcp:"Voice for this segment"`
	Speed *float64 `json:"speed,omitempty" mcp:"Speed for this segment (0.5-2.0)"`
}

// GeneratePodcastParams are the inputs for the generate_podcast tool.
type GeneratePodcastParams struct {
	Segments   []PodcastSegmentParams `json:"segments" mcp:"Podcast segments with per-segment voice and speed"`
	OutputFile string                 `json:"output_file" mcp:"Output WAV file path"`
	Gap        *float64               `json:"gap_duration,omitempty" mcp:"Gap between segments in seconds (default: 0.6)"`
	Enhance    *bool                  `json:"enhance,omitempty" mcp:"Apply audio enhancement (default: true)"`
}

// Run serves tools over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := s.build()
	log.Info("MCP server starting", "name", s.name, "version", s.version)
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) build() *mcp.Server {
	impl := &mcp.Implementation{
		Name:    s.name,
		Title:   "Kokoro Text-to-Speech",
		Version: s.version,
	}
	srv := mcp.NewServer(impl, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "generate_speech",
		Description: "Generate speech from text using Kokoro TTS with automatic chunking and audio enhancement",
	}, s.generateSpeech)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_voices",
		Description: "List available Kokoro voices grouped by category",
	}, s.listVoices)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "batch_generate",
		Description: "Generate one audio file per text, numbered under an output directory",
	}, s.batchGenerate)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "process_script",
		Description: "Convert a full script file into a single voiceover with natural gaps between segments",
	}, s.processScript)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "generate_podcast",
		Description: "Compose a multi-voice podcast from segments, each with its own voice and speed",
	}, s.generatePodcast)

	return srv
}

func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

func errorResult(err error) (*mcp.CallToolResult, any, error) {
	res := textResult("Error: %v", err)
	res.IsError = true
	return res, nil, nil
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func (s *Server) record(ctx context.Context, e history.Entry) {
	if s.store == nil {
		return
	}
	if err := s.store.Record(ctx, e); err != nil {
		log.Warn("history record failed", "error", err)
	}
}

func (s *Server) generateSpeech(ctx context.Context, _ *mcp.CallToolRequest, input GenerateSpeechParams) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.Generate(ctx, tts.Request{
		Text:       input.Text,
		Voice:      deref(input.Voice, ""),
		Speed:      deref(input.Speed, 0),
		Enhance:    input.Enhance,
		OutputPath: input.OutputFile,
	})
	if err != nil {
		return errorResult(err)
	}

	s.record(ctx, history.Entry{
		Mode:       "generate",
		Voice:      deref(input.Voice, ""),
		Speed:      deref(input.Speed, 0),
		TextLength: len(input.Text),
		Duration:   res.Duration(),
		OutputPath: res.Path,
	})

	return textResult("Speech generated: %s (%.1fs, %d chunks)",
		res.Path, res.Duration().Seconds(), res.Chunks), nil, nil
}

func (s *Server) listVoices(_ context.Context, _ *mcp.CallToolRequest, _ ListVoicesParams) (*mcp.CallToolResult, any, error) {
	catalog := tts.ListVoices()

	groups := make([]string, 0, len(catalog))
	for name := range catalog {
		if name == "all" {
			continue
		}
		groups = append(groups, name)
	}
	sort.Strings(groups)

	var b strings.Builder
	for _, name := range groups {
		fmt.Fprintf(&b, "%s: %s\n", name, strings.Join(catalog[name], ", "))
	}
	return textResult("%s", b.String()), nil, nil
}

func (s *Server) batchGenerate(ctx context.Context, _ *mcp.CallToolRequest, input BatchGenerateParams) (*mcp.CallToolResult, any, error) {
	paths, err := s.engine.BatchGenerate(ctx, tts.BatchRequest{
		Texts:     input.Texts,
		OutputDir: input.OutputDir,
		Voice:     deref(input.Voice, ""),
		Speed:     deref(input.Speed, 0),
		Prefix:    deref(input.Prefix, ""),
	})
	if err != nil {
		return errorResult(err)
	}

	s.record(ctx, history.Entry{
		Mode:       "batch",
		Voice:      deref(input.Voice, ""),
		Speed:      deref(input.Speed, 0),
		TextLength: totalLength(input.Texts),
		OutputPath: input.OutputDir,
	})

	return textResult("Generated %d files:\n%s", len(paths), strings.Join(paths, "\n")), nil, nil
}

func (s *Server) processScript(ctx context.Context, _ *mcp.CallToolRequest, input ProcessScriptParams) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.ProcessScript(ctx, tts.ScriptRequest{
		ScriptPath: input.ScriptFile,
		OutputPath: input.OutputFile,
		Gap:        secondsToDuration(deref(input.Gap, 0)),
		Voice:      deref(input.Voice, ""),
		Speed:      deref(input.Speed, 0),
	})
	if err != nil {
		return errorResult(err)
	}

	s.record(ctx, history.Entry{
		Mode:       "script",
		Voice:      deref(input.Voice, ""),
		Speed:      deref(input.Speed, 0),
		Duration:   res.Duration(),
		OutputPath: res.Path,
	})

	return textResult("Script processed: %s (%.1fs, %d chunks)",
		res.Path, res.Duration().Seconds(), res.Chunks), nil, nil
}

func (s *Server) generatePodcast(ctx context.Context, _ *mcp.CallToolRequest, input GeneratePodcastParams) (*mcp.CallToolResult, any, error) {
	segments := make([]tts.PodcastSegment, len(input.Segments))
	for i, seg := range input.Segments {
		segments[i] = tts.PodcastSegment{
			Text:  seg.Text,
			Voice: deref(seg.Voice, ""),
			Speed: deref(seg.Speed, 0),
		}
	}

	res, err := s.engine.GeneratePodcast(ctx, tts.PodcastRequest{
		Segments:   segments,
		OutputPath: input.OutputFile,
		Gap:        secondsToDuration(deref(input.Gap, 0)),
		Enhance:    input.Enhance,
	})
	if err != nil {
		return errorResult(err)
	}

	s.record(ctx, history.Entry{
		Mode:       "podcast",
		Duration:   res.Duration(),
		OutputPath: res.Path,
	})

	return textResult("Podcast generated: %s (%.1fs, %d segments)",
		res.Path, res.Duration().Seconds(), res.Chunks), nil, nil
}

func totalLength(texts []string) int {
	n := 0
	for _, t := range texts {
		n += len(t)
	}
	return n
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
