package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aparsoft/kokoro-go/internal/history"
	"github.com/aparsoft/kokoro-go/internal/tts"
)

var (
	podcastOutput string
	podcastGap    time.Duration

	podcastCmd = &cobra.Command{
		Use:   "podcast SEGMENTS_FILE",
		Short: "Compose a multi-voice podcast from a segments file",
		Long: "\nCompose a podcast from a JSON segments file. Each segment carries\n" +
			"its own text, voice, and speed:\n\n" +
			`  [{"text": "Welcome!", "voice": "am_michael"},` + "\n" +
			`   {"text": "Thanks for having me.", "voice": "af_bella", "speed": 1.1}]`,
		Args: cobra.ExactArgs(1),
		RunE: runPodcast,
	}
)

// podcastSegmentFile is the JSON shape of one segment on disk.
type podcastSegmentFile struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

func init() {
	podcastCmd.Flags().StringVarP(&podcastOutput, "output", "o", "podcast.wav", "output WAV file")
	podcastCmd.Flags().DurationVar(&podcastGap, "gap", 0, "gap between segments (default from config)")
}

func runPodcast(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("unable to read segments file: %w", err)
	}

	var fileSegments []podcastSegmentFile
	if err := json.Unmarshal(data, &fileSegments); err != nil {
		return fmt.Errorf("unable to parse segments file: %w", err)
	}

	segments := make([]tts.PodcastSegment, len(fileSegments))
	for i, s := range fileSegments {
		segments[i] = tts.PodcastSegment{Text: s.Text, Voice: s.Voice, Speed: s.Speed}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close() //nolint:errcheck

	ctx := cmd.Context()
	res, err := eng.GeneratePodcast(ctx, tts.PodcastRequest{
		Segments:   segments,
		OutputPath: podcastOutput,
		Gap:        podcastGap,
	})
	if err != nil {
		return err
	}

	store := openHistory(ctx, cfg)
	if store != nil {
		defer store.Close() //nolint:errcheck
	}
	recordHistory(ctx, store, history.Entry{
		Mode:       "podcast",
		Duration:   res.Duration(),
		OutputPath: res.Path,
	})

	printResult(res)
	return nil
}
