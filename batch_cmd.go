package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aparsoft/kokoro-go/internal/history"
	"github.com/aparsoft/kokoro-go/internal/tts"
)

var (
	batchVoice  string
	batchSpeed  float64
	batchDir    string
	batchPrefix string

	batchCmd = &cobra.Command{
		Use:   "batch TEXT...",
		Short: "Generate one audio file per text",
		Long: "\nGenerate numbered audio files, one per text argument.\n" +
			"Files are written as <prefix>_001.wav onward under the output directory.",
		Args: cobra.MinimumNArgs(1),
		RunE: runBatch,
	}
)

func init() {
	batchCmd.Flags().StringVarP(&batchVoice, "voice", "V", "", "voice to use (see 'kokoro voices')")
	batchCmd.Flags().Float64VarP(&batchSpeed, "speed", "s", 0, "speech speed multiplier (0.5 to 2.0)")
	batchCmd.Flags().StringVarP(&batchDir, "output-dir", "d", "outputs", "output directory")
	batchCmd.Flags().StringVar(&batchPrefix, "prefix", "audio", "output filename prefix")
}

func runBatch(cmd *cobra.Command, args []string) error {
	texts := splitTexts(args)

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
	paths, err := eng.BatchGenerate(ctx, tts.BatchRequest{
		Texts:     texts,
		OutputDir: batchDir,
		Voice:     batchVoice,
		Speed:     batchSpeed,
		Prefix:    batchPrefix,
	})
	if err != nil {
		return err
	}

	store := openHistory(ctx, cfg)
	if store != nil {
		defer store.Close() //nolint:errcheck
	}
	total := 0
	for _, t := range texts {
		total += len(t)
	}
	recordHistory(ctx, store, history.Entry{
		Mode:       "batch",
		Voice:      batchVoice,
		Speed:      batchSpeed,
		TextLength: total,
		OutputPath: batchDir,
	})

	for _, p := range paths {
		fmt.Println(keyword(p))
	}
	return nil
}
