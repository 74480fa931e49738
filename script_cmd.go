package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/aparsoft/kokoro-go/internal/history"
	"github.com/aparsoft/kokoro-go/internal/tts"
)

var (
	scriptVoice  string
	scriptSpeed  float64
	scriptOutput string
	scriptGap    time.Duration

	scriptCmd = &cobra.Command{
		Use:   "script SCRIPT_FILE",
		Short: "Convert a full script file into one voiceover",
		Long: "\nRead a script file, chunk it at sentence boundaries for optimal\n" +
			"speech quality, and combine the segments into a single voiceover.",
		Args: cobra.ExactArgs(1),
		RunE: runScript,
	}
)

func init() {
	scriptCmd.Flags().StringVarP(&scriptVoice, "voice", "V", "", "voice to use (see 'kokoro voices')")
	scriptCmd.Flags().Float64VarP(&scriptSpeed, "speed", "s", 0, "speech speed multiplier (0.5 to 2.0)")
	scriptCmd.Flags().StringVarP(&scriptOutput, "output", "o", "voiceover.wav", "output WAV file")
	scriptCmd.Flags().DurationVar(&scriptGap, "gap", 0, "gap between segments (default from config)")
}

func runScript(cmd *cobra.Command, args []string) error {
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
	res, err := eng.ProcessScript(ctx, tts.ScriptRequest{
		ScriptPath: args[0],
		OutputPath: scriptOutput,
		Gap:        scriptGap,
		Voice:      scriptVoice,
		Speed:      scriptSpeed,
	})
	if err != nil {
		return err
	}

	store := openHistory(ctx, cfg)
	if store != nil {
		defer store.Close() //nolint:errcheck
	}
	recordHistory(ctx, store, history.Entry{
		Mode:       "script",
		Voice:      scriptVoice,
		Speed:      scriptSpeed,
		Duration:   res.Duration(),
		OutputPath: res.Path,
	})

	printResult(res)
	return nil
}
