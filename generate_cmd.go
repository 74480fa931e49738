package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aparsoft/kokoro-go/internal/audio"
	"github.com/aparsoft/kokoro-go/internal/history"
	"github.com/aparsoft/kokoro-go/internal/tts"
)

var (
	generateVoice   string
	generateSpeed   float64
	generateOutput  string
	generateEnhance bool
	generatePlay    bool

	generateCmd = &cobra.Command{
		Use:   "generate [TEXT]",
		Short: "Generate speech from text",
		Long: "\nGenerate speech from the given text, or from stdin with '-'.\n" +
			"Long texts are chunked at sentence boundaries automatically.",
		Args: cobra.ExactArgs(1),
		RunE: runGenerate,
	}
)

func init() {
	generateCmd.Flags().StringVarP(&generateVoice, "voice", "V", "", "voice to use (see 'kokoro voices')")
	generateCmd.Flags().Float64VarP(&generateSpeed, "speed", "s", 0, "speech speed multiplier (0.5 to 2.0)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "output.wav", "output WAV file")
	generateCmd.Flags().BoolVar(&generateEnhance, "enhance", true, "apply audio enhancement")
	generateCmd.Flags().BoolVarP(&generatePlay, "play", "p", false, "play the result after generating")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	text, err := textFromArg(args[0])
	if err != nil {
		return err
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
	enhance := generateEnhance
	res, err := eng.Generate(ctx, tts.Request{
		Text:       text,
		Voice:      generateVoice,
		Speed:      generateSpeed,
		Enhance:    &enhance,
		OutputPath: generateOutput,
	})
	if err != nil {
		return err
	}

	store := openHistory(ctx, cfg)
	if store != nil {
		defer store.Close() //nolint:errcheck
	}
	recordHistory(ctx, store, history.Entry{
		Mode:       "generate",
		Voice:      generateVoice,
		Speed:      generateSpeed,
		TextLength: len(text),
		Duration:   res.Duration(),
		OutputPath: res.Path,
	})

	printResult(res)

	if generatePlay {
		return playBuffer(ctx, res.Buffer)
	}
	return nil
}

// textFromArg returns the argument itself, or stdin when it is "-".
func textFromArg(arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read stdin: %w", err)
	}
	return string(data), nil
}

func printResult(res *tts.Result) {
	size := "?"
	if info, err := os.Stat(res.Path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Printf("%s %s %s\n",
		keyword(res.Path),
		subtle(fmt.Sprintf("%s · %s", res.Duration().Round(100*time.Millisecond), size)),
		chunkNote(res.Chunks))
}

func chunkNote(n int) string {
	if n <= 1 {
		return ""
	}
	return subtle(fmt.Sprintf("(%d chunks)", n))
}

func playBuffer(ctx context.Context, buf *audio.Buffer) error {
	player, err := audio.NewPlayer(buf.SampleRate)
	if err != nil {
		return fmt.Errorf("unable to open audio device: %w", err)
	}
	defer player.Close() //nolint:errcheck
	return player.Play(ctx, buf)
}

// splitTexts splits a multi-text argument list, dropping empties.
func splitTexts(args []string) []string {
	texts := make([]string, 0, len(args))
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			continue
		}
		texts = append(texts, a)
	}
	return texts
}
