package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent generations",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store := openHistory(ctx, cfg)
	if store == nil {
		return fmt.Errorf("history is unavailable")
	}
	defer store.Close() //nolint:errcheck

	entries, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println(subtle("No generations recorded yet."))
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %-9s %-12s %6.1fs  %s\n",
			subtle(humanize.Time(e.CreatedAt)),
			e.Mode,
			e.Voice,
			e.Duration.Seconds(),
			keyword(e.OutputPath))
	}
	return nil
}
