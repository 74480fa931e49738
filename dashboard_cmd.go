package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aparsoft/kokoro-go/ui"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"tui"},
	Short:   "Run the interactive dashboard",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close() //nolint:errcheck

		store := openHistory(cmd.Context(), cfg)
		if store != nil {
			defer store.Close() //nolint:errcheck
		}

		if _, err := ui.NewProgram(ui.Config{
			Engine:  eng,
			Store:   store,
			Voice:   cfg.Voice,
			Speed:   cfg.Speed,
			Version: Version,
		}).Run(); err != nil {
			return fmt.Errorf("unable to run dashboard: %w", err)
		}
		return nil
	},
}
