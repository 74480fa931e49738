package main

import (
	"github.com/spf13/cobra"

	"github.com/aparsoft/kokoro-go/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"mcp"},
	Short:   "Serve generation tools over the Model Context Protocol",
	Long: "\nExpose speech generation as MCP tools over stdio, so assistants\n" +
		"and agent frameworks can generate voiceovers, scripts, and podcasts.",
	Args: cobra.NoArgs,
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

		return mcpserver.New(eng, store, Version).Run(cmd.Context())
	},
}
