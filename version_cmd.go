package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(*cobra.Command, []string) {
		if len(CommitSHA) >= 7 {
			fmt.Printf("kokoro %s (%s)\n", Version, CommitSHA[:7])
			return
		}
		fmt.Printf("kokoro %s\n", Version)
	},
}
