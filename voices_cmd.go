package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aparsoft/kokoro-go/internal/tts"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List available voices",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		catalog := tts.ListVoices()

		groups := make([]string, 0, len(catalog))
		for name := range catalog {
			if name == "all" {
				continue
			}
			groups = append(groups, name)
		}
		sort.Strings(groups)

		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}

		for _, name := range groups {
			fmt.Println(keyword(strings.ReplaceAll(name, "_", " ")))
			fmt.Println(columns(catalog[name], width))
		}
		return nil
	},
}

// columns lays names out in terminal-width columns.
func columns(names []string, width int) string {
	const colWidth = 16
	perRow := width / colWidth
	if perRow < 1 {
		perRow = 1
	}

	var b strings.Builder
	for i, name := range names {
		fmt.Fprintf(&b, "  %-*s", colWidth-2, name)
		if (i+1)%perRow == 0 && i != len(names)-1 {
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	return b.String()
}
