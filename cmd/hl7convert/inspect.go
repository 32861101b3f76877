package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hl7convert/internal/extract"
	"github.com/pdiddy/hl7convert/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "List the fenced blocks a document would yield, without parsing",
	Long: `Inspect runs extraction only: it prints the index, size, and first line
of every fenced block in the document, in the order convert would process
them. Useful for checking fence placement before a conversion run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]

		cfg := types.ExtractConfig{
			Fence: stringSetting(cmd, "fence", "extract.fence"),
		}

		data, err := os.ReadFile(inputPath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("input file %s not found", inputPath)
			}
			return fmt.Errorf("reading input %s: %w", inputPath, err)
		}

		candidates := extract.Candidates(string(data), cfg)
		if len(candidates) == 0 {
			fmt.Fprintln(os.Stdout, "no fenced blocks found")
			return nil
		}

		for _, c := range candidates {
			fmt.Fprintf(os.Stdout, "%3d  %6d bytes  %s\n", c.Index, len(c.RawText), firstLine(c.RawText))
		}
		fmt.Fprintf(os.Stdout, "\n%d blocks\n", len(candidates))
		return nil
	},
}

// firstLine returns the first line of s, truncated for display.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 60
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func init() {
	inspectCmd.Flags().String("fence", "```", "block delimiter marker")

	rootCmd.AddCommand(inspectCmd)
}
