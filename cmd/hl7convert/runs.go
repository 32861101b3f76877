package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hl7convert/internal/archive"
	"github.com/pdiddy/hl7convert/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived conversion runs",
	Long: `Runs lists conversion runs recorded with convert --archive, newest
first: when the run started, its input and output paths, and how many
messages succeeded and failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := stringSetting(cmd, "archive-dir", "archive.dir")
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := archive.Open(types.ArchiveConfig{Dir: dir})
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stdout, "no archived runs")
			return nil
		}

		for _, r := range runs {
			fmt.Fprintf(os.Stdout, "%4d  %s  %s -> %s  (%d ok, %d failed)\n",
				r.ID, r.StartedAt.Local().Format(time.DateTime),
				r.InputPath, r.OutputPath, r.SuccessCount, r.FailureCount)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().String("archive-dir", archive.DefaultDir, "directory for the archive database")
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")

	rootCmd.AddCommand(runsCmd)
}
