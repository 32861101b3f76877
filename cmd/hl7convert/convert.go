package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hl7convert/internal/archive"
	"github.com/pdiddy/hl7convert/internal/hl7"
	"github.com/pdiddy/hl7convert/internal/pipeline"
	"github.com/pdiddy/hl7convert/internal/report"
	"github.com/pdiddy/hl7convert/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert HL7 messages in a markdown file to a structured report",
	Long: `Convert reads the input document, extracts every fenced block, parses
each block as an HL7 v2 message, and writes an ordered report to the output
path. Messages that fail to parse are recorded in the report with the error
and the original text; they do not abort the batch.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath, outputPath := args[0], args[1]

		extractCfg := types.ExtractConfig{
			Fence: stringSetting(cmd, "fence", "extract.fence"),
		}
		workers := intSetting(cmd, "workers", "convert.workers")
		format := types.ReportFormat(stringSetting(cmd, "format", "convert.format"))

		data, err := os.ReadFile(inputPath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("input file %s not found", inputPath)
			}
			return fmt.Errorf("reading input %s: %w", inputPath, err)
		}

		fmt.Fprintf(os.Stderr, "Processing %s...\n", inputPath)
		started := time.Now()

		rep, err := pipeline.ProcessParallel(string(data), hl7.Parser{}, extractCfg, workers)
		if err != nil {
			return err
		}

		if err := report.Write(outputPath, rep, format); err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, "Conversion complete:")
		fmt.Fprintf(os.Stdout, "  - Successfully converted: %d messages\n", rep.SuccessCount)
		fmt.Fprintf(os.Stdout, "  - Failed conversions: %d messages\n", rep.FailureCount)
		fmt.Fprintf(os.Stdout, "  - Output saved to: %s\n", outputPath)

		if boolSetting(cmd, "archive", "archive.enabled") {
			archiveDir := stringSetting(cmd, "archive-dir", "archive.dir")
			if err := recordRun(cmd.Context(), archiveDir, inputPath, outputPath, started, rep); err != nil {
				fmt.Fprintf(os.Stderr, "warning: archiving run failed: %v\n", err)
			}
		}

		return nil
	},
}

// recordRun stores the completed run in the archive. The report file is
// already on disk, so an archive failure is a warning, not a batch failure.
func recordRun(ctx context.Context, dir, inputPath, outputPath string, started time.Time, rep types.BatchReport) error {
	store, err := archive.Open(types.ArchiveConfig{Dir: dir})
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Record(ctx, archive.RunMeta{
		InputPath:  inputPath,
		OutputPath: outputPath,
		StartedAt:  started,
	}, rep)
	return err
}

func init() {
	convertCmd.Flags().String("format", "json", "report format: json or yaml")
	convertCmd.Flags().Int("workers", 1, "number of messages parsed concurrently")
	convertCmd.Flags().String("fence", "```", "block delimiter marker")
	convertCmd.Flags().Bool("archive", false, "record the run in the local archive")
	convertCmd.Flags().String("archive-dir", archive.DefaultDir, "directory for the archive database")

	rootCmd.AddCommand(convertCmd)
}
