package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/wordcrawl/pkg/analyzer"
	"github.com/amosWeiskopf/wordcrawl/pkg/extractor"
	"github.com/amosWeiskopf/wordcrawl/pkg/reporter"
	"github.com/amosWeiskopf/wordcrawl/pkg/state"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [STATE_FILE]",
		Short: "Summarize a saved crawl state",
		Long: `Report reads a state file written with --output-state and prints a summary
of the crawl. Without an argument the configured state file is read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReport,
	}

	cmd.Flags().StringP("format", "f", "text", "Report format (text, json, markdown, html)")
	cmd.Flags().String("dictionary", "", "Dictionary file to include word statistics from")
	cmd.Flags().String("report-file", "", "Output file for the report")
	cmd.Flags().String("state-file", "state-wdict.json", "State file to read")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	formatName, _ := cmd.Flags().GetString("format")
	format, err := reporter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	path := cfg.Output.StateFile
	if len(args) == 1 {
		path = args[0]
	}
	st, err := state.Load(path)
	if err != nil {
		return err
	}

	words := extractor.NewWordDB()
	if dictionary, _ := cmd.Flags().GetString("dictionary"); dictionary != "" {
		if _, err := reporter.LoadDictionary(dictionary, words, logger); err != nil {
			return err
		}
	}

	summary, err := analyzer.New().Analyze(st, words.Words())
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	report, err := reporter.New().GenerateReport(summary, format)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	output, _ := cmd.Flags().GetString("report-file")
	if output == "" {
		fmt.Fprint(cmd.OutOrStdout(), report)
		return nil
	}
	if err := os.WriteFile(output, []byte(report), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", output)
	return nil
}
