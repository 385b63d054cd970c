package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/attribution"
	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/pipeline"
	"github.com/sells-group/forecast-cli/internal/segments"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

var (
	aggregateHistory     string
	aggregateHistoryXLSX string
	aggregateSheet       string
	aggregateSkipRows    int
	aggregateLookup      string
	aggregateShares      string
	aggregateEncoding    string
	aggregateName        string
	aggregateOutDir      string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate industry employment into segment and stage baselines",
	Long: `Applies attribution shares to historical industry employment and rolls
the adjusted values up into value-chain segments and stages.

Examples:
  # CSV history
  forecast-cli aggregate --history qcew.csv --lookup segments.csv \
    --shares attribution.csv --name lightcast --out data/interim

  # Workbook history with a preamble
  forecast-cli aggregate --history-xlsx qcew.xlsx --skip-rows 3 \
    --lookup segments.csv --shares attribution.csv --name bea`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		hist, err := loadHistoryInput()
		if err != nil {
			return err
		}

		lookupTable, err := tabular.ReadCSV(aggregateLookup, tabular.Options{})
		if err != nil {
			return err
		}
		lookup, err := segments.LoadLookup(lookupTable)
		if err != nil {
			return err
		}

		sharesTable, err := tabular.ReadCSV(aggregateShares, tabular.Options{Encoding: aggregateEncoding})
		if err != nil {
			return err
		}
		shares, err := attribution.Parse(sharesTable, cfg.Forecast.NAICSDigits)
		if err != nil {
			return err
		}

		res, err := segments.Aggregate(hist, shares, lookup)
		if err != nil {
			return err
		}

		if _, err := writeBaselineOutputs(aggregateOutDir, aggregateName, res); err != nil {
			return err
		}

		zap.L().Info("aggregate complete",
			zap.String("attribution", aggregateName),
			zap.Int("segment_rows", len(res.Segments)),
			zap.Int("stage_rows", len(res.Stages)),
			zap.String("out", aggregateOutDir),
		)
		return nil
	},
}

// writeBaselineOutputs writes the five per-attribution baseline files in a
// fixed order and returns the names written, so a mid-write failure always
// leaves the same prefix behind.
func writeBaselineOutputs(dir, name string, res *segments.Result) ([]string, error) {
	outputs := []struct {
		name  string
		write func(string) error
	}{
		{"segment_baseline_" + name + ".csv", func(p string) error { return pipeline.WriteSegmentSeries(p, res.Segments) }},
		{"stage_baseline_" + name + ".csv", func(p string) error { return pipeline.WriteStageSeries(p, res.Stages) }},
		{"naics_audit_" + name + ".csv", func(p string) error { return pipeline.WriteAudit(p, res.Audit) }},
		{"segment_diagnostics_" + name + ".csv", func(p string) error { return pipeline.WriteDiagnostics(p, res.SegmentDiag) }},
		{"stage_diagnostics_" + name + ".csv", func(p string) error { return pipeline.WriteDiagnostics(p, res.StageDiag) }},
	}

	written := make([]string, 0, len(outputs))
	for _, out := range outputs {
		if err := out.write(filepath.Join(dir, out.name)); err != nil {
			return written, err
		}
		written = append(written, out.name)
	}
	return written, nil
}

func loadHistoryInput() ([]model.IndustryYearRecord, error) {
	switch {
	case aggregateHistoryXLSX != "":
		return segments.LoadHistoryXLSX(aggregateHistoryXLSX, tabular.XLSXOptions{
			SheetName: aggregateSheet,
			SkipRows:  aggregateSkipRows,
		})
	case aggregateHistory != "":
		t, err := tabular.ReadCSV(aggregateHistory, tabular.Options{})
		if err != nil {
			return nil, err
		}
		return segments.LoadHistoryCSV(t)
	default:
		return nil, eris.New("aggregate: --history or --history-xlsx is required")
	}
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateHistory, "history", "", "historical employment CSV")
	aggregateCmd.Flags().StringVar(&aggregateHistoryXLSX, "history-xlsx", "", "historical employment workbook")
	aggregateCmd.Flags().StringVar(&aggregateSheet, "sheet", "", "workbook sheet name (default: first sheet)")
	aggregateCmd.Flags().IntVar(&aggregateSkipRows, "skip-rows", 0, "preamble rows to skip in the workbook")
	aggregateCmd.Flags().StringVar(&aggregateLookup, "lookup", "", "NAICS to segment lookup CSV (required)")
	aggregateCmd.Flags().StringVar(&aggregateShares, "shares", "", "attribution share CSV (required)")
	aggregateCmd.Flags().StringVar(&aggregateEncoding, "encoding", "", "share CSV charset (default: utf-8)")
	aggregateCmd.Flags().StringVar(&aggregateName, "name", "", "attribution source name (required)")
	aggregateCmd.Flags().StringVar(&aggregateOutDir, "out", "data/interim", "output directory")
	_ = aggregateCmd.MarkFlagRequired("lookup")
	_ = aggregateCmd.MarkFlagRequired("shares")
	_ = aggregateCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(aggregateCmd)
}
