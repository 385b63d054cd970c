package main

import (
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/occupation"
	"github.com/sells-group/forecast-cli/internal/pipeline"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

var (
	occComparison string
	occBase       string
	occShift      string
	occOutDir     string
)

var occupationsCmd = &cobra.Command{
	Use:   "occupations",
	Short: "Allocate segment forecasts to occupations via interpolated shares",
	Long: `Blends a local base-year staffing mix toward a national end-year mix,
allocates every methodology's segment totals across occupations, and
validates that allocated employment reconciles with the totals.

Example:
  forecast-cli occupations --comparison segment_comparison.csv \
    --base mcda_staffing.csv --shift us_staffing_shift.csv \
    --out data/processed`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		fc := cfg.Forecast

		stack, err := pipeline.ReadSegmentComparison(occComparison)
		if err != nil {
			return err
		}
		totals := occupation.ExpandBaseYear(occupation.TotalsFromStack(stack, fc.BaseYear, fc.EndYear))

		baseTable, err := tabular.ReadCSV(occBase, tabular.Options{})
		if err != nil {
			return err
		}
		baseShares, err := occupation.LoadBaseShares(baseTable, fc.BaseYear)
		if err != nil {
			return err
		}

		var shifts []occupation.ShiftShare
		if occShift != "" {
			shiftTable, err := tabular.ReadCSV(occShift, tabular.Options{})
			if err != nil {
				return err
			}
			shifts, err = occupation.LoadShiftShares(shiftTable, fc.BaseYear, fc.EndYear)
			if err != nil {
				return err
			}
		}

		shares, err := occupation.InterpolateShares(ctx, baseShares, shifts, occupation.InterpolateConfig{
			BaseYear: fc.BaseYear,
			EndYear:  fc.EndYear,
			Workers:  fc.Workers,
		})
		if err != nil {
			return err
		}

		allocs := occupation.AppendAllSegments(occupation.Allocate(totals, shares), fc.TotalSegmentName)
		validations := occupation.Validate(allocs, totals, fc.TolerancePct)

		out := filepath.Join(occOutDir, "occupation_forecasts.csv")
		if err := pipeline.WriteAllocations(out, allocs); err != nil {
			return err
		}
		snapshot := pipeline.SnapshotAllocations(allocs, fc.SnapshotYear)
		if err := pipeline.WriteAllocations(filepath.Join(occOutDir, "occupation_forecast_"+strconv.Itoa(fc.SnapshotYear)+".csv"), snapshot); err != nil {
			return err
		}
		if err := pipeline.WriteValidations(filepath.Join(occOutDir, "allocation_validation.csv"), validations); err != nil {
			return err
		}

		zap.L().Info("occupations complete",
			zap.Int("allocation_rows", len(allocs)),
			zap.Int("validation_rows", len(validations)),
			zap.String("out", occOutDir),
		)
		return nil
	},
}

func init() {
	occupationsCmd.Flags().StringVar(&occComparison, "comparison", "", "segment comparison CSV (required)")
	occupationsCmd.Flags().StringVar(&occBase, "base", "", "base-year staffing CSV (required)")
	occupationsCmd.Flags().StringVar(&occShift, "shift", "", "national occupational shift CSV")
	occupationsCmd.Flags().StringVar(&occOutDir, "out", "data/processed", "output directory")
	_ = occupationsCmd.MarkFlagRequired("comparison")
	_ = occupationsCmd.MarkFlagRequired("base")
	rootCmd.AddCommand(occupationsCmd)
}
