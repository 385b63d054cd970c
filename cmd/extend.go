package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/extend"
	"github.com/sells-group/forecast-cli/internal/pipeline"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

var (
	extendSegments    string
	extendStages      string
	extendYoYSegments string
	extendYoYStages   string
	extendSource      string
	extendOutDir      string
)

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Extend baselines into forecast years with YoY growth rates",
	Long: `Compounds year-over-year growth rates from an external projection onto
an aggregated baseline. Years the projection does not cover are skipped,
not treated as zero growth.

Example:
  forecast-cli extend --segments segment_baseline_lightcast.csv \
    --yoy-segments moodys_segments_yoy.csv --source moody --out data/interim`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		baseline, err := pipeline.ReadSegmentSeries(extendSegments)
		if err != nil {
			return err
		}
		yoyTable, err := tabular.ReadCSV(extendYoYSegments, tabular.Options{})
		if err != nil {
			return err
		}
		yoy, err := extend.LoadYoY(yoyTable)
		if err != nil {
			return err
		}
		extended, err := extend.Extend(ctx, baseline, yoy, extendSource, cfg.Forecast.Workers)
		if err != nil {
			return err
		}
		out := filepath.Join(extendOutDir, "segment_extended_"+extendSource+".csv")
		if err := pipeline.WriteSegmentSeries(out, extended); err != nil {
			return err
		}
		zap.L().Info("extended segments",
			zap.String("source", extendSource),
			zap.Int("rows", len(extended)),
			zap.String("out", out),
		)

		if extendStages == "" {
			return nil
		}
		stageBaseline, err := pipeline.ReadStageSeries(extendStages)
		if err != nil {
			return err
		}
		stageYoYTable, err := tabular.ReadCSV(extendYoYStages, tabular.Options{})
		if err != nil {
			return err
		}
		stageYoY, err := extend.LoadYoY(stageYoYTable)
		if err != nil {
			return err
		}
		stageExtended, err := extend.Extend(ctx, stageBaseline, stageYoY, extendSource, cfg.Forecast.Workers)
		if err != nil {
			return err
		}
		out = filepath.Join(extendOutDir, "stage_extended_"+extendSource+".csv")
		if err := pipeline.WriteStageSeries(out, stageExtended); err != nil {
			return err
		}
		zap.L().Info("extended stages",
			zap.String("source", extendSource),
			zap.Int("rows", len(stageExtended)),
			zap.String("out", out),
		)
		return nil
	},
}

func init() {
	extendCmd.Flags().StringVar(&extendSegments, "segments", "", "segment baseline CSV (required)")
	extendCmd.Flags().StringVar(&extendStages, "stages", "", "stage baseline CSV")
	extendCmd.Flags().StringVar(&extendYoYSegments, "yoy-segments", "", "segment-level YoY growth CSV (required)")
	extendCmd.Flags().StringVar(&extendYoYStages, "yoy-stages", "", "stage-level YoY growth CSV")
	extendCmd.Flags().StringVar(&extendSource, "source", "", "growth source name (required)")
	extendCmd.Flags().StringVar(&extendOutDir, "out", "data/interim", "output directory")
	_ = extendCmd.MarkFlagRequired("segments")
	_ = extendCmd.MarkFlagRequired("yoy-segments")
	_ = extendCmd.MarkFlagRequired("source")
	extendCmd.MarkFlagsRequiredTogether("stages", "yoy-stages")
	rootCmd.AddCommand(extendCmd)
}
