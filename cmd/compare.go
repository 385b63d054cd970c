package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/extend"
	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/pipeline"
)

var (
	compareSegments []string
	compareStages   []string
	compareOutDir   string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Stack extended series from competing methodologies into one table",
	Long: `Combines extended series produced under different attribution schemes
into a long-format comparison table with synthetic all-groups totals.
Inputs are tagged attribution=path; a tag may repeat, one file per
growth source.

Example:
  forecast-cli compare \
    --segments lightcast=segment_extended_lightcast_moody.csv \
    --segments bea=segment_extended_bea_moody.csv \
    --out data/processed`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		segInputs, err := taggedSeries(compareSegments, pipeline.ReadSegmentSeries)
		if err != nil {
			return err
		}
		stack := extend.Stack(segInputs, extend.StackOptions{
			AddTotal:  true,
			TotalName: cfg.Forecast.TotalSegmentName,
		})
		out := filepath.Join(compareOutDir, "segment_comparison.csv")
		if err := pipeline.WriteSegmentComparison(out, stack); err != nil {
			return err
		}
		zap.L().Info("wrote segment comparison", zap.Int("rows", len(stack)), zap.String("out", out))

		if len(compareStages) == 0 {
			return nil
		}
		stageInputs, err := taggedSeries(compareStages, pipeline.ReadStageSeries)
		if err != nil {
			return err
		}
		stageStack := extend.Stack(stageInputs, extend.StackOptions{
			AddTotal:  true,
			TotalName: cfg.Forecast.TotalStageName,
		})
		out = filepath.Join(compareOutDir, "stage_comparison.csv")
		if err := pipeline.WriteStageComparison(out, stageStack); err != nil {
			return err
		}
		zap.L().Info("wrote stage comparison", zap.Int("rows", len(stageStack)), zap.String("out", out))
		return nil
	},
}

// taggedSeries parses attribution=path pairs and reads each file, merging
// repeated tags into one input.
func taggedSeries(pairs []string, read func(string) ([]model.GroupYearRecord, error)) ([]extend.Tagged, error) {
	byTag := make(map[string]int)
	var inputs []extend.Tagged
	for _, pair := range pairs {
		tag, path, ok := strings.Cut(pair, "=")
		if !ok || tag == "" || path == "" {
			return nil, eris.Errorf("compare: input %q is not attribution=path", pair)
		}
		records, err := read(path)
		if err != nil {
			return nil, err
		}
		if i, seen := byTag[tag]; seen {
			inputs[i].Records = append(inputs[i].Records, records...)
			continue
		}
		byTag[tag] = len(inputs)
		inputs = append(inputs, extend.Tagged{Attribution: tag, Records: records})
	}
	if len(inputs) == 0 {
		return nil, eris.New("compare: at least one tagged input is required")
	}
	return inputs, nil
}

func init() {
	compareCmd.Flags().StringArrayVar(&compareSegments, "segments", nil, "tagged segment series, attribution=path (repeatable)")
	compareCmd.Flags().StringArrayVar(&compareStages, "stages", nil, "tagged stage series, attribution=path (repeatable)")
	compareCmd.Flags().StringVar(&compareOutDir, "out", "data/processed", "output directory")
	_ = compareCmd.MarkFlagRequired("segments")
	rootCmd.AddCommand(compareCmd)
}
