package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/pipeline"
)

// Export writes a full run result to a SQLite database in one pass.
func Export(ctx context.Context, dsn string, res *pipeline.Result) error {
	s, err := NewSQLite(dsn)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		return err
	}
	if err := s.CreateRun(ctx, res.RunID, res.StartedAt, res.Attributions, res.Growths); err != nil {
		return err
	}

	for _, attr := range res.Attributions {
		base := res.Baselines[attr]
		if err := s.SaveSeries(ctx, res.RunID, "segment", "baseline_"+attr, base.Segments); err != nil {
			return err
		}
		if err := s.SaveSeries(ctx, res.RunID, "stage", "baseline_"+attr, base.Stages); err != nil {
			return err
		}
		for _, g := range res.Growths {
			if recs := res.SegmentExtended[attr][g]; recs != nil {
				if err := s.SaveSeries(ctx, res.RunID, "segment", "extended_"+attr+"_"+g, recs); err != nil {
					return err
				}
			}
			if recs := res.StageExtended[attr][g]; recs != nil {
				if err := s.SaveSeries(ctx, res.RunID, "stage", "extended_"+attr+"_"+g, recs); err != nil {
					return err
				}
			}
		}
	}

	if err := s.SaveComparison(ctx, res.RunID, "segment", res.SegmentStack); err != nil {
		return err
	}
	if err := s.SaveComparison(ctx, res.RunID, "stage", res.StageStack); err != nil {
		return err
	}
	if err := s.SaveAllocations(ctx, res.RunID, res.Allocations); err != nil {
		return err
	}
	if err := s.SaveValidations(ctx, res.RunID, res.Validations); err != nil {
		return err
	}

	zap.L().Info("exported run to sqlite",
		zap.String("run_id", res.RunID),
		zap.String("dsn", dsn),
	)
	return nil
}
