package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/attribution"
	"github.com/sells-group/forecast-cli/internal/config"
	"github.com/sells-group/forecast-cli/internal/extend"
	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/occupation"
	"github.com/sells-group/forecast-cli/internal/segments"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

// Runner executes one end-to-end forecast run.
type Runner struct {
	Cfg      *config.Config
	Manifest *Manifest
}

// Result collects every table a run produces. Nothing is written to disk
// until the whole run has succeeded, so a failing stage can never leave a
// partial output set behind.
type Result struct {
	RunID     string
	StartedAt time.Time

	Attributions []string
	Growths      []string

	Baselines map[string]*segments.Result

	SegmentExtended map[string]map[string][]model.GroupYearRecord
	StageExtended   map[string]map[string][]model.GroupYearRecord

	SegmentStack []extend.StackedRecord
	StageStack   []extend.StackedRecord

	Shares      []model.OccupationShareRecord
	Allocations []model.AllocationRecord
	Validations []model.ValidationRecord
}

// Run executes every stage and returns the in-memory result.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:           uuid.NewString(),
		StartedAt:       time.Now().UTC(),
		Baselines:       make(map[string]*segments.Result),
		SegmentExtended: make(map[string]map[string][]model.GroupYearRecord),
		StageExtended:   make(map[string]map[string][]model.GroupYearRecord),
	}
	zap.L().Info("starting forecast run", zap.String("run_id", res.RunID))

	hist, err := r.loadHistory()
	if err != nil {
		return nil, err
	}
	lookupTable, err := tabular.ReadCSV(r.Manifest.SegmentLookup, tabular.Options{})
	if err != nil {
		return nil, err
	}
	lookup, err := segments.LoadLookup(lookupTable)
	if err != nil {
		return nil, err
	}

	for _, a := range r.Manifest.Attributions {
		t, err := tabular.ReadCSV(a.Path, tabular.Options{Encoding: a.Encoding})
		if err != nil {
			return nil, err
		}
		shares, err := attribution.Parse(t, r.Cfg.Forecast.NAICSDigits)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: attribution %s", a.Name)
		}
		agg, err := segments.Aggregate(hist, shares, lookup)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: aggregate under %s", a.Name)
		}
		res.Attributions = append(res.Attributions, a.Name)
		res.Baselines[a.Name] = agg
		res.SegmentExtended[a.Name] = make(map[string][]model.GroupYearRecord)
		res.StageExtended[a.Name] = make(map[string][]model.GroupYearRecord)
	}

	for _, g := range r.Manifest.Growths {
		segYoY, err := loadYoYFile(g.Segments)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: growth %s segments", g.Name)
		}
		var stageYoY []model.YoYGrowthRecord
		if g.Stages != "" {
			stageYoY, err = loadYoYFile(g.Stages)
			if err != nil {
				return nil, eris.Wrapf(err, "pipeline: growth %s stages", g.Name)
			}
		}
		res.Growths = append(res.Growths, g.Name)

		for _, attr := range res.Attributions {
			base := res.Baselines[attr]
			extended, err := extend.Extend(ctx, base.Segments, segYoY, g.Name, r.Cfg.Forecast.Workers)
			if err != nil {
				return nil, eris.Wrapf(err, "pipeline: extend %s/%s segments", attr, g.Name)
			}
			res.SegmentExtended[attr][g.Name] = extended

			if stageYoY != nil {
				extended, err = extend.Extend(ctx, base.Stages, stageYoY, g.Name, r.Cfg.Forecast.Workers)
				if err != nil {
					return nil, eris.Wrapf(err, "pipeline: extend %s/%s stages", attr, g.Name)
				}
				res.StageExtended[attr][g.Name] = extended
			}
		}
	}

	res.SegmentStack = extend.Stack(tagged(res, res.SegmentExtended, func(b *segments.Result) []model.GroupYearRecord { return b.Segments }), extend.StackOptions{
		AddTotal:  true,
		TotalName: r.Cfg.Forecast.TotalSegmentName,
	})
	res.StageStack = extend.Stack(tagged(res, res.StageExtended, func(b *segments.Result) []model.GroupYearRecord { return b.Stages }), extend.StackOptions{
		AddTotal:  true,
		TotalName: r.Cfg.Forecast.TotalStageName,
	})

	if r.Manifest.Occupations.Base != "" {
		if err := r.allocate(ctx, res); err != nil {
			return nil, err
		}
	}

	zap.L().Info("forecast run complete",
		zap.String("run_id", res.RunID),
		zap.Strings("attributions", res.Attributions),
		zap.Strings("growths", res.Growths),
		zap.Int("allocation_rows", len(res.Allocations)),
	)
	return res, nil
}

func (r *Runner) loadHistory() ([]model.IndustryYearRecord, error) {
	if r.Manifest.History.XLSX != "" {
		return segments.LoadHistoryXLSX(r.Manifest.History.XLSX, tabular.XLSXOptions{
			SheetName: r.Manifest.History.Sheet,
			SkipRows:  r.Manifest.History.SkipRows,
		})
	}
	t, err := tabular.ReadCSV(r.Manifest.History.CSV, tabular.Options{})
	if err != nil {
		return nil, err
	}
	return segments.LoadHistoryCSV(t)
}

func loadYoYFile(path string) ([]model.YoYGrowthRecord, error) {
	t, err := tabular.ReadCSV(path, tabular.Options{})
	if err != nil {
		return nil, err
	}
	return extend.LoadYoY(t)
}

// tagged assembles Stack inputs per attribution: the baseline plus every
// growth extension. Historical rows repeat across extensions and collapse
// in Stack's dedup.
func tagged(res *Result, extended map[string]map[string][]model.GroupYearRecord, baseOf func(*segments.Result) []model.GroupYearRecord) []extend.Tagged {
	var inputs []extend.Tagged
	for _, attr := range res.Attributions {
		records := append([]model.GroupYearRecord{}, baseOf(res.Baselines[attr])...)
		for _, g := range res.Growths {
			records = append(records, extended[attr][g]...)
		}
		inputs = append(inputs, extend.Tagged{Attribution: attr, Records: records})
	}
	return inputs
}

func (r *Runner) allocate(ctx context.Context, res *Result) error {
	fc := r.Cfg.Forecast

	baseTable, err := tabular.ReadCSV(r.Manifest.Occupations.Base, tabular.Options{})
	if err != nil {
		return err
	}
	baseShares, err := occupation.LoadBaseShares(baseTable, fc.BaseYear)
	if err != nil {
		return err
	}

	var shifts []occupation.ShiftShare
	if r.Manifest.Occupations.Shift != "" {
		shiftTable, err := tabular.ReadCSV(r.Manifest.Occupations.Shift, tabular.Options{})
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
	res.Shares = shares
	checkShareSums(shares, fc.ShareTolerance)

	totals := occupation.ExpandBaseYear(occupation.TotalsFromStack(res.SegmentStack, fc.BaseYear, fc.EndYear))
	allocs := occupation.Allocate(totals, shares)
	res.Allocations = occupation.AppendAllSegments(allocs, fc.TotalSegmentName)
	res.Validations = occupation.Validate(res.Allocations, totals, fc.TolerancePct)
	return nil
}

// checkShareSums verifies the interpolator's sum-to-one invariant per
// segment-year. A violation is a programming defect in the interpolator,
// surfaced loudly but not fatally since allocation drift is caught again by
// the validator.
func checkShareSums(shares []model.OccupationShareRecord, tolerance float64) {
	type segYear struct {
		segmentID int
		year      int
	}
	sums := make(map[segYear]float64)
	for _, s := range shares {
		sums[segYear{s.SegmentID, s.Year}] += s.Share
	}
	for k, sum := range sums {
		if math.Abs(sum-1) > tolerance {
			zap.L().Warn("occupation shares do not sum to one",
				zap.Int("segment_id", k.segmentID),
				zap.Int("year", k.year),
				zap.Float64("sum", sum),
			)
		}
	}
}

// Write persists every output table under the configured directory and
// drops a run.yaml describing what was written.
func (r *Runner) Write(res *Result) error {
	dir := r.Cfg.Output.Dir
	var written []string
	emit := func(name string, fn func(string) error) error {
		if err := fn(filepath.Join(dir, name)); err != nil {
			return err
		}
		written = append(written, name)
		return nil
	}

	for _, attr := range res.Attributions {
		base := res.Baselines[attr]
		if err := emit("segment_baseline_"+attr+".csv", func(p string) error { return WriteSegmentSeries(p, base.Segments) }); err != nil {
			return err
		}
		if err := emit("stage_baseline_"+attr+".csv", func(p string) error { return WriteStageSeries(p, base.Stages) }); err != nil {
			return err
		}
		if err := emit("naics_audit_"+attr+".csv", func(p string) error { return WriteAudit(p, base.Audit) }); err != nil {
			return err
		}
		if err := emit("segment_diagnostics_"+attr+".csv", func(p string) error { return WriteDiagnostics(p, base.SegmentDiag) }); err != nil {
			return err
		}
		if err := emit("stage_diagnostics_"+attr+".csv", func(p string) error { return WriteDiagnostics(p, base.StageDiag) }); err != nil {
			return err
		}
		for _, g := range res.Growths {
			segRecs := res.SegmentExtended[attr][g]
			if err := emit("segment_extended_"+attr+"_"+g+".csv", func(p string) error { return WriteSegmentSeries(p, segRecs) }); err != nil {
				return err
			}
			if stageRecs := res.StageExtended[attr][g]; stageRecs != nil {
				if err := emit("stage_extended_"+attr+"_"+g+".csv", func(p string) error { return WriteStageSeries(p, stageRecs) }); err != nil {
					return err
				}
			}
		}
	}

	if err := emit("segment_comparison.csv", func(p string) error { return WriteSegmentComparison(p, res.SegmentStack) }); err != nil {
		return err
	}
	if err := emit("stage_comparison.csv", func(p string) error { return WriteStageComparison(p, res.StageStack) }); err != nil {
		return err
	}

	if len(res.Allocations) > 0 {
		if err := emit("occupation_forecasts.csv", func(p string) error { return WriteAllocations(p, res.Allocations) }); err != nil {
			return err
		}
		snapshot := SnapshotAllocations(res.Allocations, r.Cfg.Forecast.SnapshotYear)
		if err := emit("occupation_forecast_"+strconv.Itoa(r.Cfg.Forecast.SnapshotYear)+".csv", func(p string) error { return WriteAllocations(p, snapshot) }); err != nil {
			return err
		}
		if err := emit("allocation_validation.csv", func(p string) error { return WriteValidations(p, res.Validations) }); err != nil {
			return err
		}
	}

	if err := writeRunManifest(filepath.Join(dir, "run.yaml"), res, r.Manifest, written); err != nil {
		return err
	}
	zap.L().Info("wrote run outputs",
		zap.String("run_id", res.RunID),
		zap.String("dir", dir),
		zap.Int("files", len(written)+1),
	)
	return nil
}
