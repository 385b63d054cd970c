// Package extend grows historical group baselines forward with external
// year-over-year rates and stacks competing methodologies for comparison.
package extend

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/forecast-cli/internal/model"
)

// Extend produces one continuous series per group: historical rows where
// history exists, compounded forecast rows beyond the last historical year.
//
// Compounding is path-dependent, so years within a group are processed
// strictly in ascending order; independent groups run in parallel. A nil
// growth rate skips its year without emitting a record; the next applied
// rate compounds from the last emitted level, not from a re-derived base.
// Groups absent from the growth table keep their historical rows only.
func Extend(ctx context.Context, baseline []model.GroupYearRecord, yoy []model.YoYGrowthRecord, source string, workers int) ([]model.GroupYearRecord, error) {
	byGroup := make(map[string][]model.GroupYearRecord)
	var order []string
	for _, rec := range baseline {
		key := rec.Group.Key()
		if _, ok := byGroup[key]; !ok {
			order = append(order, key)
		}
		byGroup[key] = append(byGroup[key], rec)
	}

	ratesByGroup := make(map[string][]model.YoYGrowthRecord)
	for _, r := range yoy {
		key := r.Group.Key()
		ratesByGroup[key] = append(ratesByGroup[key], r)
	}

	if workers <= 0 {
		workers = 1
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	forecasts := make(map[string][]model.GroupYearRecord, len(order))

	for _, key := range order {
		key := key
		records := byGroup[key]
		rates := ratesByGroup[key]
		g.Go(func() error {
			rows := extendGroup(records, rates, source)
			mu.Lock()
			forecasts[key] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Historical first so it wins every (group, year) collision.
	seen := make(map[groupYearKey]struct{})
	var out []model.GroupYearRecord
	appendRows := func(rows []model.GroupYearRecord, historicalOnly bool) {
		for _, rec := range rows {
			if historicalOnly != (rec.ValueType == model.ValueHistorical) {
				continue
			}
			k := groupYearKey{rec.Group.Key(), rec.Year}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, rec)
		}
	}
	for _, key := range order {
		appendRows(byGroup[key], true)
	}
	for _, key := range order {
		appendRows(byGroup[key], false)
		appendRows(forecasts[key], false)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return model.GroupLess(out[i].Group, out[j].Group)
		}
		return out[i].Year < out[j].Year
	})

	zap.L().Info("extended baseline",
		zap.String("forecast_source", source),
		zap.Int("groups", len(order)),
		zap.Int("rows", len(out)),
	)
	return out, nil
}

type groupYearKey struct {
	group string
	year  int
}

func extendGroup(records []model.GroupYearRecord, rates []model.YoYGrowthRecord, source string) []model.GroupYearRecord {
	lastYear := 0
	level := 0.0
	found := false
	for _, rec := range records {
		if rec.ValueType != model.ValueHistorical {
			continue
		}
		if !found || rec.Year > lastYear {
			lastYear = rec.Year
			level = rec.Employment
			found = true
		}
	}
	if !found || len(rates) == 0 {
		return nil
	}

	sorted := make([]model.YoYGrowthRecord, len(rates))
	copy(sorted, rates)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	group := records[0].Group
	var out []model.GroupYearRecord
	prevYear := 0
	for _, r := range sorted {
		if r.Year <= lastYear || r.Year == prevYear {
			continue
		}
		prevYear = r.Year
		if r.GrowthPct == nil {
			// Missing rate: the year is skipped, not treated as 0%.
			continue
		}
		level *= 1 + *r.GrowthPct/100
		out = append(out, model.GroupYearRecord{
			Group:            group,
			Year:             r.Year,
			Employment:       level,
			ValueType:        model.ValueForecast,
			ForecastSource:   source,
			AppliedGrowthPct: model.Float64Ptr(*r.GrowthPct),
		})
	}
	return out
}
