package extend

import (
	"sort"

	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/segments"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

// LoadYoY reads a year-over-year growth table. Segment tables carry a
// segment_id column; stage tables carry a stage column. A row whose rate
// cell is empty or non-numeric is kept with a nil rate so the extension
// engine sees the gap and skips the year.
func LoadYoY(t *tabular.Table) ([]model.YoYGrowthRecord, error) {
	rateCol, ok := t.MatchColumn("(yoy|growth)")
	if !ok {
		return nil, &tabular.SchemaError{Source: t.Source, Missing: []string{"growth_pct (any column matching /yoy|growth/i)"}}
	}

	isSegment := t.HasColumn("segment_id")
	if isSegment {
		if err := t.RequireColumns("segment_id", "year"); err != nil {
			return nil, err
		}
	} else {
		if err := t.RequireColumns("stage", "year"); err != nil {
			return nil, err
		}
	}

	seen := make(map[groupYearKey]struct{})
	var out []model.YoYGrowthRecord
	for _, row := range t.Rows {
		year, ok := tabular.ParseInt(t.Col(row, "year"))
		if !ok {
			continue
		}

		var group model.Group
		if isSegment {
			id, ok := tabular.ParseInt(t.Col(row, "segment_id"))
			if !ok {
				continue
			}
			group = model.Group{Kind: model.GroupSegment, SegmentID: id, Name: segments.CanonicalLabel(id, t.Col(row, "segment_name"))}
		} else {
			stage, err := model.ParseStage(t.Col(row, "stage"))
			if err != nil {
				continue
			}
			group = model.Group{Kind: model.GroupStage, Name: string(stage)}
		}

		k := groupYearKey{group.Key(), year}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		rec := model.YoYGrowthRecord{Group: group, Year: year}
		if rate, ok := tabular.ParseFloat(t.Col(row, rateCol)); ok {
			rec.GrowthPct = model.Float64Ptr(rate)
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return model.GroupLess(out[i].Group, out[j].Group)
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}
