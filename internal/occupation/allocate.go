package occupation

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/extend"
	"github.com/sells-group/forecast-cli/internal/model"
)

// SegmentTotal is one segment-level employment level qualified by its
// forecast methodology.
type SegmentTotal struct {
	SegmentID   int
	SegmentName string
	Year        int
	Methodology model.Methodology
	Employment  float64
}

// TotalsFromStack converts the methodology comparison table into segment
// totals for allocation. Stage rows and synthetic total rows are dropped,
// as are years outside [baseYear, endYear]. Historical rows come out with
// an empty growth axis; ExpandBaseYear assigns them one per growth source.
func TotalsFromStack(stacked []extend.StackedRecord, baseYear, endYear int) []SegmentTotal {
	var out []SegmentTotal
	for _, rec := range stacked {
		if rec.Group.Kind != model.GroupSegment {
			continue
		}
		if rec.Year < baseYear || rec.Year > endYear {
			continue
		}
		out = append(out, SegmentTotal{
			SegmentID:   rec.Group.SegmentID,
			SegmentName: rec.Group.Name,
			Year:        rec.Year,
			Methodology: rec.Methodology(),
			Employment:  rec.Employment,
		})
	}
	return out
}

// ExpandBaseYear duplicates base-year rows across every growth source seen
// for the same attribution in later years, so each full methodology covers
// the baseline year. Base-year levels are historical and therefore shared
// by all growth sources of an attribution; without the expansion no
// methodology would have a baseline row to allocate.
func ExpandBaseYear(totals []SegmentTotal) []SegmentTotal {
	if len(totals) == 0 {
		return totals
	}

	baseYear := totals[0].Year
	for _, t := range totals {
		if t.Year < baseYear {
			baseYear = t.Year
		}
	}

	growthsByAttribution := make(map[string]map[string]struct{})
	for _, t := range totals {
		if t.Year <= baseYear || t.Methodology.Growth == "" {
			continue
		}
		if growthsByAttribution[t.Methodology.Attribution] == nil {
			growthsByAttribution[t.Methodology.Attribution] = make(map[string]struct{})
		}
		growthsByAttribution[t.Methodology.Attribution][t.Methodology.Growth] = struct{}{}
	}

	var out []SegmentTotal
	for _, t := range totals {
		if t.Year != baseYear {
			out = append(out, t)
			continue
		}

		growths := growthsByAttribution[t.Methodology.Attribution]
		if len(growths) == 0 {
			out = append(out, t)
			continue
		}
		names := make([]string, 0, len(growths))
		for g := range growths {
			names = append(names, g)
		}
		sort.Strings(names)
		for _, g := range names {
			dup := t
			dup.Methodology = model.Methodology{Attribution: t.Methodology.Attribution, Growth: g}
			out = append(out, dup)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SegmentID != out[j].SegmentID {
			return out[i].SegmentID < out[j].SegmentID
		}
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Methodology.String() < out[j].Methodology.String()
	})
	return out
}

type totalKey struct {
	segmentID   int
	year        int
	methodology model.Methodology
}

// Allocate multiplies segment totals by interpolated occupation shares.
// A record is produced only where both a segment total and a share exist;
// a methodology that does not cover a year is omitted, not zero-filled.
// No rounding happens here; rounding belongs to presentation.
func Allocate(totals []SegmentTotal, shares []model.OccupationShareRecord) []model.AllocationRecord {
	idx := make(map[totalKey]SegmentTotal, len(totals))
	methSet := make(map[model.Methodology]struct{})
	for _, t := range totals {
		idx[totalKey{t.SegmentID, t.Year, t.Methodology}] = t
		methSet[t.Methodology] = struct{}{}
	}
	methodologies := make([]model.Methodology, 0, len(methSet))
	for m := range methSet {
		methodologies = append(methodologies, m)
	}
	sort.Slice(methodologies, func(i, j int) bool { return methodologies[i].String() < methodologies[j].String() })

	var out []model.AllocationRecord
	for _, s := range shares {
		for _, m := range methodologies {
			total, ok := idx[totalKey{s.SegmentID, s.Year, m}]
			if !ok {
				continue
			}
			out = append(out, model.AllocationRecord{
				SegmentID:   s.SegmentID,
				SegmentName: total.SegmentName,
				OccCode:     s.OccCode,
				OccTitle:    s.OccTitle,
				Year:        s.Year,
				Methodology: m,
				Employment:  total.Employment * s.Share,
				Share:       s.Share,
			})
		}
	}

	sortAllocations(out)
	zap.L().Info("allocated occupation employment",
		zap.Int("rows", len(out)),
		zap.Int("methodologies", len(methodologies)),
	)
	return out
}

// AppendAllSegments appends synthetic all-segments rows: per (occupation,
// methodology, year), employment summed across segments and the share
// recomputed against that year's grand total. The rows are flagged IsTotal
// so downstream consumers can exclude them without label matching.
func AppendAllSegments(allocs []model.AllocationRecord, totalName string) []model.AllocationRecord {
	type aggKey struct {
		occCode     string
		year        int
		methodology model.Methodology
	}

	sums := make(map[aggKey]float64)
	titles := make(map[aggKey]string)
	yearSums := make(map[totalKey]float64)
	var order []aggKey
	for _, a := range allocs {
		if a.IsTotal {
			continue
		}
		k := aggKey{a.OccCode, a.Year, a.Methodology}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
			titles[k] = a.OccTitle
		}
		sums[k] += a.Employment
		yearSums[totalKey{0, a.Year, a.Methodology}] += a.Employment
	}

	// Pre-existing total rows are dropped and recomputed, so re-applying
	// the expansion cannot double them.
	out := make([]model.AllocationRecord, 0, len(allocs)+len(order))
	for _, a := range allocs {
		if a.IsTotal {
			continue
		}
		out = append(out, a)
	}
	for _, k := range order {
		share := 0.0
		if grand := yearSums[totalKey{0, k.year, k.methodology}]; grand > 0 {
			share = sums[k] / grand
		}
		out = append(out, model.AllocationRecord{
			SegmentID:   0,
			SegmentName: totalName,
			OccCode:     k.occCode,
			OccTitle:    titles[k],
			Year:        k.year,
			Methodology: k.methodology,
			Employment:  sums[k],
			Share:       share,
			IsTotal:     true,
		})
	}

	sortAllocations(out)
	return out
}

func sortAllocations(out []model.AllocationRecord) {
	sort.Slice(out, func(i, j int) bool {
		// Synthetic totals sort after real segments.
		if out[i].IsTotal != out[j].IsTotal {
			return !out[i].IsTotal
		}
		if out[i].SegmentID != out[j].SegmentID {
			return out[i].SegmentID < out[j].SegmentID
		}
		if out[i].OccCode != out[j].OccCode {
			return out[i].OccCode < out[j].OccCode
		}
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Methodology.String() < out[j].Methodology.String()
	})
}
