package occupation

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/model"
)

// Validate recomputes each segment's total from its allocated occupations
// and compares it against the segment total the allocation started from.
//
// Reporting only: nothing is mutated or rejected. A percent difference
// beyond tolerancePct is flagged because it signals an allocation bug, such
// as a share set that failed to renormalize or a methodology/segment pairing
// silently dropped during allocation.
func Validate(allocs []model.AllocationRecord, totals []SegmentTotal, tolerancePct float64) []model.ValidationRecord {
	sums := make(map[totalKey]float64)
	for _, a := range allocs {
		if a.IsTotal {
			continue
		}
		sums[totalKey{a.SegmentID, a.Year, a.Methodology}] += a.Employment
	}

	seen := make(map[totalKey]struct{})
	var out []model.ValidationRecord
	var flagged int
	for _, t := range totals {
		k := totalKey{t.SegmentID, t.Year, t.Methodology}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		allocated, ok := sums[k]
		if !ok {
			continue
		}

		rec := model.ValidationRecord{
			SegmentID:    t.SegmentID,
			Year:         t.Year,
			Methodology:  t.Methodology,
			AllocatedSum: allocated,
			SegmentTotal: t.Employment,
		}
		if t.Employment != 0 {
			rec.PctDiff = (allocated - t.Employment) / t.Employment * 100
		}
		rec.Flagged = math.Abs(rec.PctDiff) > tolerancePct
		if rec.Flagged {
			flagged++
			zap.L().Warn("allocated occupations drift from segment total",
				zap.Int("segment_id", rec.SegmentID),
				zap.Int("year", rec.Year),
				zap.String("methodology", rec.Methodology.String()),
				zap.Float64("pct_diff", rec.PctDiff),
			)
		}
		out = append(out, rec)
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

	zap.L().Info("validated allocations",
		zap.Int("rows", len(out)),
		zap.Int("flagged", flagged),
		zap.Float64("tolerance_pct", tolerancePct),
	)
	return out
}
