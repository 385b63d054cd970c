package occupation

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/forecast-cli/internal/model"
)

// InterpolateConfig holds the interpolation horizon and worker count.
type InterpolateConfig struct {
	BaseYear int
	EndYear  int
	Workers  int
}

// Years returns every year of the horizon, base through end inclusive.
func (c InterpolateConfig) Years() []int {
	years := make([]int, 0, c.EndYear-c.BaseYear+1)
	for y := c.BaseYear; y <= c.EndYear; y++ {
		years = append(years, y)
	}
	return years
}

// InterpolateShares produces a share for every (segment, occupation, year)
// of the horizon by blending the local base-year mix toward the national
// end-year mix.
//
// Per occupation, the shift source supplies a growth factor
// target/base; the share path is base_share × (1 + (factor−1) × progress).
// The blend does not preserve the sum-to-one invariant on its own, so every
// year is renormalized within its segment independently. When the shift
// source has no entry for an occupation, the factor is 1: the base share is
// held flat, assuming no structural shift absent external signal.
func InterpolateShares(ctx context.Context, base []BaseShare, shifts []ShiftShare, cfg InterpolateConfig) ([]model.OccupationShareRecord, error) {
	shiftIdx := make(map[segOcc]ShiftShare, len(shifts))
	for _, s := range shifts {
		k := segOcc{s.SegmentID, s.OccCode}
		if _, dup := shiftIdx[k]; dup {
			continue
		}
		shiftIdx[k] = s
	}

	bySegment := make(map[int][]BaseShare)
	var segIDs []int
	for _, b := range base {
		if _, ok := bySegment[b.SegmentID]; !ok {
			segIDs = append(segIDs, b.SegmentID)
		}
		bySegment[b.SegmentID] = append(bySegment[b.SegmentID], b)
	}
	sort.Ints(segIDs)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	bySegOut := make(map[int][]model.OccupationShareRecord, len(segIDs))
	var fallbacks int64

	for _, segID := range segIDs {
		segID := segID
		rows := bySegment[segID]
		g.Go(func() error {
			recs, nFallback := interpolateSegment(rows, shiftIdx, cfg)
			mu.Lock()
			bySegOut[segID] = recs
			fallbacks += int64(nFallback)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.OccupationShareRecord
	for _, segID := range segIDs {
		out = append(out, bySegOut[segID]...)
	}

	zap.L().Info("interpolated occupation shares",
		zap.Int("segments", len(segIDs)),
		zap.Int("years", len(cfg.Years())),
		zap.Int64("flat_fallbacks", fallbacks),
	)
	return out, nil
}

func interpolateSegment(rows []BaseShare, shiftIdx map[segOcc]ShiftShare, cfg InterpolateConfig) ([]model.OccupationShareRecord, int) {
	// Deduplicate occupations, keeping the first row per code.
	seen := make(map[string]struct{}, len(rows))
	occs := make([]BaseShare, 0, len(rows))
	var baseSum float64
	for _, r := range rows {
		if _, dup := seen[r.OccCode]; dup {
			continue
		}
		seen[r.OccCode] = struct{}{}
		occs = append(occs, r)
		baseSum += r.Share
	}

	// Renormalize the base mix; source files drift from 1.0 by rounding.
	baseShares := make([]float64, len(occs))
	for i, r := range occs {
		if baseSum > 0 {
			baseShares[i] = r.Share / baseSum
		}
	}

	// Growth factor per occupation from the shift source.
	factors := make([]float64, len(occs))
	var fallbacks int
	for i, r := range occs {
		factors[i] = 1.0
		shift, ok := shiftIdx[segOcc{r.SegmentID, r.OccCode}]
		if !ok {
			fallbacks++
			continue
		}
		b := shift.BaseShare
		if b == nil {
			b = shift.TargetShare
		}
		t := shift.TargetShare
		if t == nil {
			t = b
		}
		if b != nil && t != nil && *b > 0 {
			factors[i] = *t / *b
		}
	}

	// Target mix at the end of the horizon, renormalized.
	targetShares := blendYear(baseShares, factors, 1.0)

	var out []model.OccupationShareRecord
	for _, year := range cfg.Years() {
		progress := float64(year-cfg.BaseYear) / float64(cfg.EndYear-cfg.BaseYear)
		if progress < 0 {
			progress = 0
		}
		if progress > 1 {
			progress = 1
		}
		shares := blendYear(baseShares, factors, progress)
		for i, r := range occs {
			out = append(out, model.OccupationShareRecord{
				SegmentID:   r.SegmentID,
				SegmentName: r.SegmentName,
				OccCode:     r.OccCode,
				OccTitle:    r.OccTitle,
				Year:        year,
				Share:       shares[i],
				BaseShare:   baseShares[i],
				TargetShare: targetShares[i],
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OccCode != out[j].OccCode {
			return out[i].OccCode < out[j].OccCode
		}
		return out[i].Year < out[j].Year
	})
	return out, fallbacks
}

// blendYear applies the growth-factor blend at one progress point and
// renormalizes so the segment's shares sum to 1. If the blended sum
// collapses to zero the base shares are returned unchanged.
func blendYear(baseShares, factors []float64, progress float64) []float64 {
	raw := make([]float64, len(baseShares))
	var sum float64
	for i, b := range baseShares {
		raw[i] = b * (1 + (factors[i]-1)*progress)
		sum += raw[i]
	}
	if sum <= 0 {
		out := make([]float64, len(baseShares))
		copy(out, baseShares)
		return out
	}
	for i := range raw {
		raw[i] /= sum
	}
	return raw
}
