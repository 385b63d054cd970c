package segments

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/model"
)

// AuditRow is one NAICS-level line of the attribution audit output.
type AuditRow struct {
	NAICS         string
	SegmentID     int
	SegmentName   string
	Stage         model.Stage
	Year          int
	RawEmployment float64
	Share         float64
	AdjEmployment float64
}

// Result is the output of Aggregate: attributed baselines at segment and
// stage level, the NAICS-level audit, and per-group diagnostics.
type Result struct {
	Segments       []model.GroupYearRecord
	Stages         []model.GroupYearRecord
	Audit          []AuditRow
	SegmentDiag    []model.SegmentDiagnostic
	StageDiag      []model.SegmentDiagnostic
	DefaultedCodes int
}

type groupAccum struct {
	group      model.Group
	raw        map[int]float64
	adj        map[int]float64
	naics      map[int]map[string]struct{}
	shareMin   map[int]float64
	shareMax   map[int]float64
	haveShares map[int]bool
}

func newGroupAccum(g model.Group) *groupAccum {
	return &groupAccum{
		group:      g,
		raw:        make(map[int]float64),
		adj:        make(map[int]float64),
		naics:      make(map[int]map[string]struct{}),
		shareMin:   make(map[int]float64),
		shareMax:   make(map[int]float64),
		haveShares: make(map[int]bool),
	}
}

func (a *groupAccum) add(year int, code string, raw, adj, share float64) {
	a.raw[year] += raw
	a.adj[year] += adj
	if a.naics[year] == nil {
		a.naics[year] = make(map[string]struct{})
	}
	a.naics[year][code] = struct{}{}
	if !a.haveShares[year] || share < a.shareMin[year] {
		a.shareMin[year] = share
	}
	if !a.haveShares[year] || share > a.shareMax[year] {
		a.shareMax[year] = share
	}
	a.haveShares[year] = true
}

// Aggregate applies attribution shares to the historical series and rolls
// adjusted employment up to segment and stage level.
//
// An industry with no attribution share contributes 0 by policy: absence of
// attribution data means the industry is outside the domain, not that the
// input is broken. An industry with no segment mapping is a hard failure;
// every offending code is collected into one MappingError.
func Aggregate(hist []model.IndustryYearRecord, shares map[string]float64, lookup map[string]model.SegmentInfo) (*Result, error) {
	unmapped := make(map[string]struct{})
	defaulted := make(map[string]struct{})
	seen := make(map[string]struct{})
	segAccums := make(map[string]*groupAccum)
	stageAccums := make(map[string]*groupAccum)
	res := &Result{}

	for _, rec := range hist {
		seen[rec.NAICS] = struct{}{}
		info, ok := lookup[rec.NAICS]
		if !ok {
			unmapped[rec.NAICS] = struct{}{}
			continue
		}

		share, matched := shares[rec.NAICS]
		if !matched {
			// Policy branch: unmatched attribution defaults to zero.
			share = 0
			defaulted[rec.NAICS] = struct{}{}
		}
		adj := rec.Employment * share

		res.Audit = append(res.Audit, AuditRow{
			NAICS:         rec.NAICS,
			SegmentID:     info.SegmentID,
			SegmentName:   info.SegmentName,
			Stage:         info.Stage,
			Year:          rec.Year,
			RawEmployment: rec.Employment,
			Share:         share,
			AdjEmployment: adj,
		})

		segGroup := model.Group{Kind: model.GroupSegment, SegmentID: info.SegmentID, Name: CanonicalLabel(info.SegmentID, info.SegmentName)}
		if segAccums[segGroup.Key()] == nil {
			segAccums[segGroup.Key()] = newGroupAccum(segGroup)
		}
		segAccums[segGroup.Key()].add(rec.Year, rec.NAICS, rec.Employment, adj, share)

		stageGroup := model.Group{Kind: model.GroupStage, Name: string(info.Stage)}
		if stageAccums[stageGroup.Key()] == nil {
			stageAccums[stageGroup.Key()] = newGroupAccum(stageGroup)
		}
		stageAccums[stageGroup.Key()].add(rec.Year, rec.NAICS, rec.Employment, adj, share)
	}

	if len(unmapped) > 0 {
		return nil, &MappingError{Codes: sortedCodes(unmapped)}
	}

	res.DefaultedCodes = len(defaulted)
	if res.DefaultedCodes > 0 {
		zap.L().Info("industries without attribution share defaulted to zero",
			zap.Int("codes", res.DefaultedCodes),
			zap.Strings("naics", sortedCodes(defaulted)),
		)
	}
	if len(seen) > 0 {
		zap.L().Info("attribution share match rate",
			zap.Int("history_codes", len(seen)),
			zap.Int("matched_codes", len(seen)-res.DefaultedCodes),
			zap.Float64("match_rate_pct", 100*float64(len(seen)-res.DefaultedCodes)/float64(len(seen))),
		)
	}

	res.Segments, res.SegmentDiag = flatten(segAccums)
	res.Stages, res.StageDiag = flatten(stageAccums)

	for _, d := range append(append([]model.SegmentDiagnostic{}, res.SegmentDiag...), res.StageDiag...) {
		if d.ShareWeighted > 1 {
			zap.L().Warn("implied weighted attribution share exceeds 1.0; audit attribution inputs",
				zap.String("group", d.Group.Key()),
				zap.Int("year", d.Year),
				zap.Float64("share_weighted", d.ShareWeighted),
			)
		}
	}

	sortAudit(res.Audit)
	return res, nil
}

func flatten(accums map[string]*groupAccum) ([]model.GroupYearRecord, []model.SegmentDiagnostic) {
	var records []model.GroupYearRecord
	var diags []model.SegmentDiagnostic

	for _, a := range accums {
		for year, adj := range a.adj {
			records = append(records, model.GroupYearRecord{
				Group:      a.group,
				Year:       year,
				Employment: adj,
				ValueType:  model.ValueHistorical,
			})

			d := model.SegmentDiagnostic{
				Group:         a.group,
				Year:          year,
				RawEmployment: a.raw[year],
				AdjEmployment: adj,
				NAICSCount:    len(a.naics[year]),
				ShareMin:      a.shareMin[year],
				ShareMax:      a.shareMax[year],
			}
			if d.RawEmployment > 0 {
				d.ShareWeighted = d.AdjEmployment / d.RawEmployment
			}
			diags = append(diags, d)
		}
	}

	sortGroupYears(records)
	sort.Slice(diags, func(i, j int) bool {
		if diags[i].Group != diags[j].Group {
			return model.GroupLess(diags[i].Group, diags[j].Group)
		}
		return diags[i].Year < diags[j].Year
	})
	return records, diags
}

func sortGroupYears(records []model.GroupYearRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Group != records[j].Group {
			return model.GroupLess(records[i].Group, records[j].Group)
		}
		return records[i].Year < records[j].Year
	})
}

func sortAudit(rows []AuditRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SegmentID != rows[j].SegmentID {
			return rows[i].SegmentID < rows[j].SegmentID
		}
		if rows[i].NAICS != rows[j].NAICS {
			return rows[i].NAICS < rows[j].NAICS
		}
		return rows[i].Year < rows[j].Year
	})
}
