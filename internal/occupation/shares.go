// Package occupation allocates segment-level forecasts down to individual
// occupations via interpolated staffing shares.
package occupation

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/segments"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

// BaseShare is one base-year staffing share from the local survey.
type BaseShare struct {
	SegmentID   int
	SegmentName string
	OccCode     string
	OccTitle    string
	Share       float64
}

// ShiftShare is one occupation's base/target share pair from the national
// occupational-shift projection. Either side may be absent.
type ShiftShare struct {
	SegmentID   int
	OccCode     string
	BaseShare   *float64
	TargetShare *float64
}

type segOcc struct {
	segmentID int
	occCode   string
}

// isSummaryCode reports whether an SOC code is a grand-total, major, or
// broad rollup ("00-0000", "51-0000"). Keeping them would double-count the
// detailed occupations beneath them.
func isSummaryCode(code string) bool {
	return strings.HasSuffix(code, "-0000")
}

// LoadBaseShares reads the base-year staffing table. Shares come from a
// share column when present, otherwise they are derived from an employment
// column normalized within each segment. Rows for summary occupation levels
// and for years other than baseYear are dropped.
func LoadBaseShares(t *tabular.Table, baseYear int) ([]BaseShare, error) {
	if err := requireSegmentColumn(t); err != nil {
		return nil, err
	}
	if err := t.RequireColumns("occupation_code"); err != nil {
		return nil, err
	}

	shareCol, haveShare := t.MatchColumn("share")
	empCol, haveEmp := t.MatchColumn("employment")
	if !haveShare && !haveEmp {
		return nil, &tabular.SchemaError{Source: t.Source, Missing: []string{"share or employment column"}}
	}

	var rows []BaseShare
	for _, row := range t.Rows {
		if t.HasColumn("occ_level") && !strings.EqualFold(t.Col(row, "occ_level"), "detailed") {
			continue
		}
		if t.HasColumn("year") {
			if year, ok := tabular.ParseInt(t.Col(row, "year")); ok && year != baseYear {
				continue
			}
		}

		segID, segName, ok := segmentOf(t, row)
		if !ok {
			continue
		}
		code := t.Col(row, "occupation_code")
		if code == "" || isSummaryCode(code) {
			continue
		}

		var share float64
		if haveShare {
			v, ok := tabular.ParseFloat(t.Col(row, shareCol))
			if !ok {
				continue
			}
			share = v
		} else {
			v, ok := tabular.ParseFloat(t.Col(row, empCol))
			if !ok {
				continue
			}
			share = v // normalized per segment by the interpolator
		}

		rows = append(rows, BaseShare{
			SegmentID:   segID,
			SegmentName: segName,
			OccCode:     code,
			OccTitle:    t.Col(row, "occupation_title"),
			Share:       share,
		})
	}

	if len(rows) == 0 {
		return nil, eris.Errorf("occupation: no usable base shares in %s", t.Source)
	}
	return rows, nil
}

// LoadShiftShares reads the independent end-year share source. Base and
// target columns are located by the configured years ("share_2024",
// "segment_share_2034", ...).
func LoadShiftShares(t *tabular.Table, baseYear, endYear int) ([]ShiftShare, error) {
	if err := requireSegmentColumn(t); err != nil {
		return nil, err
	}
	if err := t.RequireColumns("occupation_code"); err != nil {
		return nil, err
	}

	baseCol, haveBase := t.MatchColumn(shareColPattern(baseYear))
	targetCol, haveTarget := t.MatchColumn(shareColPattern(endYear))
	if !haveBase && !haveTarget {
		return nil, &tabular.SchemaError{Source: t.Source, Missing: []string{
			shareColPattern(baseYear), shareColPattern(endYear),
		}}
	}

	var rows []ShiftShare
	for _, row := range t.Rows {
		segID, _, ok := segmentOf(t, row)
		if !ok {
			continue
		}
		code := t.Col(row, "occupation_code")
		if code == "" || isSummaryCode(code) {
			continue
		}

		rec := ShiftShare{SegmentID: segID, OccCode: code}
		if haveBase {
			if v, ok := tabular.ParseFloat(t.Col(row, baseCol)); ok {
				rec.BaseShare = &v
			}
		}
		if haveTarget {
			if v, ok := tabular.ParseFloat(t.Col(row, targetCol)); ok {
				rec.TargetShare = &v
			}
		}
		if rec.BaseShare == nil && rec.TargetShare == nil {
			continue
		}
		rows = append(rows, rec)
	}

	zap.L().Info("loaded occupational shift shares",
		zap.String("source", t.Source),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

func shareColPattern(year int) string {
	return "share.*" + strconv.Itoa(year)
}

func requireSegmentColumn(t *tabular.Table) error {
	if t.HasColumn("segment_id") || t.HasColumn("segment") {
		return nil
	}
	return &tabular.SchemaError{Source: t.Source, Missing: []string{"segment_id or segment"}}
}

// segmentOf resolves the segment id (and label) of a row, accepting either
// a numeric segment_id column or a "1. Materials & Processing" style label.
func segmentOf(t *tabular.Table, row []string) (int, string, bool) {
	if t.HasColumn("segment_id") {
		if id, ok := tabular.ParseInt(t.Col(row, "segment_id")); ok && id > 0 {
			name := t.Col(row, "segment_name")
			if name == "" {
				name = t.Col(row, "segment")
			}
			return id, name, true
		}
		return 0, "", false
	}

	label := t.Col(row, "segment")
	digits, ok := tabular.ExtractDigits(label, 1, 2)
	if !ok {
		return 0, "", false
	}
	id, ok := tabular.ParseInt(digits)
	if !ok || id <= 0 {
		return 0, "", false
	}
	return id, segments.CanonicalLabel(id, strings.TrimSpace(strings.TrimPrefix(label, digits+"."))), true
}
