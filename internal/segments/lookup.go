// Package segments joins industry history against the fixed segment lookup
// and rolls attributed employment up to segment and stage level.
package segments

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

// MappingError reports industry codes with no segment lookup entry. Codes
// are collected across the whole input before failing so one run surfaces
// every gap, and the run aborts because a silently dropped code understates
// a segment's employment.
type MappingError struct {
	Codes []string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("segments: no segment mapping for industry codes: %s", strings.Join(e.Codes, ", "))
}

// LoadLookup reads the fixed industry → segment/stage lookup. Every row must
// carry a positive segment id and a known stage; duplicate codes keep the
// first row.
func LoadLookup(t *tabular.Table) (map[string]model.SegmentInfo, error) {
	codeCol := "industry_code"
	if !t.HasColumn(codeCol) && t.HasColumn("naics_code") {
		codeCol = "naics_code"
	}
	if err := t.RequireColumns(codeCol, "segment_id", "segment_name", "stage"); err != nil {
		return nil, err
	}

	lookup := make(map[string]model.SegmentInfo)
	for i, row := range t.Rows {
		code := t.Col(row, codeCol)
		if code == "" {
			continue
		}
		if _, ok := lookup[code]; ok {
			continue
		}

		id, ok := tabular.ParseInt(t.Col(row, "segment_id"))
		if !ok || id <= 0 {
			return nil, eris.Errorf("segments: row %d of %s has invalid segment_id %q", i+2, t.Source, t.Col(row, "segment_id"))
		}
		stage, err := model.ParseStage(t.Col(row, "stage"))
		if err != nil {
			return nil, eris.Wrapf(err, "segments: row %d of %s", i+2, t.Source)
		}

		lookup[code] = model.SegmentInfo{
			NAICS:       code,
			SegmentID:   id,
			SegmentName: t.Col(row, "segment_name"),
			Stage:       stage,
		}
	}

	if len(lookup) == 0 {
		return nil, eris.Errorf("segments: lookup %s has no rows", t.Source)
	}
	return lookup, nil
}

// CanonicalLabel renders the segment label used in outputs: "<id>. <name>".
// Lookup rows carry sub-segment annotations after " - " which are dropped.
func CanonicalLabel(segmentID int, name string) string {
	base := strings.TrimSpace(strings.SplitN(name, " - ", 2)[0])
	prefix := fmt.Sprintf("%d. ", segmentID)
	if strings.HasPrefix(base, prefix) {
		return base
	}
	if base == "" {
		return fmt.Sprintf("%d", segmentID)
	}
	return prefix + base
}

func sortedCodes(set map[string]struct{}) []string {
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
