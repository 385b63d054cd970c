// Package attribution normalizes vendor share tables into a canonical
// NAICS → share mapping.
package attribution

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/tabular"
)

// Parse reads a share table into a map of NAICS code → share in [0,1].
//
// Vendor exports differ in column naming and in whether shares arrive as
// fractions or percentages, so the code column is located by a "naics"
// fragment and the value column by a "share" fragment, and each value goes
// through percent auto-detection. Codes are truncated to digits (the
// pipeline aggregates at NAICS-4) and rows colliding on the same truncated
// code are averaged.
func Parse(t *tabular.Table, digits int) (map[string]float64, error) {
	naicsCol, ok := t.MatchColumn("naics")
	if !ok {
		return nil, &tabular.SchemaError{Source: t.Source, Missing: []string{"naics (any column matching /naics/i)"}}
	}
	shareCol, ok := t.MatchColumn("share")
	if !ok {
		return nil, &tabular.SchemaError{Source: t.Source, Missing: []string{"share (any column matching /share/i)"}}
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	var skipped int

	for _, row := range t.Rows {
		code, ok := tabular.ExtractDigits(t.Col(row, naicsCol), digits, digits)
		if !ok {
			skipped++
			continue
		}
		share, ok := tabular.ParseShare(t.Col(row, shareCol))
		if !ok {
			skipped++
			continue
		}
		sums[code] += share
		counts[code]++
	}

	if len(sums) == 0 {
		return nil, eris.Errorf("attribution: no usable shares parsed from %s; check input formatting", t.Source)
	}

	shares := make(map[string]float64, len(sums))
	var collisions int
	for code, sum := range sums {
		if counts[code] > 1 {
			collisions++
		}
		shares[code] = sum / float64(counts[code])
	}

	zap.L().Info("parsed attribution shares",
		zap.String("source", t.Source),
		zap.String("naics_column", naicsCol),
		zap.String("share_column", shareCol),
		zap.Int("codes", len(shares)),
		zap.Int("collided_codes", collisions),
		zap.Int("skipped_rows", skipped),
	)

	return shares, nil
}
