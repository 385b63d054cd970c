package segments

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

type codeYear struct {
	code string
	year int
}

// LoadHistoryCSV reads a long-format historical series
// (industry_code, year, employment). Duplicate (code, year) rows are summed.
func LoadHistoryCSV(t *tabular.Table) ([]model.IndustryYearRecord, error) {
	codeCol := "industry_code"
	if !t.HasColumn(codeCol) && t.HasColumn("naics_code") {
		codeCol = "naics_code"
	}
	if err := t.RequireColumns(codeCol, "year", "employment"); err != nil {
		return nil, err
	}

	sums := make(map[codeYear]float64)
	for _, row := range t.Rows {
		code := t.Col(row, codeCol)
		year, yearOK := tabular.ParseInt(t.Col(row, "year"))
		emp, empOK := tabular.ParseFloat(t.Col(row, "employment"))
		if code == "" || !yearOK || !empOK {
			continue
		}
		sums[codeYear{code, year}] += emp
	}

	if len(sums) == 0 {
		return nil, eris.Errorf("segments: no usable history rows in %s", t.Source)
	}
	return historyFromSums(sums), nil
}

// seriesNAICS pulls the industry code off the end of a QCEW series ID.
var seriesNAICS = regexp.MustCompile(`(\d{4})$`)

// LoadHistoryXLSX reads the wide QCEW workbook export: one row per series
// ID, one "Annual <year>" column per year, three preamble rows above the
// header. The industry code is the trailing four digits of the series ID.
func LoadHistoryXLSX(path string, opts tabular.XLSXOptions) ([]model.IndustryYearRecord, error) {
	t, err := tabular.ReadXLSX(path, opts)
	if err != nil {
		return nil, err
	}

	seriesCol, ok := t.MatchColumn("series")
	if !ok {
		return nil, &tabular.SchemaError{Source: path, Missing: []string{"Series ID"}}
	}

	// Map "Annual\n2024"-style columns to years.
	yearCols := make(map[string]int)
	for _, col := range t.Header {
		if !strings.HasPrefix(col, "Annual") {
			continue
		}
		fields := strings.FieldsFunc(col, func(r rune) bool { return r == '\n' || r == ' ' })
		if len(fields) < 2 {
			continue
		}
		if year, ok := tabular.ParseInt(fields[len(fields)-1]); ok {
			yearCols[col] = year
		}
	}
	if len(yearCols) == 0 {
		return nil, &tabular.SchemaError{Source: path, Missing: []string{"Annual <year> columns"}}
	}

	sums := make(map[codeYear]float64)
	var skipped int
	for _, row := range t.Rows {
		m := seriesNAICS.FindStringSubmatch(t.Col(row, seriesCol))
		if m == nil {
			skipped++
			continue
		}
		for col, year := range yearCols {
			if emp, ok := tabular.ParseFloat(t.Col(row, col)); ok {
				sums[codeYear{m[1], year}] += emp
			}
		}
	}

	if len(sums) == 0 {
		return nil, eris.Errorf("segments: no usable history rows in %s", path)
	}

	zap.L().Info("loaded historical workbook",
		zap.String("path", path),
		zap.Int("years", len(yearCols)),
		zap.Int("series_skipped", skipped),
	)

	return historyFromSums(sums), nil
}

func historyFromSums(sums map[codeYear]float64) []model.IndustryYearRecord {
	records := make([]model.IndustryYearRecord, 0, len(sums))
	for k, emp := range sums {
		records = append(records, model.IndustryYearRecord{NAICS: k.code, Year: k.year, Employment: emp})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].NAICS != records[j].NAICS {
			return records[i].NAICS < records[j].NAICS
		}
		return records[i].Year < records[j].Year
	})
	return records
}
