package segments

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/forecast-cli/internal/tabular"
)

func TestLoadHistoryCSV(t *testing.T) {
	tbl := tabular.NewTable("history.csv",
		[]string{"industry_code", "year", "employment"},
		[][]string{
			{"3361", "2024", "1000"},
			{"3361", "2023", "950"},
			{"4411", "2024", "400"},
			{"4411", "2024", "100"}, // duplicate (code, year) summed
			{"4411", "2024", "N"},   // suppressed cell ignored
		},
	)

	hist, err := LoadHistoryCSV(tbl)
	require.NoError(t, err)
	require.Len(t, hist, 3)

	// Sorted by code then year
	assert.Equal(t, "3361", hist[0].NAICS)
	assert.Equal(t, 2023, hist[0].Year)
	assert.Equal(t, 1000.0, hist[1].Employment)
	assert.Equal(t, "4411", hist[2].NAICS)
	assert.Equal(t, 500.0, hist[2].Employment)
}

func writeHistoryWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("MI QCEW")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadHistoryXLSX(t *testing.T) {
	path := writeHistoryWorkbook(t, [][]string{
		{"Quarterly Census of Employment and Wages"},
		{"State of Michigan"},
		{""},
		{"Series ID", "Annual\n2023", "Annual 2024"},
		{"ENU2600000503361", "1,200", "900"},
		{"ENU2600000523361", "100", "50"}, // same trailing NAICS, summed
		{"ENU2600000504411", "D", "400"},  // 2023 suppressed
		{"Source: BLS"},                   // no trailing NAICS, skipped
	})

	hist, err := LoadHistoryXLSX(path, tabular.XLSXOptions{SheetName: "MI QCEW", SkipRows: 3})
	require.NoError(t, err)
	require.Len(t, hist, 3)

	// Codes come off the series-ID suffix; newline year headers still parse
	assert.Equal(t, "3361", hist[0].NAICS)
	assert.Equal(t, 2023, hist[0].Year)
	assert.Equal(t, 1300.0, hist[0].Employment)
	assert.Equal(t, 950.0, hist[1].Employment)

	// The suppressed 2023 cell leaves only the 2024 row for 4411
	assert.Equal(t, "4411", hist[2].NAICS)
	assert.Equal(t, 2024, hist[2].Year)
	assert.Equal(t, 400.0, hist[2].Employment)
}

func TestLoadHistoryXLSXRequiresAnnualColumns(t *testing.T) {
	path := writeHistoryWorkbook(t, [][]string{
		{"Series ID", "2024"},
		{"ENU2600000503361", "900"},
	})

	_, err := LoadHistoryXLSX(path, tabular.XLSXOptions{})
	assert.Error(t, err)
}

func TestLoadHistoryCSVEmpty(t *testing.T) {
	tbl := tabular.NewTable("history.csv",
		[]string{"industry_code", "year", "employment"},
		[][]string{{"", "2024", "100"}},
	)
	_, err := LoadHistoryCSV(tbl)
	assert.Error(t, err)
}
