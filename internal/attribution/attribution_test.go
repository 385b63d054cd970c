package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forecast-cli/internal/tabular"
)

func TestParseNormalizesPercentages(t *testing.T) {
	tbl := tabular.NewTable("shares.csv",
		[]string{"NAICS Code", "Auto Share"},
		[][]string{
			{"3361", "0.95"},
			{"4411", "62%"},
			{"3363", "40"},
		},
	)

	shares, err := Parse(tbl, 4)
	require.NoError(t, err)
	assert.Equal(t, 0.95, shares["3361"])
	assert.Equal(t, 0.62, shares["4411"])
	assert.Equal(t, 0.40, shares["3363"])
}

func TestParseTruncatesAndAveragesCollisions(t *testing.T) {
	// Two 6-digit codes truncating to the same 4-digit parent are averaged.
	tbl := tabular.NewTable("shares.csv",
		[]string{"naics", "share"},
		[][]string{
			{"336111", "0.8"},
			{"336112", "0.4"},
			{"441100 - Dealers", "0.5"},
		},
	)

	shares, err := Parse(tbl, 4)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, shares["3361"], 1e-12)
	assert.Equal(t, 0.5, shares["4411"])
}

func TestParseSkipsUnusableRows(t *testing.T) {
	tbl := tabular.NewTable("shares.csv",
		[]string{"naics", "share"},
		[][]string{
			{"All Industries", "0.5"}, // no code
			{"3361", "n/a"},           // no share
			{"4411", "0.3"},
		},
	)

	shares, err := Parse(tbl, 4)
	require.NoError(t, err)
	assert.Len(t, shares, 1)
	assert.Equal(t, 0.3, shares["4411"])
}

func TestParseErrors(t *testing.T) {
	// Missing share column
	tbl := tabular.NewTable("shares.csv", []string{"naics", "value"}, nil)
	_, err := Parse(tbl, 4)
	assert.Error(t, err)

	// Columns present but nothing parseable
	tbl = tabular.NewTable("shares.csv",
		[]string{"naics", "share"},
		[][]string{{"total", "-"}},
	)
	_, err = Parse(tbl, 4)
	assert.Error(t, err)
}
