package extend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

func TestLoadYoYSegments(t *testing.T) {
	tbl := tabular.NewTable("yoy.csv",
		[]string{"segment_id", "segment_name", "year", "yoy_growth_pct"},
		[][]string{
			{"1", "Materials", "2025", "2.5"},
			{"1", "Materials", "2026", ""}, // gap kept with nil rate
			{"2", "Components", "2025", "-1.0"},
			{"1", "Materials", "2025", "99"}, // duplicate dropped
		},
	)

	out, err := LoadYoY(tbl)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, model.GroupSegment, out[0].Group.Kind)
	assert.Equal(t, 1, out[0].Group.SegmentID)
	require.NotNil(t, out[0].GrowthPct)
	assert.Equal(t, 2.5, *out[0].GrowthPct)

	// The empty-rate row survives so the extension engine sees the gap
	assert.Equal(t, 2026, out[1].Year)
	assert.Nil(t, out[1].GrowthPct)

	require.NotNil(t, out[2].GrowthPct)
	assert.Equal(t, -1.0, *out[2].GrowthPct)
}

func TestLoadYoYStages(t *testing.T) {
	tbl := tabular.NewTable("yoy.csv",
		[]string{"stage", "year", "growth_pct"},
		[][]string{
			{"OEM", "2025", "1.5"},
			{"Sideways", "2025", "1.5"}, // unknown stage skipped
		},
	)

	out, err := LoadYoY(tbl)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.GroupStage, out[0].Group.Kind)
	assert.Equal(t, "OEM", out[0].Group.Name)
}

func TestLoadYoYMissingRateColumn(t *testing.T) {
	tbl := tabular.NewTable("yoy.csv", []string{"segment_id", "year", "value"}, nil)
	_, err := LoadYoY(tbl)
	assert.Error(t, err)
}
