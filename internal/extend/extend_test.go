package extend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forecast-cli/internal/model"
)

func seg(id int) model.Group {
	return model.Group{Kind: model.GroupSegment, SegmentID: id, Name: "1. Core"}
}

func hist(g model.Group, year int, emp float64) model.GroupYearRecord {
	return model.GroupYearRecord{Group: g, Year: year, Employment: emp, ValueType: model.ValueHistorical}
}

func rate(g model.Group, year int, pct float64) model.YoYGrowthRecord {
	return model.YoYGrowthRecord{Group: g, Year: year, GrowthPct: model.Float64Ptr(pct)}
}

func TestExtendCompounds(t *testing.T) {
	g := seg(1)
	baseline := []model.GroupYearRecord{hist(g, 2023, 95), hist(g, 2024, 100)}
	yoy := []model.YoYGrowthRecord{
		rate(g, 2025, 10),
		rate(g, 2026, -5),
		rate(g, 2024, 50), // covered by history, ignored
	}

	out, err := Extend(context.Background(), baseline, yoy, "moody", 2)
	require.NoError(t, err)
	require.Len(t, out, 4)

	// Historical rows untouched
	assert.Equal(t, model.ValueHistorical, out[0].ValueType)
	assert.Equal(t, 95.0, out[0].Employment)

	// 100 * 1.10 = 110, then 110 * 0.95 = 104.5
	assert.Equal(t, model.ValueForecast, out[2].ValueType)
	assert.InDelta(t, 110.0, out[2].Employment, 1e-9)
	assert.Equal(t, "moody", out[2].ForecastSource)
	require.NotNil(t, out[2].AppliedGrowthPct)
	assert.Equal(t, 10.0, *out[2].AppliedGrowthPct)
	assert.InDelta(t, 104.5, out[3].Employment, 1e-9)
}

func TestExtendSkipsMissingRates(t *testing.T) {
	g := seg(1)
	baseline := []model.GroupYearRecord{hist(g, 2024, 100)}
	yoy := []model.YoYGrowthRecord{
		{Group: g, Year: 2025, GrowthPct: nil}, // gap, not 0%
		rate(g, 2026, 10),
	}

	out, err := Extend(context.Background(), baseline, yoy, "moody", 1)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// No 2025 row; 2026 compounds off the 2024 level
	assert.Equal(t, 2026, out[1].Year)
	assert.InDelta(t, 110.0, out[1].Employment, 1e-9)
}

func TestExtendHistoricalWinsCollisions(t *testing.T) {
	g := seg(1)
	baseline := []model.GroupYearRecord{
		hist(g, 2024, 100),
		hist(g, 2025, 200), // revised actual for a forecastable year
	}
	yoy := []model.YoYGrowthRecord{rate(g, 2025, 10), rate(g, 2026, 10)}

	out, err := Extend(context.Background(), baseline, yoy, "moody", 1)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// 2025 keeps the historical value; 2026 compounds from it
	assert.Equal(t, model.ValueHistorical, out[1].ValueType)
	assert.Equal(t, 200.0, out[1].Employment)
	assert.InDelta(t, 220.0, out[2].Employment, 1e-9)
}

func TestExtendIsIdempotent(t *testing.T) {
	g := seg(1)
	baseline := []model.GroupYearRecord{hist(g, 2024, 100)}
	yoy := []model.YoYGrowthRecord{rate(g, 2025, 10), rate(g, 2026, 10)}

	once, err := Extend(context.Background(), baseline, yoy, "moody", 1)
	require.NoError(t, err)
	twice, err := Extend(context.Background(), once, yoy, "moody", 1)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	// Re-running with no rates at all also returns the input unchanged
	again, err := Extend(context.Background(), once, nil, "moody", 1)
	require.NoError(t, err)
	assert.Equal(t, once, again)
}

func TestExtendGroupWithoutRatesKeepsHistory(t *testing.T) {
	a, b := seg(1), model.Group{Kind: model.GroupSegment, SegmentID: 2, Name: "2. Other"}
	baseline := []model.GroupYearRecord{hist(a, 2024, 100), hist(b, 2024, 50)}
	yoy := []model.YoYGrowthRecord{rate(a, 2025, 10)}

	out, err := Extend(context.Background(), baseline, yoy, "moody", 2)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// Group b has no rates: history only, no zero-filled forecast
	var bRows int
	for _, rec := range out {
		if rec.Group.SegmentID == 2 {
			bRows++
			assert.Equal(t, model.ValueHistorical, rec.ValueType)
		}
	}
	assert.Equal(t, 1, bRows)
}
