package occupation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forecast-cli/internal/extend"
	"github.com/sells-group/forecast-cli/internal/model"
)

func meth(a, g string) model.Methodology {
	return model.Methodology{Attribution: a, Growth: g}
}

func TestTotalsFromStack(t *testing.T) {
	segGroup := model.Group{Kind: model.GroupSegment, SegmentID: 1, Name: "1. Core"}
	stack := []extend.StackedRecord{
		{GroupYearRecord: model.GroupYearRecord{Group: segGroup, Year: 2024, Employment: 100, ValueType: model.ValueHistorical}, Attribution: "lightcast"},
		{GroupYearRecord: model.GroupYearRecord{Group: segGroup, Year: 2025, Employment: 110, ValueType: model.ValueForecast, ForecastSource: "moody"}, Attribution: "lightcast"},
		{GroupYearRecord: model.GroupYearRecord{Group: segGroup, Year: 2040, Employment: 500, ValueType: model.ValueForecast, ForecastSource: "moody"}, Attribution: "lightcast"},
		{GroupYearRecord: model.GroupYearRecord{Group: model.Group{Kind: model.GroupStage, Name: "OEM"}, Year: 2024, Employment: 999}, Attribution: "lightcast"},
		{GroupYearRecord: model.GroupYearRecord{Group: model.Group{Kind: model.GroupTotal, Name: "Total"}, Year: 2024, Employment: 999}, Attribution: "lightcast"},
	}

	totals := TotalsFromStack(stack, 2024, 2034)
	require.Len(t, totals, 2)

	// Historical row has an empty growth axis until expansion
	assert.Equal(t, meth("lightcast", ""), totals[0].Methodology)
	assert.Equal(t, meth("lightcast", "moody"), totals[1].Methodology)
}

func TestExpandBaseYear(t *testing.T) {
	totals := []SegmentTotal{
		{SegmentID: 1, Year: 2024, Methodology: meth("lightcast", ""), Employment: 100},
		{SegmentID: 1, Year: 2025, Methodology: meth("lightcast", "moody"), Employment: 110},
		{SegmentID: 1, Year: 2025, Methodology: meth("lightcast", "bls"), Employment: 105},
		{SegmentID: 1, Year: 2024, Methodology: meth("bea", ""), Employment: 90},
		{SegmentID: 1, Year: 2025, Methodology: meth("bea", "moody"), Employment: 95},
	}

	out := ExpandBaseYear(totals)

	var baseMeths []model.Methodology
	for _, tot := range out {
		if tot.Year == 2024 {
			baseMeths = append(baseMeths, tot.Methodology)
		}
	}
	// lightcast base-year row duplicated across both growth sources,
	// bea across its one
	require.Len(t, baseMeths, 3)
	assert.Contains(t, baseMeths, meth("lightcast", "moody"))
	assert.Contains(t, baseMeths, meth("lightcast", "bls"))
	assert.Contains(t, baseMeths, meth("bea", "moody"))

	// Later years unchanged
	assert.Len(t, out, 6)
}

func TestExpandBaseYearNoGrowths(t *testing.T) {
	totals := []SegmentTotal{{SegmentID: 1, Year: 2024, Methodology: meth("lightcast", ""), Employment: 100}}
	out := ExpandBaseYear(totals)
	require.Len(t, out, 1)
	assert.Equal(t, meth("lightcast", ""), out[0].Methodology)
}

func TestAllocateConservesMass(t *testing.T) {
	m := meth("lightcast", "moody")
	totals := []SegmentTotal{
		{SegmentID: 1, SegmentName: "1. Core", Year: 2025, Methodology: m, Employment: 1000},
	}
	shares := []model.OccupationShareRecord{
		{SegmentID: 1, OccCode: "A", OccTitle: "Assemblers", Year: 2025, Share: 0.7},
		{SegmentID: 1, OccCode: "B", OccTitle: "Welders", Year: 2025, Share: 0.3},
	}

	allocs := Allocate(totals, shares)
	require.Len(t, allocs, 2)
	assert.Equal(t, 700.0, allocs[0].Employment)
	assert.Equal(t, 300.0, allocs[1].Employment)
	assert.Equal(t, "1. Core", allocs[0].SegmentName)

	var sum float64
	for _, a := range allocs {
		sum += a.Employment
	}
	assert.InDelta(t, 1000.0, sum, 1e-9)
}

func TestAllocateOmitsUncoveredCombos(t *testing.T) {
	// A share year with no total for the methodology produces nothing,
	// never a zero-filled row.
	m := meth("lightcast", "moody")
	totals := []SegmentTotal{{SegmentID: 1, Year: 2025, Methodology: m, Employment: 1000}}
	shares := []model.OccupationShareRecord{
		{SegmentID: 1, OccCode: "A", Year: 2025, Share: 1.0},
		{SegmentID: 1, OccCode: "A", Year: 2026, Share: 1.0},
		{SegmentID: 2, OccCode: "A", Year: 2025, Share: 1.0},
	}

	allocs := Allocate(totals, shares)
	require.Len(t, allocs, 1)
	assert.Equal(t, 2025, allocs[0].Year)
	assert.Equal(t, 1, allocs[0].SegmentID)
}

func TestAppendAllSegments(t *testing.T) {
	m := meth("lightcast", "moody")
	allocs := []model.AllocationRecord{
		{SegmentID: 1, OccCode: "A", OccTitle: "Assemblers", Year: 2025, Methodology: m, Employment: 700, Share: 0.7},
		{SegmentID: 2, OccCode: "A", OccTitle: "Assemblers", Year: 2025, Methodology: m, Employment: 100, Share: 0.2},
		{SegmentID: 1, OccCode: "B", OccTitle: "Welders", Year: 2025, Methodology: m, Employment: 300, Share: 0.3},
		{SegmentID: 2, OccCode: "B", OccTitle: "Welders", Year: 2025, Methodology: m, Employment: 400, Share: 0.8},
	}

	out := AppendAllSegments(allocs, "Total (All Segments)")
	require.Len(t, out, 6)

	var totalRows []model.AllocationRecord
	for _, a := range out {
		if a.IsTotal {
			totalRows = append(totalRows, a)
		}
	}
	require.Len(t, totalRows, 2)
	assert.Equal(t, 0, totalRows[0].SegmentID)
	assert.Equal(t, "Total (All Segments)", totalRows[0].SegmentName)
	assert.Equal(t, 800.0, totalRows[0].Employment) // A across segments

	// Share recomputed against the grand total, not carried over
	assert.InDelta(t, 800.0/1500.0, totalRows[0].Share, 1e-12)
	assert.InDelta(t, 700.0/1500.0, totalRows[1].Share, 1e-12)

	// Total rows sort last
	assert.False(t, out[0].IsTotal)
	assert.True(t, out[5].IsTotal)
}

func TestAppendAllSegmentsIdempotent(t *testing.T) {
	m := meth("lightcast", "moody")
	allocs := []model.AllocationRecord{
		{SegmentID: 1, OccCode: "A", Year: 2025, Methodology: m, Employment: 700, Share: 1.0},
	}

	once := AppendAllSegments(allocs, "Total (All Segments)")
	twice := AppendAllSegments(once, "Total (All Segments)")
	assert.Equal(t, once, twice)
}
