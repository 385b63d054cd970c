package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forecast-cli/internal/extend"
	"github.com/sells-group/forecast-cli/internal/model"
)

func TestSegmentSeriesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	records := []model.GroupYearRecord{
		{
			Group:      model.Group{Kind: model.GroupSegment, SegmentID: 1, Name: "1. Core"},
			Year:       2024,
			Employment: 900.5,
			ValueType:  model.ValueHistorical,
		},
		{
			Group:            model.Group{Kind: model.GroupSegment, SegmentID: 1, Name: "1. Core"},
			Year:             2025,
			Employment:       990.55,
			ValueType:        model.ValueForecast,
			ForecastSource:   "moody",
			AppliedGrowthPct: model.Float64Ptr(10.0),
		},
	}

	require.NoError(t, WriteSegmentSeries(path, records))

	got, err := ReadSegmentSeries(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestStageSeriesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.csv")
	records := []model.GroupYearRecord{
		{
			Group:      model.Group{Kind: model.GroupStage, Name: "OEM"},
			Year:       2024,
			Employment: 1200,
			ValueType:  model.ValueHistorical,
		},
	}

	require.NoError(t, WriteStageSeries(path, records))

	got, err := ReadStageSeries(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestSegmentComparisonRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comparison.csv")
	records := []extend.StackedRecord{
		{
			GroupYearRecord: model.GroupYearRecord{
				Group:      model.Group{Kind: model.GroupSegment, SegmentID: 2, Name: "2. Components"},
				Year:       2024,
				Employment: 500,
				ValueType:  model.ValueHistorical,
			},
			Attribution: "lightcast",
		},
		{
			GroupYearRecord: model.GroupYearRecord{
				Group:          model.Group{Kind: model.GroupTotal, Name: "Total (All Segments)"},
				Year:           2024,
				Employment:     1400,
				ValueType:      model.ValueHistorical,
				ForecastSource: "",
			},
			Attribution: "lightcast",
		},
	}

	require.NoError(t, WriteSegmentComparison(path, records))

	got, err := ReadSegmentComparison(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0], got[0])

	// Total rows come back kind-tagged, not as segment 0
	assert.True(t, got[1].Group.IsTotal())
	assert.Equal(t, "Total (All Segments)", got[1].Group.Name)
}

func TestSnapshotAllocations(t *testing.T) {
	allocs := []model.AllocationRecord{
		{SegmentID: 1, OccCode: "A", Year: 2029},
		{SegmentID: 1, OccCode: "A", Year: 2030},
		{SegmentID: 1, OccCode: "B", Year: 2030},
	}

	snap := SnapshotAllocations(allocs, 2030)
	require.Len(t, snap, 2)
	for _, a := range snap {
		assert.Equal(t, 2030, a.Year)
	}
}
