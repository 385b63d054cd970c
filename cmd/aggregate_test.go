package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/segments"
)

func TestWriteBaselineOutputsInOrder(t *testing.T) {
	dir := t.TempDir()
	res := &segments.Result{
		Segments: []model.GroupYearRecord{{
			Group:      model.Group{Kind: model.GroupSegment, SegmentID: 1, Name: "1. Core"},
			Year:       2024,
			Employment: 900,
			ValueType:  model.ValueHistorical,
		}},
		Stages: []model.GroupYearRecord{{
			Group:      model.Group{Kind: model.GroupStage, Name: "OEM"},
			Year:       2024,
			Employment: 900,
			ValueType:  model.ValueHistorical,
		}},
	}

	written, err := writeBaselineOutputs(dir, "lightcast", res)
	require.NoError(t, err)

	// Write order is fixed, so a failure always leaves the same prefix
	assert.Equal(t, []string{
		"segment_baseline_lightcast.csv",
		"stage_baseline_lightcast.csv",
		"naics_audit_lightcast.csv",
		"segment_diagnostics_lightcast.csv",
		"stage_diagnostics_lightcast.csv",
	}, written)
	for _, name := range written {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err)
	}
}
