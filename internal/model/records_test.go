package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	s, err := ParseStage("OEM")
	require.NoError(t, err)
	assert.Equal(t, StageOEM, s)

	_, err = ParseStage("Midstream")
	assert.Error(t, err)
}

func TestGroupKey(t *testing.T) {
	// Segment identity is the id; the label plays no part, so series with
	// inconsistent segment names still join.
	a := Group{Kind: GroupSegment, SegmentID: 3, Name: "3. Logistics"}
	b := Group{Kind: GroupSegment, SegmentID: 3, Name: ""}
	assert.Equal(t, a.Key(), b.Key())

	stage := Group{Kind: GroupStage, Name: "OEM"}
	assert.NotEqual(t, a.Key(), stage.Key())
	assert.False(t, a.IsTotal())
	assert.True(t, Group{Kind: GroupTotal, Name: "Total"}.IsTotal())
}

func TestGroupLess(t *testing.T) {
	seg2 := Group{Kind: GroupSegment, SegmentID: 2}
	seg10 := Group{Kind: GroupSegment, SegmentID: 10}
	stage := Group{Kind: GroupStage, Name: "OEM"}
	total := Group{Kind: GroupTotal, Name: "Total"}

	// Numeric order, not lexicographic
	assert.True(t, GroupLess(seg2, seg10))
	assert.False(t, GroupLess(seg10, seg2))

	// Segments before stages before totals
	assert.True(t, GroupLess(seg10, stage))
	assert.True(t, GroupLess(stage, total))
}

func TestMethodology(t *testing.T) {
	m := Methodology{Attribution: "Lightcast", Growth: "Moody"}
	assert.Equal(t, "lightcast_moody", m.String())

	parsed, err := ParseMethodology("lightcast_moody")
	require.NoError(t, err)
	assert.Equal(t, Methodology{Attribution: "lightcast", Growth: "moody"}, parsed)

	_, err = ParseMethodology("lightcast")
	assert.Error(t, err)
	_, err = ParseMethodology("_moody")
	assert.Error(t, err)

	// Growth names may carry underscores; the split is at the first one
	parsed, err = ParseMethodology("lightcast_moody_baseline")
	require.NoError(t, err)
	assert.Equal(t, Methodology{Attribution: "lightcast", Growth: "moody_baseline"}, parsed)
	assert.Equal(t, "lightcast_moody_baseline", Methodology{Attribution: "lightcast", Growth: "moody_baseline"}.String())
}
