package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestYAML = `run:
  history:
    xlsx: data/raw/qcew.xlsx
    skip_rows: 3
  segment_lookup: data/lookups/segments.csv
  attributions:
    - name: lightcast
      path: data/raw/lightcast_shares.csv
      encoding: windows-1252
    - name: bea
      path: data/raw/bea_shares.csv
  growths:
    - name: moody
      segments: data/interim/moody_segments_yoy.csv
      stages: data/interim/moody_stages_yoy.csv
  occupations:
    base: data/raw/staffing.csv
    shift: data/raw/shift.csv
`

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, manifestYAML))
	require.NoError(t, err)

	assert.Equal(t, "data/raw/qcew.xlsx", m.History.XLSX)
	assert.Equal(t, 3, m.History.SkipRows)
	require.Len(t, m.Attributions, 2)
	assert.Equal(t, "windows-1252", m.Attributions[0].Encoding)
	require.Len(t, m.Growths, 1)
	assert.Equal(t, "data/interim/moody_stages_yoy.csv", m.Growths[0].Stages)
	assert.Equal(t, "data/raw/shift.csv", m.Occupations.Shift)
}

func TestManifestValidate(t *testing.T) {
	valid := func() *Manifest {
		return &Manifest{
			History:       HistoryInput{CSV: "h.csv"},
			SegmentLookup: "l.csv",
			Attributions:  []AttributionInput{{Name: "lightcast", Path: "a.csv"}},
			Growths:       []GrowthInput{{Name: "moody", Segments: "g.csv"}},
		}
	}

	assert.NoError(t, valid().Validate())

	m := valid()
	m.History = HistoryInput{}
	assert.Error(t, m.Validate())

	m = valid()
	m.History.XLSX = "h.xlsx" // both set
	assert.Error(t, m.Validate())

	m = valid()
	m.SegmentLookup = ""
	assert.Error(t, m.Validate())

	m = valid()
	m.Attributions = nil
	assert.Error(t, m.Validate())

	m = valid()
	m.Attributions = append(m.Attributions, AttributionInput{Name: "lightcast", Path: "b.csv"})
	assert.Error(t, m.Validate())

	m = valid()
	m.Growths = append(m.Growths, GrowthInput{Name: "moody", Segments: "x.csv"})
	assert.Error(t, m.Validate())

	// Underscores would break methodology label round-tripping
	m = valid()
	m.Attributions[0].Name = "light_cast"
	assert.Error(t, m.Validate())

	// Growth names keep everything after the first underscore, so they may
	m = valid()
	m.Growths[0].Name = "moody_baseline"
	assert.NoError(t, m.Validate())
}
