package segments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

func TestLoadLookup(t *testing.T) {
	tbl := tabular.NewTable("lookup.csv",
		[]string{"industry_code", "segment_id", "segment_name", "stage"},
		[][]string{
			{"3361", "4", "Vehicle Assembly", "OEM"},
			{"3363", "1", "Materials & Processing", "Upstream"},
			{"3361", "9", "Duplicate", "Downstream"}, // first row wins
		},
	)

	lookup, err := LoadLookup(tbl)
	require.NoError(t, err)
	assert.Len(t, lookup, 2)
	assert.Equal(t, 4, lookup["3361"].SegmentID)
	assert.Equal(t, model.StageOEM, lookup["3361"].Stage)
	assert.Equal(t, "Vehicle Assembly", lookup["3361"].SegmentName)
}

func TestLoadLookupRejectsBadRows(t *testing.T) {
	tbl := tabular.NewTable("lookup.csv",
		[]string{"industry_code", "segment_id", "segment_name", "stage"},
		[][]string{{"3361", "0", "Bad", "OEM"}},
	)
	_, err := LoadLookup(tbl)
	assert.Error(t, err)

	tbl = tabular.NewTable("lookup.csv",
		[]string{"industry_code", "segment_id", "segment_name", "stage"},
		[][]string{{"3361", "4", "Assembly", "Sideways"}},
	)
	_, err = LoadLookup(tbl)
	assert.Error(t, err)
}

func TestCanonicalLabel(t *testing.T) {
	assert.Equal(t, "1. Materials & Processing", CanonicalLabel(1, "Materials & Processing"))

	// Sub-segment annotation dropped
	assert.Equal(t, "1. Materials & Processing", CanonicalLabel(1, "Materials & Processing - Steel"))

	// Already-canonical labels pass through
	assert.Equal(t, "3. Logistics", CanonicalLabel(3, "3. Logistics"))

	assert.Equal(t, "7", CanonicalLabel(7, ""))
}

func TestMappingErrorMessage(t *testing.T) {
	err := &MappingError{Codes: []string{"3361", "4411"}}
	assert.Contains(t, err.Error(), "3361")
	assert.Contains(t, err.Error(), "4411")
}
