package extend

import (
	"sort"

	"github.com/sells-group/forecast-cli/internal/model"
)

// StackedRecord is one row of the methodology comparison table: a group-year
// level qualified by the attribution source that produced its baseline.
type StackedRecord struct {
	model.GroupYearRecord
	Attribution string
}

// Methodology returns the record's forecast variant. Historical rows carry
// only the attribution axis; their growth axis is empty until base-year
// expansion assigns one.
func (r StackedRecord) Methodology() model.Methodology {
	return model.Methodology{Attribution: r.Attribution, Growth: r.ForecastSource}
}

// Tagged is one extension output labeled with its attribution source.
type Tagged struct {
	Attribution string
	Records     []model.GroupYearRecord
}

// StackOptions configures Stack.
type StackOptions struct {
	AddTotal  bool
	TotalName string // label of the synthetic all-groups row
}

// Stack combines extension outputs from competing methodologies into one
// long table, deduplicated on (group, year, value type, forecast source,
// attribution).
//
// When AddTotal is set, a synthetic all-groups row is appended per
// (year, value type, forecast source, attribution) with a distinct group
// kind. Downstream iteration skips it by kind, never by label matching.
func Stack(inputs []Tagged, opts StackOptions) []StackedRecord {
	type stackKey struct {
		group       string
		year        int
		valueType   model.ValueType
		source      string
		attribution string
	}

	seen := make(map[stackKey]struct{})
	var out []StackedRecord
	for _, in := range inputs {
		for _, rec := range in.Records {
			if rec.Group.IsTotal() {
				continue
			}
			k := stackKey{rec.Group.Key(), rec.Year, rec.ValueType, rec.ForecastSource, in.Attribution}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, StackedRecord{GroupYearRecord: rec, Attribution: in.Attribution})
		}
	}

	if opts.AddTotal {
		out = append(out, totals(out, opts.TotalName)...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return model.GroupLess(out[i].Group, out[j].Group)
		}
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		if out[i].Attribution != out[j].Attribution {
			return out[i].Attribution < out[j].Attribution
		}
		if out[i].ForecastSource != out[j].ForecastSource {
			return out[i].ForecastSource < out[j].ForecastSource
		}
		return out[i].ValueType < out[j].ValueType
	})
	return out
}

func totals(records []StackedRecord, name string) []StackedRecord {
	type totalKey struct {
		year        int
		valueType   model.ValueType
		source      string
		attribution string
	}

	sums := make(map[totalKey]float64)
	var order []totalKey
	for _, rec := range records {
		k := totalKey{rec.Year, rec.ValueType, rec.ForecastSource, rec.Attribution}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += rec.Employment
	}

	group := model.Group{Kind: model.GroupTotal, Name: name}
	out := make([]StackedRecord, 0, len(order))
	for _, k := range order {
		out = append(out, StackedRecord{
			GroupYearRecord: model.GroupYearRecord{
				Group:          group,
				Year:           k.year,
				Employment:     sums[k],
				ValueType:      k.valueType,
				ForecastSource: k.source,
				// AppliedGrowthPct stays nil: the total is derived, no
				// single rate produced it.
			},
			Attribution: k.attribution,
		})
	}
	return out
}
