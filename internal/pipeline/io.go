package pipeline

import (
	"strconv"

	"github.com/sells-group/forecast-cli/internal/extend"
	"github.com/sells-group/forecast-cli/internal/model"
	"github.com/sells-group/forecast-cli/internal/segments"
	"github.com/sells-group/forecast-cli/internal/tabular"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPct(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

var segmentSeriesHeader = []string{"segment_id", "segment_name", "year", "employment", "value_type", "forecast_source", "applied_growth_pct"}

// WriteSegmentSeries writes a segment-level series CSV.
func WriteSegmentSeries(path string, records []model.GroupYearRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Group.SegmentID),
			r.Group.Name,
			strconv.Itoa(r.Year),
			formatFloat(r.Employment),
			string(r.ValueType),
			r.ForecastSource,
			formatPct(r.AppliedGrowthPct),
		})
	}
	return tabular.WriteCSV(path, segmentSeriesHeader, rows)
}

var stageSeriesHeader = []string{"stage", "year", "employment", "value_type", "forecast_source", "applied_growth_pct"}

// WriteStageSeries writes a stage-level series CSV.
func WriteStageSeries(path string, records []model.GroupYearRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Group.Name,
			strconv.Itoa(r.Year),
			formatFloat(r.Employment),
			string(r.ValueType),
			r.ForecastSource,
			formatPct(r.AppliedGrowthPct),
		})
	}
	return tabular.WriteCSV(path, stageSeriesHeader, rows)
}

// ReadSegmentSeries reads a segment-level series CSV back into records.
func ReadSegmentSeries(path string) ([]model.GroupYearRecord, error) {
	t, err := tabular.ReadCSV(path, tabular.Options{})
	if err != nil {
		return nil, err
	}
	if err := t.RequireColumns("segment_id", "year", "employment"); err != nil {
		return nil, err
	}

	var out []model.GroupYearRecord
	for _, row := range t.Rows {
		id, idOK := tabular.ParseInt(t.Col(row, "segment_id"))
		year, yearOK := tabular.ParseInt(t.Col(row, "year"))
		emp, empOK := tabular.ParseFloat(t.Col(row, "employment"))
		if !idOK || !yearOK || !empOK {
			continue
		}
		out = append(out, model.GroupYearRecord{
			Group:            model.Group{Kind: model.GroupSegment, SegmentID: id, Name: segments.CanonicalLabel(id, t.Col(row, "segment_name"))},
			Year:             year,
			Employment:       emp,
			ValueType:        valueTypeOf(t.Col(row, "value_type")),
			ForecastSource:   t.Col(row, "forecast_source"),
			AppliedGrowthPct: pctOf(t.Col(row, "applied_growth_pct")),
		})
	}
	return out, nil
}

// ReadStageSeries reads a stage-level series CSV back into records.
func ReadStageSeries(path string) ([]model.GroupYearRecord, error) {
	t, err := tabular.ReadCSV(path, tabular.Options{})
	if err != nil {
		return nil, err
	}
	if err := t.RequireColumns("stage", "year", "employment"); err != nil {
		return nil, err
	}

	var out []model.GroupYearRecord
	for _, row := range t.Rows {
		stage, err := model.ParseStage(t.Col(row, "stage"))
		if err != nil {
			continue
		}
		year, yearOK := tabular.ParseInt(t.Col(row, "year"))
		emp, empOK := tabular.ParseFloat(t.Col(row, "employment"))
		if !yearOK || !empOK {
			continue
		}
		out = append(out, model.GroupYearRecord{
			Group:            model.Group{Kind: model.GroupStage, Name: string(stage)},
			Year:             year,
			Employment:       emp,
			ValueType:        valueTypeOf(t.Col(row, "value_type")),
			ForecastSource:   t.Col(row, "forecast_source"),
			AppliedGrowthPct: pctOf(t.Col(row, "applied_growth_pct")),
		})
	}
	return out, nil
}

func valueTypeOf(s string) model.ValueType {
	if s == string(model.ValueForecast) {
		return model.ValueForecast
	}
	// Missing value_type means a plain baseline export.
	return model.ValueHistorical
}

func pctOf(s string) *float64 {
	if v, ok := tabular.ParseFloat(s); ok {
		return model.Float64Ptr(v)
	}
	return nil
}

var segmentComparisonHeader = []string{"segment_id", "segment_name", "year", "employment", "value_type", "forecast_source", "attribution_source", "applied_growth_pct", "is_total"}

// WriteSegmentComparison writes the stacked methodology table for segments.
func WriteSegmentComparison(path string, records []extend.StackedRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Group.SegmentID),
			r.Group.Name,
			strconv.Itoa(r.Year),
			formatFloat(r.Employment),
			string(r.ValueType),
			r.ForecastSource,
			r.Attribution,
			formatPct(r.AppliedGrowthPct),
			strconv.FormatBool(r.Group.IsTotal()),
		})
	}
	return tabular.WriteCSV(path, segmentComparisonHeader, rows)
}

var stageComparisonHeader = []string{"stage", "year", "employment", "value_type", "forecast_source", "attribution_source", "applied_growth_pct", "is_total"}

// WriteStageComparison writes the stacked methodology table for stages.
func WriteStageComparison(path string, records []extend.StackedRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Group.Name,
			strconv.Itoa(r.Year),
			formatFloat(r.Employment),
			string(r.ValueType),
			r.ForecastSource,
			r.Attribution,
			formatPct(r.AppliedGrowthPct),
			strconv.FormatBool(r.Group.IsTotal()),
		})
	}
	return tabular.WriteCSV(path, stageComparisonHeader, rows)
}

// ReadSegmentComparison reads a stacked segment comparison CSV.
func ReadSegmentComparison(path string) ([]extend.StackedRecord, error) {
	t, err := tabular.ReadCSV(path, tabular.Options{})
	if err != nil {
		return nil, err
	}
	if err := t.RequireColumns("segment_id", "year", "employment", "attribution_source"); err != nil {
		return nil, err
	}

	var out []extend.StackedRecord
	for _, row := range t.Rows {
		id, idOK := tabular.ParseInt(t.Col(row, "segment_id"))
		year, yearOK := tabular.ParseInt(t.Col(row, "year"))
		emp, empOK := tabular.ParseFloat(t.Col(row, "employment"))
		if !idOK || !yearOK || !empOK {
			continue
		}

		group := model.Group{Kind: model.GroupSegment, SegmentID: id, Name: segments.CanonicalLabel(id, t.Col(row, "segment_name"))}
		if t.Col(row, "is_total") == "true" {
			group = model.Group{Kind: model.GroupTotal, Name: t.Col(row, "segment_name")}
		}
		out = append(out, extend.StackedRecord{
			GroupYearRecord: model.GroupYearRecord{
				Group:            group,
				Year:             year,
				Employment:       emp,
				ValueType:        valueTypeOf(t.Col(row, "value_type")),
				ForecastSource:   t.Col(row, "forecast_source"),
				AppliedGrowthPct: pctOf(t.Col(row, "applied_growth_pct")),
			},
			Attribution: t.Col(row, "attribution_source"),
		})
	}
	return out, nil
}

var allocationHeader = []string{"segment_id", "segment_name", "occupation_code", "occupation_title", "year", "methodology", "attribution_source", "growth_source", "employment", "share", "is_total"}

// WriteAllocations writes the occupation-level forecast table.
func WriteAllocations(path string, records []model.AllocationRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.SegmentID),
			r.SegmentName,
			r.OccCode,
			r.OccTitle,
			strconv.Itoa(r.Year),
			r.Methodology.String(),
			r.Methodology.Attribution,
			r.Methodology.Growth,
			formatFloat(r.Employment),
			formatFloat(r.Share),
			strconv.FormatBool(r.IsTotal),
		})
	}
	return tabular.WriteCSV(path, allocationHeader, rows)
}

var validationHeader = []string{"segment_id", "year", "methodology", "allocated_sum", "segment_total", "pct_diff", "flagged"}

// WriteValidations writes the allocation validation table.
func WriteValidations(path string, records []model.ValidationRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.SegmentID),
			strconv.Itoa(r.Year),
			r.Methodology.String(),
			formatFloat(r.AllocatedSum),
			formatFloat(r.SegmentTotal),
			formatFloat(r.PctDiff),
			strconv.FormatBool(r.Flagged),
		})
	}
	return tabular.WriteCSV(path, validationHeader, rows)
}

var auditHeader = []string{"naics_code", "segment_id", "segment_name", "stage", "year", "employment_raw", "share", "employment_adj"}

// WriteAudit writes the NAICS-level attribution audit table.
func WriteAudit(path string, records []segments.AuditRow) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.NAICS,
			strconv.Itoa(r.SegmentID),
			r.SegmentName,
			string(r.Stage),
			strconv.Itoa(r.Year),
			formatFloat(r.RawEmployment),
			formatFloat(r.Share),
			formatFloat(r.AdjEmployment),
		})
	}
	return tabular.WriteCSV(path, auditHeader, rows)
}

var diagnosticsHeader = []string{"group", "year", "employment_raw", "employment_adj", "naics_count", "share_min", "share_max", "share_weighted"}

// WriteDiagnostics writes per-group attribution diagnostics.
func WriteDiagnostics(path string, records []model.SegmentDiagnostic) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Group.Name,
			strconv.Itoa(r.Year),
			formatFloat(r.RawEmployment),
			formatFloat(r.AdjEmployment),
			strconv.Itoa(r.NAICSCount),
			formatFloat(r.ShareMin),
			formatFloat(r.ShareMax),
			formatFloat(r.ShareWeighted),
		})
	}
	return tabular.WriteCSV(path, diagnosticsHeader, rows)
}

// SnapshotAllocations filters allocations to a single year.
func SnapshotAllocations(records []model.AllocationRecord, year int) []model.AllocationRecord {
	var out []model.AllocationRecord
	for _, r := range records {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}
