// Package model defines the record types passed between pipeline stages.
package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Stage is the coarse supply-chain grouping of segments.
type Stage string

const (
	StageUpstream   Stage = "Upstream"
	StageOEM        Stage = "OEM"
	StageDownstream Stage = "Downstream"
)

// ParseStage validates a stage label from an input file.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageUpstream, StageOEM, StageDownstream:
		return Stage(s), nil
	}
	return "", eris.Errorf("model: unknown stage %q", s)
}

// ValueType distinguishes observed history from compounded forecast levels.
type ValueType string

const (
	ValueHistorical ValueType = "Historical"
	ValueForecast   ValueType = "Forecast"
)

// IndustryYearRecord is one observed employment level for a NAICS industry.
type IndustryYearRecord struct {
	NAICS      string
	Year       int
	Employment float64
}

// AttributionShare is the fraction of an industry's employment attributable
// to the automotive domain. Industries without a share row are treated as
// share 0, never as an error.
type AttributionShare struct {
	NAICS string
	Share float64
}

// SegmentInfo is one row of the fixed NAICS → segment/stage lookup.
type SegmentInfo struct {
	NAICS       string
	SegmentID   int
	SegmentName string
	Stage       Stage
}

// GroupKind identifies the aggregation level of a Group.
type GroupKind string

const (
	GroupSegment GroupKind = "segment"
	GroupStage   GroupKind = "stage"
	// GroupTotal marks the synthetic all-groups summary row. It is derived,
	// not a peer group, and is skipped by every per-group iteration.
	GroupTotal GroupKind = "total"
)

// Group is the aggregation key of an extended time series: a segment, a
// stage, or the synthetic total.
type Group struct {
	Kind      GroupKind
	SegmentID int    // segment groups only
	Name      string // canonical segment label or stage name
}

// Key returns a stable map key for the group.
func (g Group) Key() string {
	if g.Kind == GroupSegment {
		return fmt.Sprintf("segment:%d", g.SegmentID)
	}
	return string(g.Kind) + ":" + g.Name
}

// IsTotal reports whether the group is the synthetic summary row.
func (g Group) IsTotal() bool { return g.Kind == GroupTotal }

// GroupLess orders groups for output: segments by id, stages by name, and
// the synthetic total last.
func GroupLess(a, b Group) bool {
	if a.Kind != b.Kind {
		return groupKindOrder(a.Kind) < groupKindOrder(b.Kind)
	}
	if a.SegmentID != b.SegmentID {
		return a.SegmentID < b.SegmentID
	}
	return a.Name < b.Name
}

func groupKindOrder(k GroupKind) int {
	switch k {
	case GroupSegment:
		return 0
	case GroupStage:
		return 1
	default:
		return 2
	}
}

// GroupYearRecord is one point of a segment- or stage-level series.
// AppliedGrowthPct is nil for historical rows and for synthetic totals.
type GroupYearRecord struct {
	Group            Group
	Year             int
	Employment       float64
	ValueType        ValueType
	ForecastSource   string
	AppliedGrowthPct *float64
}

// YoYGrowthRecord is one externally forecast year-over-year growth rate.
// A nil GrowthPct means the source has no rate for that year; the extension
// engine skips the year rather than treating it as 0%.
type YoYGrowthRecord struct {
	Group     Group
	Year      int
	GrowthPct *float64
}

// OccupationShareRecord is an interpolated occupation share for one
// (segment, occupation, year). Within a segment-year, shares sum to 1.
type OccupationShareRecord struct {
	SegmentID   int
	SegmentName string
	OccCode     string
	OccTitle    string
	Year        int
	Share       float64
	BaseShare   float64 // renormalized base-year share
	TargetShare float64 // renormalized end-year share
}

// AllocationRecord is one occupation-level employment forecast.
type AllocationRecord struct {
	SegmentID   int
	SegmentName string
	OccCode     string
	OccTitle    string
	Year        int
	Methodology Methodology
	Employment  float64
	Share       float64
	IsTotal     bool // true on the synthetic all-segments rows
}

// ValidationRecord compares allocated occupation sums against the segment
// total they were derived from.
type ValidationRecord struct {
	SegmentID    int
	Year         int
	Methodology  Methodology
	AllocatedSum float64
	SegmentTotal float64
	PctDiff      float64
	Flagged      bool
}

// SegmentDiagnostic captures attribution quality per group-year.
// ShareWeighted above 1.0 indicates a defect in the attribution source.
type SegmentDiagnostic struct {
	Group         Group
	Year          int
	RawEmployment float64
	AdjEmployment float64
	NAICSCount    int
	ShareMin      float64
	ShareMax      float64
	ShareWeighted float64
}

// Float64Ptr returns a pointer to v. Helper for optional growth rates.
func Float64Ptr(v float64) *float64 { return &v }
