package models

import (
	"sort"
	"time"
)

// LineStats holds the late percentages of one line
type LineStats struct {
	LineID           string  `json:"line_id"`
	Pairs            int     `json:"pairs"`
	PctArrivalLate   float64 `json:"pct_arrival_late"`
	PctDepartureLate float64 `json:"pct_departure_late"`
	PctBothLate      float64 `json:"pct_both_late"`
}

// Report is what a presenter receives. When NoData is set, Lines is nil and
// the presenter must show an empty state instead of charts.
type Report struct {
	RunID                string               `json:"run_id"`
	GeneratedAt          time.Time            `json:"generated_at"`
	Category             string               `json:"category"`
	From                 time.Time            `json:"from"`
	To                   time.Time            `json:"to"`
	LateThresholdMinutes float64              `json:"late_threshold_minutes"`
	Lines                map[string]LineStats `json:"lines,omitempty"`
	SharedAxisMax        float64              `json:"shared_axis_max"`
	NoData               bool                 `json:"no_data"`
}

// LineIDs returns the report's line ids in ascending order
func (r *Report) LineIDs() []string {
	ids := make([]string, 0, len(r.Lines))
	for id := range r.Lines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
