// Package stats rolls classified turnarounds up into per-line late percentages.
package stats

import (
	"errors"
	"math"

	"github.com/terminus-adherence/pkg/terminus/models"
)

// ErrNoPairs is returned when Aggregate is called without pairs. Callers are expected to
// report an empty result before getting here.
var ErrNoPairs = errors.New("stats: no turnaround pairs to aggregate")

// Result is the per-line table and the y-axis bound shared by all three charts
type Result struct {
	Lines         map[string]models.LineStats
	SharedAxisMax float64
}

type counts struct {
	pairs, arrivalLate, departureLate, bothLate int
}

// Aggregate computes, for every line, the share of pairs whose arrival, departure, or
// both were late, as percentages. Lines with few pairs are reported as they are.
func Aggregate(pairs []models.ClassifiedPair) (*Result, error) {
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}

	byLine := make(map[string]*counts)
	for _, p := range pairs {
		c, ok := byLine[p.LineID]
		if !ok {
			c = &counts{}
			byLine[p.LineID] = c
		}
		c.pairs++
		if p.ArrivalLate {
			c.arrivalLate++
		}
		if p.DepartureLate {
			c.departureLate++
		}
		if p.BothLate {
			c.bothLate++
		}
	}

	lines := make(map[string]models.LineStats, len(byLine))
	for id, c := range byLine {
		lines[id] = models.LineStats{
			LineID:           id,
			Pairs:            c.pairs,
			PctArrivalLate:   percent(c.arrivalLate, c.pairs),
			PctDepartureLate: percent(c.departureLate, c.pairs),
			PctBothLate:      percent(c.bothLate, c.pairs),
		}
	}

	return &Result{Lines: lines, SharedAxisMax: AxisMax(lines)}, nil
}

// AxisMax rounds the largest percentage of any line and metric up to a multiple of ten
func AxisMax(lines map[string]models.LineStats) float64 {
	highest := 0.0
	for _, s := range lines {
		highest = math.Max(highest, math.Max(s.PctArrivalLate, math.Max(s.PctDepartureLate, s.PctBothLate)))
	}
	return math.Ceil(highest/10) * 10
}

// percent is the mean of a 0/1 column times 100
func percent(hits, total int) float64 {
	return float64(hits) / float64(total) * 100
}
