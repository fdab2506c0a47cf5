// Package delay turns turnaround pairs into signed delays and lateness flags.
package delay

import (
	"iter"

	"github.com/terminus-adherence/pkg/terminus/models"
)

// DefaultLateThresholdMinutes mirrors the late_threshold_minutes default
const DefaultLateThresholdMinutes = 3.0

// Classifier flags a half-turnaround as late when its delay is strictly above the
// threshold; a delay of exactly the threshold is on time.
type Classifier struct {
	threshold float64
}

func NewClassifier(thresholdMinutes float64) Classifier {
	return Classifier{threshold: thresholdMinutes}
}

func (c Classifier) ThresholdMinutes() float64 {
	return c.threshold
}

func (c Classifier) IsLate(delayMinutes float64) bool {
	return delayMinutes > c.threshold
}

// Classify recomputes both delays from the pair's raw timestamps and sets the flags
func (c Classifier) Classify(p models.TurnaroundPair) models.ClassifiedPair {
	p.ArrivalDelayMinutes = p.Arrival.DelayMinutes()
	p.DepartureDelayMinutes = p.Departure.DelayMinutes()

	arrivalLate := c.IsLate(p.ArrivalDelayMinutes)
	departureLate := c.IsLate(p.DepartureDelayMinutes)

	return models.ClassifiedPair{
		TurnaroundPair: p,
		ArrivalLate:    arrivalLate,
		DepartureLate:  departureLate,
		BothLate:       arrivalLate && departureLate,
	}
}

// ClassifyAll classifies a pair sequence in order
func (c Classifier) ClassifyAll(pairs iter.Seq[models.TurnaroundPair]) []models.ClassifiedPair {
	var out []models.ClassifiedPair
	for p := range pairs {
		out = append(out, c.Classify(p))
	}
	return out
}
