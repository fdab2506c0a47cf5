// Package pairing matches each vehicle's terminus arrivals with the departures it makes next.
package pairing

import (
	"cmp"
	"iter"
	"slices"

	"github.com/terminus-adherence/pkg/terminus/models"
)

// GroupKey identifies the events of one vehicle on one service day
type GroupKey struct {
	VehicleID   string
	ServiceDate string // YYYY-MM-DD
}

func keyOf(e models.TerminusEvent) GroupKey {
	return GroupKey{VehicleID: e.VehicleID, ServiceDate: e.ServiceDay()}
}

func compareKeys(a, b GroupKey) int {
	if c := cmp.Compare(a.VehicleID, b.VehicleID); c != 0 {
		return c
	}
	return cmp.Compare(a.ServiceDate, b.ServiceDate)
}

// Partition groups events by (vehicle, service day). Each group keeps input order.
func Partition(events []models.TerminusEvent) map[GroupKey][]models.TerminusEvent {
	groups := make(map[GroupKey][]models.TerminusEvent)
	for _, e := range events {
		k := keyOf(e)
		groups[k] = append(groups[k], e)
	}
	return groups
}

// SortArrivals orders a group by actual arrival time. The sort is stable, so events
// arriving at the same instant keep their input order.
func SortArrivals(group []models.TerminusEvent) {
	slices.SortStableFunc(group, func(a, b models.TerminusEvent) int {
		return a.ActualTime.Compare(b.ActualTime)
	})
}

// SortDepartures orders a group by scheduled departure time, stable on ties
func SortDepartures(group []models.TerminusEvent) {
	slices.SortStableFunc(group, func(a, b models.TerminusEvent) int {
		return a.ScheduledTime.Compare(b.ScheduledTime)
	})
}

// Pairs yields the turnarounds of the given collections. Within a vehicle-day the i-th
// arrival is matched with the (i+1)-th departure: the departure already under way when
// the vehicle arrived is not its turnaround. Candidates at different stops are skipped.
// Groups are visited in (vehicle, day) order, so the sequence is the same on every call.
// Nothing is computed until the sequence is ranged over.
func Pairs(arrivals, departures []models.TerminusEvent) iter.Seq[models.TurnaroundPair] {
	return func(yield func(models.TurnaroundPair) bool) {
		if len(arrivals) == 0 || len(departures) == 0 {
			return
		}

		arrivalGroups := Partition(arrivals)
		departureGroups := Partition(departures)

		keys := make([]GroupKey, 0, len(arrivalGroups))
		for k := range arrivalGroups {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeys)

		for _, k := range keys {
			ends := arrivalGroups[k]
			starts := departureGroups[k]
			SortArrivals(ends)
			SortDepartures(starts)

			n := min(len(ends), len(starts))
			for i := 0; i < n-1; i++ {
				prev, next := ends[i], starts[i+1]
				if prev.StopID != next.StopID {
					continue
				}
				if !yield(newPair(prev, next)) {
					return
				}
			}
		}
	}
}

// Collect runs Pairs to completion
func Collect(arrivals, departures []models.TerminusEvent) []models.TurnaroundPair {
	return slices.Collect(Pairs(arrivals, departures))
}

func newPair(arrival, departure models.TerminusEvent) models.TurnaroundPair {
	return models.TurnaroundPair{
		VehicleID:             arrival.VehicleID,
		ServiceDate:           arrival.ServiceDate,
		StopID:                arrival.StopID,
		Category:              arrival.Category,
		LineID:                arrival.LineID,
		Arrival:               arrival,
		Departure:             departure,
		ArrivalDelayMinutes:   arrival.DelayMinutes(),
		DepartureDelayMinutes: departure.DelayMinutes(),
	}
}
