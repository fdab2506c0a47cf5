package pairing

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminus-adherence/pkg/terminus/models"
)

var serviceDay = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(hhmm string) time.Time {
	c, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return serviceDay.Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute)
}

func event(role models.Role, vehicle, stop, scheduled, actual string, row int) models.TerminusEvent {
	return models.TerminusEvent{
		VehicleID:     vehicle,
		ServiceDate:   serviceDay,
		StopID:        stop,
		Category:      "Bus",
		LineID:        "12",
		ScheduledTime: at(scheduled),
		ActualTime:    at(actual),
		Role:          role,
		Row:           row,
	}
}

func TestPairsTurnaroundScenario(t *testing.T) {
	arrivals := []models.TerminusEvent{
		event(models.Arrival, "V1", "S1", "10:30", "10:35", 1), // E1, listed first
		event(models.Arrival, "V1", "S1", "10:00", "10:05", 2), // E0
	}
	departures := []models.TerminusEvent{
		event(models.Departure, "V1", "S1", "10:10", "10:20", 1), // F1
		event(models.Departure, "V1", "S1", "09:50", "09:55", 2), // F0
	}

	pairs := Collect(arrivals, departures)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, at("10:00"), p.Arrival.ScheduledTime, "arrival is E0")
	assert.Equal(t, at("10:10"), p.Departure.ScheduledTime, "departure is F1")
	assert.Equal(t, 5.0, p.ArrivalDelayMinutes)
	assert.Equal(t, 10.0, p.DepartureDelayMinutes)
	assert.Equal(t, "12", p.LineID)
	assert.Equal(t, "Bus", p.Category)
	assert.Equal(t, "S1", p.StopID)
}

func TestPairsSkipsStopMismatch(t *testing.T) {
	arrivals := []models.TerminusEvent{
		event(models.Arrival, "V1", "S1", "10:00", "10:01", 1),
		event(models.Arrival, "V1", "S2", "11:00", "11:01", 2),
		event(models.Arrival, "V1", "S1", "12:00", "12:01", 3),
	}
	departures := []models.TerminusEvent{
		event(models.Departure, "V1", "S1", "09:00", "09:00", 1),
		event(models.Departure, "V1", "S2", "10:10", "10:10", 2), // candidate for the S1 arrival
		event(models.Departure, "V1", "S2", "11:10", "11:10", 3), // candidate for the S2 arrival
	}

	pairs := Collect(arrivals, departures)
	require.Len(t, pairs, 1, "mismatched candidate is dropped, not rematched")
	assert.Equal(t, "S2", pairs[0].StopID)
	assert.Equal(t, at("11:10"), pairs[0].Departure.ScheduledTime)
}

func TestPairsDropsExcessEvents(t *testing.T) {
	arrivals := []models.TerminusEvent{
		event(models.Arrival, "V1", "S1", "10:00", "10:00", 1),
		event(models.Arrival, "V1", "S1", "11:00", "11:00", 2),
		event(models.Arrival, "V1", "S1", "12:00", "12:00", 3),
		event(models.Arrival, "V1", "S1", "13:00", "13:00", 4),
	}
	departures := []models.TerminusEvent{
		event(models.Departure, "V1", "S1", "09:00", "09:00", 1),
		event(models.Departure, "V1", "S1", "10:10", "10:10", 2),
	}
	assert.Len(t, Collect(arrivals, departures), 1)
}

func TestPairsNeedsBothSidesOfTheGroup(t *testing.T) {
	arrivals := []models.TerminusEvent{
		event(models.Arrival, "V1", "S1", "10:00", "10:00", 1),
		event(models.Arrival, "V1", "S1", "11:00", "11:00", 2),
	}
	departures := []models.TerminusEvent{
		event(models.Departure, "V2", "S1", "09:00", "09:00", 1),
		event(models.Departure, "V2", "S1", "10:10", "10:10", 2),
	}
	assert.Empty(t, Collect(arrivals, departures), "no departure group for V1")

	single := []models.TerminusEvent{event(models.Departure, "V1", "S1", "09:00", "09:00", 1)}
	assert.Empty(t, Collect(arrivals, single), "n-1 is zero")

	assert.Empty(t, Collect(nil, departures))
	assert.Empty(t, Collect(arrivals, nil))
}

func TestPairsGroupsByServiceDate(t *testing.T) {
	nextDay := func(e models.TerminusEvent) models.TerminusEvent {
		e.ServiceDate = e.ServiceDate.AddDate(0, 0, 1)
		return e
	}
	arrivals := []models.TerminusEvent{
		event(models.Arrival, "V1", "S1", "10:00", "10:00", 1),
		nextDay(event(models.Arrival, "V1", "S1", "10:00", "10:00", 2)),
	}
	departures := []models.TerminusEvent{
		event(models.Departure, "V1", "S1", "09:00", "09:00", 1),
		nextDay(event(models.Departure, "V1", "S1", "10:10", "10:10", 2)),
	}
	assert.Empty(t, Collect(arrivals, departures), "events on different days never pair")
}

func TestPairsStableTieBreak(t *testing.T) {
	// Two departures share a scheduled time; input order decides which is second.
	arrivals := []models.TerminusEvent{
		event(models.Arrival, "V1", "S1", "10:00", "10:00", 1),
		event(models.Arrival, "V1", "S1", "10:30", "10:00", 2), // same actual time as row 1
	}
	first := event(models.Departure, "V1", "S1", "10:15", "10:15", 1)
	second := event(models.Departure, "V1", "S1", "10:15", "10:25", 2)

	pairs := Collect(arrivals, []models.TerminusEvent{first, second})
	require.Len(t, pairs, 1)
	assert.Equal(t, 1, pairs[0].Arrival.Row)
	assert.Equal(t, 2, pairs[0].Departure.Row)

	pairs = Collect(arrivals, []models.TerminusEvent{second, first})
	require.Len(t, pairs, 1)
	assert.Equal(t, 1, pairs[0].Departure.Row)
}

func TestPairsDoesNotReorderInput(t *testing.T) {
	arrivals := []models.TerminusEvent{
		event(models.Arrival, "V1", "S1", "11:00", "11:00", 1),
		event(models.Arrival, "V1", "S1", "10:00", "10:00", 2),
	}
	departures := []models.TerminusEvent{
		event(models.Departure, "V1", "S1", "10:10", "10:10", 1),
		event(models.Departure, "V1", "S1", "09:00", "09:00", 2),
	}
	_ = Collect(arrivals, departures)
	assert.Equal(t, 1, arrivals[0].Row)
	assert.Equal(t, 1, departures[0].Row)
}

func TestPairsIsLazyAndStopsEarly(t *testing.T) {
	var arrivals, departures []models.TerminusEvent
	for v := 0; v < 5; v++ {
		id := fmt.Sprintf("V%d", v)
		arrivals = append(arrivals,
			event(models.Arrival, id, "S1", "10:00", "10:00", 1),
			event(models.Arrival, id, "S1", "11:00", "11:00", 2))
		departures = append(departures,
			event(models.Departure, id, "S1", "09:00", "09:00", 1),
			event(models.Departure, id, "S1", "10:10", "10:10", 2))
	}

	var seen []string
	for p := range Pairs(arrivals, departures) {
		seen = append(seen, p.VehicleID)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"V0", "V1"}, seen)
}

func randomEvents(r *rand.Rand, role models.Role, n int) []models.TerminusEvent {
	stops := []string{"S1", "S2"}
	vehicles := []string{"V1", "V2", "V3"}
	out := make([]models.TerminusEvent, n)
	for i := range out {
		sched := serviceDay.Add(time.Duration(r.Intn(24*60)) * time.Minute)
		out[i] = models.TerminusEvent{
			VehicleID:     vehicles[r.Intn(len(vehicles))],
			ServiceDate:   serviceDay.AddDate(0, 0, r.Intn(2)),
			StopID:        stops[r.Intn(len(stops))],
			LineID:        "L",
			ScheduledTime: sched,
			ActualTime:    sched.Add(time.Duration(r.Intn(20)-5) * time.Minute),
			Role:          role,
			Row:           i + 1,
		}
	}
	return out
}

func TestPairsBoundAndSameStop(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		arrivals := randomEvents(r, models.Arrival, r.Intn(30))
		departures := randomEvents(r, models.Departure, r.Intn(30))

		perGroup := make(map[GroupKey]int)
		for p := range Pairs(arrivals, departures) {
			assert.Equal(t, p.Arrival.StopID, p.Departure.StopID)
			assert.Equal(t, p.Arrival.VehicleID, p.Departure.VehicleID)
			assert.Equal(t, p.Arrival.ServiceDay(), p.Departure.ServiceDay())
			perGroup[keyOf(p.Arrival)]++
		}

		a, d := Partition(arrivals), Partition(departures)
		for k, count := range perGroup {
			bound := max(min(len(a[k]), len(d[k]))-1, 0)
			assert.LessOrEqual(t, count, bound, "group %v", k)
		}
	}
}

func TestPairsDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	arrivals := randomEvents(r, models.Arrival, 60)
	departures := randomEvents(r, models.Departure, 60)

	first := Collect(arrivals, departures)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Collect(arrivals, departures))
	}
}
