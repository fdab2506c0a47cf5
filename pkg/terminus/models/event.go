package models

import (
	"fmt"
	"time"
)

// Role distinguishes end-of-route arrivals from start-of-route departures
type Role string

const (
	Arrival   Role = "arrival"
	Departure Role = "departure"
)

// TerminusEvent is one recorded arrival or departure of a vehicle at a route endpoint
type TerminusEvent struct {
	VehicleID     string
	ServiceDate   time.Time
	StopID        string
	Category      string
	LineID        string
	ScheduledTime time.Time
	ActualTime    time.Time
	Role          Role
	Row           int // 1-based data row in the source, 0 when unknown
}

// DelayMinutes returns actual minus scheduled time in minutes. Negative means early.
func (e TerminusEvent) DelayMinutes() float64 {
	return e.ActualTime.Sub(e.ScheduledTime).Seconds() / 60
}

// ServiceDay formats the service date as YYYY-MM-DD
func (e TerminusEvent) ServiceDay() string {
	return e.ServiceDate.Format(DateLayout)
}

// Dataset holds both terminus collections as supplied by the event store
type Dataset struct {
	Arrivals   []TerminusEvent
	Departures []TerminusEvent
	LoadedAt   time.Time
}

// Clone returns a copy whose slices share nothing with d
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	return &Dataset{
		Arrivals:   append([]TerminusEvent(nil), d.Arrivals...),
		Departures: append([]TerminusEvent(nil), d.Departures...),
		LoadedAt:   d.LoadedAt,
	}
}

// TurnaroundPair links an arrival with the departure the vehicle makes next from the same stop
type TurnaroundPair struct {
	VehicleID             string
	ServiceDate           time.Time
	StopID                string
	Category              string
	LineID                string
	Arrival               TerminusEvent
	Departure             TerminusEvent
	ArrivalDelayMinutes   float64
	DepartureDelayMinutes float64
}

// ClassifiedPair is a turnaround with its lateness flags
type ClassifiedPair struct {
	TurnaroundPair
	ArrivalLate   bool
	DepartureLate bool
	BothLate      bool
}

// DataShapeError reports an input row that cannot become a TerminusEvent
type DataShapeError struct {
	Source string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *DataShapeError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("%s: column %q: %v", e.Source, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: row %d column %q value %q: %v", e.Source, e.Row, e.Column, e.Value, e.Err)
}

func (e *DataShapeError) Unwrap() error {
	return e.Err
}
