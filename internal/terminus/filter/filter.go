// Package filter narrows terminus collections to one category and an inclusive
// range of service dates before pairing.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/terminus-adherence/pkg/terminus/models"
)

// All is the category selector value that disables category filtering
const All = "All"

// Filter is the pair of user selections applied to both collections. A zero From or To
// leaves that side of the range open.
type Filter struct {
	Category string
	From     time.Time
	To       time.Time
}

// Parse builds a Filter from selector values. Empty dates default to the range of the
// departure collection, as the date picker does.
func Parse(category, from, to string, departures []models.TerminusEvent, loc *time.Location) (Filter, error) {
	f := Filter{Category: strings.TrimSpace(category)}
	if f.Category == "" {
		f.Category = All
	}

	minDate, maxDate, ok := DefaultRange(departures)
	if ok {
		f.From, f.To = minDate, maxDate
	}

	if from != "" {
		t, err := models.ParseServiceDate(from, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("parsing from date: %w", err)
		}
		f.From = t
	}
	if to != "" {
		t, err := models.ParseServiceDate(to, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("parsing to date: %w", err)
		}
		f.To = t
	}

	return f, f.Validate()
}

func (f Filter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && dayKey(f.From) > dayKey(f.To) {
		return fmt.Errorf("date range start %s is after end %s",
			f.From.Format(models.DateLayout), f.To.Format(models.DateLayout))
	}
	return nil
}

// AllCategories reports whether the category selector is set to "no filter"
func (f Filter) AllCategories() bool {
	return f.Category == "" || f.Category == All
}

// Matches reports whether e falls inside the selection. Dates compare by calendar day.
func (f Filter) Matches(e models.TerminusEvent) bool {
	day := dayKey(e.ServiceDate)
	if !f.From.IsZero() && day < dayKey(f.From) {
		return false
	}
	if !f.To.IsZero() && day > dayKey(f.To) {
		return false
	}
	return f.AllCategories() || e.Category == f.Category
}

// Apply returns the matching events in input order. The input slice is not modified.
func (f Filter) Apply(events []models.TerminusEvent) []models.TerminusEvent {
	out := make([]models.TerminusEvent, 0, len(events))
	for _, e := range events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Categories lists the selectable categories: "All" followed by the sorted distinct
// non-empty categories of events.
func Categories(events []models.TerminusEvent) []string {
	seen := make(map[string]struct{})
	for _, e := range events {
		if e.Category != "" {
			seen[e.Category] = struct{}{}
		}
	}
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return append([]string{All}, cats...)
}

// DefaultRange returns the earliest and latest service dates of events
func DefaultRange(events []models.TerminusEvent) (from, to time.Time, ok bool) {
	for i, e := range events {
		if i == 0 || dayKey(e.ServiceDate) < dayKey(from) {
			from = e.ServiceDate
		}
		if i == 0 || dayKey(e.ServiceDate) > dayKey(to) {
			to = e.ServiceDate
		}
	}
	return from, to, len(events) > 0
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
