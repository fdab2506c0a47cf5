package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used for service dates and filters
const DateLayout = "2006-01-02"

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

var zonedLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 00:00:00",
	"2006-01-02T00:00:00",
	"02/01/2006",
	"20060102",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
}

// ParseServiceDate parses a calendar day. Time-of-day parts equal to midnight are accepted.
func ParseServiceDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q", s)
}

// ParseTimestamp parses a scheduled or actual time. Values carrying an offset keep it,
// naive date-times are placed in loc, and a bare time of day is combined with serviceDate.
func ParseTimestamp(s string, serviceDate time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if !serviceDate.IsZero() {
		for _, layout := range clockLayouts {
			if c, err := time.Parse(layout, s); err == nil {
				y, m, d := serviceDate.Date()
				return time.Date(y, m, d, c.Hour(), c.Minute(), c.Second(), 0, loc), nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp %q", s)
}
