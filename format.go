package main

import (
	"strings"
	"time"
)

// NotAvailable is shown in place of a timestamp that cannot be parsed.
const NotAvailable = "N/A"

const (
	DefaultTimeLayout  = "1/2/2006, 3:04:05 PM"
	DefaultClockLayout = "3:04:05 PM"
)

// zoned layouts carry their own offset; the rest are read in the formatter's
// location, except date-only which is UTC midnight.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	time.RFC1123Z,
	time.RFC1123,
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// TimeFormatter turns backend timestamps into display strings.
type TimeFormatter struct {
	Layout      string
	ClockLayout string
	Loc         *time.Location
}

func (f TimeFormatter) location() *time.Location {
	if f.Loc == nil {
		return time.Local
	}
	return f.Loc
}

// FormatTime returns the date-time display string for s, or NotAvailable if
// s does not parse. It never panics.
func (f TimeFormatter) FormatTime(s string) string {
	t, ok := f.parse(s)
	if !ok {
		return NotAvailable
	}
	layout := f.Layout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return t.In(f.location()).Format(layout)
}

// FormatClock formats a wall-clock instant as a time of day.
func (f TimeFormatter) FormatClock(t time.Time) string {
	layout := f.ClockLayout
	if layout == "" {
		layout = DefaultClockLayout
	}
	return t.In(f.location()).Format(layout)
}

func (f TimeFormatter) parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, f.location()); err == nil {
			return t, true
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}
