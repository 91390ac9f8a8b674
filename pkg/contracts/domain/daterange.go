package domain

import (
	"fmt"
	"time"
)

// DefaultPeriods is the number of daily periods generated when a request
// has no end date.
const DefaultPeriods = 50

// Day is the granularity of every generated series.
const Day = 24 * time.Hour

var dateLayouts = []string{"2006-01-02", "01-02-2006", time.RFC3339}

// ParseDate accepts ISO dates, month-day-year dates and RFC 3339 timestamps.
// The result is truncated to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Midnight(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Midnight truncates t to the start of its calendar day in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyDates returns every day in [start, end).
func DailyDates(start, end time.Time) []time.Time {
	start, end = Midnight(start), Midnight(end)
	if !end.After(start) {
		return nil
	}
	dates := make([]time.Time, 0, int(end.Sub(start)/Day))
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DateRange is an inclusive range of days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds an inclusive range. End must not precede start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = Midnight(start), Midnight(end)
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("date range end %s precedes start %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return DateRange{Start: start, End: end}, nil
}

// Dates returns every day of the range including both ends.
func (r DateRange) Dates() []time.Time {
	return DailyDates(r.Start, r.End.AddDate(0, 0, 1))
}

// Days returns the number of days in the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start)/Day) + 1
}

// First returns the first day.
func (r DateRange) First() time.Time { return r.Start }

// Last returns the last day.
func (r DateRange) Last() time.Time { return r.End }

// Span converts the range into the half-open span covering the same days.
func (r DateRange) Span() Span {
	return Span{Start: r.Start, End: r.End.AddDate(0, 0, 1)}
}

// Span is a half-open interval of days [Start, End). A zero End leaves the
// span open.
type Span struct {
	Start time.Time
	End   time.Time
}

// Open reports whether the span has no end.
func (s Span) Open() bool { return s.End.IsZero() }

// Dates materializes the daily grid of the span. An open span yields
// DefaultPeriods days.
func (s Span) Dates() []time.Time {
	return DailyDates(s.Start, s.Bound())
}

// Bound returns the exclusive end, substituting the default horizon for an
// open span.
func (s Span) Bound() time.Time {
	if s.Open() {
		return Midnight(s.Start).AddDate(0, 0, DefaultPeriods)
	}
	return Midnight(s.End)
}

// Contains reports whether t falls inside the span. Open spans are unbounded
// above.
func (s Span) Contains(t time.Time) bool {
	if t.Before(Midnight(s.Start)) {
		return false
	}
	return s.Open() || t.Before(Midnight(s.End))
}
