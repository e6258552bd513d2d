package engine

import (
	"time"
)

// =============================================================================
// CALENDAR - Date enumeration collaborator (weekday filtering stays here)
// =============================================================================

// ISODate is the wire format for calendar dates throughout the engine.
const ISODate = "2006-01-02"

// Calendar turns a date range into the ordered sequence of calendar dates
// it contains, inclusive on both ends. Dates are ISO YYYY-MM-DD strings.
// The calendar knows nothing about working days; the engine filters
// weekends itself.
type Calendar interface {
	EnumerateDates(fromISO, toISO string) []string
}

// WorkweekCalendar is the default Calendar: plain day-by-day enumeration
// in UTC. Holiday-aware calendars implement the same interface.
type WorkweekCalendar struct{}

func NewWorkweekCalendar() *WorkweekCalendar { return &WorkweekCalendar{} }

func (c *WorkweekCalendar) EnumerateDates(fromISO, toISO string) []string {
	from, err1 := time.Parse(ISODate, fromISO)
	to, err2 := time.Parse(ISODate, toISO)
	if err1 != nil || err2 != nil || to.Before(from) {
		return nil
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(ISODate))
	}
	return dates
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// IsWeekendDate reports whether an ISO date falls on a Saturday or Sunday.
// The weekday is computed in UTC from the date itself, never local time.
func IsWeekendDate(isoDate string) bool {
	d, err := time.Parse(ISODate, isoDate)
	if err != nil {
		return false
	}
	wd := d.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// FormatDate renders a timestamp as the ISO date of its UTC day.
func FormatDate(t time.Time) string {
	return t.UTC().Format(ISODate)
}
