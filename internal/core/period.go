package core

import (
	"strings"
	"time"
)

// Period is a named reporting window for dashboard statistics.
type Period string

const (
	Period24Hours  Period = "24 hours"
	Period7Days    Period = "7 days"
	Period30Days   Period = "30 days"
	Period12Months Period = "12 months"

	// DefaultPeriod is used whenever a period token is missing or not
	// recognized. Unknown tokens are recovered by defaulting, not rejected.
	DefaultPeriod = Period30Days
)

// ParsePeriod maps a client-supplied token to a Period, falling back to
// DefaultPeriod for anything unrecognized.
func ParsePeriod(s string) Period {
	switch Period(strings.TrimSpace(s)) {
	case Period24Hours:
		return Period24Hours
	case Period7Days:
		return Period7Days
	case Period30Days:
		return Period30Days
	case Period12Months:
		return Period12Months
	default:
		return DefaultPeriod
	}
}

// Granularity is the size of a single chart bucket.
type Granularity int

const (
	Hourly Granularity = iota
	Daily
	Monthly
)

// Window describes a reporting period resolved against a concrete "now":
// the inclusive start boundary, the bucket granularity, and the bucket
// count. Totals and the chart series must both be derived from the same
// Window so the headline numbers and the chart always agree.
type Window struct {
	Start   time.Time
	Grain   Granularity
	Buckets int
}

// PeriodWindow resolves a period against now. Windows are inclusive and
// start-of-bucket aligned: the last bucket is the one containing now, and
// the first starts count-1 buckets earlier.
func PeriodWindow(p Period, now time.Time) Window {
	switch p {
	case Period24Hours:
		return Window{Start: startOfHour(now).Add(-23 * time.Hour), Grain: Hourly, Buckets: 24}
	case Period7Days:
		return Window{Start: addDays(startOfDay(now), -6), Grain: Daily, Buckets: 7}
	case Period12Months:
		return Window{Start: addMonths(startOfMonth(now), -11), Grain: Monthly, Buckets: 12}
	default:
		return Window{Start: addDays(startOfDay(now), -29), Grain: Daily, Buckets: 30}
	}
}

// Contains reports whether t falls inside the window. The start boundary is
// inclusive; there is no upper bound because the window always ends at now.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start)
}

// Index assigns a timestamp to its bucket by truncating it to the window's
// granularity. The second return is false for timestamps before the start
// or beyond the last bucket. The timestamp is converted to the window's
// location first; ledger entries are stamped in UTC, and truncating them
// in a different zone would pick the wrong calendar day or month.
func (w Window) Index(t time.Time) (int, bool) {
	t = t.In(w.Start.Location())
	if t.Before(w.Start) {
		return 0, false
	}
	var i int
	switch w.Grain {
	case Hourly:
		i = int(startOfHour(t).Sub(w.Start) / time.Hour)
	case Daily:
		i = daysBetween(w.Start, startOfDay(t))
	case Monthly:
		i = monthsBetween(w.Start, t)
	}
	if i < 0 || i >= w.Buckets {
		return 0, false
	}
	return i, true
}

// BucketStart returns the start time of the i-th bucket.
func (w Window) BucketStart(i int) time.Time {
	switch w.Grain {
	case Hourly:
		return w.Start.Add(time.Duration(i) * time.Hour)
	case Monthly:
		return addMonths(w.Start, i)
	default:
		return addDays(w.Start, i)
	}
}

// Label renders the i-th bucket's chart label.
func (w Window) Label(i int) string {
	t := w.BucketStart(i)
	switch w.Grain {
	case Hourly:
		return t.Format("15:00")
	case Monthly:
		return t.Format("Jan 2006")
	default:
		return t.Format("Jan 02")
	}
}

func startOfHour(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// addDays uses calendar arithmetic so DST transitions cannot shift the
// start-of-day alignment.
func addDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

func addMonths(t time.Time, n int) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, time.Month(int(m)+n), 1, 0, 0, 0, 0, t.Location())
}

func daysBetween(a, b time.Time) int {
	// Both operands are start-of-day aligned. Round the duration so a DST
	// day of 23 or 25 hours still counts as one calendar day.
	return int((b.Sub(a) + 12*time.Hour) / (24 * time.Hour))
}

func monthsBetween(a, b time.Time) int {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return (by-ay)*12 + int(bm) - int(am)
}
