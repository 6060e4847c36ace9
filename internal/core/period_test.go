package core

import (
	"testing"
	"time"
)

func TestParsePeriodFallback(t *testing.T) {
	cases := []struct {
		in   string
		want Period
	}{
		{"24 hours", Period24Hours},
		{"7 days", Period7Days},
		{"30 days", Period30Days},
		{"12 months", Period12Months},
		{" 7 days ", Period7Days},
		// Unrecognized tokens default to 30 days instead of failing.
		{"garbage", Period30Days},
		{"", Period30Days},
		{"90 days", Period30Days},
	}
	for _, tc := range cases {
		if got := ParsePeriod(tc.in); got != tc.want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPeriodWindowBoundaries(t *testing.T) {
	now := time.Date(2024, time.March, 15, 14, 37, 12, 0, time.UTC)

	cases := []struct {
		period    Period
		wantStart time.Time
		wantGrain Granularity
		wantCount int
	}{
		{Period24Hours, time.Date(2024, time.March, 14, 15, 0, 0, 0, time.UTC), Hourly, 24},
		{Period7Days, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), Daily, 7},
		{Period30Days, time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), Daily, 30},
		{Period12Months, time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), Monthly, 12},
	}
	for _, tc := range cases {
		t.Run(string(tc.period), func(t *testing.T) {
			w := PeriodWindow(tc.period, now)
			if !w.Start.Equal(tc.wantStart) {
				t.Errorf("start = %v, want %v", w.Start, tc.wantStart)
			}
			if w.Grain != tc.wantGrain {
				t.Errorf("grain = %v, want %v", w.Grain, tc.wantGrain)
			}
			if w.Buckets != tc.wantCount {
				t.Errorf("buckets = %d, want %d", w.Buckets, tc.wantCount)
			}
			// The bucket containing now must be the last one.
			i, ok := w.Index(now)
			if !ok || i != w.Buckets-1 {
				t.Errorf("Index(now) = %d,%v, want %d,true", i, ok, w.Buckets-1)
			}
		})
	}
}

func TestWindowIndexAssignsExactlyOneBucket(t *testing.T) {
	now := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	w := PeriodWindow(Period7Days, now)

	// Start boundary is inclusive.
	if i, ok := w.Index(w.Start); !ok || i != 0 {
		t.Fatalf("Index(start) = %d,%v, want 0,true", i, ok)
	}
	// One nanosecond before the window is out.
	if _, ok := w.Index(w.Start.Add(-time.Nanosecond)); ok {
		t.Fatal("timestamp before window assigned a bucket")
	}
	// A mid-window timestamp lands in its own day's bucket.
	mid := time.Date(2024, time.June, 7, 23, 59, 59, 0, time.UTC)
	if i, ok := w.Index(mid); !ok || i != 3 {
		t.Fatalf("Index(mid) = %d,%v, want 3,true", i, ok)
	}
}

func TestWindowIndexAcrossLocations(t *testing.T) {
	// Ledger entries are stamped in UTC, but the window is resolved
	// against the server clock, whatever zone that runs in. The same
	// instant must land in the same bucket regardless of representation.
	pacific := time.FixedZone("UTC-8", -8*60*60)
	now := time.Date(2024, time.June, 10, 23, 0, 0, 0, pacific)
	w := PeriodWindow(Period7Days, now)

	i, ok := w.Index(now.UTC())
	if !ok {
		t.Fatalf("in-window UTC timestamp not assigned (window start %v)", w.Start)
	}
	if i != 6 {
		t.Fatalf("Index(now.UTC()) = %d, want 6 (the bucket containing now)", i)
	}
	if j, _ := w.Index(now); j != i {
		t.Fatalf("same instant indexed differently: local %d, UTC %d", j, i)
	}

	// The monthly grain truncates on calendar months, which also depends
	// on the zone the timestamp is read in.
	wm := PeriodWindow(Period12Months, now)
	lastMonth := time.Date(2024, time.May, 31, 20, 0, 0, 0, pacific)
	im, ok := wm.Index(lastMonth.UTC())
	if !ok {
		t.Fatal("in-window UTC timestamp not assigned a month bucket")
	}
	if jm, _ := wm.Index(lastMonth); jm != im {
		t.Fatalf("same instant indexed differently by month: local %d, UTC %d", jm, im)
	}
}

func TestWindowIndexHourly(t *testing.T) {
	now := time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)
	w := PeriodWindow(Period24Hours, now)

	tx := time.Date(2024, time.June, 10, 8, 5, 0, 0, time.UTC)
	i, ok := w.Index(tx)
	if !ok {
		t.Fatal("in-window hourly timestamp not assigned")
	}
	if !w.BucketStart(i).Equal(time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("bucket start = %v, want 08:00", w.BucketStart(i))
	}
	if w.Label(i) != "08:00" {
		t.Fatalf("label = %q, want 08:00", w.Label(i))
	}
}

func TestWindowIndexMonthlyAcrossYearBoundary(t *testing.T) {
	now := time.Date(2024, time.February, 20, 12, 0, 0, 0, time.UTC)
	w := PeriodWindow(Period12Months, now)

	if !w.Start.Equal(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", w.Start)
	}
	i, ok := w.Index(time.Date(2023, time.December, 25, 0, 0, 0, 0, time.UTC))
	if !ok || i != 9 {
		t.Fatalf("december bucket = %d,%v, want 9,true", i, ok)
	}
	if w.Label(0) != "Mar 2023" || w.Label(11) != "Feb 2024" {
		t.Fatalf("labels = %q .. %q", w.Label(0), w.Label(11))
	}
}
