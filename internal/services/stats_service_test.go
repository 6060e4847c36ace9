package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"payguard/internal/core"
	"payguard/internal/ledger/memory"
)

var statsNow = time.Date(2024, time.March, 15, 14, 37, 12, 0, time.UTC)

func newStatsFixture(t *testing.T, createdAt time.Time) (*memory.Store, *StatsService) {
	t.Helper()
	store := memory.New()
	accounts := []core.Account{
		{Email: "alice@x.com", Name: "Alice", BalanceCents: core.SeedBalanceCents, CreatedAt: createdAt},
		{Email: "bob@x.com", Name: "Bob", BalanceCents: core.SeedBalanceCents, CreatedAt: createdAt},
	}
	for _, a := range accounts {
		if err := store.CreateAccount(context.Background(), a, "hash"); err != nil {
			t.Fatalf("seed %s: %v", a.Email, err)
		}
	}
	svc := NewStatsService(store)
	svc.now = func() time.Time { return statsNow }
	return store, svc
}

func transferAt(t *testing.T, store *memory.Store, from, to string, cents int64, at time.Time) {
	t.Helper()
	err := store.Transfer(context.Background(), core.Transaction{
		ID:            "tx-" + at.Format(time.RFC3339),
		SenderEmail:   from,
		ReceiverEmail: to,
		AmountCents:   cents,
		DateTime:      at,
	})
	if err != nil {
		t.Fatalf("transfer at %s: %v", at, err)
	}
}

func TestSummarizeEmptyAccountHasZeroedSeries(t *testing.T) {
	// Created well before the window, so the seed does not count as income.
	_, svc := newStatsFixture(t, statsNow.AddDate(0, 0, -40))

	sum, err := svc.Summarize(context.Background(), "alice@x.com", core.Period7Days)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalIncomeCents != 0 || sum.TotalExpenseCents != 0 {
		t.Fatalf("totals = %d/%d, want 0/0", sum.TotalIncomeCents, sum.TotalExpenseCents)
	}
	if sum.BalanceCents != core.SeedBalanceCents {
		t.Fatalf("balance = %d", sum.BalanceCents)
	}
	if len(sum.Series) != 7 {
		t.Fatalf("series length = %d, want 7", len(sum.Series))
	}
	for i, b := range sum.Series {
		if b.IncomeCents != 0 || b.ExpenseCents != 0 {
			t.Fatalf("bucket %d not zero: %+v", i, b)
		}
		if b.Label == "" {
			t.Fatalf("bucket %d has no label", i)
		}
	}
}

func TestSummarizeSeedBalanceInclusion(t *testing.T) {
	cases := []struct {
		name      string
		createdAt time.Time
		period    core.Period
		wantSeed  bool
	}{
		{"created 2d ago, 7d window", statsNow.AddDate(0, 0, -2), core.Period7Days, true},
		{"created 2d ago, 24h window", statsNow.AddDate(0, 0, -2), core.Period24Hours, false},
		{"created 40d ago, 30d window", statsNow.AddDate(0, 0, -40), core.Period30Days, false},
		{"created 40d ago, 12mo window", statsNow.AddDate(0, 0, -40), core.Period12Months, true},
		{"created 2h ago, 24h window", statsNow.Add(-2 * time.Hour), core.Period24Hours, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, svc := newStatsFixture(t, tc.createdAt)
			sum, err := svc.Summarize(context.Background(), "alice@x.com", tc.period)
			if err != nil {
				t.Fatalf("summarize: %v", err)
			}
			var want int64
			if tc.wantSeed {
				want = core.SeedBalanceCents
			}
			if sum.TotalIncomeCents != want {
				t.Fatalf("total income = %d, want %d", sum.TotalIncomeCents, want)
			}
			if tc.wantSeed {
				var inSeries int64
				for _, b := range sum.Series {
					inSeries += b.IncomeCents
				}
				if inSeries != core.SeedBalanceCents {
					t.Fatalf("seed not folded into series: %d", inSeries)
				}
			}
		})
	}
}

func TestSummarizeTransferRoundTrip(t *testing.T) {
	store, svc := newStatsFixture(t, statsNow.AddDate(0, 0, -40))

	// 50.00 sent three hours ago lands in the hourly bucket for 11:00.
	at := statsNow.Add(-3 * time.Hour)
	transferAt(t, store, "alice@x.com", "bob@x.com", 5000, at)

	aliceSum, err := svc.Summarize(context.Background(), "alice@x.com", core.Period24Hours)
	if err != nil {
		t.Fatalf("summarize alice: %v", err)
	}
	if aliceSum.TotalExpenseCents != 5000 || aliceSum.TotalIncomeCents != 0 {
		t.Fatalf("alice totals = %d/%d", aliceSum.TotalIncomeCents, aliceSum.TotalExpenseCents)
	}

	bobSum, err := svc.Summarize(context.Background(), "bob@x.com", core.Period24Hours)
	if err != nil {
		t.Fatalf("summarize bob: %v", err)
	}
	if bobSum.TotalIncomeCents != 5000 || bobSum.TotalExpenseCents != 0 {
		t.Fatalf("bob totals = %d/%d", bobSum.TotalIncomeCents, bobSum.TotalExpenseCents)
	}

	// The window has 24 hourly buckets ending at the current hour, so an
	// event 3 hours back sits at index 20.
	if got := bobSum.Series[20].IncomeCents; got != 5000 {
		t.Fatalf("bucket 20 income = %d", got)
	}
	if label := bobSum.Series[20].Label; label != "11:00" {
		t.Fatalf("bucket 20 label = %q", label)
	}
	for i, b := range bobSum.Series {
		if i != 20 && (b.IncomeCents != 0 || b.ExpenseCents != 0) {
			t.Fatalf("unexpected activity in bucket %d: %+v", i, b)
		}
	}
}

func TestSummarizeExcludesTransactionsOutsideWindow(t *testing.T) {
	store, svc := newStatsFixture(t, statsNow.AddDate(-2, 0, 0))

	transferAt(t, store, "alice@x.com", "bob@x.com", 100, statsNow.AddDate(0, 0, -10))
	transferAt(t, store, "alice@x.com", "bob@x.com", 200, statsNow.AddDate(0, 0, -2))

	sum, err := svc.Summarize(context.Background(), "alice@x.com", core.Period7Days)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalExpenseCents != 200 {
		t.Fatalf("expense = %d, want only the in-window transfer", sum.TotalExpenseCents)
	}
}

func TestSummarizeTotalsMatchSeries(t *testing.T) {
	store, svc := newStatsFixture(t, statsNow.AddDate(0, 0, -3))

	transferAt(t, store, "alice@x.com", "bob@x.com", 700, statsNow.AddDate(0, 0, -1))
	transferAt(t, store, "bob@x.com", "alice@x.com", 1300, statsNow.AddDate(0, 0, -2))
	transferAt(t, store, "alice@x.com", "bob@x.com", 400, statsNow.Add(-time.Minute))

	sum, err := svc.Summarize(context.Background(), "alice@x.com", core.Period30Days)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	var income, expense int64
	for _, b := range sum.Series {
		income += b.IncomeCents
		expense += b.ExpenseCents
	}
	if income != sum.TotalIncomeCents {
		t.Fatalf("series income %d != total %d", income, sum.TotalIncomeCents)
	}
	if expense != sum.TotalExpenseCents {
		t.Fatalf("series expense %d != total %d", expense, sum.TotalExpenseCents)
	}
	if sum.TotalExpenseCents != 1100 || sum.TotalIncomeCents != core.SeedBalanceCents+1300 {
		t.Fatalf("totals = %d/%d", sum.TotalIncomeCents, sum.TotalExpenseCents)
	}
}

func TestSummarizeLocalClockWithUTCLedger(t *testing.T) {
	// The ledger stamps transactions in UTC while the window is resolved
	// against the server clock. A transfer made just before a local
	// midnight must still show up in totals and land in one bucket when
	// the server runs outside UTC.
	pacific := time.FixedZone("UTC-8", -8*60*60)
	localNow := time.Date(2024, time.March, 15, 23, 30, 0, 0, pacific)

	store, svc := newStatsFixture(t, localNow.AddDate(0, 0, -40))
	svc.now = func() time.Time { return localNow }

	transferAt(t, store, "alice@x.com", "bob@x.com", 2500, localNow.Add(-time.Hour).UTC())

	sum, err := svc.Summarize(context.Background(), "alice@x.com", core.Period7Days)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalExpenseCents != 2500 {
		t.Fatalf("total expense = %d, want 2500", sum.TotalExpenseCents)
	}
	var series int64
	for _, b := range sum.Series {
		series += b.ExpenseCents
	}
	if series != 2500 {
		t.Fatalf("series expense = %d, want 2500 (transaction dropped from fold)", series)
	}
}

func TestSummarizeUnknownAccount(t *testing.T) {
	_, svc := newStatsFixture(t, statsNow)
	_, err := svc.Summarize(context.Background(), "ghost@x.com", core.Period30Days)
	if !errors.Is(err, core.ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}
