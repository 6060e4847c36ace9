package services

import (
	"context"
	"fmt"
	"time"

	"payguard/internal/core"
	"payguard/internal/ledger"
)

// StatsService derives period-scoped dashboard summaries from the ledger.
// It is a pure read path: summarize never mutates anything.
type StatsService struct {
	store ledger.Store
	now   func() time.Time
}

func NewStatsService(store ledger.Store) *StatsService {
	return &StatsService{store: store, now: time.Now}
}

// Summarize computes total income, total expense, current balance, and the
// time-bucketed chart series for one account over the selected period.
//
// Totals and the series are folded from the same window, so the headline
// numbers always match the chart. The seed balance counts as income only
// when the account was created inside the reporting window; older accounts
// would otherwise re-report it every period.
func (s *StatsService) Summarize(ctx context.Context, email string, period core.Period) (core.Summary, error) {
	acct, err := s.store.GetAccount(ctx, email)
	if err != nil {
		return core.Summary{}, err
	}

	w := core.PeriodWindow(period, s.now())

	txs, err := s.store.ListTransactionsSince(ctx, acct.Email, w.Start)
	if err != nil {
		return core.Summary{}, fmt.Errorf("read window transactions: %w", err)
	}

	// Pre-zero every bucket so gaps render as zero instead of being absent.
	series := make([]core.Bucket, w.Buckets)
	for i := range series {
		series[i].Label = w.Label(i)
	}

	sum := core.Summary{
		Period:       period,
		BalanceCents: acct.BalanceCents,
		Series:       series,
	}

	for _, t := range txs {
		i, ok := w.Index(t.DateTime)
		if !ok {
			continue
		}
		switch acct.Email {
		case t.ReceiverEmail:
			sum.TotalIncomeCents += t.AmountCents
			series[i].IncomeCents += t.AmountCents
		case t.SenderEmail:
			sum.TotalExpenseCents += t.AmountCents
			series[i].ExpenseCents += t.AmountCents
		}
	}

	if w.Contains(acct.CreatedAt) {
		sum.TotalIncomeCents += core.SeedBalanceCents
		if i, ok := w.Index(acct.CreatedAt); ok {
			series[i].IncomeCents += core.SeedBalanceCents
		}
	}

	return sum, nil
}
