package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"payguard/internal/core"

	"github.com/google/uuid"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "payguard.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedAccount(t *testing.T, repo *SQLiteRepository, email string, balanceCents int64) {
	t.Helper()
	err := repo.CreateAccount(context.Background(), core.Account{
		Email:        email,
		Name:         "Test User",
		BalanceCents: balanceCents,
		CreatedAt:    time.Now().UTC(),
	}, "hash")
	if err != nil {
		t.Fatalf("seed account %s: %v", email, err)
	}
}

func TestCreateAccountDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	seedAccount(t, repo, "a@x.com", core.SeedBalanceCents)

	err := repo.CreateAccount(context.Background(), core.Account{
		Email:     "A@X.COM",
		Name:      "Shadow",
		CreatedAt: time.Now(),
	}, "hash")
	if !errors.Is(err, core.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestTransferMovesFundsAndConservesSum(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, repo, "a@x.com", core.SeedBalanceCents)
	seedAccount(t, repo, "b@x.com", core.SeedBalanceCents)

	err := repo.Transfer(ctx, core.Transaction{
		ID:            uuid.NewString(),
		SenderEmail:   "a@x.com",
		ReceiverEmail: "b@x.com",
		AmountCents:   5000,
		DateTime:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	a, _ := repo.GetAccount(ctx, "a@x.com")
	b, _ := repo.GetAccount(ctx, "b@x.com")
	if a.BalanceCents != core.SeedBalanceCents-5000 {
		t.Errorf("sender balance = %d", a.BalanceCents)
	}
	if b.BalanceCents != core.SeedBalanceCents+5000 {
		t.Errorf("receiver balance = %d", b.BalanceCents)
	}
	if a.BalanceCents+b.BalanceCents != 2*core.SeedBalanceCents {
		t.Errorf("sum not conserved: %d", a.BalanceCents+b.BalanceCents)
	}
}

func TestTransferInsufficientFundsLeavesNoTrace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, repo, "a@x.com", 100)
	seedAccount(t, repo, "b@x.com", 100)

	err := repo.Transfer(ctx, core.Transaction{
		ID:            uuid.NewString(),
		SenderEmail:   "a@x.com",
		ReceiverEmail: "b@x.com",
		AmountCents:   101, // one cent over
		DateTime:      time.Now().UTC(),
	})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	a, _ := repo.GetAccount(ctx, "a@x.com")
	b, _ := repo.GetAccount(ctx, "b@x.com")
	if a.BalanceCents != 100 || b.BalanceCents != 100 {
		t.Errorf("balances changed after rejected transfer: %d, %d", a.BalanceCents, b.BalanceCents)
	}
	txs, err := repo.ListTransactions(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("ledger has %d entries after rejected transfer", len(txs))
	}
}

func TestTransferExactBalanceSucceeds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, repo, "a@x.com", 2500)
	seedAccount(t, repo, "b@x.com", 0)

	err := repo.Transfer(ctx, core.Transaction{
		ID:            uuid.NewString(),
		SenderEmail:   "a@x.com",
		ReceiverEmail: "b@x.com",
		AmountCents:   2500,
		DateTime:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("full-balance transfer should succeed: %v", err)
	}
	a, _ := repo.GetAccount(ctx, "a@x.com")
	if a.BalanceCents != 0 {
		t.Errorf("sender balance = %d, want 0", a.BalanceCents)
	}
}

func TestTransferUnknownReceiverRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, repo, "a@x.com", 1000)

	err := repo.Transfer(ctx, core.Transaction{
		ID:            uuid.NewString(),
		SenderEmail:   "a@x.com",
		ReceiverEmail: "ghost@x.com",
		AmountCents:   500,
		DateTime:      time.Now().UTC(),
	})
	if !errors.Is(err, core.ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
	// The debit must have been rolled back with the rest.
	a, _ := repo.GetAccount(ctx, "a@x.com")
	if a.BalanceCents != 1000 {
		t.Errorf("sender balance = %d after rollback, want 1000", a.BalanceCents)
	}
}

func TestListTransactionsOrderedNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedAccount(t, repo, "a@x.com", 100000)
	seedAccount(t, repo, "b@x.com", 100000)

	base := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := repo.Transfer(ctx, core.Transaction{
			ID:            uuid.NewString(),
			SenderEmail:   "a@x.com",
			ReceiverEmail: "b@x.com",
			AmountCents:   int64(100 * (i + 1)),
			DateTime:      base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}

	txs, err := repo.ListTransactions(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].DateTime.After(txs[i-1].DateTime) {
			t.Errorf("transactions not ordered dateTime desc at %d", i)
		}
	}

	since, err := repo.ListTransactionsSince(ctx, "b@x.com", base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(since) != 2 {
		t.Fatalf("got %d transactions since boundary, want 2", len(since))
	}
	if !since[0].DateTime.Before(since[1].DateTime) {
		t.Error("since-listing should ascend")
	}
}
