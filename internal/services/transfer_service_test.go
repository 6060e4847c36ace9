package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"payguard/internal/core"
	"payguard/internal/ledger/memory"
)

func seedStore(t *testing.T, balances map[string]int64) *memory.Store {
	t.Helper()
	store := memory.New()
	for email, cents := range balances {
		err := store.CreateAccount(context.Background(), core.Account{
			Email:        email,
			Name:         "Test User",
			BalanceCents: cents,
			CreatedAt:    time.Now().UTC(),
		}, "hash")
		if err != nil {
			t.Fatalf("seed %s: %v", email, err)
		}
	}
	return store
}

func totalBalance(t *testing.T, store *memory.Store, emails ...string) int64 {
	t.Helper()
	var sum int64
	for _, e := range emails {
		a, err := store.GetAccount(context.Background(), e)
		if err != nil {
			t.Fatalf("get %s: %v", e, err)
		}
		sum += a.BalanceCents
	}
	return sum
}

func TestTransferConservesTotalBalance(t *testing.T) {
	store := seedStore(t, map[string]int64{
		"a@x.com": core.SeedBalanceCents,
		"b@x.com": core.SeedBalanceCents,
		"c@x.com": core.SeedBalanceCents,
	})
	svc := NewTransferService(store, nil)
	ctx := context.Background()

	before := totalBalance(t, store, "a@x.com", "b@x.com", "c@x.com")

	moves := []struct {
		from, to string
		cents    int64
	}{
		{"a@x.com", "b@x.com", 5000},
		{"b@x.com", "c@x.com", 12500},
		{"c@x.com", "a@x.com", 99},
		{"a@x.com", "c@x.com", 40000},
	}
	for _, m := range moves {
		if _, err := svc.Transfer(ctx, m.from, m.to, m.cents); err != nil {
			t.Fatalf("transfer %s->%s: %v", m.from, m.to, err)
		}
	}

	after := totalBalance(t, store, "a@x.com", "b@x.com", "c@x.com")
	if before != after {
		t.Fatalf("total balance changed: %d -> %d", before, after)
	}
}

func TestTransferSelfRejectedWithoutStateChange(t *testing.T) {
	store := seedStore(t, map[string]int64{"a@x.com": 1000})
	svc := NewTransferService(store, nil)

	_, err := svc.Transfer(context.Background(), "a@x.com", "a@x.com", 10)
	if !errors.Is(err, core.ErrSelfTransfer) {
		t.Fatalf("expected ErrSelfTransfer, got %v", err)
	}
	a, _ := store.GetAccount(context.Background(), "a@x.com")
	if a.BalanceCents != 1000 {
		t.Fatalf("balance changed: %d", a.BalanceCents)
	}
	txs, _ := store.ListTransactions(context.Background(), "a@x.com")
	if len(txs) != 0 {
		t.Fatalf("ledger not empty after rejection")
	}
}

func TestTransferInsufficientFundsBoundary(t *testing.T) {
	store := seedStore(t, map[string]int64{"a@x.com": 5000, "b@x.com": 0})
	svc := NewTransferService(store, nil)
	ctx := context.Background()

	// Exactly the full balance is allowed.
	if _, err := svc.Transfer(ctx, "a@x.com", "b@x.com", 5000); err != nil {
		t.Fatalf("full-balance transfer rejected: %v", err)
	}

	// One cent over fails and changes nothing.
	_, err := svc.Transfer(ctx, "b@x.com", "a@x.com", 5001)
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	b, _ := store.GetAccount(ctx, "b@x.com")
	if b.BalanceCents != 5000 {
		t.Fatalf("balance changed after rejected transfer: %d", b.BalanceCents)
	}
}

func TestTransferValidationErrors(t *testing.T) {
	store := seedStore(t, map[string]int64{"a@x.com": 1000, "b@x.com": 1000})
	svc := NewTransferService(store, nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		sender   string
		receiver string
		cents    int64
		wantErr  error
	}{
		{"zero amount", "a@x.com", "b@x.com", 0, core.ErrInvalidAmount},
		{"negative amount", "a@x.com", "b@x.com", -1, core.ErrInvalidAmount},
		{"unknown sender", "ghost@x.com", "b@x.com", 10, core.ErrUnknownAccount},
		{"unknown receiver", "a@x.com", "ghost@x.com", 10, core.ErrUnknownAccount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Transfer(ctx, tc.sender, tc.receiver, tc.cents)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

type recordingPublisher struct {
	ids []string
	err error
}

func (p *recordingPublisher) PublishTransferEvent(_ context.Context, id string) error {
	p.ids = append(p.ids, id)
	return p.err
}

func TestTransferPublishesEvent(t *testing.T) {
	store := seedStore(t, map[string]int64{"a@x.com": 1000, "b@x.com": 0})
	pub := &recordingPublisher{}
	svc := NewTransferService(store, pub)

	tx, err := svc.Transfer(context.Background(), "a@x.com", "b@x.com", 250)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(pub.ids) != 1 || pub.ids[0] != tx.ID {
		t.Fatalf("published ids = %v, want [%s]", pub.ids, tx.ID)
	}
}

func TestTransferSucceedsWhenPublishFails(t *testing.T) {
	store := seedStore(t, map[string]int64{"a@x.com": 1000, "b@x.com": 0})
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewTransferService(store, pub)

	if _, err := svc.Transfer(context.Background(), "a@x.com", "b@x.com", 250); err != nil {
		t.Fatalf("transfer should not fail on publish error: %v", err)
	}
	b, _ := store.GetAccount(context.Background(), "b@x.com")
	if b.BalanceCents != 250 {
		t.Fatalf("receiver balance = %d", b.BalanceCents)
	}
}

func TestHistoryOrderedNewestFirst(t *testing.T) {
	store := seedStore(t, map[string]int64{"a@x.com": 100000, "b@x.com": 100000})
	svc := NewTransferService(store, nil)
	ctx := context.Background()

	base := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return ts }
		if _, err := svc.Transfer(ctx, "a@x.com", "b@x.com", 100); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}

	txs, err := svc.History(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].DateTime.After(txs[i-1].DateTime) {
			t.Fatal("history not ordered dateTime desc")
		}
	}

	if _, err := svc.History(ctx, "ghost@x.com"); !errors.Is(err, core.ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}
