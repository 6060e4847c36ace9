// Package services contains the transfer engine and the statistics
// aggregator. Both are request-scoped: they hold no state beyond the
// current call and depend on the ledger ports for all durable data.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"payguard/internal/core"
	"payguard/internal/ledger"
)

// EventPublisher pushes committed-transfer notifications to the async
// export pipeline. Publishing is best-effort: a failed publish never
// fails the transfer, which is already durable.
type EventPublisher interface {
	PublishTransferEvent(ctx context.Context, transactionID string) error
}

// TransferService executes single atomic fund movements between accounts.
type TransferService struct {
	store  ledger.Store
	events EventPublisher
	now    func() time.Time
}

func NewTransferService(store ledger.Store, events EventPublisher) *TransferService {
	return &TransferService{
		store:  store,
		events: events,
		now:    time.Now,
	}
}

// Transfer validates and atomically executes a transfer from sender to
// receiver. Validation failures are detected before any mutation and leave
// the store untouched. On success the created ledger entry is returned and
// the sum of all balances is unchanged.
func (s *TransferService) Transfer(ctx context.Context, senderEmail, receiverEmail string, amountCents int64) (core.Transaction, error) {
	if err := core.ValidateTransfer(senderEmail, receiverEmail, amountCents); err != nil {
		return core.Transaction{}, err
	}

	// Resolve both participants up front so a missing account is reported
	// as such rather than as a failed write.
	if _, err := s.store.GetAccount(ctx, senderEmail); err != nil {
		return core.Transaction{}, err
	}
	if _, err := s.store.GetAccount(ctx, receiverEmail); err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		ID:            uuid.NewString(),
		SenderEmail:   core.NormalizeEmail(senderEmail),
		ReceiverEmail: core.NormalizeEmail(receiverEmail),
		AmountCents:   amountCents,
		DateTime:      s.now().UTC(),
	}

	// The store re-checks the sender's balance inside its transaction, so
	// the check-then-debit pair cannot race with a concurrent transfer.
	if err := s.store.Transfer(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	if s.events != nil {
		if err := s.events.PublishTransferEvent(ctx, t.ID); err != nil {
			// The transfer is committed; the export pipeline will miss
			// this entry until replayed, which beats failing the request.
			slog.ErrorContext(ctx, "Failed to publish transfer event",
				"transaction_id", t.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Transfer executed",
		"transaction_id", t.ID,
		"sender", t.SenderEmail,
		"receiver", t.ReceiverEmail,
		"amount_cents", t.AmountCents)

	return t, nil
}

// History returns the account's full transaction list, newest first.
func (s *TransferService) History(ctx context.Context, email string) ([]core.Transaction, error) {
	if _, err := s.store.GetAccount(ctx, email); err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return txs, nil
}
