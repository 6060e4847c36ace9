package worker

import (
	"context"
	"fmt"
	"log/slog"

	"payguard/internal/amqp"
	"payguard/internal/core"
	"payguard/internal/ledger"
)

// StatementWriter appends a committed transfer to an external statement
// document.
type StatementWriter interface {
	AppendTransaction(ctx context.Context, t core.Transaction) error
}

// ExportWorker drains the transfer event queue and mirrors each committed
// ledger entry into the statement sheet. The queue carries only transaction
// IDs, so the worker reads the authoritative record from storage before
// exporting it.
type ExportWorker struct {
	ledger ledger.TransactionLedger
	sheet  StatementWriter
}

func NewExportWorker(ledger ledger.TransactionLedger, sheet StatementWriter) *ExportWorker {
	return &ExportWorker{
		ledger: ledger,
		sheet:  sheet,
	}
}

// HandleTransferEvent processes a single transfer event message from AMQP.
// Returning an error requeues the delivery.
func (w *ExportWorker) HandleTransferEvent(ctx context.Context, msg *amqp.TransferEventMessage) error {
	slog.InfoContext(ctx, "Processing transfer event",
		"transaction_id", msg.TransactionID)

	t, err := w.ledger.GetTransaction(ctx, msg.TransactionID)
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", msg.TransactionID, err)
	}

	if w.sheet == nil {
		slog.WarnContext(ctx, "No statement writer configured, dropping transfer event",
			"transaction_id", msg.TransactionID)
		return nil
	}

	if err := w.sheet.AppendTransaction(ctx, t); err != nil {
		return fmt.Errorf("append transaction %s to statement: %w", msg.TransactionID, err)
	}

	slog.InfoContext(ctx, "Exported transfer to statement",
		"transaction_id", t.ID,
		"amount_cents", t.AmountCents)

	return nil
}
