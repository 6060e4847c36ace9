// Package ledger defines the ports the transfer engine and statistics
// aggregator depend on. Implementations own all durable state; the services
// carry nothing between calls.
package ledger

import (
	"context"
	"time"

	"payguard/internal/core"
)

type (
	// AccountStore is the durable record of account identity and balance.
	AccountStore interface {
		// CreateAccount inserts a new account with its credential hash.
		// Returns core.ErrDuplicateAccount if the email is taken.
		CreateAccount(ctx context.Context, a core.Account, passwordHash string) error

		// GetAccount returns core.ErrUnknownAccount for missing emails.
		GetAccount(ctx context.Context, email string) (core.Account, error)

		// GetCredentials returns the stored password hash for login checks.
		GetCredentials(ctx context.Context, email string) (string, error)
	}

	// TransactionLedger reads the append-only transfer record.
	TransactionLedger interface {
		// ListTransactions returns every transaction in which the account
		// is sender or receiver, ordered by dateTime descending.
		ListTransactions(ctx context.Context, email string) ([]core.Transaction, error)

		// ListTransactionsSince returns the account's transactions with
		// dateTime >= since, in ascending order, for aggregation.
		ListTransactionsSince(ctx context.Context, email string, since time.Time) ([]core.Transaction, error)

		// GetTransaction looks up a single ledger entry by id.
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	// TransferStore executes the atomic three-way write: ledger insert,
	// sender debit, receiver credit. Either all three land or none do.
	TransferStore interface {
		// Transfer applies t atomically. It must re-check the sender's
		// balance inside the transaction and return
		// core.ErrInsufficientFunds without any state change when the
		// debit would overdraw, or core.ErrUnknownAccount when a
		// participant row is missing.
		Transfer(ctx context.Context, t core.Transaction) error
	}

	// Store is the full set of ports a backend provides.
	Store interface {
		AccountStore
		TransactionLedger
		TransferStore
	}
)
