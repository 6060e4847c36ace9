// Package storage implements the ledger ports on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"payguard/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite admits a single writer; one pooled connection keeps concurrent
	// transfers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateAccount implements ledger.AccountStore.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account, passwordHash string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	email := core.NormalizeEmail(a.Email)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (email, name, password_hash, balance_cents, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		email, a.Name, passwordHash, a.BalanceCents, a.CreatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.ErrDuplicateAccount
		}
		return fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account saved to SQLite",
		"email", email,
		"balance_cents", a.BalanceCents)
	return nil
}

// GetAccount implements ledger.AccountStore.
func (r *SQLiteRepository) GetAccount(ctx context.Context, email string) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT email, name, balance_cents, created_at FROM accounts WHERE email = ?`,
		core.NormalizeEmail(email)).
		Scan(&a.Email, &a.Name, &a.BalanceCents, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrUnknownAccount
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// GetCredentials implements ledger.AccountStore.
func (r *SQLiteRepository) GetCredentials(ctx context.Context, email string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM accounts WHERE email = ?`,
		core.NormalizeEmail(email)).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrUnknownAccount
	}
	if err != nil {
		return "", fmt.Errorf("get credentials: %w", err)
	}
	return hash, nil
}

// Transfer implements ledger.TransferStore. The conditional debit, the
// credit, and the ledger insert run inside one SQLite transaction: the
// balance precondition is re-checked in the UPDATE itself, so a concurrent
// transfer on the same sender cannot lose an update, and any failure rolls
// everything back.
func (r *SQLiteRepository) Transfer(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	sender := core.NormalizeEmail(t.SenderEmail)
	receiver := core.NormalizeEmail(t.ReceiverEmail)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents - ?
		 WHERE email = ? AND balance_cents >= ?`,
		t.AmountCents, sender, t.AmountCents)
	if err != nil {
		return fmt.Errorf("debit sender: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM accounts WHERE email = ?`, sender).Scan(&exists); err != nil {
			return fmt.Errorf("check sender: %w", err)
		}
		if exists == 0 {
			return core.ErrUnknownAccount
		}
		return core.ErrInsufficientFunds
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE email = ?`,
		t.AmountCents, receiver)
	if err != nil {
		return fmt.Errorf("credit receiver: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUnknownAccount
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, sender_email, receiver_email, amount_cents, date_time)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, sender, receiver, t.AmountCents, t.DateTime.UTC()); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer committed",
		"transaction_id", t.ID,
		"sender", sender,
		"receiver", receiver,
		"amount_cents", t.AmountCents)
	return nil
}

// ListTransactions implements ledger.TransactionLedger.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, email string) ([]core.Transaction, error) {
	key := core.NormalizeEmail(email)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_email, receiver_email, amount_cents, date_time
		 FROM transactions
		 WHERE sender_email = ? OR receiver_email = ?
		 ORDER BY date_time DESC`,
		key, key)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListTransactionsSince implements ledger.TransactionLedger.
func (r *SQLiteRepository) ListTransactionsSince(ctx context.Context, email string, since time.Time) ([]core.Transaction, error) {
	key := core.NormalizeEmail(email)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_email, receiver_email, amount_cents, date_time
		 FROM transactions
		 WHERE (sender_email = ? OR receiver_email = ?) AND date_time >= ?
		 ORDER BY date_time ASC`,
		key, key, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("list transactions since %v: %w", since, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// GetTransaction implements ledger.TransactionLedger.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var t core.Transaction
	err := r.db.QueryRowContext(ctx,
		`SELECT id, sender_email, receiver_email, amount_cents, date_time
		 FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.SenderEmail, &t.ReceiverEmail, &t.AmountCents, &t.DateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		if err := rows.Scan(&t.ID, &t.SenderEmail, &t.ReceiverEmail, &t.AmountCents, &t.DateTime); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
