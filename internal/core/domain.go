package core

import (
	"errors"
	"strings"
	"time"
)

// SeedBalanceCents is the balance granted to every account at registration.
const SeedBalanceCents int64 = 100_000

type (
	Money struct {
		Cents int64
	}

	// Account is a user identity plus its current balance. The balance is
	// the authoritative running total maintained by the transfer engine.
	Account struct {
		Email        string
		Name         string
		BalanceCents int64
		CreatedAt    time.Time
	}

	// Transaction is an immutable ledger entry recording a completed
	// transfer. It is created exactly once and never updated or deleted.
	Transaction struct {
		ID            string
		SenderEmail   string
		ReceiverEmail string
		AmountCents   int64
		DateTime      time.Time
	}
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUnknownAccount     = errors.New("unknown account")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrSelfTransfer       = errors.New("sender and receiver are the same account")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmptyName          = errors.New("empty name")
	ErrWeakPassword       = errors.New("password too short")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NormalizeEmail lowercases and trims an email so lookups are stable
// regardless of how the client typed the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail performs a minimal shape check. The address only has to be
// a usable account key, not a deliverable mailbox.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	if strings.ContainsAny(email, " \t\n") {
		return ErrInvalidEmail
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateTransfer checks the transfer preconditions that need no store
// access. Amount is checked first, then the participants.
func ValidateTransfer(senderEmail, receiverEmail string, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	if err := ValidateEmail(senderEmail); err != nil {
		return err
	}
	if err := ValidateEmail(receiverEmail); err != nil {
		return err
	}
	if NormalizeEmail(senderEmail) == NormalizeEmail(receiverEmail) {
		return ErrSelfTransfer
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := ValidateTransfer(t.SenderEmail, t.ReceiverEmail, t.AmountCents); err != nil {
		return err
	}
	if t.DateTime.IsZero() {
		return errors.New("transaction timestamp cannot be zero")
	}
	return nil
}

func (a Account) Validate() error {
	if err := ValidateEmail(a.Email); err != nil {
		return err
	}
	if len(strings.TrimSpace(a.Name)) == 0 {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}
