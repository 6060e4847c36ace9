package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"payguard/internal/core"
	"payguard/internal/ledger"
)

const minPasswordLength = 8

// AccountService handles registration, login checks, and profile reads.
type AccountService struct {
	store ledger.Store
	now   func() time.Time
}

func NewAccountService(store ledger.Store) *AccountService {
	return &AccountService{store: store, now: time.Now}
}

// Register creates an account with the standard seed balance. The email is
// normalized before storage so later lookups are case-insensitive.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (core.Account, error) {
	a := core.Account{
		Email:        core.NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		BalanceCents: core.SeedBalanceCents,
		CreatedAt:    s.now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if len(password) < minPasswordLength {
		return core.Account{}, core.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.Account{}, fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.CreateAccount(ctx, a, string(hash)); err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account registered",
		"email", a.Email,
		"seed_balance_cents", a.BalanceCents)
	return a, nil
}

// Authenticate verifies credentials and returns the account. Unknown
// accounts and wrong passwords both map to core.ErrInvalidCredentials so
// login failures do not leak which emails exist.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (core.Account, error) {
	hash, err := s.store.GetCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrUnknownAccount) {
			return core.Account{}, core.ErrInvalidCredentials
		}
		return core.Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return core.Account{}, core.ErrInvalidCredentials
	}
	return s.store.GetAccount(ctx, email)
}

// Profile returns the account's identity and live balance.
func (s *AccountService) Profile(ctx context.Context, email string) (core.Account, error) {
	return s.store.GetAccount(ctx, email)
}
