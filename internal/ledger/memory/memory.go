// Package memory is an in-process ledger backend used by tests and the
// "memory" data backend. All methods serialize on one mutex, which trivially
// gives the transfer write its atomicity and isolation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"payguard/internal/core"
)

type account struct {
	core.Account
	passwordHash string
}

type Store struct {
	mu       sync.Mutex
	accounts map[string]*account
	ledger   []core.Transaction
}

func New() *Store {
	return &Store{accounts: make(map[string]*account)}
}

func (s *Store) CreateAccount(_ context.Context, a core.Account, passwordHash string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	key := core.NormalizeEmail(a.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return core.ErrDuplicateAccount
	}
	a.Email = key
	s.accounts[key] = &account{Account: a, passwordHash: passwordHash}
	return nil
}

func (s *Store) GetAccount(_ context.Context, email string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[core.NormalizeEmail(email)]
	if !ok {
		return core.Account{}, core.ErrUnknownAccount
	}
	return acc.Account, nil
}

func (s *Store) GetCredentials(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[core.NormalizeEmail(email)]
	if !ok {
		return "", core.ErrUnknownAccount
	}
	return acc.passwordHash, nil
}

func (s *Store) ListTransactions(_ context.Context, email string) ([]core.Transaction, error) {
	key := core.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.ledger {
		if t.SenderEmail == key || t.ReceiverEmail == key {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	return out, nil
}

func (s *Store) ListTransactionsSince(_ context.Context, email string, since time.Time) ([]core.Transaction, error) {
	key := core.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.ledger {
		if t.DateTime.Before(since) {
			continue
		}
		if t.SenderEmail == key || t.ReceiverEmail == key {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.ledger {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, core.ErrUnknownAccount
}

// Transfer applies the three-way write under the store mutex. The balance
// check and both mutations happen in one critical section, so a failed
// precondition leaves the store untouched.
func (s *Store) Transfer(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	sender := core.NormalizeEmail(t.SenderEmail)
	receiver := core.NormalizeEmail(t.ReceiverEmail)

	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.accounts[sender]
	if !ok {
		return core.ErrUnknownAccount
	}
	dst, ok := s.accounts[receiver]
	if !ok {
		return core.ErrUnknownAccount
	}
	if src.BalanceCents < t.AmountCents {
		return core.ErrInsufficientFunds
	}

	src.BalanceCents -= t.AmountCents
	dst.BalanceCents += t.AmountCents
	t.SenderEmail = sender
	t.ReceiverEmail = receiver
	s.ledger = append(s.ledger, t)
	return nil
}
