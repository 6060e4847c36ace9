// Package session issues and resolves opaque bearer tokens for logged-in
// accounts. Tokens carry no claims; the account email lives server-side in
// an LRU cache, so logout and TTL expiry revoke access immediately.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"payguard/internal/cache"
)

const tokenBytes = 32

// CookieName is the cookie the HTTP layer stores the token in.
const CookieName = "payguard_session"

// Manager maps session tokens to account emails.
type Manager struct {
	sessions *cache.LRUCache[string]
	ttl      time.Duration
}

// NewManager creates a session manager holding at most maxSessions live
// sessions, each expiring ttl after creation.
func NewManager(maxSessions int, ttl time.Duration) *Manager {
	return &Manager{
		sessions: cache.NewLRUCache[string](maxSessions, ttl),
		ttl:      ttl,
	}
}

// Create issues a fresh token bound to the given account email.
func (m *Manager) Create(email string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)
	m.sessions.Set(token, email)
	return token, nil
}

// Resolve returns the account email bound to the token, or false when the
// token is unknown, expired, or evicted.
func (m *Manager) Resolve(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	return m.sessions.Get(token)
}

// Destroy revokes the token. Destroying an unknown token is a no-op.
func (m *Manager) Destroy(token string) {
	m.sessions.Delete(token)
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	return m.sessions.Size()
}

// CleanExpired drops expired sessions and reports how many were removed.
// It lets the manager participate in cache.Manager sweeps.
func (m *Manager) CleanExpired() int {
	return m.sessions.CleanExpired()
}

// ErrNoSession is returned by helpers when a request carries no usable
// session token.
var ErrNoSession = errors.New("no active session")

// FromRequest resolves the session cookie on r to the logged-in account's
// email. It returns ErrNoSession when the cookie is absent, expired, or
// revoked.
func (m *Manager) FromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", ErrNoSession
	}
	email, ok := m.Resolve(cookie.Value)
	if !ok {
		return "", ErrNoSession
	}
	return email, nil
}
