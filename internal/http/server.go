// Package http exposes the banking dashboard as a JSON API: account
// registration and login, transfer execution, transaction history, and
// period-scoped dashboard statistics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"payguard/internal/cache"
	"payguard/internal/core"
	"payguard/internal/middleware/ratelimit"
	"payguard/internal/middleware/security"
	"payguard/internal/middleware/trace"
	"payguard/internal/session"
)

// AccountDirectory covers registration, credential checks, and profile
// reads.
type AccountDirectory interface {
	Register(ctx context.Context, name, email, password string) (core.Account, error)
	Authenticate(ctx context.Context, email, password string) (core.Account, error)
	Profile(ctx context.Context, email string) (core.Account, error)
}

// TransferExecutor executes transfers and reads per-account history.
type TransferExecutor interface {
	Transfer(ctx context.Context, senderEmail, receiverEmail string, amountCents int64) (core.Transaction, error)
	History(ctx context.Context, email string) ([]core.Transaction, error)
}

// StatsReader computes dashboard summaries.
type StatsReader interface {
	Summarize(ctx context.Context, email string, period core.Period) (core.Summary, error)
}

// Config carries the server's tunables.
type Config struct {
	Addr               string
	SessionTTL         time.Duration
	MaxSessions        int
	RateLimitPerMinute int
	StatsCacheTTL      time.Duration
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:               addr,
		SessionTTL:         24 * time.Hour,
		MaxSessions:        10000,
		RateLimitPerMinute: 120,
		StatsCacheTTL:      30 * time.Second,
	}
}

type Server struct {
	http.Server

	accounts  AccountDirectory
	transfers TransferExecutor
	stats     StatsReader

	sessions *session.Manager
	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	// Dashboard summaries are cached per account and period; any transfer
	// touching an account invalidates that account's entries.
	statsCache   *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires handlers, middleware, and the session store into a
// ready-to-run server.
func NewServer(cfg Config, accounts AccountDirectory, transfers TransferExecutor, stats StatsReader) *Server {
	mux := http.NewServeMux()

	s := &Server{
		accounts:   accounts,
		transfers:  transfers,
		stats:      stats,
		sessions:   session.NewManager(cfg.MaxSessions, cfg.SessionTTL),
		detector:   security.NewDetector(),
		statsCache: cache.NewLRUCache[core.Summary](500, cfg.StatsCacheTTL),
	}
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
	})
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.cacheManager = cache.NewManager()
	s.cacheManager.Register(s.statsCache)
	s.cacheManager.Register(s.sessions)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/user", s.requireSession(s.handleUser))
	mux.HandleFunc("GET /api/transactions", s.requireSession(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.requireSession(s.handleCreateTransfer))
	mux.HandleFunc("GET /api/dashboard-stats", s.requireSession(s.handleDashboardStats))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	rateLimited := s.limiter.Middleware(s.detector.ExtractClientIP, onRateLimited)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           headers.Middleware(s.tracer.Middleware(rateLimited(s.rejectSuspicious(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// rejectSuspicious drops scanner traffic before it reaches any handler.
func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.IsSuspicious(r) {
			slog.WarnContext(r.Context(), "Rejected suspicious request",
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func onRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded", "path", r.URL.Path)
	w.Header().Set("Retry-After", "60")
	respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

// requireSession resolves the session cookie and passes the account email
// to the handler. Missing or expired sessions get 401.
func (s *Server) requireSession(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := s.sessions.FromRequest(r)
		if errors.Is(err, session.ErrNoSession) {
			// Stale cookies are cleared so the browser stops resending them.
			if _, cerr := r.Cookie(session.CookieName); cerr == nil {
				clearSessionCookie(w)
			}
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r, email)
	}
}

// invalidateStats drops cached summaries for every account touched by a
// transfer.
func (s *Server) invalidateStats(emails ...string) {
	for _, email := range emails {
		for _, p := range []core.Period{
			core.Period24Hours, core.Period7Days, core.Period30Days, core.Period12Months,
		} {
			s.statsCache.Delete(statsCacheKey(email, p))
		}
	}
}

func statsCacheKey(email string, p core.Period) string {
	return email + "|" + string(p)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.tracer.GetMetrics()
	payload := map[string]any{
		"totalRequests":         m.TotalRequests,
		"averageResponseMicros": m.AverageResponseTime,
		"activeSessions":        s.sessions.Active(),
		"rateLimitedClients":    s.limiter.ActiveClients(),
		"suspiciousRequests":    s.detector.GetMetrics().SuspiciousRequests,
		"statsCacheEntries":     s.statsCache.Size(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
