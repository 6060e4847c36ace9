package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"payguard/internal/core"
	"payguard/internal/log"
	"payguard/internal/session"
)

type userResponse struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	AccountBalance float64 `json:"accountBalance"`
}

type transactionResponse struct {
	ID            string  `json:"id"`
	SenderEmail   string  `json:"senderEmail"`
	ReceiverEmail string  `json:"receiverEmail"`
	Amount        float64 `json:"amount"`
	DateTime      string  `json:"dateTime"`
}

type bucketResponse struct {
	BucketLabel string  `json:"bucketLabel"`
	Income      float64 `json:"income"`
	Expense     float64 `json:"expense"`
}

type summaryResponse struct {
	Period       string           `json:"period"`
	TotalIncome  float64          `json:"totalIncome"`
	TotalExpense float64          `json:"totalExpense"`
	Balance      float64          `json:"balance"`
	Series       []bucketResponse `json:"series"`
}

func toUserResponse(a core.Account) userResponse {
	return userResponse{
		Name:           a.Name,
		Email:          a.Email,
		AccountBalance: core.CentsToUnits(a.BalanceCents),
	}
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		SenderEmail:   t.SenderEmail,
		ReceiverEmail: t.ReceiverEmail,
		Amount:        core.CentsToUnits(t.AmountCents),
		DateTime:      t.DateTime.UTC().Format(time.RFC3339),
	}
}

func toSummaryResponse(s core.Summary) summaryResponse {
	series := make([]bucketResponse, len(s.Series))
	for i, b := range s.Series {
		series[i] = bucketResponse{
			BucketLabel: b.Label,
			Income:      core.CentsToUnits(b.IncomeCents),
			Expense:     core.CentsToUnits(b.ExpenseCents),
		}
	}
	return summaryResponse{
		Period:       string(s.Period),
		TotalIncome:  core.CentsToUnits(s.TotalIncomeCents),
		TotalExpense: core.CentsToUnits(s.TotalExpenseCents),
		Balance:      core.CentsToUnits(s.BalanceCents),
		Series:       series,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	acct, err := s.accounts.Register(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Email), req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	token, err := s.sessions.Create(acct.Email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	setSessionCookie(w, token, int(s.sessions.TTL().Seconds()))
	respondJSON(w, http.StatusCreated, toUserResponse(acct))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	acct, err := s.accounts.Authenticate(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	token, err := s.sessions.Create(acct.Email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	setSessionCookie(w, token, int(s.sessions.TTL().Seconds()))

	slog.InfoContext(r.Context(), "Login succeeded",
		log.FieldComponent, log.ComponentHTTP,
		log.FieldOperation, log.OpLogin,
		log.FieldAccount, acct.Email)
	respondJSON(w, http.StatusOK, toUserResponse(acct))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		s.sessions.Destroy(cookie.Value)
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request, email string) {
	acct, err := s.accounts.Profile(r.Context(), email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(acct))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, email string) {
	txs, err := s.transfers.History(r.Context(), email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	// Empty history is a list, not null.
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request, email string) {
	var req struct {
		ReceiverEmail string      `json:"receiverEmail"`
		Amount        json.Number `json:"amount"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	amountCents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	tx, err := s.transfers.Transfer(r.Context(), email, sanitizeInput(req.ReceiverEmail), amountCents)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateStats(tx.SenderEmail, tx.ReceiverEmail)

	slog.InfoContext(r.Context(), "Transfer executed",
		log.FieldComponent, log.ComponentHTTP,
		log.FieldOperation, log.OpTransfer,
		log.FieldTransactionID, tx.ID,
		log.FieldAmountCents, tx.AmountCents)
	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request, email string) {
	period := core.ParsePeriod(r.URL.Query().Get("period"))

	key := statsCacheKey(email, period)
	if cached, ok := s.statsCache.Get(key); ok {
		respondJSON(w, http.StatusOK, toSummaryResponse(cached))
		return
	}

	sum, err := s.stats.Summarize(r.Context(), email, period)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.statsCache.Set(key, sum)
	respondJSON(w, http.StatusOK, toSummaryResponse(sum))
}
