package http

import (
	"net/http"
	"time"

	"presupuesto/internal/core"
)

type transactionResponse struct {
	ID         int64  `json:"id"`
	AccountID  int64  `json:"account_id"`
	Account    string `json:"account,omitempty"`
	CategoryID int64  `json:"category_id"`
	Category   string `json:"category,omitempty"`
	Operation  string `json:"operation"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Note       string `json:"note,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		AccountID:  t.AccountID,
		Account:    t.AccountName,
		CategoryID: t.CategoryID,
		Category:   t.CategoryName,
		Operation:  t.Operation.String(),
		Amount:     core.FormatCents(t.Amount.Cents),
		Date:       t.Date.Format(core.DateLayout),
		Note:       t.Note,
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

type transactionRequest struct {
	AccountID  int64  `json:"account_id"`
	CategoryID int64  `json:"category_id"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Note       string `json:"note"`
}

func (s *Server) decodeTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return core.Transaction{}, false
	}

	cents, ok := parseAmount(w, r, req.Amount)
	if !ok {
		return core.Transaction{}, false
	}
	date, ok := parseDate(w, r, req.Date)
	if !ok {
		return core.Transaction{}, false
	}

	t := core.Transaction{
		UserID:     userIDFrom(r),
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Amount:     core.Money{Cents: cents},
		Date:       date,
		Note:       req.Note,
	}
	if err := t.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return core.Transaction{}, false
	}
	return t, true
}

// dateWindow reads optional start/end query parameters, defaulting to the
// current calendar month.
func dateWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	if v := r.URL.Query().Get("start"); v != "" {
		t, ok := parseDate(w, r, v)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, ok := parseDate(w, r, v)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		end = t
	}
	if end.Before(start) {
		respondError(w, r, http.StatusUnprocessableEntity, "end date before start date")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateWindow(w, r)
	if !ok {
		return
	}

	txs, err := s.store.TransactionsByUser(r.Context(), userIDFrom(r), start, end)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}

	id, err := s.store.CreateTransaction(r.Context(), t)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	created, err := s.store.TransactionByID(r.Context(), id, t.UserID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := s.store.TransactionByID(r.Context(), id, userIDFrom(r))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toTransactionResponse(t))
}

// handleUpdateTransaction loads the committed row first so the balance
// reversal uses the real previous amount and account, then applies the edit
// atomically.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}
	t.ID = id

	prev, err := s.store.TransactionByID(r.Context(), id, t.UserID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	if err := s.store.UpdateTransaction(r.Context(), t, prev.Amount.Cents, prev.AccountID); err != nil {
		respondStoreError(w, r, err)
		return
	}

	updated, err := s.store.TransactionByID(r.Context(), id, t.UserID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTransaction(r.Context(), id, userIDFrom(r)); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}
