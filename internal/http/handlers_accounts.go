package http

import (
	"net/http"

	"presupuesto/internal/core"
)

type accountResponse struct {
	ID            int64  `json:"id"`
	AccountTypeID int64  `json:"account_type_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Balance       string `json:"balance"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		AccountTypeID: a.AccountTypeID,
		Name:          a.Name,
		Description:   a.Description,
		Balance:       core.FormatCents(a.Balance.Cents),
	}
}

// accountGroup is one account-type bucket in the grouped listing, with the
// summed balance of its accounts.
type accountGroup struct {
	AccountType string            `json:"account_type"`
	Total       string            `json:"total"`
	Accounts    []accountResponse `json:"accounts"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.Accounts(r.Context(), userIDFrom(r))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	// Rows arrive ordered by account-type display order, so grouping is a
	// single pass.
	groups := make([]accountGroup, 0)
	totals := make([]int64, 0)
	for _, a := range accounts {
		if len(groups) == 0 || groups[len(groups)-1].AccountType != a.AccountTypeName {
			groups = append(groups, accountGroup{AccountType: a.AccountTypeName})
			totals = append(totals, 0)
		}
		last := len(groups) - 1
		groups[last].Accounts = append(groups[last].Accounts, toAccountResponse(a.Account))
		totals[last] += a.Balance.Cents
	}
	for i := range groups {
		groups[i].Total = core.FormatCents(totals[i])
	}

	respondJSON(w, r, http.StatusOK, groups)
}

type accountRequest struct {
	AccountTypeID int64  `json:"account_type_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Balance       string `json:"balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := userIDFrom(r)
	a := core.Account{
		UserID:        userID,
		AccountTypeID: req.AccountTypeID,
		Name:          req.Name,
		Description:   req.Description,
	}
	if req.Balance != "" {
		cents, err := core.ParseDecimalToCents(req.Balance)
		if err != nil {
			respondError(w, r, http.StatusUnprocessableEntity, "invalid balance")
			return
		}
		a.Balance = core.Money{Cents: cents}
	}
	if err := a.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// The account type must belong to the caller.
	if _, err := s.store.AccountTypeByID(r.Context(), a.AccountTypeID, userID); err != nil {
		respondStoreError(w, r, err)
		return
	}

	id, err := s.store.CreateAccount(r.Context(), a)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	created, err := s.store.AccountByID(r.Context(), id, userID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := s.store.AccountByID(r.Context(), id, userIDFrom(r))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toAccountResponse(a))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := userIDFrom(r)
	a := core.Account{
		ID:            id,
		UserID:        userID,
		AccountTypeID: req.AccountTypeID,
		Name:          req.Name,
		Description:   req.Description,
	}
	if err := a.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, err := s.store.AccountTypeByID(r.Context(), a.AccountTypeID, userID); err != nil {
		respondStoreError(w, r, err)
		return
	}

	if err := s.store.UpdateAccount(r.Context(), a); err != nil {
		respondStoreError(w, r, err)
		return
	}

	updated, err := s.store.AccountByID(r.Context(), id, userID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toAccountResponse(updated))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteAccount(r.Context(), id, userIDFrom(r)); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// handleAccountTransactions lists one account's transactions in a date
// window, defaulting to the current month.
func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	userID := userIDFrom(r)

	if _, err := s.store.AccountByID(r.Context(), id, userID); err != nil {
		respondStoreError(w, r, err)
		return
	}

	start, end, ok := dateWindow(w, r)
	if !ok {
		return
	}

	txs, err := s.store.TransactionsByAccount(r.Context(), id, userID, start, end)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toTransactionResponses(txs))
}
