package http

import (
	"net/http"

	"presupuesto/internal/core"
)

type accountTypeResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

func toAccountTypeResponse(at core.AccountType) accountTypeResponse {
	return accountTypeResponse{ID: at.ID, Name: at.Name, SortOrder: at.SortOrder}
}

func (s *Server) handleListAccountTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.AccountTypes(r.Context(), userIDFrom(r))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	out := make([]accountTypeResponse, 0, len(types))
	for _, at := range types {
		out = append(out, toAccountTypeResponse(at))
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateAccountType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	at := core.AccountType{UserID: userIDFrom(r), Name: req.Name}
	if err := at.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.CreateAccountType(r.Context(), at)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	created, err := s.store.AccountTypeByID(r.Context(), id, at.UserID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toAccountTypeResponse(created))
}

func (s *Server) handleRenameAccountType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	at := core.AccountType{ID: id, UserID: userIDFrom(r), Name: req.Name}
	if err := at.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.RenameAccountType(r.Context(), at); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "renamed"})
}

func (s *Server) handleDeleteAccountType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteAccountType(r.Context(), id, userIDFrom(r)); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// handleReorderAccountTypes replaces the display order with the submitted id
// sequence. The sequence must contain exactly the caller's own ids.
func (s *Server) handleReorderAccountTypes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, r, http.StatusUnprocessableEntity, "empty id list")
		return
	}

	if err := s.store.ReorderAccountTypes(r.Context(), userIDFrom(r), req.IDs); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "reordered"})
}
