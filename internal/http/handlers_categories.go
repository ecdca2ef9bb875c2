package http

import (
	"net/http"

	"presupuesto/internal/core"
)

type categoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Operation string `json:"operation"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Operation: c.Operation.String()}
}

type categoryRequest struct {
	Name      string `json:"name"`
	Operation string `json:"operation"`
}

func parseOperation(s string) (core.OperationType, bool) {
	switch s {
	case "income":
		return core.Income, true
	case "expense":
		return core.Expense, true
	default:
		return 0, false
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.Categories(r.Context(), userIDFrom(r))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	op, ok := parseOperation(req.Operation)
	if !ok {
		respondError(w, r, http.StatusUnprocessableEntity, "operation must be 'income' or 'expense'")
		return
	}

	c := core.Category{UserID: userIDFrom(r), Name: req.Name, Operation: op}
	if err := c.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.store.CreateCategory(r.Context(), c)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	created, err := s.store.CategoryByID(r.Context(), id, c.UserID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.store.CategoryByID(r.Context(), id, userIDFrom(r))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	op, opOK := parseOperation(req.Operation)
	if !opOK {
		respondError(w, r, http.StatusUnprocessableEntity, "operation must be 'income' or 'expense'")
		return
	}

	c := core.Category{ID: id, UserID: userIDFrom(r), Name: req.Name, Operation: op}
	if err := c.Validate(); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateCategory(r.Context(), c); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteCategory(r.Context(), id, userIDFrom(r)); err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}
