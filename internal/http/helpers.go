package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"presupuesto/internal/auth"
	"presupuesto/internal/core"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "url", r.URL.Path)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, map[string]string{"error": msg})
}

// respondStoreError maps domain errors onto HTTP statuses. Anything not in
// the taxonomy is a 500 with the detail kept out of the response.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInUse):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInconsistentState):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrNameTaken):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrForeignIDs):
		respondError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidOperation),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyName):
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, "invalid credentials")
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// pathID parses the {id} path segment; a bad id responds 404 because no
// resource can live at that path.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

// parseAmount accepts a decimal string ("123.45" or "123,45") and returns cents.
func parseAmount(w http.ResponseWriter, r *http.Request, s string) (int64, bool) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, "invalid amount")
		return 0, false
	}
	return cents, true
}

func parseDate(w http.ResponseWriter, r *http.Request, s string) (time.Time, bool) {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
