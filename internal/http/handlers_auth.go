package http

import (
	"errors"
	"net/http"

	"presupuesto/internal/auth"
	"presupuesto/internal/core"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	_, token, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, core.ErrNameTaken) {
		respondError(w, r, http.StatusConflict, "email already registered")
		return
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, sessionResponse{Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, sessionResponse{Token: token})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respondStoreError(w, r, err)
		return
	}

	// Always 202 so this endpoint never confirms account existence.
	respondJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.auth.ResetPassword(r.Context(), req.Token, req.Password)
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, r, http.StatusUnprocessableEntity, "invalid or expired reset token")
		return
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]string{"status": "password updated"})
}
