// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"presupuesto/internal/auth"
	"presupuesto/internal/reports"
	"presupuesto/internal/storage"
)

// MonthlyExporter pushes a monthly report to an external spreadsheet.
type MonthlyExporter interface {
	ExportMonthly(ctx context.Context, report reports.Monthly) error
}

type Server struct {
	http.Server
	store       *storage.Store
	auth        *auth.Service
	reports     *reports.Service
	exporter    MonthlyExporter
	rateLimiter *rateLimiter
}

// Simple in-memory rate limiter for the auth endpoints
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 20 attempts per minute on auth endpoints
	client.requests++
	client.lastRequest = now

	return client.requests <= 20
}

// NewServer configures routes and returns a ready-to-run http.Server.
func NewServer(addr string, store *storage.Store, authSvc *auth.Service, reportSvc *reports.Service, exporter MonthlyExporter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		auth:        authSvc,
		reports:     reportSvc,
		exporter:    exporter,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.withLogging(s.withRateLimit(s.handleRegister)))
	mux.HandleFunc("POST /api/auth/login", s.withLogging(s.withRateLimit(s.handleLogin)))
	mux.HandleFunc("POST /api/auth/forgot-password", s.withLogging(s.withRateLimit(s.handleForgotPassword)))
	mux.HandleFunc("POST /api/auth/reset-password", s.withLogging(s.withRateLimit(s.handleResetPassword)))

	mux.HandleFunc("GET /api/account-types", s.withLogging(s.withAuth(s.handleListAccountTypes)))
	mux.HandleFunc("POST /api/account-types", s.withLogging(s.withAuth(s.handleCreateAccountType)))
	mux.HandleFunc("PUT /api/account-types/order", s.withLogging(s.withAuth(s.handleReorderAccountTypes)))
	mux.HandleFunc("PUT /api/account-types/{id}", s.withLogging(s.withAuth(s.handleRenameAccountType)))
	mux.HandleFunc("DELETE /api/account-types/{id}", s.withLogging(s.withAuth(s.handleDeleteAccountType)))

	mux.HandleFunc("GET /api/accounts", s.withLogging(s.withAuth(s.handleListAccounts)))
	mux.HandleFunc("POST /api/accounts", s.withLogging(s.withAuth(s.handleCreateAccount)))
	mux.HandleFunc("GET /api/accounts/{id}", s.withLogging(s.withAuth(s.handleGetAccount)))
	mux.HandleFunc("PUT /api/accounts/{id}", s.withLogging(s.withAuth(s.handleUpdateAccount)))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.withLogging(s.withAuth(s.handleDeleteAccount)))
	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.withLogging(s.withAuth(s.handleAccountTransactions)))

	mux.HandleFunc("GET /api/categories", s.withLogging(s.withAuth(s.handleListCategories)))
	mux.HandleFunc("POST /api/categories", s.withLogging(s.withAuth(s.handleCreateCategory)))
	mux.HandleFunc("GET /api/categories/{id}", s.withLogging(s.withAuth(s.handleGetCategory)))
	mux.HandleFunc("PUT /api/categories/{id}", s.withLogging(s.withAuth(s.handleUpdateCategory)))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withLogging(s.withAuth(s.handleDeleteCategory)))

	mux.HandleFunc("GET /api/transactions", s.withLogging(s.withAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.withLogging(s.withAuth(s.handleCreateTransaction)))
	mux.HandleFunc("GET /api/transactions/{id}", s.withLogging(s.withAuth(s.handleGetTransaction)))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withLogging(s.withAuth(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withLogging(s.withAuth(s.handleDeleteTransaction)))

	mux.HandleFunc("GET /api/reports/weekly", s.withLogging(s.withAuth(s.handleWeeklyReport)))
	mux.HandleFunc("GET /api/reports/monthly", s.withLogging(s.withAuth(s.handleMonthlyReport)))
	mux.HandleFunc("POST /api/reports/monthly/export", s.withLogging(s.withAuth(s.handleExportMonthlyReport)))

	return s
}

// Shutdown stops the rate limiter cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

func clientIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	return ip
}

// withLogging adds a request ID, security headers and request logging.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		ctx := r.Context()

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP(r))

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	}
}

// withRateLimit throttles credential guessing on the auth endpoints.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.rateLimiter.allow(ip) {
			slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", ip, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

type ctxKey int

const userIDKey ctxKey = iota

// withAuth resolves the bearer token into a user id and stores it in the
// request context. Everything below the handlers takes the id explicitly.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.auth.ParseSession(token)
		if err != nil {
			respondError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFrom(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
