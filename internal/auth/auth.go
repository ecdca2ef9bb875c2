// Package auth implements registration, login, session tokens and the
// password-reset flow. The core stores never see ambient identity; this
// package resolves a user id once and everything below takes it explicitly.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"presupuesto/internal/core"
	"presupuesto/internal/storage"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// ResetPublisher enqueues a password-reset mail job. Dispatch is
// fire-and-forget: a publish failure is logged, never surfaced to the user.
type ResetPublisher interface {
	PublishPasswordReset(ctx context.Context, email, resetLink string) error
}

type Service struct {
	store     *storage.Store
	publisher ResetPublisher
	secret    []byte
	tokenTTL  time.Duration
	resetTTL  time.Duration
	baseURL   string
}

func NewService(store *storage.Store, publisher ResetPublisher, secret []byte, tokenTTL, resetTTL time.Duration, baseURL string) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		secret:    secret,
		tokenTTL:  tokenTTL,
		resetTTL:  resetTTL,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// NormalizeEmail produces the canonical lookup form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}

// Register creates a user and returns its id with a fresh session token.
func (s *Service) Register(ctx context.Context, email, password string) (int64, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return 0, "", ErrInvalidCredentials
	}
	if len(password) < 8 {
		return 0, "", fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.CreateUser(ctx, core.User{
		Email:           email,
		NormalizedEmail: NormalizeEmail(email),
		PasswordHash:    string(hash),
	})
	if err != nil {
		return 0, "", err
	}

	token, err := NewToken(id, s.secret, s.tokenTTL)
	if err != nil {
		return 0, "", err
	}
	slog.InfoContext(ctx, "User registered", "user_id", id)
	return id, token, nil
}

// Login verifies credentials and returns a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.UserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, core.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return NewToken(user.ID, s.secret, s.tokenTTL)
}

// ParseSession resolves a session token to a user id.
func (s *Service) ParseSession(token string) (int64, error) {
	return ParseToken(token, s.secret)
}

// RequestPasswordReset creates a reset token and enqueues the mail job.
// It reports success whether or not the email matches a user, so account
// existence never leaks through this endpoint.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.UserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err := s.store.CreatePasswordReset(ctx, token, user.ID, time.Now().Add(s.resetTTL)); err != nil {
		return err
	}

	link := s.baseURL + "/reset-password?token=" + token
	if s.publisher == nil {
		slog.WarnContext(ctx, "No mail publisher configured, skipping reset email", "user_id", user.ID)
		return nil
	}
	if err := s.publisher.PublishPasswordReset(ctx, user.Email, link); err != nil {
		slog.ErrorContext(ctx, "Failed to publish reset email", "error", err, "user_id", user.ID)
	}
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidCredentials)
	}

	userID, err := s.store.ConsumePasswordReset(ctx, token, time.Now())
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Password reset completed", "user_id", userID)
	return nil
}
