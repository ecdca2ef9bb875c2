package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"presupuesto/internal/core"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "A@EXAMPLE.COM")

	_, err := s.CreateUser(context.Background(), core.User{
		Email:           "a@example.com",
		NormalizedEmail: "A@EXAMPLE.COM",
		PasswordHash:    "x",
	})
	if !errors.Is(err, core.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestUserByEmail(t *testing.T) {
	s := newTestStore(t)
	id := seedUser(t, s, "A@EXAMPLE.COM")

	u, err := s.UserByEmail(context.Background(), "A@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.ID != id {
		t.Fatalf("expected id %d, got %d", id, u.ID)
	}

	if _, err := s.UserByEmail(context.Background(), "MISSING@EXAMPLE.COM"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConsumePasswordReset(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	now := time.Now()

	if err := s.CreatePasswordReset(context.Background(), "tok-valid", userID, now.Add(time.Hour)); err != nil {
		t.Fatalf("create reset: %v", err)
	}

	got, err := s.ConsumePasswordReset(context.Background(), "tok-valid", now)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got != userID {
		t.Fatalf("expected user %d, got %d", userID, got)
	}

	// One-shot: a second consume fails.
	if _, err := s.ConsumePasswordReset(context.Background(), "tok-valid", now); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}
}

func TestConsumePasswordResetExpired(t *testing.T) {
	s := newTestStore(t)
	userID := seedUser(t, s, "A@EXAMPLE.COM")
	now := time.Now()

	if err := s.CreatePasswordReset(context.Background(), "tok-old", userID, now.Add(-time.Minute)); err != nil {
		t.Fatalf("create reset: %v", err)
	}

	if _, err := s.ConsumePasswordReset(context.Background(), "tok-old", now); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired token, got %v", err)
	}

	// Expired tokens burn on the failed attempt too.
	if err := s.CreatePasswordReset(context.Background(), "tok-old", userID, now.Add(time.Hour)); err != nil {
		t.Fatalf("token row should be gone, reinsert failed: %v", err)
	}
}

func TestUnknownPasswordResetToken(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.ConsumePasswordReset(context.Background(), "nope", time.Now()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
