package auth

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"presupuesto/internal/storage"
)

func newTestService(t *testing.T, publisher ResetPublisher) *Service {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(store, publisher, []byte("test-secret"), time.Hour, time.Hour, "http://localhost:8081")
}

type capturingPublisher struct {
	mu    sync.Mutex
	email string
	link  string
	calls int
}

func (p *capturingPublisher) PublishPasswordReset(ctx context.Context, email, resetLink string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.email = email
	p.link = resetLink
	p.calls++
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	id, token, err := svc.Register(ctx, "user@example.com", "long-enough-password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id <= 0 || token == "" {
		t.Fatalf("expected id and token, got %d %q", id, token)
	}

	uid, err := svc.ParseSession(token)
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if uid != id {
		t.Fatalf("session uid: expected %d, got %d", id, uid)
	}

	// Login is case-insensitive on the email.
	if _, err := svc.Login(ctx, "USER@example.COM", "long-enough-password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.Login(ctx, "user@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "long-enough-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "not-an-email", "long-enough-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad email, got %v", err)
	}
	if _, _, err := svc.Register(ctx, "user@example.com", "short"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for short password, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "user@example.com", "original-password"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, "user@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if pub.calls != 1 {
		t.Fatalf("expected 1 publish, got %d", pub.calls)
	}
	if pub.email != "user@example.com" {
		t.Fatalf("unexpected recipient %q", pub.email)
	}

	const prefix = "http://localhost:8081/reset-password?token="
	if len(pub.link) <= len(prefix) || pub.link[:len(prefix)] != prefix {
		t.Fatalf("unexpected reset link %q", pub.link)
	}
	token := pub.link[len(prefix):]

	if err := svc.ResetPassword(ctx, token, "brand-new-password"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := svc.Login(ctx, "user@example.com", "original-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works")
	}
	if _, err := svc.Login(ctx, "user@example.com", "brand-new-password"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	// The token is single use.
	if err := svc.ResetPassword(ctx, token, "another-password"); err == nil {
		t.Fatalf("expected error reusing the token")
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)

	// No error and no publish, so the endpoint cannot leak account existence.
	if err := svc.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if pub.calls != 0 {
		t.Fatalf("expected no publish, got %d", pub.calls)
	}
}
