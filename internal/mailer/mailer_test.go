package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"presupuesto/internal/amqp"
)

type fakeSender struct {
	to      string
	subject string
	body    string
	err     error
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	f.to = to
	f.subject = subject
	f.body = body
	return f.err
}

func TestHandleResetDelivers(t *testing.T) {
	sender := &fakeSender{}
	w := NewWorker(sender)

	msg := amqp.NewPasswordResetMessage("user@example.com", "http://localhost/reset-password?token=abc")
	if err := w.HandleReset(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if sender.to != "user@example.com" {
		t.Fatalf("unexpected recipient %q", sender.to)
	}
	if !strings.Contains(sender.body, msg.ResetLink) {
		t.Fatalf("body missing reset link: %q", sender.body)
	}
}

func TestHandleResetPropagatesSendError(t *testing.T) {
	sendErr := errors.New("relay down")
	w := NewWorker(&fakeSender{err: sendErr})

	msg := amqp.NewPasswordResetMessage("user@example.com", "http://localhost/reset")
	if err := w.HandleReset(context.Background(), msg); !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
