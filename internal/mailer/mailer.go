// Package mailer delivers password-reset emails consumed from the queue.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"presupuesto/internal/amqp"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := []byte("From: " + s.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")
	if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", s.Addr, err)
	}
	return nil
}

// LogSender is the fallback when no SMTP relay is configured; it only logs
// the delivery, which is enough for local development.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, body string) error {
	slog.InfoContext(ctx, "Mail delivery (log sender)", "to", to, "subject", subject)
	return nil
}

// Worker turns queued reset jobs into deliveries.
type Worker struct {
	sender Sender
}

func NewWorker(sender Sender) *Worker {
	return &Worker{sender: sender}
}

// HandleReset delivers one password-reset message. Errors bubble up so the
// queue redelivers.
func (w *Worker) HandleReset(ctx context.Context, msg *amqp.PasswordResetMessage) error {
	body := "A password reset was requested for your account.\r\n\r\n" +
		"Open the link below to choose a new password:\r\n" +
		msg.ResetLink + "\r\n\r\n" +
		"If you did not request this, ignore this message."
	if err := w.sender.Send(ctx, msg.Email, "Reset your password", body); err != nil {
		return fmt.Errorf("deliver reset mail: %w", err)
	}
	slog.InfoContext(ctx, "Password reset mail delivered", "queued_at", msg.Timestamp)
	return nil
}
