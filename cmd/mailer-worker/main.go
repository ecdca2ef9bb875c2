package main

import (
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"presupuesto/internal/amqp"
	"presupuesto/internal/config"
	"presupuesto/internal/mailer"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting mailer-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mailer worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	var sender mailer.Sender
	if cfg.SMTPAddr != "" {
		var auth smtp.Auth
		if cfg.SMTPUser != "" {
			host := cfg.SMTPAddr
			if i := strings.IndexByte(host, ':'); i >= 0 {
				host = host[:i]
			}
			auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, host)
		}
		sender = &mailer.SMTPSender{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom, Auth: auth}
		logger.Info("SMTP sender initialized", "addr", cfg.SMTPAddr)
	} else {
		sender = mailer.LogSender{}
		logger.Info("No SMTP configured, logging deliveries instead")
	}

	worker := mailer.NewWorker(sender)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = amqpClient.ConsumePasswordResets(ctx, func(msg *amqp.PasswordResetMessage) error {
		return worker.HandleReset(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
