// Command hold-audit consumes hold events from the broker and appends
// them to the audit log.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-box-office/internal/config"
	"github.com/iliyamo/cinema-box-office/internal/logger"
	"github.com/iliyamo/cinema-box-office/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Queue.URL == "" {
		log.Fatal("AMQP_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.HoldQueue, cfg.Queue.AuditLog, log)
	log.Info("hold audit consumer started", zap.String("queue", cfg.Queue.HoldQueue), zap.String("file", cfg.Queue.AuditLog))
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("consumer stopped", zap.Error(err))
	}
	log.Info("hold audit consumer stopped")
}
