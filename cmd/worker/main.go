// Command worker consumes domain events from RabbitMQ and sends password reset mails.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/yigit/examadmin/internal/bootstrap"
	"github.com/yigit/examadmin/internal/pkg/events"
	"github.com/yigit/examadmin/internal/pkg/logger"
)

func main() {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if !cfg.RabbitMQ.Enabled {
		lgr.Error().Msg("RabbitMQ is disabled; the API handles events inline and no worker is needed")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := &events.Consumer{
		URL:      cfg.RabbitMQ.URL,
		Exchange: cfg.RabbitMQ.Exchange,
		Queue:    cfg.RabbitMQ.Queue,
		Prefetch: 10,
		Logger:   logger.Component("worker"),
	}
	consumer.Handle(events.TypePasswordResetRequested, events.PasswordResetMailer(bootstrap.NewEmailService(cfg, lgr)))

	lgr.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("Worker started")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lgr.Error().Err(err).Msg("Worker stopped with error")
		os.Exit(1)
	}
	lgr.Info().Msg("Worker stopped")
}
