// Package reminder собирает воркер напоминаний: очередь просрочек → письма спортсменам.
package reminder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/club-billing/internal/config"
	"github.com/magabrotheeeer/club-billing/internal/lib/metrics"
	"github.com/magabrotheeeer/club-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/lib/smtp"
	reminderservice "github.com/magabrotheeeer/club-billing/internal/services/reminder"
	"github.com/magabrotheeeer/club-billing/internal/storage/repository"
)

// App — воркер напоминаний.
type App struct {
	db      *repository.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
	service *reminderservice.Service
	workers int
	logger  *slog.Logger
}

// New подключается к хранилищу и брокеру и объявляет очереди биллинга.
func New(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.DB.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQExchange, rabbitmq.GetBillingQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.DB.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	mailer := smtp.NewMailer(smtp.NewTransport(cfg.SMTP, logger), cfg.SMTPFrom)
	service := reminderservice.NewService(db, mailer, metrics.New(reg), logger)

	return &App{
		db:      db,
		conn:    conn,
		ch:      ch,
		service: service,
		workers: cfg.ReminderWorkers,
		logger:  logger,
	}, nil
}

// Run обрабатывает очередь просрочек до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	err := rabbitmq.Consume(ctx, a.ch, rabbitmq.QueueOverdue, a.workers, a.service.HandleOverdue, a.logger)
	if err != nil {
		a.logger.Error("failed to consume overdue queue", sl.Err(err))
		return err
	}

	a.logger.Info("reminder worker shutting down gracefully")
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
