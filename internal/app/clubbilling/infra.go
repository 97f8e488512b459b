package clubbilling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/club-billing/internal/cache"
	"github.com/magabrotheeeer/club-billing/internal/config"
	"github.com/magabrotheeeer/club-billing/internal/lib/clock"
	"github.com/magabrotheeeer/club-billing/internal/lib/metrics"
	"github.com/magabrotheeeer/club-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/migrations"
	"github.com/magabrotheeeer/club-billing/internal/services/feeplan"
	"github.com/magabrotheeeer/club-billing/internal/services/installment"
	"github.com/magabrotheeeer/club-billing/internal/services/obligation"
	"github.com/magabrotheeeer/club-billing/internal/storage/repository"
)

// Infra — внешние зависимости биллинга: PostgreSQL, Redis, RabbitMQ и метрики.
// Используется HTTP-сервером и одноразовым пересчётом.
type Infra struct {
	DB        *repository.Storage
	Cache     *cache.Cache
	Publisher *rabbitmq.Publisher
	Metrics   *metrics.Metrics

	conn   *amqp.Connection
	logger *slog.Logger
}

// Services — сервисы биллинга поверх Infra.
type Services struct {
	FeePlans     *feeplan.Service
	Installments *installment.Service
	Obligations  *obligation.Service
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// NewInfra подключается к хранилищу, применяет миграции, поднимает кэш и канал событий.
// При ошибке уже открытые ресурсы закрываются.
func NewInfra(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*Infra, error) {
	infra := &Infra{logger: logger}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	infra.DB = db

	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		infra.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	if err := waitForDB(db); err != nil {
		infra.Close()
		return nil, err
	}

	infra.Cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	infra.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(infra.conn, cfg.RabbitMQExchange, rabbitmq.GetBillingQueues())
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	infra.Publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQExchange)
	infra.Metrics = metrics.New(reg)

	return infra, nil
}

// NewServices собирает сервисы биллинга с системными часами.
func NewServices(infra *Infra, cfg *config.Config, logger *slog.Logger) *Services {
	clk := clock.Real{}
	return &Services{
		FeePlans: feeplan.NewService(infra.DB, infra.Cache, infra.Publisher, clk, infra.Metrics, feeplan.Config{
			DueSoonWindow: cfg.DueSoonWindow,
			PlanCacheTTL:  cfg.PlanCacheTTL,
		}, logger),
		Installments: installment.NewService(infra.DB, infra.Cache, infra.Publisher, clk, infra.Metrics, installment.Config{
			DueSoonWindow:   cfg.DueSoonWindow,
			BatchSize:       cfg.RecalcBatchSize,
			KPICacheTTL:     cfg.KPICacheTTL,
			DefaultPageSize: cfg.DefaultPageSize,
			MaxPageSize:     cfg.MaxPageSize,
		}, logger),
		Obligations: obligation.NewService(infra.DB, infra.Publisher, clk, infra.Metrics, logger),
	}
}

// Close закрывает все открытые ресурсы, ошибки только логируются.
func (i *Infra) Close() {
	if i.Publisher != nil {
		if err := i.Publisher.Close(); err != nil {
			i.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if i.conn != nil {
		if err := i.conn.Close(); err != nil {
			i.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if i.Cache != nil {
		if err := i.Cache.Close(); err != nil {
			i.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if i.DB != nil {
		if err := i.DB.DB.Close(); err != nil {
			i.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
