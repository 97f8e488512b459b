package clubbilling

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/club-billing/internal/config"
	"github.com/magabrotheeeer/club-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/club-billing/internal/services/scheduler"
)

// App — HTTP-сервер биллинга.
type App struct {
	server    *http.Server
	infra     *Infra
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// New поднимает зависимости и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	infra, err := NewInfra(ctx, cfg, prometheus.DefaultRegisterer, logger)
	if err != nil {
		return nil, err
	}

	services := NewServices(infra, cfg, logger)
	router := chi.NewRouter()
	RegisterRoutes(router, logger, RouteDeps{
		Services: services,
		Tokens:   jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Limiter:  rate.NewLimiter(rate.Limit(cfg.BulkRateLimit), cfg.BulkRateBurst),
		Metrics:  infra.Metrics,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	app := &App{
		server: srv,
		infra:  infra,
		logger: logger,
	}
	if cfg.RecalcInterval > 0 {
		app.scheduler = scheduler.New(services.Installments, cfg.RecalcInterval, cfg.RecalcTimeout, logger)
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер и закрывает ресурсы.
func (a *App) Run(ctx context.Context) error {
	defer a.infra.Close()

	if a.scheduler != nil {
		// Ресурсы закрываются только после завершения текущего прогона пересчёта.
		defer runInBackground(ctx, a.scheduler.Run)()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

// runInBackground запускает run в отдельной горутине. Возвращаемая функция
// отменяет её контекст и ждёт, пока run вернётся.
func runInBackground(ctx context.Context, run func(context.Context)) func() {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(runCtx)
	}()
	return func() {
		cancel()
		<-done
	}
}
