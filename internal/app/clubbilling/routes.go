// Package clubbilling собирает HTTP-сервер биллинга клуба: маршруты, middleware
// и жизненный цикл внешних зависимостей.
package clubbilling

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	fpcreate "github.com/magabrotheeeer/club-billing/internal/http/handlers/feeplan/create"
	"github.com/magabrotheeeer/club-billing/internal/http/handlers/feeplan/generate"
	fpread "github.com/magabrotheeeer/club-billing/internal/http/handlers/feeplan/read"
	"github.com/magabrotheeeer/club-billing/internal/http/handlers/feeplan/remove"
	"github.com/magabrotheeeer/club-billing/internal/http/handlers/feeplan/schedule"
	"github.com/magabrotheeeer/club-billing/internal/http/handlers/feeplan/update"
	"github.com/magabrotheeeer/club-billing/internal/http/handlers/installment/breakdown"
	"github.com/magabrotheeeer/club-billing/internal/http/handlers/installment/clearoverride"
	instlist "github.com/magabrotheeeer/club-billing/internal/http/handlers/installment/list"
	instmarkpaid "github.com/magabrotheeeer/club-billing/internal/http/handlers/installment/markpaid"
	"github.com/magabrotheeeer/club-billing/internal/http/handlers/installment/recalculate"
	inststatus "github.com/magabrotheeeer/club-billing/internal/http/handlers/installment/setstatus"
	oblcreate "github.com/magabrotheeeer/club-billing/internal/http/handlers/obligation/create"
	obllist "github.com/magabrotheeeer/club-billing/internal/http/handlers/obligation/list"
	oblmarkpaid "github.com/magabrotheeeer/club-billing/internal/http/handlers/obligation/markpaid"
	"github.com/magabrotheeeer/club-billing/internal/http/handlers/obligation/recurring"
	oblstatus "github.com/magabrotheeeer/club-billing/internal/http/handlers/obligation/setstatus"
	"github.com/magabrotheeeer/club-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-billing/internal/lib/metrics"
)

// RouteDeps — всё, что нужно маршрутам.
type RouteDeps struct {
	Services *Services
	Tokens   middlewarectx.TokenParser
	Limiter  *rate.Limiter
	Metrics  *metrics.Metrics
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps RouteDeps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		deps.Metrics.Middleware,
	)

	fp, inst, obl := deps.Services.FeePlans, deps.Services.Installments, deps.Services.Obligations
	bulk := middlewarectx.RateLimitMiddleware(deps.Limiter, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))

		r.Route("/fee-plans", func(r chi.Router) {
			r.Post("/", fpcreate.New(logger, fp).ServeHTTP)
			r.Get("/{id}", fpread.New(logger, fp).ServeHTTP)
			r.Put("/{id}", update.New(logger, fp).ServeHTTP)
			r.Delete("/{id}", remove.New(logger, fp).ServeHTTP)
			r.Put("/{id}/schedule", schedule.New(logger, fp).ServeHTTP)
			r.With(bulk).Post("/{id}/generate", generate.New(logger, fp).ServeHTTP)
		})

		r.Route("/installments", func(r chi.Router) {
			r.Get("/", instlist.New(logger, inst).ServeHTTP)
			r.Get("/breakdown", breakdown.New(logger, inst).ServeHTTP)
			r.With(bulk).Post("/recalculate", recalculate.New(logger, inst).ServeHTTP)
			r.With(bulk).Post("/mark-paid", instmarkpaid.New(logger, inst).ServeHTTP)
			r.Patch("/{id}/status", inststatus.New(logger, inst).ServeHTTP)
			r.Delete("/{id}/override", clearoverride.New(logger, inst).ServeHTTP)
		})

		r.Route("/obligations", func(r chi.Router) {
			r.Post("/", oblcreate.New(logger, obl).ServeHTTP)
			r.Get("/", obllist.New(logger, obl).ServeHTTP)
			r.Post("/recurring", recurring.New(logger, obl).ServeHTTP)
			r.With(bulk).Post("/mark-paid", oblmarkpaid.New(logger, obl).ServeHTTP)
			r.Patch("/{id}/status", oblstatus.New(logger, obl).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
