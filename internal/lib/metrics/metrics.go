// Package metrics — счётчики движка взносов и гистограмма HTTP-запросов для Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics объединяет метрики биллинга.
type Metrics struct {
	InstallmentsGenerated prometheus.Counter
	StatusUpdates         *prometheus.CounterVec
	RecalcRuns            *prometheus.CounterVec
	RecalcDuration        prometheus.Histogram
	Payments              *prometheus.CounterVec
	Reminders             *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		InstallmentsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "club_billing",
			Name:      "installments_generated_total",
			Help:      "Fee installments created by generation runs.",
		}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club_billing",
			Name:      "status_updates_total",
			Help:      "Installment status changes written by recalculation, by new status.",
		}, []string{"status"}),
		RecalcRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club_billing",
			Name:      "recalc_runs_total",
			Help:      "Recalculation runs by result.",
		}, []string{"result"}),
		RecalcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "club_billing",
			Name:      "recalc_duration_seconds",
			Help:      "Duration of recalculation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club_billing",
			Name:      "payments_total",
			Help:      "Mark-paid outcomes by kind (installment, obligation) and outcome.",
		}, []string{"kind", "outcome"}),
		Reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "club_billing",
			Name:      "overdue_reminders_total",
			Help:      "Overdue reminder emails by result (sent, failed).",
		}, []string{"result"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "club_billing",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern, method and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
	reg.MustRegister(m.InstallmentsGenerated, m.StatusUpdates, m.RecalcRuns, m.RecalcDuration,
		m.Payments, m.Reminders, m.HTTPDuration)
	return m
}

// ObserveRecalc записывает итог одного прогона пересчёта.
func (m *Metrics) ObserveRecalc(started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RecalcRuns.WithLabelValues(result).Inc()
	m.RecalcDuration.Observe(time.Since(started).Seconds())
}

// Middleware измеряет длительность запросов. Маршрут берётся из шаблона chi,
// чтобы идентификаторы в путях не раздували число серий.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m.HTTPDuration.WithLabelValues(route, r.Method, strconv.Itoa(code)).
			Observe(time.Since(start).Seconds())
	})
}
