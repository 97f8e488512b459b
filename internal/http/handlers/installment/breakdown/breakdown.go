// Package breakdown реализует HTTP-обработчик разбивки рассрочек по статусам.
// Фильтр тот же, что у списка; пагинация игнорируется.
package breakdown

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-billing/internal/http/request"
	"github.com/magabrotheeeer/club-billing/internal/http/response"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Handler обрабатывает запросы разбивки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает разбивку по статусам.
type Service interface {
	Breakdown(ctx context.Context, q models.InstallmentQuery) (*models.StatusBreakdown, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Разбивка рассрочек по статусам
// @Description Количество и суммы по каждому статусу для всех строк фильтра. Параметры как у GET /installments.
// @Tags Installments
// @Produce  json
// @Param team_id query string false "ID команд через запятую"
// @Param status query string false "Статусы через запятую"
// @Param preset query string false "today | next-7-days | next-30-days"
// @Success 200 {object} response.Response "by_status, total_count, total_amount, total_paid"
// @Failure 422 {object} response.ErrorResponse "Некорректный фильтр"
// @Security BearerAuth
// @Router /installments/breakdown [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.installment.breakdown"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q, err := request.InstallmentQuery(r)
	if err != nil {
		log.Error("invalid filter", sl.Err(err))
		status, resp := response.FromError(err, "invalid filter")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	result, err := h.service.Breakdown(r.Context(), q)
	if err != nil {
		log.Error("failed to build status breakdown", sl.Err(err))
		status, resp := response.FromError(err, "could not build status breakdown")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
