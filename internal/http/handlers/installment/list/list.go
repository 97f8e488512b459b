// Package list реализует HTTP-обработчик списка рассрочек с фильтрами и пагинацией.
package list

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

// Handler обрабатывает запросы списка.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает постраничный список рассрочек.
type Service interface {
	List(ctx context.Context, q models.InstallmentQuery) (*models.InstallmentPage, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список рассрочек
// @Tags Installments
// @Produce  json
// @Param team_id query string false "ID команд через запятую"
// @Param fee_plan_id query string false "ID планов через запятую"
// @Param status query string false "Статусы через запятую"
// @Param due_from query string false "Дата платежа от (YYYY-MM-DD)"
// @Param due_to query string false "Дата платежа до (YYYY-MM-DD)"
// @Param preset query string false "today | next-7-days | next-30-days"
// @Param q query string false "Поиск по имени и email спортсмена"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} response.Response "rows, total, page, page_size"
// @Failure 422 {object} response.ErrorResponse "Некорректный фильтр"
// @Security BearerAuth
// @Router /installments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.installment.list"
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

	page, err := h.service.List(r.Context(), q)
	if err != nil {
		log.Error("failed to list installments", sl.Err(err))
		status, resp := response.FromError(err, "could not list installments")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(page))
}
