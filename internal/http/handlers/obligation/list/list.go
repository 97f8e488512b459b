// Package list реализует HTTP-обработчик списка обязательств клуба.
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

// Handler обрабатывает запросы списка обязательств.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает список обязательств.
type Service interface {
	List(ctx context.Context, f models.ObligationFilter) ([]models.GeneralObligation, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список обязательств
// @Tags Obligations
// @Produce  json
// @Param category query string false "general_cost | coach_payment"
// @Param status query string false "to_pay | paid"
// @Param team_id query int false "ID команды"
// @Param due_from query string false "Дата от (YYYY-MM-DD)"
// @Param due_to query string false "Дата до (YYYY-MM-DD)"
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response "Обязательства"
// @Failure 422 {object} response.ErrorResponse "Некорректный фильтр"
// @Security BearerAuth
// @Router /obligations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.obligation.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	f, err := request.ObligationFilter(r)
	if err != nil {
		log.Error("invalid filter", sl.Err(err))
		status, resp := response.FromError(err, "invalid filter")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	items, err := h.service.List(r.Context(), f)
	if err != nil {
		log.Error("failed to list obligations", sl.Err(err))
		status, resp := response.FromError(err, "could not list obligations")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(items))
}
