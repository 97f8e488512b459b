// Package read реализует HTTP-обработчик чтения плана взносов вместе с шаблонным графиком.
package read

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

// Handler обрабатывает чтение плана.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение плана.
type Service interface {
	Read(ctx context.Context, id int64) (*models.FeePlan, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить план взносов
// @Tags FeePlans
// @Produce  json
// @Param id path int true "ID плана"
// @Success 200 {object} response.Response "План с графиком"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /fee-plans/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feeplan.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := request.ID(r)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	plan, err := h.service.Read(r.Context(), id)
	if err != nil {
		log.Error("failed to read fee plan", slog.Int64("id", id), sl.Err(err))
		status, resp := response.FromError(err, "could not read fee plan")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(plan))
}
