// Package clearoverride реализует HTTP-обработчик снятия ручного статуса рассрочки.
package clearoverride

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-billing/internal/http/request"
	"github.com/magabrotheeeer/club-billing/internal/http/response"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Handler обрабатывает снятие ручного статуса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает снятие ручного статуса.
type Service interface {
	ClearOverride(ctx context.Context, id int64) (*models.FeeInstallment, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Снять ручной статус рассрочки
// @Description Выключает manual_override и сразу записывает вычисленный статус.
// @Tags Installments
// @Produce  json
// @Param id path int true "ID рассрочки"
// @Success 200 {object} response.Response "Рассрочка"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.ErrorResponse "Рассрочка не найдена"
// @Security BearerAuth
// @Router /installments/{id}/override [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.installment.clearoverride"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("operator", middlewarectx.Operator(r.Context())),
	)

	id, err := request.ID(r)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	fi, err := h.service.ClearOverride(r.Context(), id)
	if err != nil {
		log.Error("failed to clear override", slog.Int64("id", id), sl.Err(err))
		status, resp := response.FromError(err, "could not clear override")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(fi))
}
