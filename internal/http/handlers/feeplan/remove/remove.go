// Package remove реализует HTTP-обработчик удаления плана взносов.
// План с оплаченными рассрочками не удаляется: ответ 409 Conflict.
package remove

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
)

// Handler обрабатывает удаление плана.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает удаление плана.
type Service interface {
	Delete(ctx context.Context, id int64) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить план взносов
// @Description Удаляет план, его график и неоплаченные рассрочки. При наличии оплаченных рассрочек — 409.
// @Tags FeePlans
// @Produce  json
// @Param id path int true "ID плана"
// @Success 200 {object} response.Response "План удалён"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 409 {object} response.ErrorResponse "Есть оплаченные рассрочки"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /fee-plans/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feeplan.remove"
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

	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Error("failed to delete fee plan", slog.Int64("id", id), sl.Err(err))
		status, resp := response.FromError(err, "could not delete fee plan")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("fee plan deleted", slog.Int64("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_id": id,
	}))
}
