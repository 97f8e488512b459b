// Package recalculate реализует HTTP-обработчик пересчёта статусов рассрочек.
//
// Пересчёт затрагивает только неоплаченные рассрочки без ручного статуса и может
// быть ограничен командой или планом. Повторный запуск безопасен.
package recalculate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/club-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-billing/internal/http/response"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Handler обрабатывает запросы пересчёта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает пересчёт статусов.
type Service interface {
	Recalculate(ctx context.Context, scope models.RecalcScope) (*models.RecalcResult, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Пересчитать статусы рассрочек
// @Description Тело запроса необязательно; пустой scope — все неоплаченные рассрочки.
// @Tags Installments
// @Accept  json
// @Produce  json
// @Param request body models.RecalcScope false "Ограничение пересчёта"
// @Success 200 {object} response.Response "scanned, updated, unchanged, skipped_paid, failed"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Пересчёт прерван"
// @Security BearerAuth
// @Router /installments/recalculate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.installment.recalculate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("operator", middlewarectx.Operator(r.Context())),
	)

	var scope models.RecalcScope
	if err := render.DecodeJSON(r.Body, &scope); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	result, err := h.service.Recalculate(r.Context(), scope)
	if err != nil {
		log.Error("recalculation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		// Частичный итог отдаём вместе с ошибкой: записанные страницы уже зафиксированы.
		render.JSON(w, r, response.Response{
			Status: response.StatusError,
			Error:  "recalculation interrupted",
			Data:   result,
		})
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
