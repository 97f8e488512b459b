// Package recurring реализует HTTP-обработчик разворачивания повторяющегося расхода
// в ограниченный график отдельных обязательств.
package recurring

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/club-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-billing/internal/http/response"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Handler обрабатывает разворачивание повторяющегося расхода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает разворачивание повторяющегося расхода.
type Service interface {
	GenerateRecurring(ctx context.Context, req models.DummyRecurringObligation) ([]models.GeneralObligation, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать повторяющийся расход
// @Description recurrence: monthly (12), quarterly (4), yearly (3), weekly (12), custom (count + step_months|step_days). Без recurrence тип берётся из текста pattern.
// @Tags Obligations
// @Accept  json
// @Produce  json
// @Param request body models.DummyRecurringObligation true "Данные расхода"
// @Success 201 {object} response.Response "Созданные обязательства"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Security BearerAuth
// @Router /obligations/recurring [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.obligation.recurring"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("operator", middlewarectx.Operator(r.Context())),
	)

	var req models.DummyRecurringObligation
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	items, err := h.service.GenerateRecurring(r.Context(), req)
	if err != nil {
		log.Error("failed to generate recurring obligations", sl.Err(err))
		status, resp := response.FromError(err, "could not generate recurring obligations")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(items))
}
