// Package schedule реализует HTTP-обработчик замены шаблонного графика плана.
package schedule

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/club-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-billing/internal/http/request"
	"github.com/magabrotheeeer/club-billing/internal/http/response"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Handler обрабатывает замену графика.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает замену графика.
type Service interface {
	SetSchedule(ctx context.Context, planID int64, req models.DummySchedule) (*models.ScheduleWarning, error)
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
// @Summary Задать шаблонный график плана
// @Description Заменяет график целиком. Несовпадение суммы с итогом плана возвращается как warning.
// @Tags FeePlans
// @Accept  json
// @Produce  json
// @Param id path int true "ID плана"
// @Param request body models.DummySchedule true "Строки графика"
// @Success 200 {object} response.Response "Предупреждение или null"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /fee-plans/{id}/schedule [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feeplan.schedule"
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

	var req models.DummySchedule
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

	warning, err := h.service.SetSchedule(r.Context(), id, req)
	if err != nil {
		log.Error("failed to set schedule", slog.Int64("id", id), sl.Err(err))
		status, resp := response.FromError(err, "could not set schedule")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("schedule replaced", slog.Int64("id", id), slog.Int("items", len(req.Items)), slog.Bool("warning", warning != nil))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"warning": warning,
	}))
}
