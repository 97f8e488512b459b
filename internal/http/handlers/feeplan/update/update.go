// Package update реализует HTTP-обработчик изменения плана взносов.
//
// Если график не пересоздаётся и его сумма расходится с новым итогом,
// ответ содержит предупреждение, но изменение сохраняется.
package update

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

// Handler обрабатывает изменение плана.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает изменение плана.
type Service interface {
	Update(ctx context.Context, id int64, req models.DummyFeePlan) (*models.FeePlan, *models.ScheduleWarning, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Result — план после изменения и предупреждение о расхождении графика.
type Result struct {
	Plan    *models.FeePlan         `json:"plan"`
	Warning *models.ScheduleWarning `json:"warning,omitempty"`
}

// ServeHTTP godoc
// @Summary Изменить план взносов
// @Description Пересчитывает total_amount; при regenerate_schedule пересоздаёт шаблонный график.
// @Tags FeePlans
// @Accept  json
// @Produce  json
// @Param id path int true "ID плана"
// @Param request body models.DummyFeePlan true "Данные плана"
// @Success 200 {object} response.Response "План и предупреждение"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /fee-plans/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feeplan.update"
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

	var req models.DummyFeePlan
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

	plan, warning, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update fee plan", slog.Int64("id", id), sl.Err(err))
		status, resp := response.FromError(err, "could not update fee plan")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}
	if warning != nil {
		log.Warn("fee plan schedule does not match total", slog.Int64("id", id), slog.String("warning", warning.Message))
	}

	log.Info("fee plan updated", slog.Int64("id", id))
	render.JSON(w, r, response.StatusOKWithData(Result{Plan: plan, Warning: warning}))
}
