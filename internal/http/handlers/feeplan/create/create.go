// Package create реализует HTTP-обработчик создания плана взносов.
//
// Итог плана вычисляется сервисом из составляющих; при regenerate_schedule
// вместе с планом создаётся шаблонный график по умолчанию.
package create

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

// Handler обрабатывает запросы на создание плана.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает создание плана.
type Service interface {
	Create(ctx context.Context, req models.DummyFeePlan) (*models.FeePlan, error)
}

// New создает Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать план взносов
// @Description Создает план команды. total_amount = enrollment_fee + insurance_fee + monthly_fee * months_count.
// @Tags FeePlans
// @Accept  json
// @Produce  json
// @Param request body models.DummyFeePlan true "Данные плана"
// @Success 201 {object} response.Response "Созданный план"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Команда не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /fee-plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feeplan.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("operator", middlewarectx.Operator(r.Context())),
	)

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

	plan, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create fee plan", sl.Err(err))
		status, resp := response.FromError(err, "could not create fee plan")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("fee plan created", slog.Int64("id", plan.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(plan))
}
