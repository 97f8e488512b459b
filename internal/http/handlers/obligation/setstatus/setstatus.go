// Package setstatus реализует HTTP-обработчик смены статуса обязательства,
// включая возврат оплаченного обязательства в to_pay.
package setstatus

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

// Handler обрабатывает смену статуса обязательства.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает смену статуса обязательства.
type Service interface {
	SetStatus(ctx context.Context, id int64, req models.DummyObligationStatus) (models.PaymentOutcome, error)
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
// @Summary Сменить статус обязательства
// @Description Ответ 404 для неизвестного id; повторная установка того же статуса — outcome already_in_state.
// @Tags Obligations
// @Accept  json
// @Produce  json
// @Param id path int true "ID обязательства"
// @Param request body models.DummyObligationStatus true "to_pay | paid"
// @Success 200 {object} response.Response "outcome"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Обязательство не найдено"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Security BearerAuth
// @Router /obligations/{id}/status [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.obligation.setstatus"
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

	var req models.DummyObligationStatus
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

	outcome, err := h.service.SetStatus(r.Context(), id, req)
	if err != nil {
		log.Error("failed to set obligation status", slog.Int64("id", id), sl.Err(err))
		status, resp := response.FromError(err, "could not set obligation status")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}
	if outcome == models.OutcomeNotFound {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("not found"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(models.PaymentResult{ID: id, Outcome: outcome}))
}
