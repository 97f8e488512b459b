// Package markpaid реализует HTTP-обработчик пакетной отметки оплаты рассрочек.
// Ответ всегда содержит результат по каждому id; ошибка одного id не роняет запрос.
package markpaid

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/club-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/club-billing/internal/http/response"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// Handler обрабатывает отметку оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает отметку оплаты рассрочек.
type Service interface {
	MarkPaid(ctx context.Context, ids []int64, paymentDate time.Time, method string) ([]models.PaymentResult, error)
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
// @Summary Отметить рассрочки оплаченными
// @Tags Installments
// @Accept  json
// @Produce  json
// @Param request body models.DummyMarkPaid true "ids, payment_date, method"
// @Success 200 {object} response.Response "Результат по каждому id"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Security BearerAuth
// @Router /installments/mark-paid [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.installment.markpaid"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("operator", middlewarectx.Operator(r.Context())),
	)

	var req models.DummyMarkPaid
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

	paymentDate, err := models.ParseDate("payment_date", req.PaymentDate)
	if err != nil {
		log.Error("invalid payment date", sl.Err(err))
		status, resp := response.FromError(err, "invalid payment date")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	results, err := h.service.MarkPaid(r.Context(), req.IDs, paymentDate, req.Method)
	if err != nil {
		log.Error("failed to mark installments paid", sl.Err(err))
		status, resp := response.FromError(err, "could not record payments")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(results))
}
