// Package generate реализует HTTP-обработчик генерации рассрочек по плану для состава команды.
// Повторный вызов безопасен: уже созданные рассрочки считаются already_existed.
package generate

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

// Handler обрабатывает генерацию рассрочек.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает генерацию рассрочек.
type Service interface {
	GenerateInstallments(ctx context.Context, planID int64) (*models.GenerationResult, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сгенерировать рассрочки
// @Description Создаёт рассрочки каждому спортсмену команды по шаблонному графику плана.
// @Tags FeePlans
// @Produce  json
// @Param id path int true "ID плана"
// @Success 200 {object} response.Response "created, already_existed, failures"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 422 {object} response.ErrorResponse "Пустой график или состав"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /fee-plans/{id}/generate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feeplan.generate"
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

	result, err := h.service.GenerateInstallments(r.Context(), id)
	if err != nil {
		log.Error("failed to generate installments", slog.Int64("plan_id", id), sl.Err(err))
		status, resp := response.FromError(err, "could not generate installments")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("installments generated",
		slog.Int64("plan_id", id),
		slog.Int("created", result.Created),
		slog.Int("already_existed", result.AlreadyExisted),
		slog.Int("failed", len(result.Failures)))
	render.JSON(w, r, response.StatusOKWithData(result))
}
