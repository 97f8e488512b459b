package installment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/club-billing/internal/cache"
	"github.com/magabrotheeeer/club-billing/internal/lib/clock"
	"github.com/magabrotheeeer/club-billing/internal/lib/sl"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// List возвращает страницу рассрочек и общее число строк по фильтру.
func (s *Service) List(ctx context.Context, q models.InstallmentQuery) (*models.InstallmentPage, error) {
	filter, err := s.resolveFilter(q)
	if err != nil {
		return nil, err
	}
	page := s.normalizePage(q.Page)

	rows, err := s.repo.ListInstallments(ctx, filter, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountInstallments(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.InstallmentPage{
		Rows:     rows,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// Breakdown возвращает количество и суммы по каждому статусу для всех строк фильтра.
// Пагинация запроса игнорируется. Результат кэшируется в текущем поколении KPI
// не дольше KPICacheTTL. Запросы с поиском по имени не кэшируются: состав команд
// меняется вне биллинга и не сдвигает поколение.
func (s *Service) Breakdown(ctx context.Context, q models.InstallmentQuery) (*models.StatusBreakdown, error) {
	filter, err := s.resolveFilter(q)
	if err != nil {
		return nil, err
	}

	var key string
	if filter.Search == "" {
		key = s.breakdownKey(ctx, filter)
	}
	if key != "" {
		var cached models.StatusBreakdown
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("failed to read breakdown from cache", slog.String("key", key), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	totals, err := s.repo.StatusBreakdown(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := buildBreakdown(totals)

	if key != "" {
		if err := s.cache.Set(ctx, key, result, s.cfg.KPICacheTTL); err != nil {
			s.log.Warn("failed to cache breakdown", slog.String("key", key), sl.Err(err))
		}
	}
	return result, nil
}

func (s *Service) breakdownKey(ctx context.Context, filter models.InstallmentFilter) string {
	gen, err := s.cache.Generation(ctx, cache.KPIGenerationKey)
	if err != nil {
		s.log.Warn("failed to read kpi generation", sl.Err(err))
		return ""
	}
	key, err := cache.BreakdownKey(gen, filter)
	if err != nil {
		s.log.Warn("failed to build breakdown key", sl.Err(err))
		return ""
	}
	return key
}

// buildBreakdown раскладывает итоги в порядке models.InstallmentStatuses,
// добавляя нулевые строки для статусов без рассрочек.
func buildBreakdown(totals []models.StatusTotals) *models.StatusBreakdown {
	byStatus := make(map[models.InstallmentStatus]models.StatusTotals, len(totals))
	for _, t := range totals {
		byStatus[t.Status] = t
	}

	result := &models.StatusBreakdown{
		ByStatus:    make([]models.StatusTotals, 0, len(models.InstallmentStatuses)),
		TotalAmount: decimal.Zero,
		TotalPaid:   decimal.Zero,
	}
	for _, st := range models.InstallmentStatuses {
		t, ok := byStatus[st]
		if !ok {
			t = models.StatusTotals{Status: st, Amount: decimal.Zero, Paid: decimal.Zero}
		}
		result.ByStatus = append(result.ByStatus, t)
		result.TotalCount += t.Count
		result.TotalAmount = result.TotalAmount.Add(t.Amount)
		result.TotalPaid = result.TotalPaid.Add(t.Paid)
	}
	return result
}

// resolveFilter проверяет фильтр и подставляет диапазон дат пресета.
// Пресет считается от текущего дня часов и заменяет явный диапазон.
func (s *Service) resolveFilter(q models.InstallmentQuery) (models.InstallmentFilter, error) {
	f := q.Filter
	for _, st := range f.Statuses {
		if !st.Valid() {
			return f, models.NewValidationError(fmt.Sprintf("unknown status %q", st))
		}
	}

	if q.Preset != "" {
		today := clock.Today(s.clock)
		to := today
		switch q.Preset {
		case models.PresetToday:
		case models.PresetNext7Days:
			to = today.AddDate(0, 0, 7)
		case models.PresetNext30Days:
			to = today.AddDate(0, 0, 30)
		default:
			return f, models.NewValidationError(fmt.Sprintf("unknown preset %q", q.Preset))
		}
		f.DueFrom = &today
		f.DueTo = &to
	}

	if f.DueFrom != nil && f.DueTo != nil && f.DueTo.Before(*f.DueFrom) {
		return f, models.NewValidationError("due_to must not be before due_from")
	}
	return f, nil
}

func (s *Service) normalizePage(p models.Page) models.Page {
	switch {
	case p.Page < 1:
		p.Page = 1
	case p.Page > models.MaxPage:
		p.Page = models.MaxPage
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = s.cfg.DefaultPageSize
	case p.PageSize > s.cfg.MaxPageSize:
		p.PageSize = s.cfg.MaxPageSize
	}
	return p
}
