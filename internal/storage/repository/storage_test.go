package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/club-billing/internal/models"
)

func TestFeePlanLifecycle(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(storage)

	teamID := f.CreateTeam(t, "U14")
	planID, _ := f.CreatePlan(t, teamID)

	plan, err := storage.ReadFeePlan(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, "Season 2025", plan.Name)
	assert.True(t, plan.TotalAmount.Equal(decimal.NewFromInt(500)))
	require.Len(t, plan.Schedule, 2)
	assert.Equal(t, 1, plan.Schedule[0].InstallmentNumber)
	assert.True(t, plan.Schedule[1].DueDate.Equal(day(2026, 1, 1)))

	plan.MonthlyFee = decimal.NewFromInt(60)
	plan.TotalAmount = decimal.NewFromInt(600)
	require.NoError(t, storage.UpdateFeePlan(ctx, *plan, nil))

	updated, err := storage.ReadFeePlan(ctx, planID)
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(600)))
	assert.Len(t, updated.Schedule, 2, "nil schedule keeps the stored one")

	shrunk := *updated
	shrunk.InstallmentsCount = 1
	err = storage.UpdateFeePlan(ctx, shrunk, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
	kept, err := storage.ReadFeePlan(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, 2, kept.InstallmentsCount, "rejected update is rolled back")

	require.NoError(t, storage.ReplaceSchedule(ctx, planID, []models.PredefinedInstallment{
		{InstallmentNumber: 1, DueDate: day(2025, 9, 1), Amount: decimal.NewFromInt(600)},
	}))
	items, err := storage.ListSchedule(ctx, planID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Amount.Equal(decimal.NewFromInt(600)))

	_, err = storage.ReadFeePlan(ctx, planID+1000)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	err = storage.UpdateFeePlan(ctx, models.FeePlan{ID: planID + 1000, TeamID: teamID, Name: "x",
		InstallmentsCount: 1}, nil)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = storage.CreateFeePlan(ctx, models.FeePlan{TeamID: teamID + 1000, Name: "x", InstallmentsCount: 1}, nil)
	assert.True(t, errors.Is(err, models.ErrNotFound), "unknown team")
}

func TestDeleteFeePlan(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(storage)

	teamID := f.CreateTeam(t, "U16")
	athleteID := f.CreateAthlete(t, teamID, "Marco", "Bianchi", "marco@example.com")

	t.Run("refused when an installment is paid", func(t *testing.T) {
		planID, schedule := f.CreatePlan(t, teamID)
		_, err := storage.InsertInstallments(ctx, f.Installments(planID, athleteID, schedule))
		require.NoError(t, err)
		ids := f.InstallmentIDs(t, planID)
		_, err = storage.MarkInstallmentPaid(ctx, ids[0], day(2025, 9, 2), "cash")
		require.NoError(t, err)

		err = storage.DeleteFeePlan(ctx, planID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrConflict))

		_, err = storage.ReadFeePlan(ctx, planID)
		require.NoError(t, err, "plan must survive a refused delete")
		assert.Len(t, f.InstallmentIDs(t, planID), 2)
	})

	t.Run("refused when an installment is partially paid", func(t *testing.T) {
		planID, schedule := f.CreatePlan(t, teamID)
		_, err := storage.InsertInstallments(ctx, f.Installments(planID, athleteID, schedule))
		require.NoError(t, err)
		ids := f.InstallmentIDs(t, planID)
		require.NoError(t, storage.SetInstallmentStatus(ctx, ids[1], models.StatusPartiallyPaid, nil, "half received"))

		err = storage.DeleteFeePlan(ctx, planID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrConflict))
		assert.Len(t, f.InstallmentIDs(t, planID), 2)
	})

	t.Run("cascades unpaid installments and schedule", func(t *testing.T) {
		planID, schedule := f.CreatePlan(t, teamID)
		_, err := storage.InsertInstallments(ctx, f.Installments(planID, athleteID, schedule))
		require.NoError(t, err)

		require.NoError(t, storage.DeleteFeePlan(ctx, planID))

		_, err = storage.ReadFeePlan(ctx, planID)
		assert.True(t, errors.Is(err, models.ErrNotFound))
		assert.Empty(t, f.InstallmentIDs(t, planID))
		items, err := storage.ListSchedule(ctx, planID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("unknown plan", func(t *testing.T) {
		err := storage.DeleteFeePlan(ctx, 999999)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestInsertInstallments_Idempotent(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(storage)

	teamID := f.CreateTeam(t, "U12")
	athleteID := f.CreateAthlete(t, teamID, "Giulia", "Verdi", "giulia@example.com")
	planID, schedule := f.CreatePlan(t, teamID)
	rows := f.Installments(planID, athleteID, schedule)

	created, err := storage.InsertInstallments(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	ids := f.InstallmentIDs(t, planID)
	_, err = storage.MarkInstallmentPaid(ctx, ids[0], day(2025, 9, 3), "card")
	require.NoError(t, err)

	created, err = storage.InsertInstallments(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 0, created, "second run creates nothing")
	assert.Equal(t, ids, f.InstallmentIDs(t, planID))

	first, err := storage.ReadInstallment(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, first.Status, "regeneration never touches paid rows")
	require.NotNil(t, first.PaidAt)
	assert.Equal(t, "card", first.PaymentMethod)

	_, err = storage.InsertInstallments(ctx, f.Installments(planID, athleteID+1000, schedule))
	assert.True(t, errors.Is(err, models.ErrNotFound), "unknown athlete")
}

func TestRecalculationWrites(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(storage)

	teamID := f.CreateTeam(t, "U18")
	a1 := f.CreateAthlete(t, teamID, "Anna", "Neri", "anna@example.com")
	a2 := f.CreateAthlete(t, teamID, "Paolo", "Gallo", "paolo@example.com")
	planID, schedule := f.CreatePlan(t, teamID)
	_, err := storage.InsertInstallments(ctx, f.Installments(planID, a1, schedule))
	require.NoError(t, err)
	_, err = storage.InsertInstallments(ctx, f.Installments(planID, a2, schedule))
	require.NoError(t, err)
	ids := f.InstallmentIDs(t, planID)
	require.Len(t, ids, 4)

	_, err = storage.MarkInstallmentPaid(ctx, ids[0], day(2025, 9, 1), "cash")
	require.NoError(t, err)
	require.NoError(t, storage.SetInstallmentStatus(ctx, ids[1], models.StatusPartiallyPaid, nil, "half paid"))

	scope := models.RecalcScope{FeePlanID: &planID}
	page, err := storage.ListRecalcCandidates(ctx, scope, 0, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[2], page[0].ID, "paid and overridden rows are not candidates")

	page, err = storage.ListRecalcCandidates(ctx, scope, page[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[3], page[0].ID)

	otherTeam := teamID + 1000
	empty, err := storage.ListRecalcCandidates(ctx, models.RecalcScope{TeamID: &otherTeam}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	// ids[3] оплачивается между чтением и записью пересчёта.
	_, err = storage.MarkInstallmentPaid(ctx, ids[3], day(2025, 10, 1), "transfer")
	require.NoError(t, err)

	applied, err := storage.ApplyStatusChanges(ctx, []models.StatusChange{
		{ID: ids[0], Status: models.StatusOverdue},
		{ID: ids[1], Status: models.StatusOverdue},
		{ID: ids[2], Status: models.StatusOverdue},
		{ID: ids[3], Status: models.StatusOverdue},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2]}, applied)

	paid, err := storage.ReadInstallment(ctx, ids[3])
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, paid.Status)
	override, err := storage.ReadInstallment(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.StatusPartiallyPaid, override.Status)
	assert.True(t, override.ManualOverride)

	applied, err = storage.ApplyStatusChanges(ctx, []models.StatusChange{{ID: ids[2], Status: models.StatusOverdue}})
	require.NoError(t, err)
	assert.Empty(t, applied, "same status is not rewritten")
}

func TestMarkInstallmentPaid(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(storage)

	teamID := f.CreateTeam(t, "U10")
	athleteID := f.CreateAthlete(t, teamID, "Sara", "Conti", "sara@example.com")
	planID, schedule := f.CreatePlan(t, teamID)
	_, err := storage.InsertInstallments(ctx, f.Installments(planID, athleteID, schedule))
	require.NoError(t, err)
	id := f.InstallmentIDs(t, planID)[0]

	paidAt := time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC)
	outcome, err := storage.MarkInstallmentPaid(ctx, id, paidAt, "cash")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, outcome)

	outcome, err = storage.MarkInstallmentPaid(ctx, id, paidAt.AddDate(0, 0, 1), "card")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyPaid, outcome)

	fi, err := storage.ReadInstallment(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, fi.PaidAt)
	assert.True(t, fi.PaidAt.Equal(paidAt), "second call keeps the first payment")
	assert.Equal(t, "cash", fi.PaymentMethod)

	outcome, err = storage.MarkInstallmentPaid(ctx, 999999, paidAt, "cash")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNotFound, outcome)
}

func TestManualOverride(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(storage)

	teamID := f.CreateTeam(t, "Senior")
	athleteID := f.CreateAthlete(t, teamID, "Luca", "Ferri", "luca@example.com")
	planID, schedule := f.CreatePlan(t, teamID)
	_, err := storage.InsertInstallments(ctx, f.Installments(planID, athleteID, schedule))
	require.NoError(t, err)
	ids := f.InstallmentIDs(t, planID)

	paidAt := day(2025, 9, 10)
	require.NoError(t, storage.SetInstallmentStatus(ctx, ids[0], models.StatusPaid, &paidAt, "paid at desk"))
	fi, err := storage.ReadInstallment(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, fi.Status)
	assert.True(t, fi.ManualOverride)
	assert.Equal(t, "paid at desk", fi.Notes)

	require.NoError(t, storage.ClearOverride(ctx, ids[0], models.StatusOverdue))
	fi, err = storage.ReadInstallment(ctx, ids[0])
	require.NoError(t, err)
	assert.False(t, fi.ManualOverride)
	assert.Equal(t, models.StatusPaid, fi.Status, "paid rows stay paid after clearing")

	require.NoError(t, storage.SetInstallmentStatus(ctx, ids[1], models.StatusOverdue, nil, ""))
	require.NoError(t, storage.ClearOverride(ctx, ids[1], models.StatusNotDue))
	fi, err = storage.ReadInstallment(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotDue, fi.Status)

	err = storage.SetInstallmentStatus(ctx, ids[1], models.StatusPaid, nil, "")
	assert.True(t, errors.Is(err, models.ErrValidation), "paid requires paid_at")

	assert.True(t, errors.Is(storage.SetInstallmentStatus(ctx, 999999, models.StatusOverdue, nil, ""), models.ErrNotFound))
	assert.True(t, errors.Is(storage.ClearOverride(ctx, 999999, models.StatusOverdue), models.ErrNotFound))
}

func TestListAndBreakdownAgree(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(storage)

	t1 := f.CreateTeam(t, "U14")
	t2 := f.CreateTeam(t, "U16")
	a1 := f.CreateAthlete(t, t1, "Mario", "Rossi", "mario@example.com")
	a2 := f.CreateAthlete(t, t1, "Elena", "Russo", "elena@example.com")
	a3 := f.CreateAthlete(t, t2, "Mario", "Esposito", "m.esposito@example.com")
	p1, s1 := f.CreatePlan(t, t1)
	p2, s2 := f.CreatePlan(t, t2)
	for _, a := range []int64{a1, a2} {
		_, err := storage.InsertInstallments(ctx, f.Installments(p1, a, s1))
		require.NoError(t, err)
	}
	_, err := storage.InsertInstallments(ctx, f.Installments(p2, a3, s2))
	require.NoError(t, err)
	_, err = storage.MarkInstallmentPaid(ctx, f.InstallmentIDs(t, p1)[0], day(2025, 9, 1), "cash")
	require.NoError(t, err)

	filters := []models.InstallmentFilter{
		{},
		{TeamIDs: []int64{t1}},
		{Search: "mario"},
		{Search: "rossi mario"},
		{Statuses: []models.InstallmentStatus{models.StatusPaid}},
		{FeePlanIDs: []int64{p2}, DueTo: ptr(day(2025, 12, 31))},
	}
	for _, filter := range filters {
		rows, err := storage.ListInstallments(ctx, filter, 100, 0)
		require.NoError(t, err)
		total, err := storage.CountInstallments(ctx, filter)
		require.NoError(t, err)
		breakdown, err := storage.StatusBreakdown(ctx, filter)
		require.NoError(t, err)

		count := 0
		amount := decimal.Zero
		for _, b := range breakdown {
			count += b.Count
			amount = amount.Add(b.Amount)
		}
		listed := decimal.Zero
		for _, r := range rows {
			listed = listed.Add(r.Amount)
		}
		assert.Equal(t, len(rows), total, "filter %+v", filter)
		assert.Equal(t, total, count, "filter %+v", filter)
		assert.True(t, listed.Equal(amount), "filter %+v: %s != %s", filter, listed, amount)
	}

	rows, err := storage.ListInstallments(ctx, models.InstallmentFilter{Search: "mario"}, 100, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rows, err = storage.ListInstallments(ctx, models.InstallmentFilter{Search: "rossi mario"}, 100, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Mario Rossi", rows[0].AthleteName)
	assert.Equal(t, t1, rows[0].TeamID)

	page, err := storage.ListInstallments(ctx, models.InstallmentFilter{}, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	breakdown, err := storage.StatusBreakdown(ctx, models.InstallmentFilter{TeamIDs: []int64{t1}})
	require.NoError(t, err)
	for _, b := range breakdown {
		if b.Status == models.StatusPaid {
			assert.Equal(t, 1, b.Count)
			assert.True(t, b.Paid.Equal(decimal.NewFromInt(250)))
		} else {
			assert.True(t, b.Paid.IsZero())
		}
	}
}

func TestObligations(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(storage)
	teamID := f.CreateTeam(t, "U14")

	rent := models.GeneralObligation{
		Category:          models.CategoryGeneralCost,
		Description:       "Gym rent",
		Amount:            decimal.NewFromInt(800),
		Frequency:         models.FrequencyRecurring,
		RecurrencePattern: "monthly",
		Status:            models.ObligationToPay,
		TeamID:            &teamID,
	}
	var items []models.GeneralObligation
	for i := 0; i < 3; i++ {
		o := rent
		o.DueDate = day(2025, time.Month(9+i), 1)
		items = append(items, o)
	}
	ids, err := storage.CreateObligations(ctx, items)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	got, err := storage.ReadObligation(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "Gym rent", got.Description)
	assert.True(t, got.DueDate.Equal(day(2025, 10, 1)))
	require.NotNil(t, got.TeamID)
	assert.Equal(t, teamID, *got.TeamID)

	paidAt := day(2025, 9, 2)
	outcome, err := storage.SetObligationStatus(ctx, ids[0], models.ObligationPaid, &paidAt)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, outcome)

	outcome, err = storage.SetObligationStatus(ctx, ids[0], models.ObligationPaid, &paidAt)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyPaid, outcome)

	outcome, err = storage.SetObligationStatus(ctx, ids[1], models.ObligationToPay, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyInState, outcome)

	outcome, err = storage.SetObligationStatus(ctx, 999999, models.ObligationPaid, &paidAt)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNotFound, outcome)

	outcome, err = storage.SetObligationStatus(ctx, ids[0], models.ObligationToPay, &paidAt)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, outcome)
	reverted, err := storage.ReadObligation(ctx, ids[0])
	require.NoError(t, err)
	assert.Nil(t, reverted.PaidAt, "reverting clears paid_at")

	list, err := storage.ListObligations(ctx, models.ObligationFilter{
		Category: models.CategoryGeneralCost,
		DueFrom:  ptr(day(2025, 10, 1)),
	})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = storage.ListObligations(ctx, models.ObligationFilter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[2], list[0].ID)

	_, err = storage.ReadObligation(ctx, 999999)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func ptr[T any](v T) *T {
	return &v
}

func TestListOverdueReminders(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(storage)

	teamID := f.CreateTeam(t, "U12")
	withEmail := f.CreateAthlete(t, teamID, "Luca", "Ferri", "luca@example.com")
	noEmail := f.CreateAthlete(t, teamID, "Sara", "Conti", "")
	planID, schedule := f.CreatePlan(t, teamID)
	_, err := storage.InsertInstallments(ctx, f.Installments(planID, withEmail, schedule))
	require.NoError(t, err)
	_, err = storage.InsertInstallments(ctx, f.Installments(planID, noEmail, schedule))
	require.NoError(t, err)
	ids := f.InstallmentIDs(t, planID)
	require.Len(t, ids, 4)

	changes := make([]models.StatusChange, 0, len(ids))
	for _, id := range ids {
		changes = append(changes, models.StatusChange{ID: id, Status: models.StatusOverdue})
	}
	_, err = storage.ApplyStatusChanges(ctx, changes)
	require.NoError(t, err)
	_, err = storage.MarkInstallmentPaid(ctx, ids[1], day(2025, 10, 1), "cash")
	require.NoError(t, err)

	reminders, err := storage.ListOverdueReminders(ctx, ids)
	require.NoError(t, err)
	require.Len(t, reminders, 1, "paid rows and athletes without email are skipped")
	assert.Equal(t, ids[0], reminders[0].InstallmentID)
	assert.Equal(t, "Luca Ferri", reminders[0].AthleteName)
	assert.Equal(t, "luca@example.com", reminders[0].Email)
	assert.Equal(t, "Season 2025", reminders[0].PlanName)
	assert.True(t, reminders[0].Amount.Equal(decimal.NewFromInt(250)))
	assert.True(t, reminders[0].DueDate.Equal(day(2025, 9, 1)))

	empty, err := storage.ListOverdueReminders(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
