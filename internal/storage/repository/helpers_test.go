package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/club-billing/internal/migrations"
	"github.com/magabrotheeeer/club-billing/internal/models"
)

// setupTestStorage поднимает PostgreSQL в контейнере и применяет миграции проекта.
func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err, "failed to connect")

	path, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, path), "failed to apply migrations")
	require.NoError(t, CheckDatabaseReady(storage))

	cleanup := func() {
		_ = storage.DB.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory создаёт состав команд, которым биллинг только читает.
type TestDataFactory struct {
	storage *Storage
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

func (f *TestDataFactory) CreateTeam(t *testing.T, name string) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO teams (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *TestDataFactory) CreateAthlete(t *testing.T, teamID int64, first, last, email string) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO athletes (first_name, last_name, email)
		VALUES ($1, $2, $3) RETURNING id`, first, last, email).Scan(&id)
	require.NoError(t, err)
	_, err = f.storage.DB.Exec(`INSERT INTO team_athletes (team_id, athlete_id) VALUES ($1, $2)`, teamID, id)
	require.NoError(t, err)
	return id
}

// CreatePlan создаёт план 50×10 + 0 + 0 = 500 с графиком из двух рассрочек по 250.
func (f *TestDataFactory) CreatePlan(t *testing.T, teamID int64) (int64, []models.PredefinedInstallment) {
	plan := models.FeePlan{
		TeamID:            teamID,
		Name:              "Season 2025",
		EnrollmentFee:     decimal.Zero,
		InsuranceFee:      decimal.Zero,
		MonthlyFee:        decimal.NewFromInt(50),
		MonthsCount:       10,
		InstallmentsCount: 2,
		TotalAmount:       decimal.NewFromInt(500),
	}
	schedule := []models.PredefinedInstallment{
		{InstallmentNumber: 1, DueDate: day(2025, 9, 1), Amount: decimal.NewFromInt(250)},
		{InstallmentNumber: 2, DueDate: day(2026, 1, 1), Amount: decimal.NewFromInt(250)},
	}
	id, err := f.storage.CreateFeePlan(context.Background(), plan, schedule)
	require.NoError(t, err)
	return id, schedule
}

// Installments разворачивает график плана в строки рассрочек спортсмена.
func (f *TestDataFactory) Installments(planID, athleteID int64, schedule []models.PredefinedInstallment) []models.FeeInstallment {
	rows := make([]models.FeeInstallment, 0, len(schedule))
	for _, it := range schedule {
		rows = append(rows, models.FeeInstallment{
			FeePlanID:         planID,
			AthleteID:         athleteID,
			InstallmentNumber: it.InstallmentNumber,
			DueDate:           it.DueDate,
			Amount:            it.Amount,
			Status:            models.StatusNotDue,
		})
	}
	return rows
}

func (f *TestDataFactory) InstallmentIDs(t *testing.T, planID int64) []int64 {
	rows, err := f.storage.DB.Query(`SELECT id FROM fee_installments WHERE fee_plan_id = $1 ORDER BY id`, planID)
	require.NoError(t, err)
	defer func() {
		_ = rows.Close()
	}()
	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
