package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/habit-tracker/internal/config"
	"github.com/habit-tracker/internal/models"
	"github.com/habit-tracker/internal/repository"
	"github.com/habit-tracker/internal/session"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixedNow is the clock used by service tests
var fixedNow = time.Date(2026, 10, 17, 15, 4, 5, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	users    *repository.UserRepository
	habits   *repository.HabitRepository
	checks   *repository.CheckRepository
	auth     *AuthService
	habitSvc *HabitService
	progress *ProgressService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.Open(config.DatabaseConfig{
		Driver: "sqlite",
		URL:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, logger.Discard)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		db:     db,
		users:  repository.NewUserRepository(db),
		habits: repository.NewHabitRepository(db),
		checks: repository.NewCheckRepository(db),
	}
	f.auth = NewAuthService(f.users, session.NewManager(session.NewMemoryStore(), "secret", time.Hour))
	f.habitSvc = NewHabitService(f.habits, f.checks, time.UTC)
	f.habitSvc.now = func() time.Time { return fixedNow }
	f.progress = NewProgressService(f.habits, f.checks, time.UTC)
	f.progress.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), name, "pw-"+name)
	require.NoError(t, err)
	return u
}

func (f *fixture) habit(t *testing.T, userID uint, name string) *models.Habit {
	t.Helper()
	h, err := f.habitSvc.CreateHabit(context.Background(), userID, name, "")
	require.NoError(t, err)
	require.NotNil(t, h)
	return h
}

// checkDates returns the checked dates of a habit, oldest first
func (f *fixture) checkDates(t *testing.T, habitID uint) []string {
	t.Helper()
	var dates []string
	require.NoError(t, f.db.Model(&models.HabitCheck{}).Where("habit_id = ?", habitID).Order("date").Pluck("date", &dates).Error)
	return dates
}

// checkDaysAgo inserts checks for the given offsets from fixedNow
func (f *fixture) checkDaysAgo(t *testing.T, habitID uint, offsets ...int) {
	t.Helper()
	for _, off := range offsets {
		date := models.DateKey(fixedNow.AddDate(0, 0, -off))
		require.NoError(t, f.checks.Create(context.Background(), &models.HabitCheck{HabitID: habitID, Date: date}))
	}
}
