package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/habit-tracker/internal/metrics"
	"github.com/habit-tracker/internal/models"
	"github.com/habit-tracker/internal/progress"
	"github.com/habit-tracker/internal/repository"
)

// ProgressService renders the 30-day progress chart of a habit
type ProgressService struct {
	habitRepo *repository.HabitRepository
	checkRepo *repository.CheckRepository
	loc       *time.Location
	now       func() time.Time
}

// NewProgressService creates a new ProgressService counting days in loc
func NewProgressService(
	habitRepo *repository.HabitRepository,
	checkRepo *repository.CheckRepository,
	loc *time.Location,
) *ProgressService {
	if loc == nil {
		loc = time.Local
	}
	return &ProgressService{
		habitRepo: habitRepo,
		checkRepo: checkRepo,
		loc:       loc,
		now:       time.Now,
	}
}

// Progress loads the chart series for a habit of userID
func (s *ProgressService) Progress(ctx context.Context, userID, habitID uint) (*progress.Progress, error) {
	habit, err := ownedHabit(ctx, s.habitRepo, userID, habitID)
	if err != nil {
		return nil, err
	}

	today := s.now().In(s.loc)
	dates := progress.DateRange(today, progress.Days)
	checked, err := s.checkRepo.DatesBetween(ctx, habit.ID, dates[0], models.DateKey(today))
	if err != nil {
		return nil, err
	}

	p := progress.Build(habit.Name, today, checked)
	return &p, nil
}

// RenderProgress returns the PNG chart for a habit of userID
func (s *ProgressService) RenderProgress(ctx context.Context, userID, habitID uint) ([]byte, error) {
	p, err := s.Progress(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := progress.Render(*p, &buf); err != nil {
		return nil, fmt.Errorf("render progress chart: %w", err)
	}

	metrics.RecordChartRendered()
	return buf.Bytes(), nil
}
