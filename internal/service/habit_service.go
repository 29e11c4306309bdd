package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/habit-tracker/internal/metrics"
	"github.com/habit-tracker/internal/models"
	"github.com/habit-tracker/internal/repository"
)

// streakLookback is how many days of checks the dashboard loads up front.
// Habits whose streak reaches that far back are reloaded in full.
const streakLookback = 60

// HabitService handles habit mutations and the dashboard. Every call takes
// the acting user's id explicitly.
type HabitService struct {
	habitRepo *repository.HabitRepository
	checkRepo *repository.CheckRepository
	loc       *time.Location
	now       func() time.Time
}

// NewHabitService creates a new HabitService counting days in loc
func NewHabitService(
	habitRepo *repository.HabitRepository,
	checkRepo *repository.CheckRepository,
	loc *time.Location,
) *HabitService {
	if loc == nil {
		loc = time.Local
	}
	return &HabitService{
		habitRepo: habitRepo,
		checkRepo: checkRepo,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *HabitService) today() time.Time {
	return s.now().In(s.loc)
}

// CreateHabit creates a habit owned by userID. A blank name is ignored and
// yields a nil habit without error.
func (s *HabitService) CreateHabit(ctx context.Context, userID uint, name, goal string) (*models.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	habit := &models.Habit{
		UserID: userID,
		Name:   name,
		Goal:   strings.TrimSpace(goal),
	}
	if err := s.habitRepo.Create(ctx, habit); err != nil {
		return nil, err
	}

	metrics.RecordHabitEvent(metrics.EventCreated)
	return habit, nil
}

// DeleteHabit deletes a habit of userID together with all of its checks
func (s *HabitService) DeleteHabit(ctx context.Context, userID, habitID uint) error {
	if _, err := ownedHabit(ctx, s.habitRepo, userID, habitID); err != nil {
		return err
	}

	if err := s.habitRepo.DeleteWithChecks(ctx, habitID); err != nil {
		if errors.Is(err, repository.ErrHabitNotFound) {
			return ErrHabitNotFound
		}
		return err
	}

	metrics.RecordHabitEvent(metrics.EventDeleted)
	return nil
}

// MarkDone records today's check for a habit of userID. It reports
// alreadyMarked when today was checked before; no second row is written.
func (s *HabitService) MarkDone(ctx context.Context, userID, habitID uint) (alreadyMarked bool, err error) {
	if _, err := ownedHabit(ctx, s.habitRepo, userID, habitID); err != nil {
		return false, err
	}

	today := models.DateKey(s.today())
	exists, err := s.checkRepo.Exists(ctx, habitID, today)
	if err != nil {
		return false, err
	}
	if exists {
		metrics.RecordHabitEvent(metrics.EventAlreadyMarked)
		return true, nil
	}

	err = s.checkRepo.Create(ctx, &models.HabitCheck{HabitID: habitID, Date: today})
	if errors.Is(err, repository.ErrDuplicateCheck) {
		// a concurrent request won the insert
		metrics.RecordHabitEvent(metrics.EventAlreadyMarked)
		return true, nil
	}
	if err != nil {
		return false, err
	}

	metrics.RecordHabitEvent(metrics.EventMarked)
	return false, nil
}

// Dashboard computes today's state, streak and achievement of every habit
// of userID, plus the motivational quote.
func (s *HabitService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	habits, err := s.habitRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	today := s.today()
	todayKey := models.DateKey(today)
	since := models.DateKey(today.AddDate(0, 0, 1-streakLookback))
	checks, err := s.checkRepo.DatesByHabitIDs(ctx, ids, since)
	if err != nil {
		return nil, err
	}

	statuses := make([]HabitStatus, len(habits))
	for i, h := range habits {
		checked := checks[h.ID]
		streak := Streak(checked, today)
		if streak >= streakLookback {
			if checked, err = s.checkRepo.DatesBetween(ctx, h.ID, "", todayKey); err != nil {
				return nil, err
			}
			streak = Streak(checked, today)
		}
		statuses[i] = HabitStatus{
			Habit:       h,
			DoneToday:   checked[todayKey],
			Streak:      streak,
			Achievement: Achievement(streak),
		}
	}

	return &Dashboard{
		Today:  todayKey,
		Habits: statuses,
		Quote:  Quote(userID, len(habits)),
	}, nil
}

// ownedHabit loads a habit and verifies that userID owns it
func ownedHabit(ctx context.Context, repo *repository.HabitRepository, userID, habitID uint) (*models.Habit, error) {
	habit, err := repo.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, repository.ErrHabitNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, err
	}
	if !habit.OwnedBy(userID) {
		return nil, ErrNotHabitOwner
	}
	return habit, nil
}
