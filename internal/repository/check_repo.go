package repository

import (
	"context"
	"errors"

	"github.com/habit-tracker/internal/models"
	"gorm.io/gorm"
)

var (
	ErrDuplicateCheck = errors.New("habit already checked on this date")
)

// CheckRepository handles habit check data access
type CheckRepository struct {
	db *gorm.DB
}

// NewCheckRepository creates a new CheckRepository
func NewCheckRepository(db *gorm.DB) *CheckRepository {
	return &CheckRepository{db: db}
}

// Create inserts a check. A second check for the same habit and date
// returns ErrDuplicateCheck.
func (r *CheckRepository) Create(ctx context.Context, check *models.HabitCheck) error {
	err := r.db.WithContext(ctx).Create(check).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCheck
	}
	return err
}

// Exists checks whether a habit has a check on the given date
func (r *CheckRepository) Exists(ctx context.Context, habitID uint, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.HabitCheck{}).
		Where("habit_id = ? AND date = ?", habitID, date).
		Count(&count).Error
	return count > 0, err
}

// DatesBetween returns the set of checked dates of a habit within [from, to]
func (r *CheckRepository) DatesBetween(ctx context.Context, habitID uint, from, to string) (map[string]bool, error) {
	var dates []string
	err := r.db.WithContext(ctx).Model(&models.HabitCheck{}).
		Where("habit_id = ? AND date >= ? AND date <= ?", habitID, from, to).
		Pluck("date", &dates).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set, nil
}

// DatesByHabitIDs returns the checked dates on or after since of each given
// habit. An empty since loads the whole history.
func (r *CheckRepository) DatesByHabitIDs(ctx context.Context, habitIDs []uint, since string) (map[uint]map[string]bool, error) {
	result := make(map[uint]map[string]bool, len(habitIDs))
	if len(habitIDs) == 0 {
		return result, nil
	}

	query := r.db.WithContext(ctx).Select("habit_id", "date").Where("habit_id IN ?", habitIDs)
	if since != "" {
		query = query.Where("date >= ?", since)
	}
	var checks []models.HabitCheck
	err := query.Find(&checks).Error
	if err != nil {
		return nil, err
	}

	for _, c := range checks {
		if result[c.HabitID] == nil {
			result[c.HabitID] = make(map[string]bool)
		}
		result[c.HabitID][c.Date] = true
	}
	return result, nil
}


// DeleteOrphans removes checks whose habit no longer exists
func (r *CheckRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("habit_id NOT IN (?)", r.db.Model(&models.Habit{}).Select("id")).
		Delete(&models.HabitCheck{})
	return result.RowsAffected, result.Error
}
