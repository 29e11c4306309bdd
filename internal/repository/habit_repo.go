package repository

import (
	"context"
	"errors"

	"github.com/habit-tracker/internal/models"
	"gorm.io/gorm"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
)

// HabitRepository handles habit data access
type HabitRepository struct {
	db *gorm.DB
}

// NewHabitRepository creates a new HabitRepository
func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

// Create creates a new habit
func (r *HabitRepository) Create(ctx context.Context, habit *models.Habit) error {
	return r.db.WithContext(ctx).Create(habit).Error
}

// GetByID retrieves a habit by ID
func (r *HabitRepository) GetByID(ctx context.Context, id uint) (*models.Habit, error) {
	var habit models.Habit
	result := r.db.WithContext(ctx).First(&habit, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, result.Error
	}
	return &habit, nil
}

// GetByUserID retrieves all habits of a user, oldest first
func (r *HabitRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Habit, error) {
	var habits []models.Habit
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&habits)
	if result.Error != nil {
		return nil, result.Error
	}
	return habits, nil
}

// DeleteWithChecks removes the habit's checks and then the habit itself in
// one transaction. The order satisfies the habit_checks foreign key.
func (r *HabitRepository) DeleteWithChecks(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", id).Delete(&models.HabitCheck{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Habit{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrHabitNotFound
		}
		return nil
	})
}
