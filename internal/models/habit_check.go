package models

import (
	"time"
)

// DateLayout is the storage format of HabitCheck.Date
const DateLayout = "2006-01-02"

// HabitCheck records that a habit was completed on a calendar date.
// At most one row exists per (habit_id, date).
type HabitCheck struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	HabitID   uint      `gorm:"not null;uniqueIndex:idx_habit_checks_habit_date" json:"habit_id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_habit_checks_habit_date" json:"date"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Habit Habit `gorm:"foreignKey:HabitID" json:"-"`
}

// TableName specifies the table name for HabitCheck model
func (HabitCheck) TableName() string {
	return "habit_checks"
}

// DateKey formats t as a calendar date in t's own location
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
