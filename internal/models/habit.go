package models

import (
	"time"
)

// Habit is a recurring activity tracked for daily completion
type Habit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Goal      string    `gorm:"size:200" json:"goal,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User   User         `gorm:"foreignKey:UserID" json:"-"`
	Checks []HabitCheck `gorm:"foreignKey:HabitID" json:"checks,omitempty"`
}

// TableName specifies the table name for Habit model
func (Habit) TableName() string {
	return "habits"
}

// OwnedBy reports whether the habit belongs to the given user
func (h *Habit) OwnedBy(userID uint) bool {
	return h.UserID == userID
}
