package service

import (
	"fmt"
	"time"

	"github.com/habit-tracker/internal/models"
)

// quotes is the fixed, ordered list the dashboard picks its message from
var quotes = [...]string{
	"Small steps every day.",
	"Consistency is the secret sauce.",
	"One more day. You're doing great!",
	"Every check counts — keep going!",
	"Streaks build champions.",
}

// achievementEvery is the streak length rewarded with an achievement message
const achievementEvery = 7

// HabitStatus is one habit as shown on the dashboard
type HabitStatus struct {
	Habit       models.Habit
	DoneToday   bool
	Streak      int
	Achievement string
}

// Dashboard is the computed dashboard of one user
type Dashboard struct {
	Today  string
	Habits []HabitStatus
	Quote  string
}

// Streak counts consecutive checked days walking backward from today. A
// missing check today yields zero.
func Streak(checked map[string]bool, today time.Time) int {
	streak := 0
	for d := today; checked[models.DateKey(d)]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// Achievement returns the message for streaks that are a positive multiple
// of seven days, or "".
func Achievement(streak int) string {
	if streak > 0 && streak%achievementEvery == 0 {
		return fmt.Sprintf("Great! %d-day streak!", streak)
	}
	return ""
}

// Quote selects the motivational message for a user with habitCount habits.
func Quote(userID uint, habitCount int) string {
	return quotes[(userID+uint(habitCount))%uint(len(quotes))]
}
