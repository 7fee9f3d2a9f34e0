package models

import (
	"time"

	"gorm.io/gorm"
)

// ChallengeDays is the fixed length of a challenge.
const ChallengeDays = 30

// GoalSteps is the daily step goal. Inclusive: exactly 10000 meets the goal.
const GoalSteps = 10000

// DailyProgress is one fixed day slot in a user's 30-day challenge.
// Steps is nil until a submission lands. GoalMet is always derived from
// Steps via GoalMet() and never set independently.
type DailyProgress struct {
	Day     int    `json:"day"`
	Date    string `json:"date"`
	Steps   *int   `json:"steps"`
	GoalMet bool   `json:"goalMet"`
	Image   string `json:"image,omitempty"`
}

// GoalMet reports whether a step count meets the daily goal.
func GoalMet(steps int) bool {
	return steps >= GoalSteps
}

// User is one challenge participant. The row doubles as the user's
// document: the full 30-slot progress list lives in a single JSONB
// column and is always replaced wholesale, so the row is the only
// serialization point for concurrent writes.
type User struct {
	ID        string          `gorm:"primaryKey;size:64" json:"id"`
	Email     string          `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password  string          `gorm:"not null" json:"-"`
	FirstName string          `gorm:"size:100;not null" json:"firstName"`
	LastName  string          `gorm:"size:100;not null" json:"lastName"`
	Avatar    string          `gorm:"type:text" json:"avatar"`
	IsAdmin   bool            `gorm:"default:false" json:"isAdmin"`
	Progress  []DailyProgress `gorm:"type:jsonb;serializer:json" json:"progress"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// NewChallengeProgress builds the 30 pre-initialized day slots starting
// at the challenge start date. Day numbers are stable identifiers and
// are never renumbered after creation.
func NewChallengeProgress(start time.Time) []DailyProgress {
	progress := make([]DailyProgress, ChallengeDays)
	for i := range progress {
		progress[i] = DailyProgress{
			Day:  i + 1,
			Date: start.AddDate(0, 0, i).Format("Jan 2, 2006"),
		}
	}
	return progress
}
