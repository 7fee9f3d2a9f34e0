package challenge

import (
	"github.com/parislaw/stepchase/internal/models"
	"github.com/parislaw/stepchase/internal/verify"
)

// --- DTOs ---

type SubmitRequest struct {
	PhotoDataURI string `json:"photoDataUri"`
}

// SubmissionResult carries the raw verification payloads on every path.
// Error is empty on acceptance; rejections keep whatever payloads exist
// so the client can show why the submission was refused.
type SubmissionResult struct {
	Error        string                     `json:"error,omitempty"`
	Verification *verify.StepVerification   `json:"verification,omitempty"`
	Manipulation *verify.ManipulationReport `json:"manipulation,omitempty"`
}

// Accepted reports whether the submission passed all checks and was written.
func (r *SubmissionResult) Accepted() bool {
	return r.Error == ""
}

type OverrideRequest struct {
	UserID string `json:"userId"`
	Day    int    `json:"day"`
	Steps  int    `json:"steps"`
}

type OverrideResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DashboardResponse struct {
	User          UserSummary            `json:"user"`
	Day           int                    `json:"day"`
	Today         *models.DailyProgress  `json:"today,omitempty"`
	Progress      []models.DailyProgress `json:"progress"`
	Tiers         []string               `json:"tiers"`
	TotalSteps    int                    `json:"totalSteps"`
	CurrentStreak int                    `json:"currentStreak"`
	GoalDays      int                    `json:"goalDays"`
}

type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Initials  string `json:"initials"`
	Avatar    string `json:"avatar"`
	IsAdmin   bool   `json:"isAdmin"`
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Initials      string `json:"initials"`
	Avatar        string `json:"avatar"`
	TotalSteps    int    `json:"totalSteps"`
	GoalDays      int    `json:"goalDays"`
	CurrentStreak int    `json:"currentStreak"`
}

type LeaderboardResponse struct {
	Day     int                `json:"day"`
	Entries []LeaderboardEntry `json:"entries"`
}

type AdminUserRow struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Initials   string `json:"initials"`
	Email      string `json:"email"`
	TotalSteps int    `json:"totalSteps"`
	DaysLogged int    `json:"daysLogged"`
	IsAdmin    bool   `json:"isAdmin"`
}

func userSummary(u *models.User) UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Initials:  Initials(u.FirstName, u.LastName),
		Avatar:    u.Avatar,
		IsAdmin:   u.IsAdmin,
	}
}
