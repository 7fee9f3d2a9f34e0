package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parislaw/stepchase/internal/models"
	"github.com/parislaw/stepchase/internal/store"
	"github.com/parislaw/stepchase/internal/verify"
	"golang.org/x/sync/errgroup"
)

// Rejection thresholds. Both comparisons are strict: a verdict exactly
// at the threshold passes.
const (
	manipulationConfidenceThreshold = 0.7
	fraudProbabilityThreshold       = 0.6
)

const (
	errManipulationDetected = "manipulation detected"
	errHighFraudProbability = "high fraud probability"
	errVerification         = "verification error"
)

var (
	ErrUserNotFound = store.ErrUserNotFound
	ErrDayNotFound  = errors.New("day not found")
	ErrInvalidSteps = errors.New("steps must be a non-negative integer")
)

// Store is the slice of the record store the challenge needs.
type Store interface {
	GetAllUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	WriteProgress(ctx context.Context, userID string, progress []models.DailyProgress) error
}

type Service struct {
	store    Store
	verifier verify.Verifier
	start    time.Time
	now      func() time.Time
}

func NewService(st Store, v verify.Verifier, start time.Time) *Service {
	return &Service{store: st, verifier: v, start: start, now: time.Now}
}

// CurrentDay resolves "today" against the challenge start date. The
// result may fall outside 1..30 when the challenge is not running.
func (s *Service) CurrentDay() int {
	return DayNumber(s.start, s.now())
}

// Submit runs the verification pipeline for one image against the given
// day slot. Both AI checks run concurrently; a failure on either fails
// the whole submission. At most one write happens, and only on the
// acceptance path.
func (s *Service) Submit(ctx context.Context, userID string, day int, photoDataURI string) (*SubmissionResult, error) {
	if err := verify.ValidatePhotoDataURI(photoDataURI); err != nil {
		return nil, err
	}
	if day < 1 || day > models.ChallengeDays {
		return nil, ErrDayNotFound
	}

	var (
		verification *verify.StepVerification
		manipulation *verify.ManipulationReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		verification, err = s.verifier.VerifyStepCount(gctx, photoDataURI)
		return err
	})
	g.Go(func() error {
		var err error
		manipulation, err = s.verifier.DetectManipulation(gctx, photoDataURI)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("step verification failed", "user_id", userID, "day", day, "error", err)
		return &SubmissionResult{Error: errVerification}, nil
	}

	result := &SubmissionResult{
		Verification: verification,
		Manipulation: manipulation,
	}

	if manipulation.IsManipulated && manipulation.Confidence > manipulationConfidenceThreshold {
		result.Error = errManipulationDetected
		return result, nil
	}
	if verification.FraudProbability > fraudProbabilityThreshold {
		result.Error = errHighFraudProbability
		return result, nil
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := slotIndex(user.Progress, day)
	if idx < 0 {
		return nil, ErrDayNotFound
	}

	steps := verification.StepCount
	user.Progress[idx].Steps = &steps
	user.Progress[idx].GoalMet = models.GoalMet(steps)
	user.Progress[idx].Image = photoDataURI

	if err := s.store.WriteProgress(ctx, userID, user.Progress); err != nil {
		return nil, fmt.Errorf("failed to record progress: %w", err)
	}

	slog.Info("step submission accepted",
		"user_id", userID, "day", day,
		"steps", steps, "goal_met", models.GoalMet(steps))
	return result, nil
}

// OverrideSteps replaces one day's count and recomputes its goal flag.
// Date and image stay untouched. The write is all-or-nothing.
func (s *Service) OverrideSteps(ctx context.Context, userID string, day, steps int) error {
	if steps < 0 {
		return ErrInvalidSteps
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	idx := slotIndex(user.Progress, day)
	if idx < 0 {
		return ErrDayNotFound
	}

	user.Progress[idx].Steps = &steps
	user.Progress[idx].GoalMet = models.GoalMet(steps)

	if err := s.store.WriteProgress(ctx, userID, user.Progress); err != nil {
		return fmt.Errorf("failed to write override: %w", err)
	}

	slog.Info("admin step override applied", "user_id", userID, "day", day, "steps", steps)
	return nil
}

// Dashboard assembles the current user's view: the raw 30 slots plus
// the derived aggregates, all recomputed on read.
func (s *Service) Dashboard(ctx context.Context, userID string) (*DashboardResponse, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := s.CurrentDay()
	resp := &DashboardResponse{
		User:          userSummary(user),
		Day:           day,
		Progress:      user.Progress,
		Tiers:         Tiers(user.Progress),
		TotalSteps:    TotalSteps(user.Progress),
		CurrentStreak: CurrentStreak(user.Progress),
		GoalDays:      GoalDays(user.Progress),
	}

	if idx := slotIndex(user.Progress, day); idx >= 0 {
		today := user.Progress[idx]
		resp.Today = &today
	}
	return resp, nil
}

// Leaderboard ranks every participant by total steps descending.
func (s *Service) Leaderboard(ctx context.Context) (*LeaderboardResponse, error) {
	users, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	return &LeaderboardResponse{
		Day:     s.CurrentDay(),
		Entries: Rank(users),
	}, nil
}

// ListUsers returns the admin roster with per-user totals.
func (s *Service) ListUsers(ctx context.Context) ([]AdminUserRow, error) {
	users, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]AdminUserRow, 0, len(users))
	for i := range users {
		u := &users[i]
		logged := 0
		for _, p := range u.Progress {
			if p.Steps != nil {
				logged++
			}
		}
		rows = append(rows, AdminUserRow{
			ID:         u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Initials:   Initials(u.FirstName, u.LastName),
			Email:      u.Email,
			TotalSteps: TotalSteps(u.Progress),
			DaysLogged: logged,
			IsAdmin:    u.IsAdmin,
		})
	}
	return rows, nil
}

func slotIndex(progress []models.DailyProgress, day int) int {
	for i, p := range progress {
		if p.Day == day {
			return i
		}
	}
	return -1
}
