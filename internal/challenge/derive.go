package challenge

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parislaw/stepchase/internal/models"
)

// Day tiers drive the dashboard calendar colors. They are recomputed on
// every read and never persisted.
const (
	TierEmpty   = "empty"   // no submission yet
	TierPartial = "partial" // submitted, goal missed
	TierGoal    = "goal"    // submitted, goal met
)

// DayNumber maps a calendar date onto a challenge day slot (1-based).
// Values outside 1..30 mean the challenge has not started or is over.
func DayNumber(start, now time.Time) int {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(nowDay.Sub(startDay).Hours()/24) + 1
}

// TotalSteps sums all submitted days.
func TotalSteps(progress []models.DailyProgress) int {
	total := 0
	for _, p := range progress {
		if p.Steps != nil {
			total += *p.Steps
		}
	}
	return total
}

// GoalDays counts days where the goal was met.
func GoalDays(progress []models.DailyProgress) int {
	count := 0
	for _, p := range progress {
		if p.GoalMet {
			count++
		}
	}
	return count
}

// CurrentStreak counts consecutive goal-met days ending at the most
// recent submitted slot. An unsubmitted tail does not break the streak;
// a submitted day below goal does.
func CurrentStreak(progress []models.DailyProgress) int {
	last := -1
	for i := len(progress) - 1; i >= 0; i-- {
		if progress[i].Steps != nil {
			last = i
			break
		}
	}

	streak := 0
	for i := last; i >= 0; i-- {
		if progress[i].Steps == nil || !progress[i].GoalMet {
			break
		}
		streak++
	}
	return streak
}

// DayTier classifies one day slot for display.
func DayTier(p models.DailyProgress) string {
	switch {
	case p.Steps == nil:
		return TierEmpty
	case p.GoalMet:
		return TierGoal
	default:
		return TierPartial
	}
}

// Tiers classifies every slot in order.
func Tiers(progress []models.DailyProgress) []string {
	tiers := make([]string, len(progress))
	for i, p := range progress {
		tiers[i] = DayTier(p)
	}
	return tiers
}

// Initials returns the upper-cased first letters of both names, e.g.
// "Alice Johnson" -> "AJ".
func Initials(firstName, lastName string) string {
	var b strings.Builder
	for _, name := range []string{firstName, lastName} {
		if name == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(name)
		b.WriteString(strings.ToUpper(string(r)))
	}
	return b.String()
}

// Rank orders users by total steps descending and assigns 1-based
// ranks. Ties are broken by name so the ordering is stable across reads.
func Rank(users []models.User) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(users))
	for i := range users {
		u := &users[i]
		entries = append(entries, LeaderboardEntry{
			UserID:        u.ID,
			FirstName:     u.FirstName,
			LastName:      u.LastName,
			Initials:      Initials(u.FirstName, u.LastName),
			Avatar:        u.Avatar,
			TotalSteps:    TotalSteps(u.Progress),
			GoalDays:      GoalDays(u.Progress),
			CurrentStreak: CurrentStreak(u.Progress),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalSteps != entries[j].TotalSteps {
			return entries[i].TotalSteps > entries[j].TotalSteps
		}
		if entries[i].LastName != entries[j].LastName {
			return entries[i].LastName < entries[j].LastName
		}
		return entries[i].FirstName < entries[j].FirstName
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
