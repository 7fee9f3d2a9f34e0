package challenge

import (
	"testing"
	"time"

	"github.com/parislaw/stepchase/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDayNumber(t *testing.T) {
	start := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"start day is day one", start, 1},
		{"late on the start day", time.Date(2025, 8, 30, 23, 59, 0, 0, time.UTC), 1},
		{"next calendar day", start.AddDate(0, 0, 1), 2},
		{"final day", start.AddDate(0, 0, 29), 30},
		{"after the challenge", start.AddDate(0, 0, 30), 31},
		{"before the challenge", start.AddDate(0, 0, -1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayNumber(start, tt.now))
		})
	}
}

func progressWith(steps ...int) []models.DailyProgress {
	progress := models.NewChallengeProgress(time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC))
	for i, s := range steps {
		if s < 0 {
			continue // negative marks an unsubmitted slot
		}
		v := s
		progress[i].Steps = &v
		progress[i].GoalMet = models.GoalMet(v)
	}
	return progress
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name  string
		steps []int
		want  int
	}{
		{"no submissions", nil, 0},
		{"single goal day", []int{12000}, 1},
		{"single missed day", []int{4000}, 0},
		{"streak of three", []int{12000, 11000, 10000}, 3},
		{"missed day breaks streak", []int{12000, 4000, 11000, 12000}, 2},
		{"unsubmitted tail keeps streak", []int{12000, 11000, -1, -1}, 2},
		{"gap in the middle does not bridge", []int{12000, -1, 11000}, 1},
		{"ends on a miss", []int{12000, 12000, 4000}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentStreak(progressWith(tt.steps...)))
		})
	}
}

func TestTotalsAndTiers(t *testing.T) {
	progress := progressWith(12000, 4000, -1, 10000)

	assert.Equal(t, 26000, TotalSteps(progress))
	assert.Equal(t, 2, GoalDays(progress))

	tiers := Tiers(progress)
	assert.Equal(t, TierGoal, tiers[0])
	assert.Equal(t, TierPartial, tiers[1])
	assert.Equal(t, TierEmpty, tiers[2])
	assert.Equal(t, TierGoal, tiers[3])
	for _, tier := range tiers[4:] {
		assert.Equal(t, TierEmpty, tier)
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Alice", "Johnson", "AJ"},
		{"bob", "williams", "BW"},
		{"Émile", "Zola", "ÉZ"},
		{"", "Jones", "J"},
		{"Grace", "", "G"},
		{"", "", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Initials(tt.first, tt.last), "%s %s", tt.first, tt.last)
	}
}

func TestRank(t *testing.T) {
	user := func(id, first, last string, steps int) models.User {
		u := models.User{ID: id, FirstName: first, LastName: last}
		u.Progress = progressWith(steps)
		return u
	}

	entries := Rank([]models.User{
		user("1", "Alice", "Johnson", 8000),
		user("2", "Bob", "Williams", 20000),
		user("3", "Carol", "Brown", 8000),
		user("4", "Dave", "Brown", 8000),
	})

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
		assert.Equal(t, i+1, e.Rank)
	}

	// highest total first, then last name, then first name
	assert.Equal(t, []string{"2", "3", "4", "1"}, ids)
	assert.Equal(t, "BW", entries[0].Initials)
	assert.Equal(t, 20000, entries[0].TotalSteps)
	assert.Equal(t, 1, entries[0].GoalDays)
}
