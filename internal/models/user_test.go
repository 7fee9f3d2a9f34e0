package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalMet(t *testing.T) {
	assert.False(t, GoalMet(0))
	assert.False(t, GoalMet(9999))
	assert.True(t, GoalMet(10000))
	assert.True(t, GoalMet(10001))
}

func TestNewChallengeProgress(t *testing.T) {
	start := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	progress := NewChallengeProgress(start)

	require.Len(t, progress, ChallengeDays)
	assert.Equal(t, 1, progress[0].Day)
	assert.Equal(t, "Aug 30, 2025", progress[0].Date)
	assert.Equal(t, 30, progress[29].Day)
	assert.Equal(t, "Sep 28, 2025", progress[29].Date)

	for _, p := range progress {
		assert.Nil(t, p.Steps, "day %d", p.Day)
		assert.False(t, p.GoalMet, "day %d", p.Day)
		assert.Empty(t, p.Image, "day %d", p.Day)
	}
}

func TestNewChallengeProgress_CrossesMonthBoundary(t *testing.T) {
	start := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	progress := NewChallengeProgress(start)

	assert.Equal(t, "Dec 20, 2025", progress[0].Date)
	assert.Equal(t, "Jan 1, 2026", progress[12].Date)
	assert.Equal(t, "Jan 18, 2026", progress[29].Date)
}
