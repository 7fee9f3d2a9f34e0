package store

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/parislaw/stepchase/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var seedNames = []struct {
	First string
	Last  string
}{
	{"Alice", "Johnson"},
	{"Bob", "Williams"},
	{"Charlie", "Brown"},
	{"Diana", "Miller"},
	{"Ethan", "Davis"},
	{"Fiona", "Garcia"},
	{"George", "Rodriguez"},
	{"Hannah", "Wilson"},
}

const seedPassword = "stepchase-demo"

// SeedUsers builds the demo participants with deterministic step history
// for the first chunk of the challenge. User 1 is the demo admin. All 30
// day slots exist up front; unsubmitted days carry nil steps.
func SeedUsers(start time.Time) []models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on invalid cost; the default cost is valid.
		panic(err)
	}

	users := make([]models.User, 0, len(seedNames))
	for i, name := range seedNames {
		id := i + 1
		email := strings.ToLower(name.First) + "@stepchase.demo"
		users = append(users, models.User{
			ID:        fmt.Sprintf("%d", id),
			Email:     email,
			Password:  string(hash),
			FirstName: name.First,
			LastName:  name.Last,
			Avatar:    "https://placehold.co/40x40.png",
			IsAdmin:   i == 0,
			Progress:  seedProgress(start, id),
		})
	}
	return users
}

// seedProgress fills the early days with varied but reproducible step
// counts. Each user gets 10 + (id mod 8) days of data; counts land
// between 5,000 and 17,000 so both tiers of the dashboard show up.
func seedProgress(start time.Time, id int) []models.DailyProgress {
	progress := models.NewChallengeProgress(start)
	daysWithData := 10 + id%8

	for i := range progress {
		day := i + 1
		if day > daysWithData {
			break
		}
		randomFactor := (math.Sin(float64(day*id)) + 1) / 2
		steps := 5000 + int(randomFactor*12000)
		progress[i].Steps = &steps
		progress[i].GoalMet = models.GoalMet(steps)
	}
	return progress
}
