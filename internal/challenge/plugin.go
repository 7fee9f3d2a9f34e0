package challenge

import (
	"github.com/gofiber/fiber/v2"
	"github.com/parislaw/stepchase/internal/config"
	"github.com/parislaw/stepchase/internal/store"
	"github.com/parislaw/stepchase/internal/verify"
	"gorm.io/gorm"
)

type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) ID() string { return "challenge" }

// Models returns nothing: the user document is a shared model migrated
// by the database package.
func (p *Plugin) Models() []interface{} {
	return nil
}

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewService(store.New(db), verify.NewClient(cfg), cfg.ChallengeStartDate)
	handler := NewHandler(svc)

	router.Get("/challenge/dashboard", handler.Dashboard)
	router.Get("/challenge/leaderboard", handler.Leaderboard)
	router.Post("/challenge/submissions", handler.Submit)
	router.Post("/challenge/submissions/upload", handler.SubmitUpload)
}

func (p *Plugin) RegisterAdminRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewService(store.New(db), verify.NewClient(cfg), cfg.ChallengeStartDate)
	admin := NewAdminHandler(svc)

	router.Get("/challenge/users", admin.ListUsers)
	router.Put("/challenge/steps", admin.OverrideSteps)
}
