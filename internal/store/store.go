// Package store persists challenge users as single-row documents: the
// whole 30-slot progress list lives in one JSONB column per user and is
// replaced atomically on every write. Submitted images are kept inline
// in the progress entries as data URIs, mirroring the document layout;
// moving them to content-addressed object storage is an open question.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parislaw/stepchase/internal/models"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// GetAllUsers returns every user document. Ordering is unspecified;
// callers sort as needed.
func (s *UserStore) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return &user, nil
}

// WriteProgress replaces the user's entire progress list in a single
// column update. Concurrent writers to the same user are last-write-wins;
// the row update is the only serialization point.
func (s *UserStore) WriteProgress(ctx context.Context, userID string, progress []models.DailyProgress) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("progress", progress)
	if result.Error != nil {
		return fmt.Errorf("failed to write progress for user %s: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SeedIfEmpty populates the users table only when it holds no rows.
// Calling it against a populated store is a no-op.
func (s *UserStore) SeedIfEmpty(ctx context.Context, users []models.User) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	slog.Info("seeded challenge users", "count", len(users))
	return nil
}
