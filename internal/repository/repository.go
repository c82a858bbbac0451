// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation; tests
// substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/tutor-backend/internal/model"
)

type UserRepository interface {
	// Create inserts a new user. Returns apperror.DuplicateUser if the email
	// is already taken — detected from the store's unique index, never a
	// pre-check, so two racing registrations can't both succeed.
	Create(ctx context.Context, user *model.User) error

	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// UpsertGitHub inserts or refreshes a user keyed by their GitHub ID.
	// Fills user.ID with the existing internal ID when the account is known.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

type ProgressRepository interface {
	// Get returns apperror.ErrNotFound when the user has no progress row yet.
	Get(ctx context.Context, userID string) (*model.Progress, error)

	// Upsert atomically merges the patch into the user's progress row,
	// creating it with defaults on first write, and returns the full merged
	// record. Fields the patch leaves nil keep their stored value.
	Upsert(ctx context.Context, userID string, patch model.ProgressPatch) (*model.Progress, error)
}

type AchievementsRepository interface {
	Get(ctx context.Context, userID string) (*model.Achievements, error)
	Upsert(ctx context.Context, userID string, patch model.AchievementsPatch) (*model.Achievements, error)
}
