// Package service contains the business logic layer: validation, rules, and
// orchestration, with zero knowledge of HTTP. Handlers translate requests in
// and errors out; repositories do the SQL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/tutor-backend/internal/apperror"
	"github.com/sakif/tutor-backend/internal/model"
	"github.com/sakif/tutor-backend/internal/repository"
)

// UserDataService orchestrates reads and writes of a student's progress and
// achievement records.
//
// Progress and achievements are independent resources with independent
// consistency boundaries: they're read together (one combined payload for
// the dashboard) but written separately, and no transaction spans both.
type UserDataService struct {
	progress     repository.ProgressRepository
	achievements repository.AchievementsRepository
	logger       *slog.Logger
}

// NewUserDataService creates a UserDataService. The repositories are
// interfaces so tests can substitute in-memory fakes.
func NewUserDataService(
	progress repository.ProgressRepository,
	achievements repository.AchievementsRepository,
	logger *slog.Logger,
) *UserDataService {
	return &UserDataService{
		progress:     progress,
		achievements: achievements,
		logger:       logger,
	}
}

// CombinedData bundles both records for the GET /api/user-data response.
type CombinedData struct {
	Progress     model.Progress     `json:"progress"`
	Achievements model.Achievements `json:"achievements"`
}

// Combined fetches the user's progress and achievement records.
//
// A user who has never written either record still gets a full response: an
// absent row is replaced by the documented defaults, never surfaced as an
// error. Only a missing identity or an unreachable store fails this call.
func (s *UserDataService) Combined(ctx context.Context, userID string) (*CombinedData, error) {
	if userID == "" {
		return nil, apperror.MissingIdentity()
	}

	data := &CombinedData{
		Progress:     model.DefaultProgress(),
		Achievements: model.DefaultAchievements(),
	}

	progress, err := s.progress.Get(ctx, userID)
	switch {
	case err == nil:
		data.Progress = *progress
	case errors.Is(err, apperror.ErrNotFound):
		// no row yet — defaults stand
	default:
		return nil, fmt.Errorf("fetching progress: %w", err)
	}

	achievements, err := s.achievements.Get(ctx, userID)
	switch {
	case err == nil:
		data.Achievements = *achievements
	case errors.Is(err, apperror.ErrNotFound):
		// no row yet — defaults stand
	default:
		return nil, fmt.Errorf("fetching achievements: %w", err)
	}

	return data, nil
}

// UpdateProgress merges a partial progress update into the user's record and
// returns the full merged result.
//
// The merge itself is atomic in the repository (single upsert statement);
// this layer only validates. Fields the patch leaves nil are untouched.
func (s *UserDataService) UpdateProgress(ctx context.Context, userID string, patch model.ProgressPatch) (*model.Progress, error) {
	if userID == "" {
		return nil, apperror.MissingIdentity()
	}

	if patch.ConceptMastery != nil && *patch.ConceptMastery < 0 {
		return nil, apperror.ValidationFailed("concept_mastery", "concept_mastery must not be negative")
	}
	if patch.TimeSpent != nil && *patch.TimeSpent < 0 {
		return nil, apperror.ValidationFailed("time_spent", "time_spent must not be negative")
	}
	if patch.QuestionsAnswered != nil && *patch.QuestionsAnswered < 0 {
		return nil, apperror.ValidationFailed("questions_answered", "questions_answered must not be negative")
	}

	merged, err := s.progress.Upsert(ctx, userID, patch)
	if err != nil {
		s.logger.Error("progress update failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating progress: %w", err)
	}

	s.logger.Info("progress updated", slog.String("userID", userID))
	return merged, nil
}

// UpdateAchievements merges a partial achievements update into the user's
// record and returns the full merged result. The badge collection, when
// provided, replaces the stored one wholesale.
func (s *UserDataService) UpdateAchievements(ctx context.Context, userID string, patch model.AchievementsPatch) (*model.Achievements, error) {
	if userID == "" {
		return nil, apperror.MissingIdentity()
	}

	if patch.Streak != nil && *patch.Streak < 0 {
		return nil, apperror.ValidationFailed("streak", "streak must not be negative")
	}
	if patch.EarnedBadgeIDs != nil {
		for _, id := range *patch.EarnedBadgeIDs {
			if strings.TrimSpace(id) == "" {
				return nil, apperror.ValidationFailed("earned_badge_ids", "badge ids must not be blank")
			}
		}
	}

	merged, err := s.achievements.Upsert(ctx, userID, patch)
	if err != nil {
		s.logger.Error("achievements update failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating achievements: %w", err)
	}

	s.logger.Info("achievements updated", slog.String("userID", userID))
	return merged, nil
}
