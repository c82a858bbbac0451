package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/tutor-backend/internal/apperror"
	"github.com/sakif/tutor-backend/internal/model"
	"github.com/sakif/tutor-backend/internal/repository"
)

// AchievementsDB is the achievements view of the store.
// Obtained via DB.Achievements().
//
// The badge collection is stored as a JSON array in a TEXT column. SQLite has
// no array type; JSON keeps the column human-readable and lets the COALESCE
// merge treat the whole collection as one value, matching the
// replace-the-whole-array update semantics of the API.
type AchievementsDB struct {
	db *DB
}

// Achievements returns the achievements repository backed by this database.
func (db *DB) Achievements() *AchievementsDB {
	return &AchievementsDB{db: db}
}

// compile-time check that *AchievementsDB implements repository.AchievementsRepository
var _ repository.AchievementsRepository = (*AchievementsDB)(nil)

// Get returns the user's achievements row, defaults folded in.
// apperror.ErrNotFound when no row exists yet.
func (a *AchievementsDB) Get(ctx context.Context, userID string) (*model.Achievements, error) {
	var (
		rec    model.Achievements
		badges string
	)

	err := a.db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(streak, 0), COALESCE(earned_badge_ids, '[]')
		 FROM user_achievements WHERE user_id = ?`,
		userID,
	).Scan(&rec.Streak, &badges)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("achievements", userID)
		}
		return nil, apperror.StoreUnavailable(fmt.Errorf("sqlite: getting achievements for %s: %w", userID, err))
	}

	if err := json.Unmarshal([]byte(badges), &rec.EarnedBadgeIDs); err != nil {
		return nil, fmt.Errorf("sqlite: decoding badge ids for %s: %w", userID, err)
	}

	return &rec, nil
}

// Upsert merges the patch into the user's achievements row. Same
// single-statement COALESCE merge as the progress upsert; see progress.go
// for the full mechanics.
func (a *AchievementsDB) Upsert(ctx context.Context, userID string, patch model.AchievementsPatch) (*model.Achievements, error) {
	// A nil badge slice pointer must reach SQLite as NULL so the COALESCE
	// keeps the stored collection.
	var badgesArg any
	if patch.EarnedBadgeIDs != nil {
		encoded, err := json.Marshal(*patch.EarnedBadgeIDs)
		if err != nil {
			return nil, fmt.Errorf("sqlite: encoding badge ids: %w", err)
		}
		badgesArg = string(encoded)
	}

	var (
		rec    model.Achievements
		badges string
	)

	err := a.db.conn.QueryRowContext(ctx,
		`INSERT INTO user_achievements (user_id, streak, earned_badge_ids)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     streak           = COALESCE(excluded.streak, user_achievements.streak),
		     earned_badge_ids = COALESCE(excluded.earned_badge_ids, user_achievements.earned_badge_ids),
		     updated_at       = CURRENT_TIMESTAMP
		 RETURNING COALESCE(streak, 0), COALESCE(earned_badge_ids, '[]')`,
		userID,
		patch.Streak,
		badgesArg,
	).Scan(&rec.Streak, &badges)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperror.ConstraintViolation(
				fmt.Sprintf("achievements upsert references unknown user %s", userID))
		}
		return nil, apperror.StoreUnavailable(fmt.Errorf("sqlite: upserting achievements for %s: %w", userID, err))
	}

	if err := json.Unmarshal([]byte(badges), &rec.EarnedBadgeIDs); err != nil {
		return nil, fmt.Errorf("sqlite: decoding badge ids for %s: %w", userID, err)
	}

	return &rec, nil
}
