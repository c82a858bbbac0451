package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/tutor-backend/internal/apperror"
	"github.com/sakif/tutor-backend/internal/model"
	"github.com/sakif/tutor-backend/internal/repository"
)

// ProgressDB is the progress view of the store. Obtained via DB.Progress().
type ProgressDB struct {
	db *DB
}

// Progress returns the progress repository backed by this database.
func (db *DB) Progress() *ProgressDB {
	return &ProgressDB{db: db}
}

// compile-time check that *ProgressDB implements repository.ProgressRepository
var _ repository.ProgressRepository = (*ProgressDB)(nil)

// Get returns the user's progress row, with stored NULLs folded to the
// defaults. Returns apperror.ErrNotFound when the user has no row yet —
// the service layer substitutes defaults in that case.
func (p *ProgressDB) Get(ctx context.Context, userID string) (*model.Progress, error) {
	var rec model.Progress

	err := p.db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(concept_mastery, 0),
		        COALESCE(time_spent, 0),
		        COALESCE(questions_answered, 0)
		 FROM user_progress WHERE user_id = ?`,
		userID,
	).Scan(&rec.ConceptMastery, &rec.TimeSpent, &rec.QuestionsAnswered)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("progress", userID)
		}
		return nil, apperror.StoreUnavailable(fmt.Errorf("sqlite: getting progress for %s: %w", userID, err))
	}

	return &rec, nil
}

// Upsert merges the patch into the user's progress row in one statement.
//
// nil patch fields are bound as SQL NULL. On the insert path they are stored
// as NULL (the row has no opinion on that field yet); on the update path
// COALESCE(excluded.col, row.col) keeps whatever the row already holds.
// RETURNING echoes the merged row with NULLs folded to defaults, so the
// caller gets the complete record without a second query — and without a
// read-then-write race.
func (p *ProgressDB) Upsert(ctx context.Context, userID string, patch model.ProgressPatch) (*model.Progress, error) {
	var rec model.Progress

	err := p.db.conn.QueryRowContext(ctx,
		`INSERT INTO user_progress (user_id, concept_mastery, time_spent, questions_answered)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     concept_mastery    = COALESCE(excluded.concept_mastery, user_progress.concept_mastery),
		     time_spent         = COALESCE(excluded.time_spent, user_progress.time_spent),
		     questions_answered = COALESCE(excluded.questions_answered, user_progress.questions_answered),
		     updated_at         = CURRENT_TIMESTAMP
		 RETURNING COALESCE(concept_mastery, 0),
		           COALESCE(time_spent, 0),
		           COALESCE(questions_answered, 0)`,
		userID,
		patch.ConceptMastery,
		patch.TimeSpent,
		patch.QuestionsAnswered,
	).Scan(&rec.ConceptMastery, &rec.TimeSpent, &rec.QuestionsAnswered)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperror.ConstraintViolation(
				fmt.Sprintf("progress upsert references unknown user %s", userID))
		}
		return nil, apperror.StoreUnavailable(fmt.Errorf("sqlite: upserting progress for %s: %w", userID, err))
	}

	return &rec, nil
}
