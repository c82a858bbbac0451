package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/tutor-backend/internal/apperror"
	"github.com/sakif/tutor-backend/internal/model"
	"github.com/sakif/tutor-backend/internal/repository"
)

// UserDB is the users view of the store. Obtained via DB.Users(); all views
// share the one connection pool.
type UserDB struct {
	db *DB
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserDB {
	return &UserDB{db: db}
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// Create inserts a new user row.
//
// NO EXISTENCE PRE-CHECK:
// We do not SELECT first to see whether the email is taken — that would open
// a race between the check and the insert. We just insert and let the UNIQUE
// index on email decide; a violation comes back as apperror.DuplicateUser.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	// NULLIF keeps github_id NULL for local accounts so the UNIQUE index on
	// it only applies to real GitHub IDs (SQLite allows many NULLs).
	_, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, github_id, created_at, updated_at)
		 VALUES (?, ?, ?, NULLIF(?, 0), ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.GitHubID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateUser(user.Email)
		}
		return apperror.StoreUnavailable(fmt.Errorf("sqlite: inserting user: %w", err))
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.getUser(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email. Emails are matched exactly as stored
// (case-sensitive).
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getUser(ctx, `WHERE email = ?`, email)
}

func (u *UserDB) getUser(ctx context.Context, where, key string) (*model.User, error) {
	var (
		user     model.User
		githubID sql.NullInt64
	)

	err := u.db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, github_id, created_at, updated_at
		 FROM users `+where,
		key,
	).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&githubID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, apperror.StoreUnavailable(fmt.Errorf("sqlite: getting user %s: %w", key, err))
	}

	user.GitHubID = githubID.Int64
	return &user, nil
}

// UpsertGitHub inserts or updates a user based on their GitHub ID.
//
// First login → INSERT with a fresh internal ID. Subsequent logins → UPDATE
// the email in case the user changed it on GitHub, keeping the existing
// internal ID (it's referenced by the progress/achievements rows).
func (u *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return apperror.ValidationFailed("github_id", "GitHub ID is required")
	}

	var existingID string
	err := u.db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return apperror.StoreUnavailable(fmt.Errorf("sqlite: looking up github_id %d: %w", user.GitHubID, err))
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = u.db.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`,
			user.Email, user.UpdatedAt, user.ID,
		)
		if err != nil {
			return apperror.StoreUnavailable(fmt.Errorf("sqlite: updating user %s: %w", user.ID, err))
		}
		return nil
	}

	return u.Create(ctx, user)
}
