// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered student account.
//
// Accounts are created either with an email + password (the /api/register-temp-user
// flow) or via GitHub OAuth. We generate our own internal string ID (xid) so our
// primary keys are never tied to a third party's numbering scheme.
//
// WHY PasswordHash WITH json:"-"?
// The bcrypt hash must never leave the server. The `json:"-"` tag tells
// encoding/json to skip the field entirely, so even if a handler serialises a
// whole User by accident, the hash is not in the response.
//
// GitHubID is zero for local (email/password) accounts. The sqlite layer stores
// it as NULL in that case so the UNIQUE index only applies to real GitHub IDs.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"-"         db:"github_id"` // 0 = not a GitHub account
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
