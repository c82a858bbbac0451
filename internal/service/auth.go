// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt) / TokenService (JWT)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/tutor-backend/internal/apperror"
	"github.com/sakif/tutor-backend/internal/auth"
	"github.com/sakif/tutor-backend/internal/model"
	"github.com/sakif/tutor-backend/internal/repository"
)

// AuthService handles registration, login, and GitHub sign-in.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account from an email and a raw password.
//
// The password is bcrypt-hashed before it goes anywhere near the store, and
// the returned user carries only public fields (the hash is json-hidden and
// never echoed). A taken email fails with apperror.DuplicateUser, detected
// from the store's unique index rather than a racy pre-check.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "email must be a valid address")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies an email/password pair and issues a session token.
//
// "Unknown email" and "wrong password" both come back as the same
// InvalidCredentials error — the response must not reveal which emails
// exist. Accounts created via GitHub have an empty hash and can never log
// in with a password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user.PasswordHash == "" || s.passwords.Verify(user.PasswordHash, password) != nil {
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: upsert the user
// keyed by their GitHub ID (create on first login, refresh the email on
// later ones), then issue a session token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID: ghUser.ID,
		Email:    ghUser.Email,
	}
	if user.Email == "" {
		// GitHub lets users hide their email; the column is NOT NULL UNIQUE,
		// so synthesise a stable placeholder from the login.
		user.Email = ghUser.Login + "@users.noreply.github.com"
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("upserting GitHub user %d: %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware has validated the session.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.MissingIdentity()
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", id, err)
	}

	return user, nil
}
