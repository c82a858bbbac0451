package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/tutor-backend/internal/apperror"
	"github.com/sakif/tutor-backend/internal/auth"
	"github.com/sakif/tutor-backend/internal/model"
)

// testLogger and ptr live in userdata_test.go.

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
type fakeUserRepo struct {
	byID    map[string]*model.User
	byEmail map[string]*model.User
	byGHID  map[int64]*model.User
	nextID  int
	// set to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
		byGHID:  make(map[int64]*model.User),
		nextID:  1,
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, taken := f.byEmail[user.Email]; taken {
		return apperror.DuplicateUser(user.Email)
	}
	user.ID = "user-fake-id-" + string(rune('0'+f.nextID))
	f.nextID++
	copied := *user
	f.byID[user.ID] = &copied
	f.byEmail[user.Email] = &copied
	if user.GitHubID != 0 {
		f.byGHID[user.GitHubID] = &copied
	}
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	if existing, ok := f.byGHID[user.GitHubID]; ok {
		existing.Email = user.Email
		*user = *existing
		return nil
	}
	return f.Create(ctx, user)
}

// newTestAuthService wires an AuthService with fake storage. Cost 4 is the
// bcrypt minimum, which keeps the hashing tests fast.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ps := auth.NewPasswordServiceForTest(4)

	return NewAuthService(repo, ts, ps, testLogger())
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), "newstudent@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Register() returned user with empty ID")
	}
	if user.Email != "newstudent@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "newstudent@example.com")
	}
	// The stored hash must never be the raw password.
	if user.PasswordHash == "" || user.PasswordHash == "s3cret-pass" {
		t.Error("Register() stored the password unhashed")
	}
}

func TestRegister_TrimsEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), "  padded@example.com  ", "pw")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "padded@example.com" {
		t.Errorf("Email = %q, want trimmed", user.Email)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "taken@example.com", "pw1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "taken@example.com", "pw2")
	if err == nil {
		t.Fatal("Register() should fail for an already-registered email")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "pw"},
		{"whitespace email", "   ", "pw"},
		{"no at sign", "not-an-email", "pw"},
		{"empty password", "ok@example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.email, tc.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register(%q, %q) error = %v, want ErrValidation", tc.email, tc.password, err)
			}
		})
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	registered, err := svc.Register(context.Background(), "login@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Register() setup: %v", err)
	}

	result, err := svc.Login(context.Background(), "login@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != registered.ID {
		t.Errorf("User.ID = %q, want %q", result.User.ID, registered.ID)
	}
	if result.Token == "" {
		t.Fatal("Login() returned empty token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "login@example.com", "right"); err != nil {
		t.Fatalf("Register() setup: %v", err)
	}

	_, err := svc.Login(context.Background(), "login@example.com", "wrong")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	// Unknown email and wrong password are indistinguishable to the caller.
	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_GitHubOnlyAccountHasNoPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	// Accounts created via GitHub carry an empty hash — password login must
	// always fail for them, even with an empty password guess.
	if _, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 42, Login: "octocat", Email: "octocat@github.com",
	}); err != nil {
		t.Fatalf("LoginOrRegisterGitHub() setup: %v", err)
	}

	_, err := svc.Login(context.Background(), "octocat@github.com", "any-guess")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_TokenIsValidForUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.Register(context.Background(), "tok@example.com", "pw-123"); err != nil {
		t.Fatalf("Register() setup: %v", err)
	}
	result, err := svc.Login(context.Background(), "tok@example.com", "pw-123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	ts, _ := auth.NewTokenService("test-secret-at-least-16-chars!!")
	userID, err := ts.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != result.User.ID {
		t.Errorf("token subject = %q, want %q", userID, result.User.ID)
	}
}

// =========================================================================
// LoginOrRegisterGitHub TESTS
// =========================================================================

func TestLoginOrRegisterGitHub_NewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 42, Login: "octocat", Email: "octocat@github.com",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.User.ID == "" {
		t.Error("User.ID should be set after upsert")
	}
	if result.Token == "" {
		t.Fatal("LoginOrRegisterGitHub() returned empty token")
	}
}

func TestLoginOrRegisterGitHub_HiddenEmailGetsPlaceholder(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 7, Login: "shyuser", Email: "",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.User.Email != "shyuser@users.noreply.github.com" {
		t.Errorf("Email = %q, want placeholder from login", result.User.Email)
	}
}

func TestLoginOrRegisterGitHub_ExistingUserKeepsID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	first, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 99, Login: "repeat", Email: "old@example.com",
	})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}

	second, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID: 99, Login: "repeat", Email: "new@example.com",
	})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("user ID changed across logins: %q vs %q", second.User.ID, first.User.ID)
	}
	if second.User.Email != "new@example.com" {
		t.Errorf("Email = %q, want refreshed", second.User.Email)
	}
}

func TestLoginOrRegisterGitHub_NilUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	if _, err := svc.LoginOrRegisterGitHub(context.Background(), nil); err == nil {
		t.Fatal("LoginOrRegisterGitHub() should reject a nil GitHub user")
	}
}

// =========================================================================
// GetUserByID TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	registered, err := svc.Register(context.Background(), "findme@example.com", "pw")
	if err != nil {
		t.Fatalf("Register() setup: %v", err)
	}

	user, err := svc.GetUserByID(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Email != "findme@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "findme@example.com")
	}
}

func TestGetUserByID_EmptyID(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	_, err := svc.GetUserByID(context.Background(), "")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("GetUserByID() error = %v, want ErrUnauthorized", err)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	_, err := svc.GetUserByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}
