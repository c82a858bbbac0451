package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sakif/tutor-backend/internal/auth"
	"github.com/sakif/tutor-backend/internal/service"
)

// AuthHandler manages registration, login, and the GitHub OAuth flow.
//
// github may be nil — the server registers the OAuth routes only when client
// credentials are configured.
type AuthHandler struct {
	authSvc *service.AuthService
	github  *auth.GitHubProvider
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected; the
// handler has no knowledge of how they're constructed.
func NewAuthHandler(authSvc *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		github:  github,
		logger:  logger,
	}
}

// credentialsRequest is the body of both register and login calls.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// publicUser is the only user shape that ever leaves these handlers on
// register/login — id and email, nothing else.
type publicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// HandleRegister creates an account from an email and password.
//
// HTTP: POST /api/register-temp-user
// Body: {"email": "...", "password": "..."}
// Response: 201 {"message": "...", "user": {"id": "...", "email": "..."}}
//
// "temp" in the path is historical: this was the bootstrap route before
// sessions existed and the frontend still calls it. A second registration
// with the same email gets a 409.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	user, err := h.authSvc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Temporary user created successfully!",
		"user":    publicUser{ID: user.ID, Email: user.Email},
	})
}

// HandleLogin verifies credentials and starts a session.
//
// HTTP: POST /api/login
// Body: {"email": "...", "password": "..."}
//
// On success the JWT lands in an HttpOnly cookie; the body repeats the
// public user so the frontend can show who's signed in.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logged in successfully.",
		"user":    publicUser{ID: result.User.ID, Email: result.User.Email},
	})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// POST, not GET: logout changes state, and GET would be prefetchable and
// CSRF-able. The token itself stays valid until expiry — statelessness cuts
// both ways — but without the cookie the browser can't send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: required (RequireAuth sets the userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.authSvc.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed", slog.String("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// The random state lands in a short-lived HttpOnly cookie; the callback
// checks it to prove the flow started here (CSRF protection).
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: state check, code exchange,
// user upsert, session cookie, redirect home.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state missing or mismatched")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.authSvc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("oauth callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	auth.SetSessionCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
