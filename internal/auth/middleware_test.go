package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// protectedEcho is a handler that records whether it ran and which user ID
// the middleware put into the context.
type protectedEcho struct {
	called bool
	userID string
	hasID  bool
}

func (p *protectedEcho) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.called = true
	p.userID, p.hasID = UserIDFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func TestRequireAuth_ValidCookie(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Generate("user-42")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	echo := &protectedEcho{}
	h := RequireAuth(ts)(echo)

	req := httptest.NewRequest(http.MethodGet, "/api/user-data", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !echo.called {
		t.Fatal("next handler was not called for a valid session")
	}
	if !echo.hasID || echo.userID != "user-42" {
		t.Errorf("context userID = %q (ok=%v), want %q", echo.userID, echo.hasID, "user-42")
	}
}

func TestRequireAuth_NoCookie(t *testing.T) {
	ts := newTestTokenService(t)
	echo := &protectedEcho{}
	h := RequireAuth(ts)(echo)

	req := httptest.NewRequest(http.MethodGet, "/api/user-data", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if echo.called {
		t.Error("next handler must not run without a session")
	}
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	ts := newTestTokenService(t)
	echo := &protectedEcho{}
	h := RequireAuth(ts)(echo)

	req := httptest.NewRequest(http.MethodGet, "/api/user-data", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "this.is.garbage"})
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if echo.called {
		t.Error("next handler must not run with an invalid token")
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.GenerateWithDuration("user-42", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	echo := &protectedEcho{}
	h := RequireAuth(ts)(echo)

	req := httptest.NewRequest(http.MethodGet, "/api/user-data", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if echo.called {
		t.Error("next handler must not run with an expired token")
	}
}

func TestUserIDFromContext_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if id, ok := UserIDFromContext(req.Context()); ok {
		t.Errorf("UserIDFromContext() = %q, true for an anonymous context, want false", id)
	}
}

func TestSetAndClearSessionCookie(t *testing.T) {
	set := httptest.NewRecorder()
	SetSessionCookie(set, "some-token")

	var found *http.Cookie
	for _, c := range set.Result().Cookies() {
		if c.Name == CookieName {
			found = c
		}
	}
	if found == nil {
		t.Fatal("SetSessionCookie() did not set the cookie")
	}
	if !found.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if found.MaxAge != int(SessionDuration/time.Second) {
		t.Errorf("MaxAge = %d, want %d", found.MaxAge, int(SessionDuration/time.Second))
	}

	cleared := httptest.NewRecorder()
	ClearSessionCookie(cleared)
	for _, c := range cleared.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge >= 0 {
			t.Errorf("ClearSessionCookie() MaxAge = %d, want negative", c.MaxAge)
		}
	}
}
