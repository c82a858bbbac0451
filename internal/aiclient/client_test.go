package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/tutor-backend/internal/apperror"
)

func TestSocraticQuestion_Success(t *testing.T) {
	response := `{"question":"What is a numerator?"}`

	var captured ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/ai/socratic-question" {
			t.Errorf("path = %s, want /ai/socratic-question", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decoding forwarded request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	defer srv.Close()

	c := New(srv.URL, "google", nil)

	answer, err := c.SocraticQuestion(context.Background(), ChatRequest{
		Message:    "explain fractions",
		Subject:    "math",
		GradeLevel: 5,
	})
	if err != nil {
		t.Fatalf("SocraticQuestion() error = %v", err)
	}
	if string(answer) != response {
		t.Errorf("answer = %s, want %s (verbatim)", answer, response)
	}
	if captured.Message != "explain fractions" {
		t.Errorf("forwarded Message = %q, want %q", captured.Message, "explain fractions")
	}
}

func TestSocraticQuestion_AppliesDefaults(t *testing.T) {
	var captured ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "google", nil)

	_, err := c.SocraticQuestion(context.Background(), ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("SocraticQuestion() error = %v", err)
	}

	if captured.Emotion != "neutral" {
		t.Errorf("Emotion = %q, want default %q", captured.Emotion, "neutral")
	}
	if captured.Provider != "google" {
		t.Errorf("Provider = %q, want configured default %q", captured.Provider, "google")
	}
	// nil history must be forwarded as [], not null — the AI service
	// validates the field as an array.
	if captured.ConversationHistory == nil {
		t.Error("ConversationHistory forwarded as null, want []")
	}
}

func TestSocraticQuestion_CallerValuesWinOverDefaults(t *testing.T) {
	var captured ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "google", nil)

	_, err := c.SocraticQuestion(context.Background(), ChatRequest{
		Message:  "hi",
		Emotion:  "frustrated",
		Provider: "anthropic",
	})
	if err != nil {
		t.Fatalf("SocraticQuestion() error = %v", err)
	}
	if captured.Emotion != "frustrated" {
		t.Errorf("Emotion = %q, want caller's value", captured.Emotion)
	}
	if captured.Provider != "anthropic" {
		t.Errorf("Provider = %q, want caller's value", captured.Provider)
	}
}

func TestSocraticQuestion_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":"rate limited"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "google", nil)

	_, err := c.SocraticQuestion(context.Background(), ChatRequest{Message: "hi"})
	if err == nil {
		t.Fatal("SocraticQuestion() should fail on a non-2xx response")
	}

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if upstream.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", upstream.Status)
	}
	if string(upstream.Body) != `{"detail":"rate limited"}` {
		t.Errorf("Body = %s, want upstream body unchanged", upstream.Body)
	}
}

func TestSocraticQuestion_ServiceUnreachable(t *testing.T) {
	// Start a server, grab its URL, shut it down — the address is now dead.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, "google", nil)

	_, err := c.SocraticQuestion(context.Background(), ChatRequest{Message: "hi"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestSocraticQuestion_NoBaseURL(t *testing.T) {
	c := New("", "google", nil)

	_, err := c.SocraticQuestion(context.Background(), ChatRequest{Message: "hi"})
	if !errors.Is(err, apperror.ErrConfigMissing) {
		t.Errorf("error = %v, want ErrConfigMissing", err)
	}
}
