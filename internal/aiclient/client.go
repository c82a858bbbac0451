// Package aiclient talks to the external AI tutoring service.
//
// The AI service is a black box: this package forwards a structured tutoring
// request to its Socratic-questioning endpoint and hands the JSON response
// back untouched. No retries and no timeout beyond the injected http.Client's
// own — the caller owns that policy.
//
// THREE FAILURE MODES, KEPT DISTINCT:
//   - the service answered with a non-2xx status → *UpstreamError carrying
//     that status and body, so the handler can relay both to the frontend
//   - the service never answered (connection refused, DNS, timeout)
//     → ErrUnavailable
//   - we couldn't even build the request → plain error
//
// The split matters at the HTTP boundary: relayed status vs fixed 503 vs
// fixed 500.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sakif/tutor-backend/internal/apperror"
)

// ErrUnavailable means the AI service could not be reached at all.
var ErrUnavailable = errors.New("aiclient: service unreachable")

// UpstreamError is a non-success response from the AI service. Status and
// Body are relayed to the caller unchanged.
type UpstreamError struct {
	Status int
	Body   json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("aiclient: service returned status %d", e.Status)
}

// ConversationTurn is one prior exchange in the tutoring conversation.
// Type is "user" or "tutor".
type ConversationTurn struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ChatRequest is the tutoring request forwarded to the AI service. Field
// names are the service's wire contract (camelCase, as its API defines).
type ChatRequest struct {
	Message             string             `json:"message"`
	Subject             string             `json:"subject"`
	GradeLevel          int                `json:"gradeLevel"`
	Emotion             string             `json:"emotion"`
	TutoringStyle       string             `json:"tutoringStyle"`
	ConversationHistory []ConversationTurn `json:"conversationHistory"`
	Provider            string             `json:"provider"`
}

// Tutor is the interface handlers program against; tests substitute a mock.
type Tutor interface {
	SocraticQuestion(ctx context.Context, req ChatRequest) (json.RawMessage, error)
}

// Client is the HTTP implementation of Tutor.
type Client struct {
	baseURL         string
	defaultProvider string
	httpClient      *http.Client
}

// New creates a Client for the AI service at baseURL (e.g.
// "http://localhost:8000"). An empty baseURL is allowed — the server still
// boots — but every call then fails with a configuration error.
//
// defaultProvider is substituted into requests that don't name an LLM
// provider. httpClient may be nil, in which case http.DefaultClient is used
// (transport-default timeouts, matching the no-policy contract).
func New(baseURL, defaultProvider string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:         baseURL,
		defaultProvider: defaultProvider,
		httpClient:      httpClient,
	}
}

var _ Tutor = (*Client)(nil)

// SocraticQuestion forwards the tutoring request to the AI service and
// returns its JSON response verbatim.
//
// Server-side defaults applied before forwarding: empty Emotion becomes
// "neutral", empty Provider becomes the configured default. Everything else
// passes through as the caller sent it.
func (c *Client) SocraticQuestion(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, apperror.ConfigMissing("AI service URL")
	}

	if req.Emotion == "" {
		req.Emotion = "neutral"
	}
	if req.Provider == "" {
		req.Provider = c.defaultProvider
	}
	if req.ConversationHistory == nil {
		req.ConversationHistory = []ConversationTurn{}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("aiclient: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/ai/socratic-question", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("aiclient: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body}
	}

	return body, nil
}
