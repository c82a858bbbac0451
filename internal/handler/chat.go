package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/tutor-backend/internal/aiclient"
	"github.com/sakif/tutor-backend/internal/apperror"
)

// ChatHandler proxies tutoring chat messages to the external AI service.
//
// This handler adds nothing to the conversation itself — it decodes the
// request, lets the client apply server-side defaults (provider, emotion),
// and relays whatever the AI service says. The interesting part is the
// error split: the frontend needs to tell "the AI said no" (relay status
// and body) apart from "the AI is down" (fixed 503).
type ChatHandler struct {
	tutor  aiclient.Tutor
	logger *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(tutor aiclient.Tutor, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		tutor:  tutor,
		logger: logger,
	}
}

// HandleMessage forwards a chat message to the AI service.
//
// HTTP: POST /api/chat/message
// Body: {"message", "subject", "gradeLevel", "emotion", "tutoringStyle",
//        "conversationHistory", "provider"}
//
// Responses, matching the AI service contract the frontend already speaks:
//   - 2xx: the AI service's JSON, byte-for-byte
//   - AI service returned non-2xx: that status, its body relayed unchanged
//   - AI service unreachable: 503 {"message": "AI service is unreachable."}
//   - URL not configured: 500 {"message": "AI service URL not configured."}
//   - anything else local: 500 {"message": "Error setting up AI request."}
func (h *ChatHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req aiclient.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid chat request body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid JSON body."})
		return
	}

	answer, err := h.tutor.SocraticQuestion(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(answer); err != nil {
		h.logger.Error("failed to write chat response", slog.String("error", err.Error()))
	}
}

// writeUpstreamError maps aiclient failures onto the three response shapes.
func (h *ChatHandler) writeUpstreamError(w http.ResponseWriter, err error) {
	var upstream *aiclient.UpstreamError
	switch {
	case errors.As(err, &upstream):
		h.logger.Warn("AI service returned an error",
			slog.Int("status", upstream.Status),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(upstream.Status)
		w.Write(upstream.Body)

	case errors.Is(err, aiclient.ErrUnavailable):
		h.logger.Error("AI service unreachable", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable,
			map[string]string{"message": "AI service is unreachable."})

	case errors.Is(err, apperror.ErrConfigMissing):
		h.logger.Error("AI service URL not configured")
		writeJSON(w, http.StatusInternalServerError,
			map[string]string{"message": "AI service URL not configured."})

	default:
		h.logger.Error("building AI request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError,
			map[string]string{"message": "Error setting up AI request."})
	}
}
