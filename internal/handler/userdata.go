package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/tutor-backend/internal/apperror"
	"github.com/sakif/tutor-backend/internal/auth"
	"github.com/sakif/tutor-backend/internal/model"
	"github.com/sakif/tutor-backend/internal/service"
)

// UserDataHandler serves the student's progress and achievement records.
//
// All three routes run behind auth.RequireAuth: the user whose records are
// read or written is always the one the session token names, taken from the
// request context — never from a parameter, never from a global.
type UserDataHandler struct {
	userData *service.UserDataService
	logger   *slog.Logger
}

// NewUserDataHandler creates a UserDataHandler.
func NewUserDataHandler(userData *service.UserDataService, logger *slog.Logger) *UserDataHandler {
	return &UserDataHandler{
		userData: userData,
		logger:   logger,
	}
}

// HandleGet returns both records in one payload.
//
// HTTP: GET /api/user-data
// Response: {"progress": {...}, "achievements": {...}}
//
// A brand-new user gets the defaults (all-zero progress, empty badge list),
// not a 404 — the dashboard always has something to render.
func (h *UserDataHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.MissingIdentity())
		return
	}

	data, err := h.userData.Combined(r.Context(), userID)
	if err != nil {
		h.logger.Error("fetching combined user data failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// HandleUpdateProgress merges a partial progress update and echoes the full
// merged record.
//
// HTTP: PUT /api/user-data/progress
// Body: any subset of {"concept_mastery", "time_spent", "questions_answered"}
//
// Omitted fields keep their stored values; so do fields sent as null (see
// model.ProgressPatch for why that's deliberate).
func (h *UserDataHandler) HandleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.MissingIdentity())
		return
	}

	var patch model.ProgressPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.Warn("invalid progress patch", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	merged, err := h.userData.UpdateProgress(r.Context(), userID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, merged)
}

// HandleUpdateAchievements merges a partial achievements update and echoes
// the full merged record.
//
// HTTP: PUT /api/user-data/achievements
// Body: any subset of {"streak", "earned_badge_ids"}
func (h *UserDataHandler) HandleUpdateAchievements(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.MissingIdentity())
		return
	}

	var patch model.AchievementsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.Warn("invalid achievements patch", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	merged, err := h.userData.UpdateAchievements(r.Context(), userID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, merged)
}
