package handlers

import (
	"encoding/json"
	"net/http"

	"lingoconnect-backend/internal/models"
	"lingoconnect-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService   *services.UserService
	avatarService *services.AvatarService
}

// NewUserHandler creates a new user handler. avatarService may be nil when
// picture uploads are not configured.
func NewUserHandler(userService *services.UserService, avatarService *services.AvatarService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		avatarService: avatarService,
	}
}

// UpdateProfileResponse is returned by PUT /api/users/profile
type UpdateProfileResponse struct {
	Message string          `json:"message"`
	User    *models.Profile `json:"user"`
}

// PushTokenRequest registers a device for push notifications
type PushTokenRequest struct {
	Token string `json:"token"`
}

// UploadURLRequest asks for a profile picture upload URL
type UploadURLRequest struct {
	ContentType string `json:"content_type"`
}

// Recommend handles GET /api/users
func (h *UserHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.userService.Recommend(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "Failed to get recommended users", err)
		return
	}

	respondJSON(w, http.StatusOK, users)
}

// ListFriends handles GET /api/users/friends
func (h *UserHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	friends, err := h.userService.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "Failed to get friends", err)
		return
	}

	respondJSON(w, http.StatusOK, friends)
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, "Failed to update profile", err)
		return
	}

	log.Info().Str("user_id", userID.String()).Msg("Profile updated")

	respondJSON(w, http.StatusOK, UpdateProfileResponse{
		Message: "Profile updated successfully",
		User:    profile,
	})
}

// UpdatePushToken handles PUT /api/users/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req PushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.UpdatePushToken(r.Context(), userID, req.Token); err != nil {
		writeServiceError(w, r, "Failed to update push token", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ProfilePictureUploadURL handles POST /api/users/profile-picture/upload-url
func (h *UserHandler) ProfilePictureUploadURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if h.avatarService == nil {
		respondError(w, "Profile picture uploads are not available", http.StatusServiceUnavailable)
		return
	}

	var req UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	upload, err := h.avatarService.PresignUpload(r.Context(), userID, req.ContentType)
	if err != nil {
		writeServiceError(w, r, "Failed to create upload URL", err)
		return
	}

	respondJSON(w, http.StatusOK, upload)
}
