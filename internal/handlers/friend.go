package handlers

import (
	"net/http"

	"lingoconnect-backend/internal/models"
	"lingoconnect-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FriendHandler handles friend request HTTP requests
type FriendHandler struct {
	friendService *services.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// IncomingRequestsResponse is returned by GET /api/users/friend-requests.
// Resolved requests are deleted, so Accepted is always empty.
type IncomingRequestsResponse struct {
	Incoming []models.IncomingFriendRequest `json:"incoming"`
	Accepted []models.IncomingFriendRequest `json:"accepted"`
}

// SendRequest handles POST /api/users/friend-request/{id}
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := h.friendService.SendRequest(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "Failed to send friend request", err)
		return
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("sender_id", req.SenderID.String()).
		Str("recipient_id", req.RecipientID.String()).
		Msg("Friend request sent")

	respondJSON(w, http.StatusCreated, req)
}

// AcceptRequest handles PUT /api/users/friend-request/{id}/accept
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := h.friendService.AcceptRequest(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeServiceError(w, r, "Failed to accept friend request", err)
		return
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("sender_id", req.SenderID.String()).
		Str("recipient_id", req.RecipientID.String()).
		Msg("Friend request accepted")

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Friend request accepted"})
}

// RejectRequest handles PUT /api/users/friend-request/{id}/reject
func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := h.friendService.RejectRequest(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeServiceError(w, r, "Failed to reject friend request", err)
		return
	}

	log.Info().Str("request_id", req.ID.String()).Msg("Friend request rejected")

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Friend request rejected"})
}

// CancelRequest handles DELETE and PUT /api/users/friend-request/{id}/cancel
func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := h.friendService.CancelRequest(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeServiceError(w, r, "Failed to cancel friend request", err)
		return
	}

	log.Info().Str("request_id", req.ID.String()).Msg("Friend request cancelled")

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Friend request cancelled"})
}

// ListIncoming handles GET /api/users/friend-requests
func (h *FriendHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	incoming, err := h.friendService.ListIncoming(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "Failed to list incoming friend requests", err)
		return
	}

	respondJSON(w, http.StatusOK, IncomingRequestsResponse{
		Incoming: incoming,
		Accepted: []models.IncomingFriendRequest{},
	})
}

// ListOutgoing handles GET /api/users/friend-requests/outgoing
func (h *FriendHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	outgoing, err := h.friendService.ListOutgoing(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "Failed to list outgoing friend requests", err)
		return
	}

	respondJSON(w, http.StatusOK, outgoing)
}
