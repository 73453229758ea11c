package services

import (
	"context"

	"lingoconnect-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Friend request event types sent to clients
const (
	EventFriendRequestReceived  = "friend_request_received"
	EventFriendRequestAccepted  = "friend_request_accepted"
	EventFriendRequestRejected  = "friend_request_rejected"
	EventFriendRequestCancelled = "friend_request_cancelled"
)

// Event is a notification addressed to one user
type Event struct {
	Type  string
	Title string
	Body  string
	Data  interface{}
}

// Notifier delivers events to users. Delivery is best effort and never
// fails the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event Event)
}

// NotificationService sends events to connected users over the WebSocket hub
// and falls back to push for users that are offline
type NotificationService struct {
	hub    *WSHub
	pusher Pusher
	users  repository.UserRepository
}

// NewNotificationService creates a notification service. pusher may be nil.
func NewNotificationService(hub *WSHub, pusher Pusher, users repository.UserRepository) *NotificationService {
	return &NotificationService{
		hub:    hub,
		pusher: pusher,
		users:  users,
	}
}

// Notify delivers event to userID
func (n *NotificationService) Notify(ctx context.Context, userID uuid.UUID, event Event) {
	id := userID.String()

	if n.hub != nil && n.hub.IsOnline(id) {
		err := n.hub.SendToUser(id, WSMessage{Type: event.Type, Data: event.Data})
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("user_id", id).Str("type", event.Type).Msg("Failed to deliver WebSocket event")
	}

	if n.pusher == nil {
		return
	}

	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("Failed to load user for push notification")
		return
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return
	}

	if err := n.pusher.Push(ctx, *user.PushToken, event); err != nil {
		log.Error().Err(err).Str("user_id", id).Str("type", event.Type).Msg("Failed to send push notification")
		return
	}
	log.Debug().Str("user_id", id).Str("type", event.Type).Msg("Push notification sent")
}
