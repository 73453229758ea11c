package repository

import (
	"context"
	"errors"

	"lingoconnect-backend/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository handles storage of users and their friend sets
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ListByIDs returns the users that exist among ids, in no particular order.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error)
	// ListOnboarded returns onboarded users whose id is not in exclude.
	ListOnboarded(ctx context.Context, exclude []uuid.UUID) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error)
	UpdatePushToken(ctx context.Context, id uuid.UUID, pushToken *string) error
	// AddFriend adds friendID to userID's friend set. Adding an existing friend is a no-op.
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) error
}

// FriendRequestRepository handles storage of pending friend requests
type FriendRequestRepository interface {
	// Create stores a new request. It returns ErrDuplicate if a request
	// already exists for the same unordered pair of users.
	Create(ctx context.Context, req *models.FriendRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error)
	// GetForUpdate reads a request and, where the backend supports it, locks
	// it until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error)
	// FindBetween returns any request between a and b, in either direction.
	FindBetween(ctx context.Context, a, b uuid.UUID) (*models.FriendRequest, error)
	ListPendingBySender(ctx context.Context, senderID uuid.UUID) ([]*models.FriendRequest, error)
	ListPendingByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*models.FriendRequest, error)
	// DeletePending removes a request only while it is pending. It returns
	// ErrNotFound when no pending request with that id exists.
	DeletePending(ctx context.Context, id uuid.UUID) error
}

// Store groups the repositories of one storage backend
type Store interface {
	Users() UserRepository
	FriendRequests() FriendRequestRepository
	// WithTx runs fn as a single all-or-nothing unit. Repositories reached
	// through tx take part in the unit; if fn returns an error nothing it
	// wrote is kept.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
