package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"lingoconnect-backend/internal/models"
	"lingoconnect-backend/internal/repository"

	"github.com/google/uuid"
)

// FriendService handles the friend request lifecycle
type FriendService struct {
	store    repository.Store
	notifier Notifier
}

// NewFriendService creates a new friend service. notifier may be nil.
func NewFriendService(store repository.Store, notifier Notifier) *FriendService {
	return &FriendService{
		store:    store,
		notifier: notifier,
	}
}

// SendRequest creates a pending friend request from senderID to recipientID
func (s *FriendService) SendRequest(ctx context.Context, senderID uuid.UUID, recipientID string) (*models.FriendRequest, error) {
	recipient, err := uuid.Parse(recipientID)
	if err != nil {
		return nil, ErrInvalidRecipientID
	}

	// Check if user is trying to befriend themselves
	if recipient == senderID {
		return nil, ErrSelfFriendRequest
	}

	var created *models.FriendRequest
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		recipientUser, err := tx.Users().GetByID(ctx, recipient)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecipientNotFound
		}
		if err != nil {
			return internalError("failed to get recipient", err)
		}

		if recipientUser.HasFriend(senderID) {
			return ErrAlreadyFriends
		}

		// Any request between the pair blocks a new one, whichever way it points
		existing, err := tx.FriendRequests().FindBetween(ctx, senderID, recipient)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return internalError("failed to check existing request", err)
		}
		if existing != nil {
			return ErrRequestExists
		}

		now := time.Now().UTC()
		req := &models.FriendRequest{
			ID:          uuid.New(),
			SenderID:    senderID,
			RecipientID: recipient,
			Status:      models.FriendRequestPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.FriendRequests().Create(ctx, req); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrRequestExists
			}
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRecipientNotFound
			}
			return internalError("failed to create friend request", err)
		}

		created = req
		return nil
	})
	if err != nil {
		return nil, serviceError("failed to send friend request", err)
	}

	s.notify(ctx, recipient, Event{
		Type:  EventFriendRequestReceived,
		Title: "New friend request",
		Body:  "Someone wants to practice languages with you",
		Data:  created,
	})

	return created, nil
}

// AcceptRequest accepts a pending request addressed to actingUserID and
// makes both users friends
func (s *FriendService) AcceptRequest(ctx context.Context, requestID string, actingUserID uuid.UUID) (*models.FriendRequest, error) {
	req, err := s.authorize(ctx, requestID, func(r *models.FriendRequest) bool {
		return r.RecipientID == actingUserID
	}, ErrNotAllowedToAccept)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := lockPending(ctx, tx, req.ID); err != nil {
			return err
		}

		// Friend sets first, then drop the request; all of it commits or none does
		if err := tx.Users().AddFriend(ctx, req.SenderID, req.RecipientID); err != nil {
			return internalError("failed to add friend to sender", err)
		}
		if err := tx.Users().AddFriend(ctx, req.RecipientID, req.SenderID); err != nil {
			return internalError("failed to add friend to recipient", err)
		}
		return deletePending(ctx, tx, req.ID)
	})
	if err != nil {
		return nil, serviceError("failed to accept friend request", err)
	}

	req.Status = models.FriendRequestAccepted
	req.UpdatedAt = time.Now().UTC()

	s.notify(ctx, req.SenderID, Event{
		Type:  EventFriendRequestAccepted,
		Title: "Friend request accepted",
		Body:  "You have a new language partner",
		Data:  req,
	})

	return req, nil
}

// RejectRequest rejects a pending request addressed to actingUserID
func (s *FriendService) RejectRequest(ctx context.Context, requestID string, actingUserID uuid.UUID) (*models.FriendRequest, error) {
	req, err := s.authorize(ctx, requestID, func(r *models.FriendRequest) bool {
		return r.RecipientID == actingUserID
	}, ErrNotAllowedToReject)
	if err != nil {
		return nil, err
	}

	if err := s.resolve(ctx, req.ID); err != nil {
		return nil, serviceError("failed to reject friend request", err)
	}

	req.Status = models.FriendRequestRejected
	req.UpdatedAt = time.Now().UTC()

	s.notify(ctx, req.SenderID, Event{
		Type:  EventFriendRequestRejected,
		Title: "Friend request declined",
		Body:  "Your friend request was declined",
		Data:  req,
	})

	return req, nil
}

// CancelRequest withdraws a pending request sent by actingUserID
func (s *FriendService) CancelRequest(ctx context.Context, requestID string, actingUserID uuid.UUID) (*models.FriendRequest, error) {
	req, err := s.authorize(ctx, requestID, func(r *models.FriendRequest) bool {
		return r.SenderID == actingUserID
	}, ErrNotAllowedToCancel)
	if err != nil {
		return nil, err
	}

	if err := s.resolve(ctx, req.ID); err != nil {
		return nil, serviceError("failed to cancel friend request", err)
	}

	req.Status = models.FriendRequestCancelled
	req.UpdatedAt = time.Now().UTC()

	s.notify(ctx, req.RecipientID, Event{
		Type:  EventFriendRequestCancelled,
		Title: "Friend request withdrawn",
		Body:  "A friend request to you was withdrawn",
		Data:  req,
	})

	return req, nil
}

// ListIncoming returns the pending requests addressed to userID with their senders
func (s *FriendService) ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.IncomingFriendRequest, error) {
	reqs, err := s.store.FriendRequests().ListPendingByRecipient(ctx, userID)
	if err != nil {
		return nil, internalError("failed to list incoming requests", err)
	}

	profiles, err := s.publicProfiles(ctx, reqs, func(r *models.FriendRequest) uuid.UUID { return r.SenderID })
	if err != nil {
		return nil, err
	}

	incoming := make([]models.IncomingFriendRequest, 0, len(reqs))
	for _, r := range reqs {
		sender, ok := profiles[r.SenderID]
		if !ok {
			continue
		}
		incoming = append(incoming, models.IncomingFriendRequest{FriendRequest: *r, Sender: sender})
	}
	sort.SliceStable(incoming, func(i, j int) bool {
		return incoming[i].CreatedAt.After(incoming[j].CreatedAt)
	})

	return incoming, nil
}

// ListOutgoing returns the pending requests sent by userID with their recipients
func (s *FriendService) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.OutgoingFriendRequest, error) {
	reqs, err := s.store.FriendRequests().ListPendingBySender(ctx, userID)
	if err != nil {
		return nil, internalError("failed to list outgoing requests", err)
	}

	profiles, err := s.publicProfiles(ctx, reqs, func(r *models.FriendRequest) uuid.UUID { return r.RecipientID })
	if err != nil {
		return nil, err
	}

	outgoing := make([]models.OutgoingFriendRequest, 0, len(reqs))
	for _, r := range reqs {
		recipient, ok := profiles[r.RecipientID]
		if !ok {
			continue
		}
		outgoing = append(outgoing, models.OutgoingFriendRequest{FriendRequest: *r, Recipient: recipient})
	}
	sort.SliceStable(outgoing, func(i, j int) bool {
		return outgoing[i].CreatedAt.After(outgoing[j].CreatedAt)
	})

	return outgoing, nil
}

// authorize loads the request and checks it may be resolved by the caller.
// Checks run in order: id format, existence, role, status.
func (s *FriendService) authorize(ctx context.Context, requestID string, allowed func(*models.FriendRequest) bool, forbidden error) (*models.FriendRequest, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, ErrInvalidRequestID
	}

	req, err := s.store.FriendRequests().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, internalError("failed to get friend request", err)
	}

	if !allowed(req) {
		return nil, forbidden
	}
	if req.Status != models.FriendRequestPending {
		return nil, ErrRequestNotPending
	}

	return req, nil
}

// resolve deletes a pending request without touching friend sets
func (s *FriendService) resolve(ctx context.Context, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := lockPending(ctx, tx, id); err != nil {
			return err
		}
		return deletePending(ctx, tx, id)
	})
}

// lockPending re-reads the request inside the transaction. A request that
// vanished or moved on since the pre-check was resolved concurrently.
func lockPending(ctx context.Context, tx repository.Store, id uuid.UUID) error {
	req, err := tx.FriendRequests().GetForUpdate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRequestNotPending
	}
	if err != nil {
		return internalError("failed to lock friend request", err)
	}
	if req.Status != models.FriendRequestPending {
		return ErrRequestNotPending
	}
	return nil
}

func deletePending(ctx context.Context, tx repository.Store, id uuid.UUID) error {
	err := tx.FriendRequests().DeletePending(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRequestNotPending
	}
	if err != nil {
		return internalError("failed to delete friend request", err)
	}
	return nil
}

func (s *FriendService) publicProfiles(ctx context.Context, reqs []*models.FriendRequest, counterpart func(*models.FriendRequest) uuid.UUID) (map[uuid.UUID]models.PublicProfile, error) {
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, counterpart(r))
	}

	users, err := s.store.Users().ListByIDs(ctx, ids)
	if err != nil {
		return nil, internalError("failed to load request users", err)
	}

	profiles := make(map[uuid.UUID]models.PublicProfile, len(users))
	for _, u := range users {
		profiles[u.ID] = u.Public()
	}
	return profiles, nil
}

func (s *FriendService) notify(ctx context.Context, userID uuid.UUID, event Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(context.WithoutCancel(ctx), userID, event)
}
