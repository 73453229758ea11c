package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lingoconnect-backend/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. All operations are serialized by one
// mutex; a transaction works on a copy that replaces the live state only
// when the unit succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryState struct {
	users    map[uuid.UUID]*models.User
	requests map[uuid.UUID]*models.FriendRequest
	pairs    map[string]uuid.UUID
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{
		users:    map[uuid.UUID]*models.User{},
		requests: map[uuid.UUID]*models.FriendRequest{},
		pairs:    map[string]uuid.UUID{},
	}}
}

func (st *memoryState) clone() *memoryState {
	c := &memoryState{
		users:    make(map[uuid.UUID]*models.User, len(st.users)),
		requests: make(map[uuid.UUID]*models.FriendRequest, len(st.requests)),
		pairs:    make(map[string]uuid.UUID, len(st.pairs)),
	}
	for id, u := range st.users {
		c.users[id] = copyUser(u)
	}
	for id, r := range st.requests {
		req := *r
		c.requests[id] = &req
	}
	for k, v := range st.pairs {
		c.pairs[k] = v
	}
	return c
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Friends = append([]uuid.UUID{}, u.Friends...)
	if u.PushToken != nil {
		token := *u.PushToken
		c.PushToken = &token
	}
	return &c
}

// Users returns the user repository
func (s *MemoryStore) Users() UserRepository {
	return &memoryUsers{store: s}
}

// FriendRequests returns the friend request repository
func (s *MemoryStore) FriendRequests() FriendRequestRepository {
	return &memoryRequests{store: s}
}

// WithTx holds the store lock for the whole unit of work
func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(ctx, &memoryTx{state: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// memoryTx is the view of a MemoryStore handed to a transaction
type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) Users() UserRepository {
	return &memoryUsers{state: t.state}
}

func (t *memoryTx) FriendRequests() FriendRequestRepository {
	return &memoryRequests{state: t.state}
}

func (t *memoryTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

func (t *memoryTx) Ping(ctx context.Context) error {
	return nil
}

func (t *memoryTx) Close(ctx context.Context) error {
	return nil
}

// run gives fn the transaction state, or the live state under the lock
func run(store *MemoryStore, state *memoryState, fn func(st *memoryState) error) error {
	if state != nil {
		return fn(state)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	return fn(store.state)
}

type memoryUsers struct {
	store *MemoryStore
	state *memoryState
}

func (r *memoryUsers) Create(ctx context.Context, user *models.User) error {
	return run(r.store, r.state, func(st *memoryState) error {
		if _, ok := st.users[user.ID]; ok {
			return fmt.Errorf("user already exists: %w", ErrDuplicate)
		}
		for _, u := range st.users {
			if user.Email != "" && u.Email == user.Email {
				return fmt.Errorf("user already exists: %w", ErrDuplicate)
			}
		}
		st.users[user.ID] = copyUser(user)
		return nil
	})
}

func (r *memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user *models.User
	err := run(r.store, r.state, func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		user = copyUser(u)
		return nil
	})
	return user, err
}

func (r *memoryUsers) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	users := []*models.User{}
	err := run(r.store, r.state, func(st *memoryState) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				users = append(users, copyUser(u))
			}
		}
		return nil
	})
	return users, err
}

func (r *memoryUsers) ListOnboarded(ctx context.Context, exclude []uuid.UUID) ([]*models.User, error) {
	skip := make(map[uuid.UUID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	users := []*models.User{}
	err := run(r.store, r.state, func(st *memoryState) error {
		for id, u := range st.users {
			if _, excluded := skip[id]; excluded || !u.IsOnboarded {
				continue
			}
			users = append(users, copyUser(u))
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, err
}

func (r *memoryUsers) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	var user *models.User
	err := run(r.store, r.state, func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		u.FullName = update.FullName
		u.Bio = update.Bio
		u.NativeLanguage = update.NativeLanguage
		u.LearningLanguage = update.LearningLanguage
		u.ProfilePic = update.ProfilePic
		u.UpdatedAt = time.Now().UTC()
		user = copyUser(u)
		return nil
	})
	return user, err
}

func (r *memoryUsers) UpdatePushToken(ctx context.Context, id uuid.UUID, pushToken *string) error {
	return run(r.store, r.state, func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		u.PushToken = nil
		if pushToken != nil {
			token := *pushToken
			u.PushToken = &token
		}
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *memoryUsers) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	return run(r.store, r.state, func(st *memoryState) error {
		u, ok := st.users[userID]
		if !ok {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		if _, ok := st.users[friendID]; !ok {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		if !u.HasFriend(friendID) {
			u.Friends = append(u.Friends, friendID)
			u.UpdatedAt = time.Now().UTC()
		}
		return nil
	})
}

type memoryRequests struct {
	store *MemoryStore
	state *memoryState
}

func (r *memoryRequests) Create(ctx context.Context, req *models.FriendRequest) error {
	return run(r.store, r.state, func(st *memoryState) error {
		key := pairKey(req.SenderID, req.RecipientID)
		if _, exists := st.pairs[key]; exists {
			return fmt.Errorf("friend request already exists: %w", ErrDuplicate)
		}
		if _, exists := st.requests[req.ID]; exists {
			return fmt.Errorf("friend request already exists: %w", ErrDuplicate)
		}
		if _, ok := st.users[req.SenderID]; !ok {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		if _, ok := st.users[req.RecipientID]; !ok {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		stored := *req
		st.requests[req.ID] = &stored
		st.pairs[key] = req.ID
		return nil
	})
}

func (r *memoryRequests) GetByID(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	var req *models.FriendRequest
	err := run(r.store, r.state, func(st *memoryState) error {
		stored, ok := st.requests[id]
		if !ok {
			return fmt.Errorf("friend request not found: %w", ErrNotFound)
		}
		c := *stored
		req = &c
		return nil
	})
	return req, err
}

// GetForUpdate needs no extra locking: transactions already hold the store lock.
func (r *memoryRequests) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryRequests) FindBetween(ctx context.Context, a, b uuid.UUID) (*models.FriendRequest, error) {
	var req *models.FriendRequest
	err := run(r.store, r.state, func(st *memoryState) error {
		id, ok := st.pairs[pairKey(a, b)]
		if !ok {
			return fmt.Errorf("friend request not found: %w", ErrNotFound)
		}
		c := *st.requests[id]
		req = &c
		return nil
	})
	return req, err
}

func (r *memoryRequests) ListPendingBySender(ctx context.Context, senderID uuid.UUID) ([]*models.FriendRequest, error) {
	return r.listPending(func(req *models.FriendRequest) bool { return req.SenderID == senderID })
}

func (r *memoryRequests) ListPendingByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*models.FriendRequest, error) {
	return r.listPending(func(req *models.FriendRequest) bool { return req.RecipientID == recipientID })
}

func (r *memoryRequests) listPending(match func(req *models.FriendRequest) bool) ([]*models.FriendRequest, error) {
	reqs := []*models.FriendRequest{}
	err := run(r.store, r.state, func(st *memoryState) error {
		for _, stored := range st.requests {
			if stored.Status != models.FriendRequestPending || !match(stored) {
				continue
			}
			c := *stored
			reqs = append(reqs, &c)
		}
		return nil
	})
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
	return reqs, err
}

func (r *memoryRequests) DeletePending(ctx context.Context, id uuid.UUID) error {
	return run(r.store, r.state, func(st *memoryState) error {
		stored, ok := st.requests[id]
		if !ok || stored.Status != models.FriendRequestPending {
			return fmt.Errorf("friend request not found: %w", ErrNotFound)
		}
		delete(st.requests, id)
		delete(st.pairs, pairKey(stored.SenderID, stored.RecipientID))
		return nil
	})
}
