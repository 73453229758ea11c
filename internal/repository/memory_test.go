package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"lingoconnect-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, store Store, name string, onboarded bool) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:          uuid.New(),
		FullName:    name,
		Email:       name + "@example.com",
		IsOnboarded: onboarded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func newRequest(from, to uuid.UUID) *models.FriendRequest {
	now := time.Now().UTC()
	return &models.FriendRequest{
		ID:          uuid.New(),
		SenderID:    from,
		RecipientID: to,
		Status:      models.FriendRequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMemoryUsers_CreateRejectsDuplicateEmail(t *testing.T) {
	store := NewMemoryStore()
	u := newUser(t, store, "ana", true)

	dup := &models.User{ID: uuid.New(), Email: u.Email}
	err := store.Users().Create(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryUsers_GetByIDReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)
	b := newUser(t, store, "ben", true)
	require.NoError(t, store.Users().AddFriend(ctx, a.ID, b.ID))

	got, err := store.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	got.Friends[0] = uuid.New()

	again, err := store.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, again.Friends)
}

func TestMemoryUsers_AddFriendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)
	b := newUser(t, store, "ben", true)

	require.NoError(t, store.Users().AddFriend(ctx, a.ID, b.ID))
	require.NoError(t, store.Users().AddFriend(ctx, a.ID, b.ID))

	got, err := store.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, got.Friends)

	err = store.Users().AddFriend(ctx, a.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUsers_ListOnboardedExcludes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)
	b := newUser(t, store, "ben", true)
	newUser(t, store, "cy", false)
	d := newUser(t, store, "dee", true)

	users, err := store.Users().ListOnboarded(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, d.ID, users[0].ID)
}

func TestMemoryUsers_ListByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)

	users, err := store.Users().ListByIDs(ctx, []uuid.UUID{a.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, a.ID, users[0].ID)

	users, err = store.Users().ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMemoryUsers_UpdatePushToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)

	token := "device-token"
	require.NoError(t, store.Users().UpdatePushToken(ctx, a.ID, &token))
	got, err := store.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PushToken)
	assert.Equal(t, token, *got.PushToken)

	require.NoError(t, store.Users().UpdatePushToken(ctx, a.ID, nil))
	got, err = store.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PushToken)

	assert.ErrorIs(t, store.Users().UpdatePushToken(ctx, uuid.New(), nil), ErrNotFound)
}

func TestMemoryRequests_OnePerUnorderedPair(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)
	b := newUser(t, store, "ben", true)

	require.NoError(t, store.FriendRequests().Create(ctx, newRequest(a.ID, b.ID)))

	err := store.FriendRequests().Create(ctx, newRequest(a.ID, b.ID))
	assert.ErrorIs(t, err, ErrDuplicate)
	err = store.FriendRequests().Create(ctx, newRequest(b.ID, a.ID))
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := store.FriendRequests().FindBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.SenderID)
}

func TestMemoryRequests_CreateRequiresUsers(t *testing.T) {
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)

	err := store.FriendRequests().Create(context.Background(), newRequest(a.ID, uuid.New()))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRequests_DeletePendingFreesPair(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)
	b := newUser(t, store, "ben", true)
	req := newRequest(a.ID, b.ID)
	require.NoError(t, store.FriendRequests().Create(ctx, req))

	require.NoError(t, store.FriendRequests().DeletePending(ctx, req.ID))
	assert.ErrorIs(t, store.FriendRequests().DeletePending(ctx, req.ID), ErrNotFound)

	_, err := store.FriendRequests().GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.FriendRequests().FindBetween(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The pair can start over
	require.NoError(t, store.FriendRequests().Create(ctx, newRequest(b.ID, a.ID)))
}

func TestMemoryRequests_ListPending(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)
	b := newUser(t, store, "ben", true)
	c := newUser(t, store, "cy", true)

	require.NoError(t, store.FriendRequests().Create(ctx, newRequest(a.ID, b.ID)))
	require.NoError(t, store.FriendRequests().Create(ctx, newRequest(c.ID, b.ID)))

	incoming, err := store.FriendRequests().ListPendingByRecipient(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, incoming, 2)

	outgoing, err := store.FriendRequests().ListPendingBySender(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, b.ID, outgoing[0].RecipientID)

	none, err := store.FriendRequests().ListPendingBySender(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_WithTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)
	b := newUser(t, store, "ben", true)

	err := store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Users().AddFriend(ctx, a.ID, b.ID); err != nil {
			return err
		}
		return tx.Users().AddFriend(ctx, b.ID, a.ID)
	})
	require.NoError(t, err)

	got, err := store.Users().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.HasFriend(a.ID))
}

func TestMemoryStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)
	b := newUser(t, store, "ben", true)
	req := newRequest(a.ID, b.ID)
	require.NoError(t, store.FriendRequests().Create(ctx, req))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Users().AddFriend(ctx, a.ID, b.ID); err != nil {
			return err
		}
		if err := tx.FriendRequests().DeletePending(ctx, req.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Friends)

	stored, err := store.FriendRequests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, stored.Status)
}

func TestMemoryStore_WithTxRollsBackOnCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	a := newUser(t, store, "ana", true)
	b := newUser(t, store, "ben", true)

	ctx, cancel := context.WithCancel(context.Background())
	err := store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		cancel()
		return tx.Users().AddFriend(ctx, a.ID, b.ID)
	})
	require.ErrorIs(t, err, context.Canceled)

	got, err := store.Users().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Friends)
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, pairKey(a, b), pairKey(b, a))
	assert.NotEqual(t, pairKey(a, b), pairKey(a, uuid.New()))
}

func TestTranslatePgError(t *testing.T) {
	assert.ErrorIs(t, translatePgError(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, translatePgError(fmt.Errorf("query: %w", pgx.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, translatePgError(&pgconn.PgError{Code: "23505"}), ErrDuplicate)
	assert.ErrorIs(t, translatePgError(&pgconn.PgError{Code: "23503"}), ErrNotFound)

	other := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, error(other), translatePgError(other))
}
