package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindAndMessage(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrRequestExists)
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, "A friend request already exists between you and this user", MessageOf(wrapped))
	assert.ErrorIs(t, wrapped, ErrRequestExists)
	assert.NotErrorIs(t, wrapped, ErrAlreadyFriends)

	plain := errors.New("connection reset")
	assert.Equal(t, KindInternal, KindOf(plain))
	assert.Equal(t, "Internal Server Error", MessageOf(plain))
}

func TestInternalErrorHidesCause(t *testing.T) {
	cause := errors.New("pq: relation does not exist")
	err := internalError("failed to get user", cause)

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Internal Server Error", MessageOf(err))
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, newError(KindInternal, internalMessage))
}

func TestServiceErrorKeepsKnownErrors(t *testing.T) {
	assert.Equal(t, error(ErrRequestNotPending), serviceError("op", ErrRequestNotPending))

	err := serviceError("failed to commit", errors.New("tx aborted"))
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "internal", KindInternal.String())
}
