package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for the transport layer
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is returned by every service operation that fails
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind and message, so sentinels compare
// equal even when a copy carries a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

const internalMessage = "Internal Server Error"

// internalError wraps an unexpected failure. Only the generic message
// reaches the caller; the cause stays available for logging.
func internalError(op string, err error) error {
	return &Error{Kind: KindInternal, Message: internalMessage, Err: fmt.Errorf("%s: %w", op, err)}
}

// serviceError passes service errors through and wraps anything else,
// such as a failed commit, as internal.
func serviceError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return internalError(op, err)
}

// KindOf returns the kind of err, or KindInternal for errors not produced here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return internalMessage
}

var (
	ErrInvalidRecipientID   = newError(KindInvalidArgument, "Invalid recipient ID")
	ErrInvalidRequestID     = newError(KindInvalidArgument, "Invalid request ID")
	ErrSelfFriendRequest    = newError(KindInvalidArgument, "You can't send friend request to yourself")
	ErrFullNameRequired     = newError(KindInvalidArgument, "Full name is required")
	ErrUnsupportedImageType = newError(KindInvalidArgument, "Unsupported image type")

	ErrRecipientNotFound = newError(KindNotFound, "Recipient not found")
	ErrRequestNotFound   = newError(KindNotFound, "Friend request not found")
	ErrUserNotFound      = newError(KindNotFound, "User not found")

	ErrNotAllowedToAccept = newError(KindForbidden, "You are not authorized to accept this request")
	ErrNotAllowedToReject = newError(KindForbidden, "You are not authorized to reject this request")
	ErrNotAllowedToCancel = newError(KindForbidden, "You are not authorized to cancel this request")

	ErrAlreadyFriends    = newError(KindConflict, "You are already friends with this user")
	ErrRequestExists     = newError(KindConflict, "A friend request already exists between you and this user")
	ErrRequestNotPending = newError(KindConflict, "Friend request is no longer pending")
)
