package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system
type User struct {
	ID               uuid.UUID   `json:"id"`
	FullName         string      `json:"full_name"`
	Email            string      `json:"email"`
	Bio              string      `json:"bio"`
	ProfilePic       string      `json:"profile_pic"`
	NativeLanguage   string      `json:"native_language"`
	LearningLanguage string      `json:"learning_language"`
	Location         string      `json:"location"`
	IsOnboarded      bool        `json:"is_onboarded"`
	Friends          []uuid.UUID `json:"friends"`
	PushToken        *string     `json:"-"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// HasFriend reports whether id is in the user's friend set.
func (u *User) HasFriend(id uuid.UUID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// Profile returns the user's own profile projection.
func (u *User) Profile() Profile {
	return Profile{
		ID:               u.ID,
		FullName:         u.FullName,
		Email:            u.Email,
		Bio:              u.Bio,
		ProfilePic:       u.ProfilePic,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
		Location:         u.Location,
		IsOnboarded:      u.IsOnboarded,
	}
}

// Public returns the fields other users may see next to a friend or request.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:               u.ID,
		FullName:         u.FullName,
		ProfilePic:       u.ProfilePic,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
	}
}

// Profile is the mutable, user-facing part of a user record
type Profile struct {
	ID               uuid.UUID `json:"id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email,omitempty"`
	Bio              string    `json:"bio"`
	ProfilePic       string    `json:"profile_pic"`
	NativeLanguage   string    `json:"native_language"`
	LearningLanguage string    `json:"learning_language"`
	Location         string    `json:"location"`
	IsOnboarded      bool      `json:"is_onboarded"`
}

// PublicProfile is the subset of a profile shown for friends and request counterparts
type PublicProfile struct {
	ID               uuid.UUID `json:"id"`
	FullName         string    `json:"full_name"`
	ProfilePic       string    `json:"profile_pic"`
	NativeLanguage   string    `json:"native_language"`
	LearningLanguage string    `json:"learning_language"`
}

// ProfileUpdate carries the replaceable profile fields
type ProfileUpdate struct {
	FullName         string `json:"full_name"`
	Bio              string `json:"bio"`
	NativeLanguage   string `json:"native_language"`
	LearningLanguage string `json:"learning_language"`
	ProfilePic       string `json:"profile_pic"`
}

// FriendRequestStatus is the lifecycle state of a friend request
type FriendRequestStatus string

const (
	FriendRequestPending   FriendRequestStatus = "pending"
	FriendRequestAccepted  FriendRequestStatus = "accepted"
	FriendRequestRejected  FriendRequestStatus = "rejected"
	FriendRequestCancelled FriendRequestStatus = "cancelled"
)

// FriendRequest represents a friend request between two users.
// Only pending requests are ever stored.
type FriendRequest struct {
	ID          uuid.UUID           `json:"id"`
	SenderID    uuid.UUID           `json:"sender_id"`
	RecipientID uuid.UUID           `json:"recipient_id"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// IncomingFriendRequest is a pending request enriched with its sender
type IncomingFriendRequest struct {
	FriendRequest
	Sender PublicProfile `json:"sender"`
}

// OutgoingFriendRequest is a pending request enriched with its recipient
type OutgoingFriendRequest struct {
	FriendRequest
	Recipient PublicProfile `json:"recipient"`
}
