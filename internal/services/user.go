package services

import (
	"context"
	"errors"
	"strings"

	"lingoconnect-backend/internal/models"
	"lingoconnect-backend/internal/repository"

	"github.com/google/uuid"
)

// UserService handles profile, recommendation and friend list queries
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// Recommend returns onboarded users who are neither userID nor one of their friends
func (s *UserService) Recommend(ctx context.Context, userID uuid.UUID) ([]models.Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	exclude := append([]uuid.UUID{user.ID}, user.Friends...)
	users, err := s.userRepo.ListOnboarded(ctx, exclude)
	if err != nil {
		return nil, internalError("failed to list recommended users", err)
	}

	profiles := make([]models.Profile, 0, len(users))
	for _, u := range users {
		p := u.Profile()
		// Recommendations never expose contact details
		p.Email = ""
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// ListFriends returns the public profiles of userID's friends
func (s *UserService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.PublicProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends, err := s.userRepo.ListByIDs(ctx, user.Friends)
	if err != nil {
		return nil, internalError("failed to list friends", err)
	}

	profiles := make([]models.PublicProfile, 0, len(friends))
	for _, f := range friends {
		profiles = append(profiles, f.Public())
	}
	return profiles, nil
}

// UpdateProfile validates, normalizes and replaces the user's mutable profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, update models.ProfileUpdate) (*models.Profile, error) {
	update = normalizeProfile(update)
	if update.FullName == "" {
		return nil, ErrFullNameRequired
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, update)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, internalError("failed to update profile", err)
	}

	profile := user.Profile()
	return &profile, nil
}

// UpdatePushToken stores the device token used for push notifications.
// An empty token clears it.
func (s *UserService) UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	var pushToken *string
	if token = strings.TrimSpace(token); token != "" {
		pushToken = &token
	}

	err := s.userRepo.UpdatePushToken(ctx, userID, pushToken)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return internalError("failed to update push token", err)
	}
	return nil
}

func (s *UserService) getUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, internalError("failed to get user", err)
	}
	return user, nil
}

func normalizeProfile(u models.ProfileUpdate) models.ProfileUpdate {
	return models.ProfileUpdate{
		FullName:         strings.TrimSpace(u.FullName),
		Bio:              strings.TrimSpace(u.Bio),
		NativeLanguage:   strings.ToLower(strings.TrimSpace(u.NativeLanguage)),
		LearningLanguage: strings.ToLower(strings.TrimSpace(u.LearningLanguage)),
		ProfilePic:       strings.TrimSpace(u.ProfilePic),
	}
}
