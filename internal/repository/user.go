package repository

import (
	"context"
	"errors"
	"fmt"

	"lingoconnect-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, full_name, email, bio, profile_pic, native_language, learning_language,
	location, is_onboarded, push_token, created_at, updated_at`

// PostgresUserRepository handles database operations for users
type PostgresUserRepository struct {
	db dbtx
}

// Create creates a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.FullName, user.Email, user.Bio, user.ProfilePic, user.NativeLanguage,
		user.LearningLanguage, user.Location, user.IsOnboarded, user.PushToken,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(translatePgError(err), ErrDuplicate) {
			return fmt.Errorf("user already exists: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	for _, friendID := range user.Friends {
		if err := r.AddFriend(ctx, user.ID, friendID); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a user with their friend set
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(translatePgError(err), ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Friends, err = r.friendIDs(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

// ListByIDs retrieves the users that exist among ids. Friend sets are not loaded.
func (r *PostgresUserRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`
	return r.queryUsers(ctx, query, ids)
}

// ListOnboarded retrieves onboarded users not in exclude. Friend sets are not loaded.
func (r *PostgresUserRepository) ListOnboarded(ctx context.Context, exclude []uuid.UUID) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE is_onboarded AND NOT (id = ANY($1::uuid[]))
		ORDER BY created_at DESC
	`
	if exclude == nil {
		exclude = []uuid.UUID{}
	}
	return r.queryUsers(ctx, query, exclude)
}

// UpdateProfile replaces the mutable profile fields
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users
		SET full_name = $2, bio = $3, native_language = $4, learning_language = $5,
			profile_pic = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, id,
		update.FullName, update.Bio, update.NativeLanguage, update.LearningLanguage, update.ProfilePic,
	))
	if err != nil {
		if errors.Is(translatePgError(err), ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if user.Friends, err = r.friendIDs(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePushToken updates the push token for a user
func (r *PostgresUserRepository) UpdatePushToken(ctx context.Context, id uuid.UUID, pushToken *string) error {
	query := `UPDATE users SET push_token = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, id)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}

// AddFriend inserts one direction of a friendship
func (r *PostgresUserRepository) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	query := `
		INSERT INTO user_friends (user_id, friend_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, friend_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, userID, friendID); err != nil {
		if errors.Is(translatePgError(err), ErrNotFound) {
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to add friend: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) friendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT friend_id FROM user_friends WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	defer rows.Close()

	friends := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}
	return friends, nil
}

func (r *PostgresUserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.Bio, &user.ProfilePic, &user.NativeLanguage,
		&user.LearningLanguage, &user.Location, &user.IsOnboarded, &user.PushToken,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
