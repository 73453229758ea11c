package repository

import (
	"context"
	"errors"
	"fmt"

	"lingoconnect-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const friendRequestColumns = `id, sender_id, recipient_id, status, created_at, updated_at`

// PostgresFriendRequestRepository handles database operations for friend requests
type PostgresFriendRequestRepository struct {
	db dbtx
}

// Create creates a new friend request
func (r *PostgresFriendRequestRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (` + friendRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		req.ID, req.SenderID, req.RecipientID, req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		switch translatePgError(err) {
		case ErrDuplicate:
			return fmt.Errorf("friend request already exists: %w", ErrDuplicate)
		case ErrNotFound:
			return fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

// GetByID retrieves a friend request by ID
func (r *PostgresFriendRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate retrieves a friend request and locks its row
func (r *PostgresFriendRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

// FindBetween retrieves the request between two users in either direction
func (r *PostgresFriendRequestRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*models.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		LIMIT 1
	`
	return r.getOne(ctx, query, a, b)
}

// ListPendingBySender retrieves pending requests sent by a user, newest first
func (r *PostgresFriendRequestRepository) ListPendingBySender(ctx context.Context, senderID uuid.UUID) ([]*models.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE sender_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, senderID)
}

// ListPendingByRecipient retrieves pending requests sent to a user, newest first
func (r *PostgresFriendRequestRepository) ListPendingByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*models.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE recipient_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, recipientID)
}

// DeletePending deletes a friend request that is still pending
func (r *PostgresFriendRequestRepository) DeletePending(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM friend_requests WHERE id = $1 AND status = 'pending'`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("friend request not found: %w", ErrNotFound)
	}
	return nil
}

func (r *PostgresFriendRequestRepository) getOne(ctx context.Context, query string, args ...any) (*models.FriendRequest, error) {
	req, err := scanFriendRequest(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(translatePgError(err), ErrNotFound) {
			return nil, fmt.Errorf("friend request not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}
	return req, nil
}

func (r *PostgresFriendRequestRepository) list(ctx context.Context, query string, args ...any) ([]*models.FriendRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	defer rows.Close()

	reqs := []*models.FriendRequest{}
	for rows.Next() {
		req, err := scanFriendRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friend requests: %w", err)
	}
	return reqs, nil
}

func scanFriendRequest(row pgx.Row) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := row.Scan(&req.ID, &req.SenderID, &req.RecipientID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
