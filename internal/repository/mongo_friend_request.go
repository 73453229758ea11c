package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lingoconnect-backend/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoFriendRequest struct {
	ID          string    `bson:"_id"`
	SenderID    string    `bson:"sender_id"`
	RecipientID string    `bson:"recipient_id"`
	Status      string    `bson:"status"`
	PairKey     string    `bson:"pair_key"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d mongoFriendRequest) model() (*models.FriendRequest, error) {
	ids := make([]uuid.UUID, 3)
	for i, raw := range []string{d.ID, d.SenderID, d.RecipientID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q in friend request: %w", raw, err)
		}
		ids[i] = id
	}
	return &models.FriendRequest{
		ID:          ids[0],
		SenderID:    ids[1],
		RecipientID: ids[2],
		Status:      models.FriendRequestStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

// pairKey identifies the unordered pair {a, b}
func pairKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if as > bs {
		as, bs = bs, as
	}
	return as + ":" + bs
}

// MongoFriendRequestRepository handles collection operations for friend requests
type MongoFriendRequestRepository struct {
	coll *mongo.Collection
}

// Create creates a new friend request
func (r *MongoFriendRequestRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	doc := mongoFriendRequest{
		ID:          req.ID.String(),
		SenderID:    req.SenderID.String(),
		RecipientID: req.RecipientID.String(),
		Status:      string(req.Status),
		PairKey:     pairKey(req.SenderID, req.RecipientID),
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("friend request already exists: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

// GetByID retrieves a friend request by ID
func (r *MongoFriendRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// GetForUpdate reads the request inside the session's transaction. A
// concurrent writer makes the later write fail with a transient conflict,
// which aborts and retries the transaction.
func (r *MongoFriendRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// FindBetween retrieves the request between two users in either direction
func (r *MongoFriendRequestRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*models.FriendRequest, error) {
	return r.findOne(ctx, bson.M{"pair_key": pairKey(a, b)})
}

// ListPendingBySender retrieves pending requests sent by a user, newest first
func (r *MongoFriendRequestRepository) ListPendingBySender(ctx context.Context, senderID uuid.UUID) ([]*models.FriendRequest, error) {
	return r.find(ctx, bson.M{"sender_id": senderID.String(), "status": string(models.FriendRequestPending)})
}

// ListPendingByRecipient retrieves pending requests sent to a user, newest first
func (r *MongoFriendRequestRepository) ListPendingByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*models.FriendRequest, error) {
	return r.find(ctx, bson.M{"recipient_id": recipientID.String(), "status": string(models.FriendRequestPending)})
}

// DeletePending deletes a friend request that is still pending
func (r *MongoFriendRequestRepository) DeletePending(ctx context.Context, id uuid.UUID) error {
	filter := bson.M{"_id": id.String(), "status": string(models.FriendRequestPending)}
	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("friend request not found: %w", ErrNotFound)
	}
	return nil
}

func (r *MongoFriendRequestRepository) findOne(ctx context.Context, filter bson.M) (*models.FriendRequest, error) {
	var doc mongoFriendRequest
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("friend request not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get friend request: %w", err)
	}
	return doc.model()
}

func (r *MongoFriendRequestRepository) find(ctx context.Context, filter bson.M) ([]*models.FriendRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	var docs []mongoFriendRequest
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode friend requests: %w", err)
	}

	reqs := make([]*models.FriendRequest, 0, len(docs))
	for _, doc := range docs {
		req, err := doc.model()
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
