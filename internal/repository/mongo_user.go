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

type mongoUser struct {
	ID               string    `bson:"_id"`
	FullName         string    `bson:"full_name"`
	Email            string    `bson:"email"`
	Bio              string    `bson:"bio"`
	ProfilePic       string    `bson:"profile_pic"`
	NativeLanguage   string    `bson:"native_language"`
	LearningLanguage string    `bson:"learning_language"`
	Location         string    `bson:"location"`
	IsOnboarded      bool      `bson:"is_onboarded"`
	Friends          []string  `bson:"friends"`
	PushToken        *string   `bson:"push_token,omitempty"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func newMongoUser(u *models.User) mongoUser {
	friends := uuidStrings(u.Friends)
	return mongoUser{
		ID:               u.ID.String(),
		FullName:         u.FullName,
		Email:            u.Email,
		Bio:              u.Bio,
		ProfilePic:       u.ProfilePic,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
		Location:         u.Location,
		IsOnboarded:      u.IsOnboarded,
		Friends:          friends,
		PushToken:        u.PushToken,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (d mongoUser) model() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	friends := make([]uuid.UUID, 0, len(d.Friends))
	for _, f := range d.Friends {
		fid, err := uuid.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("invalid friend id %q: %w", f, err)
		}
		friends = append(friends, fid)
	}
	return &models.User{
		ID:               id,
		FullName:         d.FullName,
		Email:            d.Email,
		Bio:              d.Bio,
		ProfilePic:       d.ProfilePic,
		NativeLanguage:   d.NativeLanguage,
		LearningLanguage: d.LearningLanguage,
		Location:         d.Location,
		IsOnboarded:      d.IsOnboarded,
		Friends:          friends,
		PushToken:        d.PushToken,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

// MongoUserRepository handles collection operations for users
type MongoUserRepository struct {
	coll *mongo.Collection
}

// Create creates a new user
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if _, err := r.coll.InsertOne(ctx, newMongoUser(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user already exists: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *MongoUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var doc mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.model()
}

// ListByIDs retrieves the users that exist among ids
func (r *MongoUserRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": uuidStrings(ids)}})
}

// ListOnboarded retrieves onboarded users not in exclude
func (r *MongoUserRepository) ListOnboarded(ctx context.Context, exclude []uuid.UUID) ([]*models.User, error) {
	filter := bson.M{
		"is_onboarded": true,
		"_id":          bson.M{"$nin": uuidStrings(exclude)},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// UpdateProfile replaces the mutable profile fields
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	change := bson.M{
		"$set": bson.M{
			"full_name":         update.FullName,
			"bio":               update.Bio,
			"native_language":   update.NativeLanguage,
			"learning_language": update.LearningLanguage,
			"profile_pic":       update.ProfilePic,
			"updated_at":        time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoUser
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, change, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return doc.model()
}

// UpdatePushToken sets or clears the push token for a user
func (r *MongoUserRepository) UpdatePushToken(ctx context.Context, id uuid.UUID, pushToken *string) error {
	change := bson.M{"$set": bson.M{"push_token": pushToken, "updated_at": time.Now().UTC()}}
	if pushToken == nil {
		change = bson.M{
			"$unset": bson.M{"push_token": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	}

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, change)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}

// AddFriend adds friendID to the user's friends array if absent
func (r *MongoUserRepository) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	change := bson.M{
		"$addToSet": bson.M{"friends": friendID.String()},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID.String()}, change)
	if err != nil {
		return fmt.Errorf("failed to add friend: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	return nil
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*models.User, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var docs []mongoUser
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		user, err := doc.model()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
