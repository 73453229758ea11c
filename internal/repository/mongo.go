package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection          = "users"
	friendRequestsCollection = "friend_requests"
)

// MongoStore is a Store backed by MongoDB. Transactions require a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo connects to MongoDB and pings the primary
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return NewMongoStore(client, dbName), nil
}

// NewMongoStore creates a store over a connected client
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(dbName)}
}

// EnsureIndexes creates the indexes the repositories rely on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(friendRequestsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("pair_key_unique"),
		},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create friend request indexes: %w", err)
	}

	_, err = s.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "is_onboarded", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// Users returns the user repository
func (s *MongoStore) Users() UserRepository {
	return &MongoUserRepository{coll: s.db.Collection(usersCollection)}
}

// FriendRequests returns the friend request repository
func (s *MongoStore) FriendRequests() FriendRequestRepository {
	return &MongoFriendRequestRepository{coll: s.db.Collection(friendRequestsCollection)}
}

// WithTx runs fn in a multi-document transaction. The driver retries fn on
// transient write conflicts, so fn must not keep state between attempts.
func (s *MongoStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

// Ping checks the connection to the primary
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
