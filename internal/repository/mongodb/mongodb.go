// Package mongodb implements the repository interfaces on top of MongoDB.
//
// Reports are stored as loosely-typed documents: the known fields get their own
// keys and every extra client field is inlined next to them, so the collection
// looks exactly like the JSON the frontend submitted.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection   = "users"
	reportsCollection = "reports"
)

// Store holds the database handle shared by the per-collection repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the primary is reachable and returns a Store
// bound to dbName. Indexes are created by EnsureIndexes, not here.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: pinging: %w", err)
	}

	return &Store{client: client, db: client.Database(dbName)}, nil
}

// NewFromDatabase wraps an existing database handle. The caller keeps
// ownership of the client; Close is a no-op on such a Store.
func NewFromDatabase(db *mongo.Database) *Store {
	return &Store{db: db}
}

// EnsureIndexes creates the unique email index and the owner/created index
// used by report listing. Safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating users.email index: %w", err)
	}

	_, err = s.db.Collection(reportsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating reports.userId index: %w", err)
	}

	return nil
}

// Close disconnects the client if this Store opened it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) Users() *UserCollection {
	return &UserCollection{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Reports() *ReportCollection {
	return &ReportCollection{coll: s.db.Collection(reportsCollection)}
}
