package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "session_entries"

// ConnectMongoDB opens a pooled client and returns the named database.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type mongoEntry struct {
	SessionID string    `bson:"session_id"`
	Key       string    `bson:"key"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore stores one document per (session, key).
type MongoStore struct {
	collection *mongo.Collection
	ttl        time.Duration
}

func NewMongoStore(db *mongo.Database, ttl time.Duration) *MongoStore {
	return &MongoStore{collection: db.Collection(mongoCollection), ttl: ttl}
}

// CreateIndexes adds the unique lookup index and, when a TTL is configured,
// the expiry index on updated_at.
func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if m.ttl > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(m.ttl.Seconds())),
		})
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, session, key string) ([]byte, error) {
	var entry mongoEntry
	err := m.collection.FindOne(ctx, bson.M{"session_id": session, "key": key}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry.Value, nil
}

func (m *MongoStore) Set(ctx context.Context, session, key string, value []byte) error {
	now := time.Now().UTC()
	filter := bson.M{"session_id": session, "key": key}
	update := bson.M{"$set": mongoEntry{SessionID: session, Key: key, Value: value, UpdatedAt: now}}

	if _, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	// keep sibling entries alive together with the one just written
	if _, err := m.collection.UpdateMany(ctx, bson.M{"session_id": session}, bson.M{"$set": bson.M{"updated_at": now}}); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, session, key string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"session_id": session, "key": key}); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

func (m *MongoStore) DeleteSession(ctx context.Context, session string) error {
	if _, err := m.collection.DeleteMany(ctx, bson.M{"session_id": session}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.collection.Database().Client().Disconnect(ctx)
}
