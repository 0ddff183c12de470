package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// defaultTimeout bounds network calls made with a context that has no
// deadline of its own.
const defaultTimeout = 5 * time.Second

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}

// MongoDocumentStore is a DocumentStore backed by a MongoDB collection, one
// BSON document per key.
type MongoDocumentStore struct {
	coll *mongo.Collection
}

var _ DocumentStore = (*MongoDocumentStore)(nil)

// NewMongoDocumentStore creates a Mongo-backed document store.
// dbName defaults to "flowcraft" if empty, collName defaults to "documents".
func NewMongoDocumentStore(client *mongo.Client, dbName, collName string) *MongoDocumentStore {
	if dbName == "" {
		dbName = "flowcraft"
	}
	if collName == "" {
		collName = "documents"
	}

	return &MongoDocumentStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoDocument struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *MongoDocumentStore) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	doc := mongoDocument{Key: key, Value: data, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo put %q: %w", key, err)
	}
	return nil
}

func (s *MongoDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	var doc mongoDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get %q: %w", key, err)
	}
	return doc.Value, nil
}

func (s *MongoDocumentStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongo delete %q: %w", key, err)
	}
	return nil
}
