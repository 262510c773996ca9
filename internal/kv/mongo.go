package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MongoCollection = "kv"

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one document per key.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(MongoCollection)}
}

func (m *MongoStore) Name() string { return "mongo" }

func (m *MongoStore) Get(ctx context.Context, key string) (Entry, error) {
	var doc mongoEntry
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("mongo get %s: %w", key, err)
	}
	return Entry{Value: []byte(doc.Value), Version: doc.Version}, nil
}

func (m *MongoStore) Set(ctx context.Context, key string, value []byte) error {
	update := bson.M{
		"$set": bson.M{"value": string(value), "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	_, err := m.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", key, err)
	}
	return nil
}

func (m *MongoStore) CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error) {
	next := version + 1
	now := time.Now().UTC()

	if version == 0 {
		_, err := m.coll.InsertOne(ctx, mongoEntry{Key: key, Value: string(value), Version: next, UpdatedAt: now})
		if mongo.IsDuplicateKeyError(err) {
			return 0, ErrVersionConflict
		}
		if err != nil {
			return 0, fmt.Errorf("mongo cas %s: %w", key, err)
		}
		return next, nil
	}

	res, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": key, "version": version},
		bson.M{"$set": bson.M{"value": string(value), "version": next, "updated_at": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("mongo cas %s: %w", key, err)
	}
	if res.MatchedCount == 0 {
		return 0, ErrVersionConflict
	}
	return next, nil
}
