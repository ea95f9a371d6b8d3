package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"voicebook/pkg/config"
	"voicebook/pkg/slotlock"
)

const (
	LockCollectionName = "Slot_locks"
)

type lockDocument struct {
	ID        string    `bson:"_id"`
	HolderID  string    `bson:"holder_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// mongoLockStore implements slotlock.LockStore on a Mongo collection.
// Atomicity comes from the unique _id insert; a TTL index on expires_at
// reaps locks from crashed holders, with an inline liveness check so a
// not-yet-reaped expired lock does not block the slot.
type mongoLockStore struct {
	collection *mongo.Collection
}

func NewMongoLockStore(cfg *config.Config) slotlock.LockStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockStore{
		collection: db.Collection(LockCollectionName),
	}
}

func (s *mongoLockStore) Acquire(ctx context.Context, key slotlock.SlotKey, holderID string, ttl time.Duration) (bool, error) {
	now := time.Now()
	doc := lockDocument{
		ID:        key.String(),
		HolderID:  holderID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := s.collection.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, err
	}

	// An existing lock may have expired without being reaped yet. Clear
	// it only if it is actually stale, then retry the insert once.
	result, delErr := s.collection.DeleteOne(ctx, bson.M{
		"_id":        key.String(),
		"expires_at": bson.M{"$lt": now},
	})
	if delErr != nil {
		return false, delErr
	}
	if result.DeletedCount == 0 {
		return false, nil
	}

	_, err = s.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *mongoLockStore) Release(ctx context.Context, key slotlock.SlotKey) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": key.String()})
	return err
}

func (s *mongoLockStore) IsLocked(ctx context.Context, key slotlock.SlotKey) (bool, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{
		"_id":        key.String(),
		"expires_at": bson.M{"$gte": time.Now()},
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
