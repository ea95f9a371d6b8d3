// Package slotlock provides the mutual-exclusion primitive behind booking
// creation. A lock on a slot key grants its holder the exclusive right to
// write a booking for that slot until the lock is released or its TTL lapses.
//
// Stores must make acquire atomic: under N concurrent Acquire calls for the
// same key exactly one returns true. Losers get an immediate false rather
// than queueing. Release is idempotent.
package slotlock

import (
	"context"
	"time"
)

// LockStore is the single source of truth for slot exclusivity. The in-memory
// implementation suits single-instance deployments; horizontally scaled
// deployments inject the Mongo-backed store so every instance sees the same
// lock table.
type LockStore interface {
	// Acquire installs a lock iff no live lock exists for key. The bool
	// reports whether the caller won the slot; false is not an error.
	Acquire(ctx context.Context, key SlotKey, holderID string, ttl time.Duration) (bool, error)

	// Release tears down the lock for key. Releasing an expired, already
	// released, or never-acquired key is a no-op.
	Release(ctx context.Context, key SlotKey) error

	// IsLocked reports whether a live lock currently exists for key.
	IsLocked(ctx context.Context, key SlotKey) (bool, error)
}

// Lock is the record a store keeps per held slot.
type Lock struct {
	Key        SlotKey
	HolderID   string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}
