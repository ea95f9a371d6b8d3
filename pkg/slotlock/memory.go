package slotlock

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the lock table in process memory behind a mutex. A single
// background sweeper walks a min-heap of expirations instead of arming one
// timer per lock.
type MemoryStore struct {
	mu      sync.Mutex
	locks   map[string]*Lock
	expiry  expiryHeap
	sweep   time.Duration
	stopCh  chan struct{}
	stopped bool
}

type expiryEntry struct {
	key       string
	expiresAt time.Time
}

type expiryHeap []expiryEntry

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x any)         { *h = append(*h, x.(expiryEntry)) }
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

const defaultSweepInterval = 250 * time.Millisecond

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		locks:  make(map[string]*Lock),
		sweep:  defaultSweepInterval,
		stopCh: make(chan struct{}),
	}
	go s.sweeper()
	return s
}

func (s *MemoryStore) Acquire(_ context.Context, key SlotKey, holderID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.locks[key.String()]; ok && existing.ExpiresAt.After(now) {
		return false, nil
	}

	lock := &Lock{
		Key:        key,
		HolderID:   holderID,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	s.locks[key.String()] = lock
	heap.Push(&s.expiry, expiryEntry{key: key.String(), expiresAt: lock.ExpiresAt})
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key SlotKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key.String())
	return nil
}

func (s *MemoryStore) IsLocked(_ context.Context, key SlotKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key.String()]
	return ok && lock.ExpiresAt.After(time.Now()), nil
}

// Stop terminates the sweeper. Held locks still expire logically; they are
// just no longer reaped from the map.
func (s *MemoryStore) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.stopCh)
	}
}

func (s *MemoryStore) sweeper() {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reapExpired(time.Now())
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) reapExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.expiry.Len() > 0 && !s.expiry[0].expiresAt.After(now) {
		entry := heap.Pop(&s.expiry).(expiryEntry)
		// A heap entry may be stale: the slot was released and re-acquired
		// with a later expiry. Only reap when the live lock matches.
		if lock, ok := s.locks[entry.key]; ok && !lock.ExpiresAt.After(now) {
			delete(s.locks, entry.key)
		}
	}
}
