package auth

import (
	"container/list"
	"crypto/sha256"
	"sync"
	"time"
)

// tokenCache memoizes verified tokens keyed by the SHA-256 of the raw
// token, so raw credentials are never held in memory. Least recently
// used entries are evicted once the capacity is reached.
type tokenCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[[32]byte]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key       [32]byte
	claims    *IdentityClaims
	expiresAt time.Time
}

func newTokenCache(capacity int, ttl time.Duration) *tokenCache {
	return &tokenCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[[32]byte]*list.Element),
		order:    list.New(),
	}
}

func (c *tokenCache) Get(rawToken string) (*IdentityClaims, bool) {
	key := sha256.Sum256([]byte(rawToken))

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return entry.claims, true
}

func (c *tokenCache) Set(rawToken string, claims *IdentityClaims) {
	key := sha256.Sum256([]byte(rawToken))

	expiresAt := time.Now().Add(c.ttl)
	if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(expiresAt) {
		expiresAt = claims.ExpiresAt
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.claims = claims
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	elem := c.order.PushFront(&cacheEntry{
		key:       key,
		claims:    claims,
		expiresAt: expiresAt,
	})
	c.entries[key] = elem
}

func (c *tokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
