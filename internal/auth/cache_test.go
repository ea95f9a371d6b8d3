package auth

import (
	"fmt"
	"testing"
	"time"
)

func TestTokenCache_GetSet(t *testing.T) {
	cache := newTokenCache(10, time.Minute)
	claims := &IdentityClaims{Subject: "user-1", TenantID: "clinic-a"}

	if _, ok := cache.Get("token-1"); ok {
		t.Error("expected miss on empty cache")
	}

	cache.Set("token-1", claims)

	got, ok := cache.Get("token-1")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.TenantID != "clinic-a" {
		t.Errorf("TenantID = %q, want %q", got.TenantID, "clinic-a")
	}
}

func TestTokenCache_TTLExpiry(t *testing.T) {
	cache := newTokenCache(10, 20*time.Millisecond)
	cache.Set("token-1", &IdentityClaims{TenantID: "clinic-a"})

	if _, ok := cache.Get("token-1"); !ok {
		t.Fatal("expected hit before TTL")
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := cache.Get("token-1"); ok {
		t.Error("expected miss after TTL")
	}
	if cache.Len() != 0 {
		t.Errorf("cache length = %d, want 0 after expiry sweep on read", cache.Len())
	}
}

func TestTokenCache_TokenExpiryCapsEntryLifetime(t *testing.T) {
	cache := newTokenCache(10, time.Hour)
	cache.Set("token-1", &IdentityClaims{
		TenantID:  "clinic-a",
		ExpiresAt: time.Now().Add(20 * time.Millisecond),
	})

	time.Sleep(30 * time.Millisecond)

	if _, ok := cache.Get("token-1"); ok {
		t.Error("entry outlived the token's own expiry")
	}
}

func TestTokenCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := newTokenCache(3, time.Minute)

	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("token-%d", i), &IdentityClaims{Subject: fmt.Sprintf("user-%d", i)})
	}

	// Touch token-0 so token-1 becomes the eviction candidate.
	if _, ok := cache.Get("token-0"); !ok {
		t.Fatal("expected hit for token-0")
	}

	cache.Set("token-3", &IdentityClaims{Subject: "user-3"})

	if _, ok := cache.Get("token-1"); ok {
		t.Error("expected token-1 to be evicted")
	}
	if _, ok := cache.Get("token-0"); !ok {
		t.Error("expected token-0 to survive eviction")
	}
	if cache.Len() != 3 {
		t.Errorf("cache length = %d, want 3", cache.Len())
	}
}

func TestTokenCache_SetUpdatesExisting(t *testing.T) {
	cache := newTokenCache(2, time.Minute)

	cache.Set("token-1", &IdentityClaims{TenantID: "clinic-a"})
	cache.Set("token-1", &IdentityClaims{TenantID: "clinic-b"})

	got, ok := cache.Get("token-1")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.TenantID != "clinic-b" {
		t.Errorf("TenantID = %q, want %q", got.TenantID, "clinic-b")
	}
	if cache.Len() != 1 {
		t.Errorf("cache length = %d, want 1", cache.Len())
	}
}
