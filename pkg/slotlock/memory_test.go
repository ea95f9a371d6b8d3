package slotlock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func testKey(tenant string) SlotKey {
	return SlotKey{
		TenantID:   tenant,
		ResourceID: "507f1f77bcf86cd799439011",
		Date:       "2026-09-15",
		Time:       "14:00",
	}
}

func TestAcquire_ExactlyOneWinner(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	key := testKey("clinic-a")
	const contenders = 10

	var wg sync.WaitGroup
	results := make([]bool, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			won, err := store.Acquire(context.Background(), key, "holder", 5*time.Second)
			if err != nil {
				t.Errorf("contender %d: unexpected error: %v", n, err)
			}
			results[n] = won
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, won := range results {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly 1 winner out of %d contenders, got %d", contenders, winners)
	}
}

func TestAcquire_TenantIsolation(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	keyA := testKey("clinic-a")
	keyB := testKey("clinic-b")

	wonA, err := store.Acquire(context.Background(), keyA, "h1", 5*time.Second)
	if err != nil || !wonA {
		t.Fatalf("tenant A acquire = (%v, %v), want (true, nil)", wonA, err)
	}

	// Same literal resource/date/time under a different tenant must succeed.
	wonB, err := store.Acquire(context.Background(), keyB, "h2", 5*time.Second)
	if err != nil || !wonB {
		t.Fatalf("tenant B acquire = (%v, %v), want (true, nil)", wonB, err)
	}
}

func TestRelease_UnblocksNextHolder(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	key := testKey("clinic-a")
	ctx := context.Background()

	if won, _ := store.Acquire(ctx, key, "first", 5*time.Second); !won {
		t.Fatal("first acquire should win")
	}
	if won, _ := store.Acquire(ctx, key, "second", 5*time.Second); won {
		t.Fatal("second acquire should lose while lock is held")
	}

	if err := store.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}

	if won, _ := store.Acquire(ctx, key, "second", 5*time.Second); !won {
		t.Fatal("acquire after release should win")
	}
}

func TestAcquire_TTLAutoExpiry(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	key := testKey("clinic-a")
	ctx := context.Background()

	if won, _ := store.Acquire(ctx, key, "crashed-holder", 30*time.Millisecond); !won {
		t.Fatal("first acquire should win")
	}

	time.Sleep(60 * time.Millisecond)

	// Lock was never released; TTL alone must make the slot available again.
	if won, _ := store.Acquire(ctx, key, "next-holder", 5*time.Second); !won {
		t.Fatal("acquire after TTL expiry should win")
	}
}

func TestRelease_Idempotent(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	key := testKey("clinic-a")
	other := testKey("clinic-b")
	ctx := context.Background()

	if _, err := store.Acquire(ctx, other, "h", 5*time.Second); err != nil {
		t.Fatalf("setup acquire: %v", err)
	}

	// Never-acquired, released, and double-released keys are all no-ops.
	for i := 0; i < 3; i++ {
		if err := store.Release(ctx, key); err != nil {
			t.Fatalf("release %d: %v", i, err)
		}
	}

	locked, err := store.IsLocked(ctx, other)
	if err != nil {
		t.Fatalf("IsLocked: %v", err)
	}
	if !locked {
		t.Error("releasing an unrelated key must not affect other keys")
	}
}

func TestIsLocked(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	key := testKey("clinic-a")
	ctx := context.Background()

	if locked, _ := store.IsLocked(ctx, key); locked {
		t.Error("key should not be locked initially")
	}

	store.Acquire(ctx, key, "h", 5*time.Second)
	if locked, _ := store.IsLocked(ctx, key); !locked {
		t.Error("key should be locked after acquire")
	}

	store.Release(ctx, key)
	if locked, _ := store.IsLocked(ctx, key); locked {
		t.Error("key should not be locked after release")
	}
}

func TestSweeper_ReapsExpiredLocks(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	ctx := context.Background()
	key := testKey("clinic-a")

	store.Acquire(ctx, key, "h", 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)

	store.mu.Lock()
	_, present := store.locks[key.String()]
	store.mu.Unlock()
	if present {
		t.Error("sweeper should have reaped the expired lock")
	}
}
