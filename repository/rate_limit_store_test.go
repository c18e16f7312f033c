package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestMemoryRateLimitStore_Allow(t *testing.T) {
	store := NewMemoryRateLimitStore(2, time.Minute)
	defer store.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := store.Allow(ctx, "10.0.0.1"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if ok, _ := store.Allow(ctx, "10.0.0.1"); ok {
		t.Error("third request should be rejected")
	}
	if ok, _ := store.Allow(ctx, "10.0.0.2"); !ok {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(time.Minute)
	if ok, _ := store.Allow(ctx, "10.0.0.1"); !ok {
		t.Error("bucket should refill after the window")
	}
}

func TestMemoryRateLimitStore_Cleanup(t *testing.T) {
	store := NewMemoryRateLimitStore(1, time.Minute)
	defer store.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Allow(context.Background(), "stale")
	now = now.Add(2 * time.Hour)
	store.cleanup()

	if len(store.clients) != 0 {
		t.Errorf("expected stale bucket to be removed, %d left", len(store.clients))
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestRedisRateLimitStore_Allow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	store := NewRedisRateLimitStore(&redis.Options{Addr: addr}, 2, time.Minute)
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	key := uuid.NewString()
	for i := 0; i < 2; i++ {
		ok, err := store.Allow(ctx, key)
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := store.Allow(ctx, key); ok {
		t.Error("third request should be rejected")
	}
}
