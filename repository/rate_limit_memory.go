package repository

import (
	"context"
	"sync"
	"time"
)

const (
	bucketCleanupThreshold = 1 * time.Hour
	cleanupInterval        = 30 * time.Minute
)

type clientBucket struct {
	tokens     int
	lastRefill time.Time
}

// MemoryRateLimitStore is a per-process token bucket store. Each key gets
// capacity requests, refilled in full once refillDur has elapsed.
type MemoryRateLimitStore struct {
	mu          sync.Mutex
	capacity    int
	refillDur   time.Duration
	clients     map[string]*clientBucket
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewMemoryRateLimitStore creates the store and starts its cleanup loop.
func NewMemoryRateLimitStore(capacity int, refillDur time.Duration) *MemoryRateLimitStore {
	s := &MemoryRateLimitStore{
		capacity:    capacity,
		refillDur:   refillDur,
		clients:     make(map[string]*clientBucket),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryRateLimitStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup forgets clients whose bucket has not refilled for
// bucketCleanupThreshold.
func (s *MemoryRateLimitStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, bucket := range s.clients {
		if now.Sub(bucket.lastRefill) > bucketCleanupThreshold {
			delete(s.clients, key)
		}
	}
}

// Allow takes one token from the key's bucket. A bucket is refilled to
// capacity in a single step once refillDur has passed since its last refill,
// so a client gets at most capacity requests per window. Unknown keys start
// with a full bucket. The error is always nil.
func (s *MemoryRateLimitStore) Allow(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	bucket, exists := s.clients[key]

	if !exists {
		s.clients[key] = &clientBucket{
			tokens:     s.capacity - 1,
			lastRefill: now,
		}
		return true, nil
	}

	if now.Sub(bucket.lastRefill) >= s.refillDur {
		bucket.tokens = s.capacity
		bucket.lastRefill = now
	}

	if bucket.tokens <= 0 {
		return false, nil
	}

	bucket.tokens--
	return true, nil
}

// Close stops the cleanup loop. It is safe to call more than once.
func (s *MemoryRateLimitStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
	return nil
}
