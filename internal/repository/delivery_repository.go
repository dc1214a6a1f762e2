package repository

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryRepository records inbound delivery keys for replay protection.
type DeliveryRepository interface {
	// Claim stores key for ttl and reports whether it was not already present.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type redisDeliveryRepository struct {
	client *redis.Client
}

// NewDeliveryRepository builds a Redis-backed repository.
func NewDeliveryRepository(client *redis.Client) DeliveryRepository {
	return &redisDeliveryRepository{client: client}
}

func (r *redisDeliveryRepository) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

type memoryDeliveryRepository struct {
	mu      sync.Mutex
	now     func() time.Time
	expires map[string]time.Time
}

// NewMemoryDeliveryRepository builds a process-local repository.
func NewMemoryDeliveryRepository() DeliveryRepository {
	return &memoryDeliveryRepository{now: time.Now, expires: make(map[string]time.Time)}
}

func (r *memoryDeliveryRepository) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if exp, ok := r.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	r.expires[key] = now.Add(ttl)
	return true, nil
}
