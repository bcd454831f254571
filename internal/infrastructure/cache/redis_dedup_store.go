package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bundleflow/backend/internal/domain/splitting"
)

// RedisDedupStore implements splitting.DeliveryDeduper using Redis.
// Multiple service instances behind a load balancer share delivery state
// through SETNX keys with a TTL.
type RedisDedupStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisDedupStore creates a new Redis-backed dedup store and verifies
// the connection.
func NewRedisDedupStore(cfg RedisConfig) (*RedisDedupStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDedupStore{
		client:    client,
		keyPrefix: "webhook:delivery:",
	}, nil
}

// NewRedisDedupStoreWithClient creates a store with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisDedupStoreWithClient(client *redis.Client, keyPrefix string) *RedisDedupStore {
	if keyPrefix == "" {
		keyPrefix = "webhook:delivery:"
	}
	return &RedisDedupStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed marks a delivery as processed with a TTL.
// SETNX makes the mark atomic across instances: exactly one caller sees
// true for a given delivery ID within the TTL window.
func (s *RedisDedupStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + deliveryID

	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery as processed: %w", err)
	}

	return result, nil
}

// Release forgets a delivery mark so the event can be retried.
func (s *RedisDedupStore) Release(ctx context.Context, deliveryID string) error {
	key := s.keyPrefix + deliveryID

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release delivery mark: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisDedupStore) Close() error {
	return s.client.Close()
}

// Ensure RedisDedupStore implements DeliveryDeduper
var _ splitting.DeliveryDeduper = (*RedisDedupStore)(nil)
