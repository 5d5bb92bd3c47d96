// Package redis holds the state that does not need to live in the
// relational store: player sessions, which expire on their own, and
// short leases that keep background jobs from running on two servers at once.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsarena/internal/dependencies/clock"
	"github.com/mcoot/rpsarena/internal/dependencies/random"
)

// Store wraps a Redis client
type Store struct {
	client *redis.Client
	clock  clock.Clock
	random random.Random
}

// New connects to Redis and verifies the connection
func New(cfg Config, clock clock.Clock, random random.Random) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, clock, random), nil
}

// NewWithClient creates a store with an existing client (for testing)
func NewWithClient(client *redis.Client, clock clock.Clock, random random.Random) *Store {
	return &Store{
		client: client,
		clock:  clock,
		random: random,
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}
