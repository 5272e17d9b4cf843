// Package cache provides a tiny Redis client wrapper for prediction caching
package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "window:prediction:"

// Cache wraps a Redis client for prediction storage
type Cache struct {
	client *redis.Client
}

// New creates a new Cache instance connected to the specified Redis address
// If addr is empty, defaults to localhost:6379
func New(ctx context.Context, addr string) (*Cache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default
		DB:       0,  // Default DB
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Cache{client: client}, nil
}

// Key derives the cache key for a model input.
func Key(input []float32) string {
	buf := make([]byte, 4*len(input))
	for i, v := range input {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return fmt.Sprintf("%s%016x", keyPrefix, xxhash.Sum64(buf))
}

// SetPrediction stores a prediction for input with the specified TTL
func (c *Cache) SetPrediction(ctx context.Context, input []float32, value float32, ttl time.Duration) error {
	if c.client == nil {
		return fmt.Errorf("cache client is nil")
	}

	data := strconv.FormatFloat(float64(value), 'f', -1, 32)
	if err := c.client.Set(ctx, Key(input), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set prediction: %w", err)
	}

	return nil
}

// GetPrediction retrieves the prediction stored for input. ok is false on a miss.
func (c *Cache) GetPrediction(ctx context.Context, input []float32) (value float32, ok bool, err error) {
	if c.client == nil {
		return 0, false, fmt.Errorf("cache client is nil")
	}

	data, err := c.client.Get(ctx, Key(input)).Result()
	if err == redis.Nil {
		return 0, false, nil // Key does not exist
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get prediction: %w", err)
	}

	v, err := strconv.ParseFloat(data, 32)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt cached prediction %q: %w", data, err)
	}

	return float32(v), true, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
