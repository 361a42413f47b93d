package database

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"

	"github.com/liamwears/reelcatalog/internal/services"
)

var (
	_ services.RevocationStore = (*RevocationStore)(nil)
	_ services.CacheClearer    = (*ResponseCache)(nil)
)

// RedisClient wraps the redis client
type RedisClient struct {
	*redis.Client
	logger hclog.Logger
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// NewRedisClient creates a new Redis client
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger hclog.Logger) (*RedisClient, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping Redis: %w", err)
	}

	logger = logger.Named("redis")
	logger.Info("connected to redis", "addr", cfg.Addr)

	return &RedisClient{Client: client, logger: logger}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r.Client != nil {
		r.logger.Info("closing redis connection")
		return r.Client.Close()
	}
	return nil
}

// Health checks the Redis connection health
func (r *RedisClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.Ping(ctx).Err()
}

// RevocationStore keeps revoked refresh token ids until the token would have expired
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore creates a new revocation store
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("revoked:%s", tokenID)
}

// Revoke marks tokenID revoked. It reports false when the id was already revoked.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, revokedKey(tokenID), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to revoke token: %w", err)
	}
	return ok, nil
}

const (
	responseCachePrefix = "respcache:"
	// Kept outside the prefix so Clear never deletes it
	responseCacheGenKey = "respcache-gen"
)

// ResponseCache stores rendered responses under a common prefix
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache creates a new response cache
func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &ResponseCache{client: client, ttl: ttl}
}

// Get returns the cached value for key
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, responseCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached response: %w", err)
	}
	return val, true, nil
}

// Set stores value under key for the cache TTL
func (c *ResponseCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, responseCachePrefix+key, value, c.ttl).Err()
}

// Generation returns the number of times the cache has been cleared
func (c *ResponseCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, responseCacheGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Clear bumps the generation, then deletes every cached response
func (c *ResponseCache) Clear(ctx context.Context) error {
	if err := c.client.Incr(ctx, responseCacheGenKey).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}

	iter := c.client.Scan(ctx, 0, responseCachePrefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 100 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to clear cached responses: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached responses: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to clear cached responses: %w", err)
		}
	}
	return nil
}
