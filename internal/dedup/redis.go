package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "gmfc101:cast:"

// RedisGate shares the processed set between several bot instances. Redis expires the
// keys itself; memory bounds are left to the server's eviction policy.
type RedisGate struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisGate(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisGate, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGate{client: client, ttl: ttl, logger: logger}, nil
}

// SeenAndMark falls back to "not seen" when Redis is unreachable, so an outage
// can produce a duplicate reply but never blocks one.
func (g *RedisGate) SeenAndMark(ctx context.Context, id string, bypass bool) bool {
	key := keyPrefix + id
	now := time.Now().Unix()

	if bypass {
		if err := g.client.Set(ctx, key, now, g.ttl).Err(); err != nil {
			g.logger.Warn("Failed to mark cast as processed",
				zap.Error(err),
				zap.String("cast_hash", id))
		}
		return false
	}

	created, err := g.client.SetNX(ctx, key, now, g.ttl).Result()
	if err != nil {
		g.logger.Warn("Dedup lookup failed, treating cast as new",
			zap.Error(err),
			zap.String("cast_hash", id))
		return false
	}
	return !created
}

func (g *RedisGate) Close() error {
	return g.client.Close()
}
