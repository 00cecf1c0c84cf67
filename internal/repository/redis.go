package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// gameVersionKeyPrefix tracks a per-game change counter so the
	// websocket hub can detect leaderboard updates without polling the
	// index itself
	gameVersionKeyPrefix = "leaderboard:version:"

	// rateLimitKeyPrefix holds fixed-window request counters
	rateLimitKeyPrefix = "ratelimit:"
)

// RedisRepository handles all Redis operations
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis repository
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// BumpGameVersion increments a game's change counter. Called after
// every applied submission and after a reconciliation rebuild.
func (r *RedisRepository) BumpGameVersion(ctx context.Context, gameID string) error {
	return r.client.Incr(ctx, gameVersionKeyPrefix+gameID).Err()
}

// GetGameVersion returns a game's current change counter, 0 when unset
func (r *RedisRepository) GetGameVersion(ctx context.Context, gameID string) (int64, error) {
	version, err := r.client.Get(ctx, gameVersionKeyPrefix+gameID).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

// GetGameVersions fetches counters for several games in one pipeline
func (r *RedisRepository) GetGameVersions(ctx context.Context, gameIDs []string) (map[string]int64, error) {
	if len(gameIDs) == 0 {
		return map[string]int64{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(gameIDs))
	for _, id := range gameIDs {
		cmds[id] = pipe.Get(ctx, gameVersionKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	out := make(map[string]int64, len(gameIDs))
	for id, cmd := range cmds {
		version, err := cmd.Int64()
		if err != nil {
			if err == redis.Nil {
				out[id] = 0
				continue
			}
			return nil, err
		}
		out[id] = version
	}
	return out, nil
}

// IncrWindow bumps a fixed-window rate-limit counter, setting the
// window expiry on first hit, and returns the new count
func (r *RedisRepository) IncrWindow(ctx context.Context, bucket string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, bucket, time.Now().Unix()/int64(window.Seconds()))

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Ping checks if Redis is reachable
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
