package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RecommendationTTL bounds how long a user's recommendation list is reused
// before the suggester is consulted again.
const RecommendationTTL = 15 * time.Minute

// RecCache is a Redis layer for recommendation responses. Suggestions are
// expensive (an LLM round trip) and tolerate staleness, so they are the one
// read path worth a shared cache.
type RecCache struct {
	rdb *redis.Client
}

// NewRecCache connects to Redis. An empty URL or a failed connection yields a
// cache whose operations are no-ops, so recommendations still work without it.
func NewRecCache(redisURL string) *RecCache {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, recommendation caching disabled")
		return &RecCache{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Str("url", redisURL).Msg("redis: invalid URL, caching disabled")
		return &RecCache{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &RecCache{}
	}

	log.Info().Msg("redis: connected, recommendation caching enabled")
	return &RecCache{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *RecCache) Client() *redis.Client {
	return c.rdb
}

// GetRecommendations returns the cached list for a user, nil on miss or when
// caching is disabled.
func (c *RecCache) GetRecommendations(ctx context.Context, userID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, recKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetRecommendations stores a user's recommendation list.
func (c *RecCache) SetRecommendations(ctx context.Context, userID string, recs interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, recKey(userID), b, RecommendationTTL).Err()
}

// InvalidateRecommendations drops a user's cached list. Called when the
// subscription set changes, since that shifts the profile the suggester sees.
func (c *RecCache) InvalidateRecommendations(ctx context.Context, userID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, recKey(userID)).Err()
}

// Close shuts down the Redis connection.
func (c *RecCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func recKey(userID string) string {
	return fmt.Sprintf("recs:%s", userID)
}
