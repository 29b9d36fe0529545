package cachestore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// local cache tier in front of redis, sized for the hot set of usernames
const localHotSet = 10_000

// RedisResultCache shares recent analyses across scoring nodes, with a
// small in-process TinyLFU tier in front of redis.
type RedisResultCache struct {
	results  *cache.Cache
	freshFor time.Duration
}

var _ ResultCache = (*RedisResultCache)(nil)

func NewRedisResultCache(redisURL string, freshFor time.Duration) (*RedisResultCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisResultCache{
		results: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(localHotSet, freshFor),
		}),
		freshFor: freshFor,
	}, nil
}

func (c *RedisResultCache) GetAnalysis(ctx context.Context, username string) (string, error) {
	var payload string
	err := c.results.Get(ctx, analysisKey(username), &payload)
	if err == cache.ErrCacheMiss {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return payload, nil
}

func (c *RedisResultCache) PutAnalysis(ctx context.Context, username, payload string) error {
	return c.results.Set(&cache.Item{
		Ctx:   ctx,
		Key:   analysisKey(username),
		Value: payload,
		TTL:   c.freshFor,
	})
}

func (c *RedisResultCache) Invalidate(ctx context.Context, username string) error {
	err := c.results.Delete(ctx, analysisKey(username))
	if err == cache.ErrCacheMiss {
		return nil
	}
	return err
}
