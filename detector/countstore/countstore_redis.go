package countstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	countKeyPrefix    = "ranger/count/"
	distinctKeyPrefix = "ranger/distinct/"
)

// rolling buckets outlive their period slightly so a just-rolled-over hour
// or day can still be read; totals never expire
var periodTTLs = []struct {
	period string
	ttl    time.Duration
}{
	{PeriodHour, 2 * time.Hour},
	{PeriodDay, 48 * time.Hour},
	{PeriodTotal, 0},
}

// RedisCountStore shares analysis counters across scoring nodes. Distinct
// counts use HyperLogLog, so they are approximate at large cardinalities.
type RedisCountStore struct {
	rdb *redis.Client
}

var _ CountStore = (*RedisCountStore)(nil)

func NewRedisCountStore(redisURL string) (*RedisCountStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisCountStore{rdb: rdb}, nil
}

func (s *RedisCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	c, err := s.rdb.Get(ctx, countKeyPrefix+periodBucket(name, val, period)).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return c, nil
}

// Increment bumps all three period buckets in a single redis round-trip.
func (s *RedisCountStore) Increment(ctx context.Context, name, val string) error {
	pipe := s.rdb.Pipeline()
	for _, p := range periodTTLs {
		key := countKeyPrefix + periodBucket(name, val, p.period)
		pipe.Incr(ctx, key)
		if p.ttl > 0 {
			pipe.Expire(ctx, key, p.ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisCountStore) GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error) {
	c, err := s.rdb.PFCount(ctx, distinctKeyPrefix+periodBucket(name, bucket, period)).Result()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return int(c), nil
}

func (s *RedisCountStore) IncrementDistinct(ctx context.Context, name, bucket, val string) error {
	pipe := s.rdb.Pipeline()
	for _, p := range periodTTLs {
		key := distinctKeyPrefix + periodBucket(name, bucket, p.period)
		pipe.PFAdd(ctx, key, val)
		if p.ttl > 0 {
			pipe.Expire(ctx, key, p.ttl)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}
