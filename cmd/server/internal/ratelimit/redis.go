package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "contestapi-ratelimit-"

var _ middleware.RateLimiterStore = (*RedisLimiterStore)(nil)

// Fixed one minute window per identifier, shared by every replica
type RedisLimiterStore struct {
	db         *redis.Client
	limiterKey string
	perMinute  int64
	failOpen   bool
	timeout    time.Duration
}

type RedisLimiterConfig struct {
	RedisClient *redis.Client
	LimiterKey  string
	PerMinute   int64
	// Let requests through while redis is unreachable
	FailOpen bool
}

func (store *RedisLimiterStore) key(identifier string) string {
	return keyPrefix + store.limiterKey + "-" + identifier
}

func (store *RedisLimiterStore) Allow(identifier string) (bool, error) {
	// This method might let N-1 extra requests in due to race condition where N is the possible number of concurrent writers
	// This is a smaller concern than the possibility that we will lose a distributed lock

	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()

	key := store.key(identifier)

	reqsLeftStr, err := store.db.Get(ctx, key).Result()
	switch {
	case err == nil:
		reqsLeft, err := strconv.ParseInt(reqsLeftStr, 10, 64)
		if err != nil {
			return store.failOpen, err
		}

		if reqsLeft <= 0 {
			return false, nil
		}
	case errors.Is(err, redis.Nil):
		// NX so a window opened by another replica is not reset
		if err := store.db.SetNX(ctx, key, store.perMinute, time.Minute).Err(); err != nil {
			return store.failOpen, err
		}
	default:
		return store.failOpen, err
	}

	if err := store.db.Decr(ctx, key).Err(); err != nil {
		return store.failOpen, err
	}

	return true, nil
}

func NewRedisLimitStore(config RedisLimiterConfig) (store *RedisLimiterStore) {
	return &RedisLimiterStore{
		perMinute:  config.PerMinute,
		db:         config.RedisClient,
		limiterKey: config.LimiterKey,
		failOpen:   config.FailOpen,
		timeout:    time.Second,
	}
}
