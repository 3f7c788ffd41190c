package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OldStager01/churn-dashboard/internal/logger"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

const (
	DefaultTTL     = time.Hour
	scanBatchSize  = 100
	logKeyPrefixed = 16
)

// Connect initializes a Redis client from URL or host:port input and
// verifies it with PING.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
	errs   atomic.Uint64
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResponse, bool) {
	key, err := Key(req)
	if err != nil {
		c.fail("get", err)
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		logger.WithField("key", key[:logKeyPrefixed]).Debug("Prediction cache miss")
		return nil, false
	}
	if err != nil {
		c.fail("get", err)
		return nil, false
	}

	var resp models.PredictionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.fail("decode", err)
		return nil, false
	}

	c.hits.Add(1)
	logger.WithField("key", key[:logKeyPrefixed]).Info("Prediction cache hit")
	return &resp, true
}

func (c *RedisCache) Set(ctx context.Context, req *models.PredictionRequest, resp *models.PredictionResponse) {
	key, err := Key(req)
	if err != nil {
		c.fail("set", err)
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		c.fail("set", err)
		return
	}

	if err := c.client.SetEx(ctx, key, data, c.ttl).Err(); err != nil {
		c.fail("set", err)
	}
}

// Clear removes every cached prediction and returns how many were deleted.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan cached predictions: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("delete cached predictions: %w", err)
	}

	logger.Infof("Cleared %d cached predictions", deleted)
	return int(deleted), nil
}

func (c *RedisCache) Stats(ctx context.Context) Stats {
	stats := Stats{
		Enabled: true,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.errs.Load(),
	}
	if keys, err := c.keys(ctx); err == nil {
		stats.Keys = len(keys)
	}
	return stats
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (c *RedisCache) fail(op string, err error) {
	c.errs.Add(1)
	logger.WithField("op", op).Errorf("Prediction cache error: %v", err)
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
