package cache_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/churn-dashboard/internal/cache"
	"github.com/OldStager01/churn-dashboard/pkg/models"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := cache.Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return cache.NewRedisCache(client, ttl), mr
}

func sampleRequest() *models.PredictionRequest {
	total := 1332.0
	return &models.PredictionRequest{
		Tenure:         24,
		MonthlyCharges: 55.5,
		TotalCharges:   &total,
		Categories:     map[string]string{"Contract": "Month-to-month", "InternetService": "Fiber optic"},
	}
}

func sampleResponse() *models.PredictionResponse {
	return &models.PredictionResponse{
		CustomerID:       "CUST_20240101000000",
		ChurnPrediction:  1,
		ChurnProbability: 0.82,
		RiskLevel:        "high",
		Timestamp:        "2024-01-01T00:00:00",
	}
}

func TestKey_IsStableAndPrefixed(t *testing.T) {
	a, err := cache.Key(sampleRequest())
	require.NoError(t, err)

	// Same record built with a different map insertion order.
	other := sampleRequest()
	other.Categories = map[string]string{"InternetService": "Fiber optic", "Contract": "Month-to-month"}
	b, err := cache.Key(other)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, cache.KeyPrefix))
	assert.Len(t, a, len(cache.KeyPrefix)+64)

	other.Tenure = 25
	c, err := cache.Key(other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newRedisCache(t, time.Hour)
	ctx := context.Background()

	_, ok := c.Get(ctx, sampleRequest())
	assert.False(t, ok)

	c.Set(ctx, sampleRequest(), sampleResponse())

	got, ok := c.Get(ctx, sampleRequest())
	require.True(t, ok)
	assert.Equal(t, sampleResponse(), got)

	key, err := cache.Key(sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(key))

	stats := c.Stats(ctx)
	assert.True(t, stats.Enabled)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Keys)
}

func TestRedisCache_Expires(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	c.Set(ctx, sampleRequest(), sampleResponse())
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, sampleRequest())
	assert.False(t, ok)
}

func TestRedisCache_ClearOnlyRemovesPredictions(t *testing.T) {
	c, mr := newRedisCache(t, time.Hour)
	ctx := context.Background()

	c.Set(ctx, sampleRequest(), sampleResponse())
	other := sampleRequest()
	other.Tenure = 1
	c.Set(ctx, other, sampleResponse())
	require.NoError(t, mr.Set("session:abc", "keep"))

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("session:abc"))

	n, err = c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newRedisCache(t, time.Hour)
	key, err := cache.Key(sampleRequest())
	require.NoError(t, err)
	require.NoError(t, mr.Set(key, "{not json"))

	_, ok := c.Get(context.Background(), sampleRequest())
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats(context.Background()).Errors)
}

func TestRedisCache_BackendDownIsMiss(t *testing.T) {
	c, mr := newRedisCache(t, time.Hour)
	mr.Close()

	ctx := context.Background()
	c.Set(ctx, sampleRequest(), sampleResponse())
	_, ok := c.Get(ctx, sampleRequest())
	assert.False(t, ok)
	assert.GreaterOrEqual(t, c.Stats(ctx).Errors, uint64(2))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()
	assert.IsType(t, &redis.Client{}, client)

	_, err = cache.Connect(context.Background(), "redis://:bad url")
	assert.Error(t, err)
}

func TestNopCache(t *testing.T) {
	var c cache.Cache = cache.NopCache{}
	ctx := context.Background()

	c.Set(ctx, sampleRequest(), sampleResponse())
	_, ok := c.Get(ctx, sampleRequest())
	assert.False(t, ok)
	assert.False(t, c.Stats(ctx).Enabled)
}
