package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/OldStager01/churn-dashboard/pkg/models"
)

// KeyPrefix namespaces cached predictions in Redis.
const KeyPrefix = "pred:"

// Cache stores prediction responses keyed by the customer record that
// produced them. Implementations treat backend errors as misses.
type Cache interface {
	Get(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResponse, bool)
	Set(ctx context.Context, req *models.PredictionRequest, resp *models.PredictionResponse)
	Clear(ctx context.Context) (int, error)
	Stats(ctx context.Context) Stats
	Close() error
}

type Stats struct {
	Enabled bool   `json:"enabled"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Errors  uint64 `json:"errors"`
	Keys    int    `json:"keys"`
}

// Key derives the cache key from the canonical JSON of the request.
func Key(req *models.PredictionRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return KeyPrefix + hex.EncodeToString(sum[:]), nil
}

// NopCache is used when caching is disabled.
type NopCache struct{}

func (NopCache) Get(context.Context, *models.PredictionRequest) (*models.PredictionResponse, bool) {
	return nil, false
}

func (NopCache) Set(context.Context, *models.PredictionRequest, *models.PredictionResponse) {}

func (NopCache) Clear(context.Context) (int, error) { return 0, nil }

func (NopCache) Stats(context.Context) Stats { return Stats{} }

func (NopCache) Close() error { return nil }
