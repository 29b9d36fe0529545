package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemResultCache keeps recent analyses in an in-process LRU, suitable for
// single-node deployments and tests.
type MemResultCache struct {
	recent *expirable.LRU[string, string]
}

var _ ResultCache = (*MemResultCache)(nil)

func NewMemResultCache(maxAccounts int, freshFor time.Duration) *MemResultCache {
	return &MemResultCache{
		recent: expirable.NewLRU[string, string](maxAccounts, nil, freshFor),
	}
}

func (c *MemResultCache) GetAnalysis(ctx context.Context, username string) (string, error) {
	payload, ok := c.recent.Get(analysisKey(username))
	if !ok {
		return "", nil
	}
	return payload, nil
}

func (c *MemResultCache) PutAnalysis(ctx context.Context, username, payload string) error {
	c.recent.Add(analysisKey(username), payload)
	return nil
}

func (c *MemResultCache) Invalidate(ctx context.Context, username string) error {
	c.recent.Remove(analysisKey(username))
	return nil
}
