package cachestore

import (
	"context"
	"strings"
)

// ResultCache holds the serialized analysis response for recently scored
// usernames. Entries expire after the freshness window, so a hit can be
// served without re-scoring. Usernames are case-insensitive.
type ResultCache interface {
	GetAnalysis(ctx context.Context, username string) (string, error)
	PutAnalysis(ctx context.Context, username, payload string) error
	Invalidate(ctx context.Context, username string) error
}

func analysisKey(username string) string {
	return "analysis/" + strings.ToLower(username)
}
