package source

import (
	"context"
	"time"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
	"github.com/wonny/retailpulse/pkg/redis"
)

// CachedLoader serves a loader's dataset from the Redis cache.
// With Redis disabled every call goes to the inner loader.
type CachedLoader struct {
	inner  contracts.DatasetLoader
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedLoader wraps inner
func NewCachedLoader(inner contracts.DatasetLoader, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedLoader {
	return &CachedLoader{inner: inner, cache: cache, ttl: ttl, logger: log}
}

// Name returns the inner loader's name
func (l *CachedLoader) Name() string {
	return l.inner.Name()
}

// Load returns the cached dataset or loads and caches it.
// Schema errors from the inner loader are never cached.
func (l *CachedLoader) Load(ctx context.Context) (*contracts.Dataset, error) {
	var ds contracts.Dataset
	hit, err := l.cache.GetOrSet(ctx, redis.DatasetKey(l.Name()), &ds, l.ttl, func() (interface{}, error) {
		return l.inner.Load(ctx)
	})
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(map[string]interface{}{
		"source": l.Name(),
		"hit":    hit,
	}).Debug("Dataset cache lookup")

	return &ds, nil
}

// Invalidate drops the cached dataset so the next Load reads the source
func (l *CachedLoader) Invalidate(ctx context.Context) error {
	return l.cache.Delete(ctx, redis.DatasetKey(l.Name()))
}
