package cache

import (
	"context"
	"time"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

// ProductCache holds product snapshots for read paths. Sale commits always
// read the locked rows from the store, never the cache.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, bool, error)
	Set(ctx context.Context, product domain.Product, ttl time.Duration) error
	Invalidate(ctx context.Context, ids ...string) error
}

type NoopProductCache struct{}

func (NoopProductCache) Get(_ context.Context, _ string) (*domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopProductCache) Set(_ context.Context, _ domain.Product, _ time.Duration) error {
	return nil
}

func (NoopProductCache) Invalidate(_ context.Context, _ ...string) error {
	return nil
}
