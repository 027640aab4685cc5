// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetchcache

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/catalog-search/pkg/types"
)

// Store persists Ready results beyond the life of one Cache, so separate
// CLI invocations can share them.
type Store interface {
	// Get returns the stored result for key. ok is false when the key is
	// missing or expired.
	Get(ctx context.Context, key types.RequestKey) (res *types.SearchResult, ok bool, err error)

	// Set stores res under key. A zero ttl never expires.
	Set(ctx context.Context, key types.RequestKey, res *types.SearchResult, ttl time.Duration) error

	Delete(ctx context.Context, key types.RequestKey) error
	Clear(ctx context.Context) error

	// Len returns the number of unexpired stored results.
	Len(ctx context.Context) (int, error)

	Close() error
}

// OpenStore builds the Store selected by cfg.Backend. types.BackendMemory
// (or an empty backend) returns a nil Store: the cache keeps results in
// memory only.
func OpenStore(cfg types.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "", types.BackendMemory:
		return nil, nil
	case types.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case types.BackendRedis:
		return NewRedisStore(cfg.Redis)
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}
