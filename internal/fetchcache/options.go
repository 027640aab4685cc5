// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetchcache

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/catalog-search/pkg/types"
)

// DefaultTTL is the freshness window used by types.PolicyTTL when no TTL is
// given.
const DefaultTTL = 5 * time.Minute

type config struct {
	policy types.CachePolicy
	ttl    time.Duration
	store  Store
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*config)

// WithPolicy sets the eviction policy. ttl is only used by types.PolicyTTL.
func WithPolicy(policy types.CachePolicy, ttl time.Duration) Option {
	return func(c *config) {
		c.policy = policy
		c.ttl = ttl
	}
}

// WithStore adds a persistent second tier. Ready results are written
// through to it and consulted before the network on a memory miss.
func WithStore(s Store) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithLogger sets the logger for fetch lifecycle events.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithClock overrides time.Now, for freshness checks in tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}
