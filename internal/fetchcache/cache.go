// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetchcache resolves request keys to catalog results with
// single-flight semantics: at most one fetch per key is in flight, and every
// caller asking for that key while it is pending observes the same outcome.
package fetchcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/catalog-search/pkg/types"
)

// Fetcher performs the network request for one key.
type Fetcher interface {
	Fetch(ctx context.Context, key types.RequestKey) (*types.SearchResult, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, key types.RequestKey) (*types.SearchResult, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, key types.RequestKey) (*types.SearchResult, error) {
	return f(ctx, key)
}

// ErrClosed is returned by Get when the cache is closed before the key
// settles.
var ErrClosed = errors.New("fetch cache closed")

// Stats counts cache activity since creation.
type Stats struct {
	Hits      int // Resolve found a fresh Ready entry
	Joins     int // Resolve attached to a Pending entry
	Misses    int // Resolve created a new entry
	StoreHits int // a miss was answered by the persistent store
	Fetches   int // network requests issued
	Failures  int // entries that settled Failed
	Entries   int // entries currently held in memory
}

type entry struct {
	key     types.RequestKey
	status  types.EntryStatus
	value   *types.SearchResult
	err     error
	readyAt time.Time
	done    chan struct{}
}

func (e *entry) snapshot() types.CacheEntry {
	return types.CacheEntry{Key: e.key, Status: e.status, Value: e.value, Err: e.err}
}

// Cache is a single-flight result cache keyed by RequestKey.
type Cache struct {
	fetcher Fetcher
	cfg     config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[types.RequestKey]*entry
	stats   Stats
}

// New creates a cache that fills misses through fetcher. The default policy
// is types.PolicyTTL with DefaultTTL and no persistent store.
func New(fetcher Fetcher, opts ...Option) *Cache {
	cfg := config{
		policy: types.PolicyTTL,
		ttl:    DefaultTTL,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.policy == "" {
		cfg.policy = types.PolicyTTL
	}
	if cfg.policy == types.PolicyTTL && cfg.ttl <= 0 {
		cfg.ttl = DefaultTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		fetcher: fetcher,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[types.RequestKey]*entry),
	}
}

// Resolve returns a channel that yields the key's current entry and, if that
// entry is Pending, its single Ready or Failed transition. The channel is
// closed afterwards and never blocks the sender.
//
// A fresh Ready entry is served from memory. A Pending entry is joined. A
// missing, stale or Failed entry starts a new fetch.
func (c *Cache) Resolve(key types.RequestKey) <-chan types.CacheEntry {
	c.mu.Lock()
	e := c.lookupLocked(key)
	switch {
	case e == nil:
		e = &entry{key: key, status: types.StatusPending, done: make(chan struct{})}
		c.entries[key] = e
		c.stats.Misses++
		c.wg.Add(1)
		go c.fill(e)
	case e.status == types.StatusPending:
		c.stats.Joins++
	default:
		c.stats.Hits++
	}
	snap := e.snapshot()
	c.mu.Unlock()

	ch := make(chan types.CacheEntry, 2)
	ch <- snap
	if snap.Status.Settled() {
		close(ch)
		return ch
	}
	go func() {
		<-e.done
		ch <- e.snapshot()
		close(ch)
	}()
	return ch
}

// Get blocks until key settles or ctx is done. Cancelling ctx does not
// cancel the underlying fetch.
func (c *Cache) Get(ctx context.Context, key types.RequestKey) (*types.SearchResult, error) {
	ch := c.Resolve(key)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case e, ok := <-ch:
			if !ok {
				return nil, ErrClosed
			}
			switch e.Status {
			case types.StatusReady:
				return e.Value, nil
			case types.StatusFailed:
				return nil, e.Err
			}
		}
	}
}

// lookupLocked returns the usable entry for key, dropping it first when it
// is stale or Failed. Caller holds c.mu.
func (c *Cache) lookupLocked(key types.RequestKey) *entry {
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	switch e.status {
	case types.StatusPending:
		return e
	case types.StatusReady:
		if c.freshLocked(e) {
			return e
		}
		c.cfg.log.Debug().Str("key", string(key)).Msg("evicting stale entry")
	}
	delete(c.entries, key)
	return nil
}

func (c *Cache) freshLocked(e *entry) bool {
	switch c.cfg.policy {
	case types.PolicyForever:
		return true
	case types.PolicyNone:
		return false
	default:
		return c.cfg.now().Sub(e.readyAt) < c.cfg.ttl
	}
}

func (c *Cache) storeEnabled() bool {
	return c.cfg.store != nil && c.cfg.policy != types.PolicyNone
}

func (c *Cache) storeTTL() time.Duration {
	if c.cfg.policy == types.PolicyTTL {
		return c.cfg.ttl
	}
	return 0
}

// fill resolves e from the persistent store or the network and settles it.
// It runs on the cache's own context so an abandoned key still completes.
func (c *Cache) fill(e *entry) {
	defer c.wg.Done()
	log := c.cfg.log.With().Str("key", string(e.key)).Logger()

	if c.storeEnabled() {
		res, ok, err := c.cfg.store.Get(c.ctx, e.key)
		if err != nil {
			log.Warn().Err(err).Msg("store lookup failed")
		} else if ok {
			log.Debug().Msg("served from store")
			c.settle(e, res, nil, true)
			return
		}
	}

	log.Debug().Msg("fetching")
	start := c.cfg.now()
	res, err := c.fetcher.Fetch(c.ctx, e.key)
	if err == nil && res == nil {
		res = &types.SearchResult{}
	}
	if err != nil {
		log.Info().Err(err).Str("kind", string(types.KindOf(err))).Msg("fetch failed")
	} else {
		log.Debug().
			Int("providers", len(res.Providers)).
			Int("products", len(res.Products)).
			Dur("elapsed", c.cfg.now().Sub(start)).
			Msg("fetched")
	}

	current := c.settle(e, res, err, false)
	if err == nil && current && c.storeEnabled() {
		// Close may cancel c.ctx right after settle; the write still lands.
		if serr := c.cfg.store.Set(context.WithoutCancel(c.ctx), e.key, res, c.storeTTL()); serr != nil {
			log.Warn().Err(serr).Msg("store write failed")
		}
	}
}

// settle records the outcome and wakes every subscriber. It reports whether
// e was still the map's entry for its key, i.e. not invalidated meanwhile.
func (c *Cache) settle(e *entry, res *types.SearchResult, err error, fromStore bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fromStore {
		c.stats.StoreHits++
	} else {
		c.stats.Fetches++
	}
	if err != nil {
		e.status = types.StatusFailed
		e.err = err
		c.stats.Failures++
	} else {
		e.status = types.StatusReady
		e.value = res
	}
	e.readyAt = c.cfg.now()
	close(e.done)

	return c.entries[e.key] == e
}

// Invalidate drops key from memory and from the persistent store. A pending
// fetch for key still completes for its current subscribers, but the next
// Resolve starts a new one.
func (c *Cache) Invalidate(ctx context.Context, key types.RequestKey) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.cfg.store != nil {
		return c.cfg.store.Delete(ctx, key)
	}
	return nil
}

// Purge drops every entry from memory and clears the persistent store.
func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[types.RequestKey]*entry)
	c.mu.Unlock()

	if c.cfg.store != nil {
		return c.cfg.store.Clear(ctx)
	}
	return nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// Close cancels outstanding fetches and waits for them to settle. It does
// not close the persistent store.
func (c *Cache) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}
