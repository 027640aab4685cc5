// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package view projects fetch cache entries onto what the user sees. Only the
// most recently requested key may update the rendered state; settlements for
// earlier keys are dropped (last key wins, not last response).
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/catalog-search/pkg/types"
)

// ErrClosed is returned by Await when the model is closed while waiting.
var ErrClosed = errors.New("view model closed")

// Resolver yields entry transitions for a key. *fetchcache.Cache satisfies
// it.
type Resolver interface {
	Resolve(key types.RequestKey) <-chan types.CacheEntry
}

// State is one rendered snapshot. Providers and Products are shared with the
// cache and must not be modified.
type State struct {
	Key       types.RequestKey
	Loading   bool
	Providers []types.Provider
	Products  []types.Product
	Err       error
}

// ErrKind classifies Err.
func (s State) ErrKind() types.ErrorKind {
	return types.KindOf(s.Err)
}

// Model tracks the current key and renders its entry.
type Model struct {
	resolver Resolver
	log      zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	state   State
	subs    map[int]chan State
	nextSub int
}

// New returns a model with no current key.
func New(r Resolver, log zerolog.Logger) *Model {
	return &Model{
		resolver: r,
		log:      log,
		subs:     make(map[int]chan State),
	}
}

// SetKey makes key current. Previous results and errors are cleared at once
// and Loading stays true until key settles. Setting the key that is already
// current is a no-op unless it last failed, in which case it is resolved
// again.
func (m *Model) SetKey(key types.RequestKey) {
	m.mu.Lock()
	if m.gen > 0 && m.state.Key == key && m.state.Err == nil {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen
	m.state = State{Key: key, Loading: true}
	m.mu.Unlock()

	ch := m.resolver.Resolve(key)
	first, ok := <-ch
	if ok && first.Status.Settled() {
		m.apply(gen, first)
		return
	}

	m.mu.Lock()
	if gen == m.gen {
		m.publishLocked()
	}
	m.mu.Unlock()

	go func() {
		for e := range ch {
			if e.Status.Settled() {
				m.apply(gen, e)
			}
		}
	}()
}

// apply renders a settled entry if gen is still current.
func (m *Model) apply(gen uint64, e types.CacheEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		m.log.Debug().Str("key", string(e.Key)).Str("status", string(e.Status)).Msg("discarding stale result")
		return
	}

	next := State{Key: e.Key}
	switch e.Status {
	case types.StatusReady:
		next.Providers = e.Value.Providers
		next.Products = e.Value.Products
	case types.StatusFailed:
		next.Err = e.Err
	}
	m.state = next
	m.publishLocked()
}

// State returns the current snapshot.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a channel that always holds the latest state not yet
// received; older undelivered states are replaced. Call the returned func to
// unsubscribe, which closes the channel.
func (m *Model) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			if _, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(ch)
			}
			m.mu.Unlock()
		})
	}
}

// Caller holds m.mu; only publishLocked sends on subscriber channels.
func (m *Model) publishLocked() {
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- m.state:
		default:
		}
	}
}

// Await blocks until the current key has settled and returns that state.
func (m *Model) Await(ctx context.Context) (State, error) {
	ch, unsubscribe := m.Subscribe()
	defer unsubscribe()

	if s := m.State(); !s.Loading {
		return s, nil
	}
	for {
		select {
		case <-ctx.Done():
			return m.State(), ctx.Err()
		case s, ok := <-ch:
			if !ok {
				return m.State(), ErrClosed
			}
			if !s.Loading {
				return s, nil
			}
		}
	}
}

// Close unsubscribes every subscriber.
func (m *Model) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}
