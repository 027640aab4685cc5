// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/catalog-search/internal/fetchcache"
	"github.com/pdiddy/catalog-search/internal/filters"
	"github.com/pdiddy/catalog-search/internal/search"
	"github.com/pdiddy/catalog-search/internal/view"
	"github.com/pdiddy/catalog-search/pkg/types"
)

// session wires one catalog client, cache, view model and filter controller
// together. The controller publishes keys to the view, the view resolves
// them through the cache, and the cache fetches through the client.
type session struct {
	client  *search.Client
	store   fetchcache.Store
	cache   *fetchcache.Cache
	view    *view.Model
	filters *filters.Controller
}

func openSession(cfg types.Config, log zerolog.Logger) (*session, error) {
	client, err := search.NewClient(cfg.Client, nil, log)
	if err != nil {
		return nil, err
	}

	store, err := fetchcache.OpenStore(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("opening %s cache: %w", cfg.Cache.Backend, err)
	}

	opts := []fetchcache.Option{
		fetchcache.WithPolicy(cfg.Cache.Policy, cfg.Cache.TTL),
		fetchcache.WithLogger(log),
	}
	if store != nil {
		opts = append(opts, fetchcache.WithStore(store))
	}

	s := &session{
		client: client,
		store:  store,
		cache:  fetchcache.New(client, opts...),
	}
	s.view = view.New(s.cache, log)
	s.filters = filters.New(s.view)
	return s, nil
}

// Close stops the view, waits for outstanding fetches and closes the store.
func (s *session) Close() error {
	s.view.Close()
	err := s.cache.Close()
	if s.store != nil {
		err = errors.Join(err, s.store.Close())
	}
	return err
}
