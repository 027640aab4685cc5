// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-search/internal/fetchcache"
	"github.com/pdiddy/catalog-search/internal/query"
	"github.com/pdiddy/catalog-search/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the persistent result cache",
	Long: `Cache manages the persistent store selected by --cache-backend (sqlite or
redis). The memory backend keeps nothing between runs, so these commands
require a persistent backend.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many results the persistent cache holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(cfg types.Config, s fetchcache.Store) error {
			return printCacheStats(cmd.Context(), cmd.OutOrStdout(), cfg, s)
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached result",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(cfg types.Config, s fetchcache.Store) error {
			c := fetchcache.New(nil, fetchcache.WithStore(s), fetchcache.WithLogger(logger))
			defer c.Close()
			if err := c.Purge(ctxOrBackground(cmd.Context())); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		})
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Remove the cached result for one filter combination",
	Long: `Invalidate removes the cached result for the search described by the
filter flags (or --key), so the next search for it goes to the network.

Examples:
  catalog-search cache invalidate --query serum --ingredient niacinamide
  catalog-search cache invalidate --key '/search?q=spf&limit=50'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := invalidateKey(cmd)
		if err != nil {
			return err
		}
		return withStore(func(cfg types.Config, s fetchcache.Store) error {
			c := fetchcache.New(nil, fetchcache.WithStore(s), fetchcache.WithLogger(logger))
			defer c.Close()
			if err := c.Invalidate(ctxOrBackground(cmd.Context()), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s\n", key)
			return nil
		})
	},
}

// invalidateKey returns --key when given, after checking it is a valid
// search key, and otherwise encodes the filter flags.
func invalidateKey(cmd *cobra.Command) (types.RequestKey, error) {
	raw, _ := cmd.Flags().GetString("key")
	if raw == "" {
		return query.Encode(filtersFromFlags(cmd, types.FilterState{}, logger)), nil
	}
	f, err := query.ParseKey(types.RequestKey(raw))
	if err != nil {
		return "", err
	}
	return query.Encode(f), nil
}

// withStore opens the configured persistent store for the duration of fn.
func withStore(fn func(types.Config, fetchcache.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := fetchcache.OpenStore(cfg.Cache)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("cache backend %q keeps nothing between runs; use --cache-backend sqlite or redis", cfg.Cache.Backend)
	}
	defer s.Close()
	return fn(cfg, s)
}

func printCacheStats(ctx context.Context, w io.Writer, cfg types.Config, s fetchcache.Store) error {
	n, err := s.Len(ctxOrBackground(ctx))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Backend:  %s\n", cfg.Cache.Backend)
	switch cfg.Cache.Backend {
	case types.BackendSQLite:
		fmt.Fprintf(w, "Path:     %s\n", cfg.Cache.SQLitePath)
	case types.BackendRedis:
		fmt.Fprintf(w, "Address:  %s (prefix %q)\n", cfg.Cache.Redis.Addr, cfg.Cache.Redis.Prefix)
	}
	fmt.Fprintf(w, "Policy:   %s\n", cfg.Cache.Policy)
	if cfg.Cache.Policy == types.PolicyTTL {
		fmt.Fprintf(w, "TTL:      %s\n", cfg.Cache.TTL)
	}
	fmt.Fprintf(w, "Entries:  %d\n", n)
	return nil
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func init() {
	addFilterFlags(cacheInvalidateCmd)
	cacheInvalidateCmd.Flags().String("key", "", "request key to invalidate, e.g. /search?q=spf&limit=50")

	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
