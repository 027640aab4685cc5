// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-search/internal/search"
	"github.com/pdiddy/catalog-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one catalog search and print the results",
	Long: `Search builds a request from the filter flags (or a saved search file),
fetches it once through the result cache, and prints the matching providers
and products. Invalid price text is ignored and the price filter is left out.

Examples:
  catalog-search search --query serum --ingredient niacinamide
  catalog-search search --min-price 100 --max-price 300 --skin-type dry --json
  catalog-search search --load searches/serum.yaml --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts, err := searchOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		return runSearch(cmd.Context(), cmd, cfg, opts, cmd.OutOrStdout(), logger)
	},
}

type searchOptions struct {
	load    string
	save    string
	json    bool
	timeout time.Duration
}

func searchOptionsFromFlags(cmd *cobra.Command) (searchOptions, error) {
	var o searchOptions
	var err error
	if o.load, err = cmd.Flags().GetString("load"); err != nil {
		return o, err
	}
	if o.save, err = cmd.Flags().GetString("save"); err != nil {
		return o, err
	}
	if o.json, err = cmd.Flags().GetBool("json"); err != nil {
		return o, err
	}
	if o.timeout, err = cmd.Flags().GetDuration("wait"); err != nil {
		return o, err
	}
	return o, nil
}

// runSearch resolves one filter combination and renders the settled state.
// A failed search is rendered and also returned so the process exits
// non-zero.
func runSearch(ctx context.Context, cmd *cobra.Command, cfg types.Config, opts searchOptions, w io.Writer, log zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var base types.FilterState
	if opts.load != "" {
		qf, err := search.ReadQueryFile(opts.load)
		if err != nil {
			return err
		}
		base = qf.Filters
	}
	f := filtersFromFlags(cmd, base, log)

	sess, err := openSession(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing session")
		}
	}()

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	sess.filters.Apply(f)
	state, err := sess.view.Await(ctx)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", sess.filters.Key(), err)
	}

	st := sess.cache.Stats()
	log.Debug().
		Str("key", string(state.Key)).
		Int("hits", st.Hits).
		Int("store_hits", st.StoreHits).
		Int("fetches", st.Fetches).
		Msg("search settled")

	if opts.json {
		if err := search.FormatJSON(state, w); err != nil {
			return err
		}
	} else {
		search.FormatTable(state, w)
	}

	if opts.save != "" {
		if err := search.WriteQueryFile(opts.save, sess.filters.Filters(), state); err != nil {
			return err
		}
		log.Info().Str("path", opts.save).Msg("saved search")
	}

	if state.Err != nil {
		return fmt.Errorf("search %s failed (%s): %w", state.Key, state.ErrKind(), state.Err)
	}
	return nil
}

func init() {
	addFilterFlags(searchCmd)
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write the search and its results to a YAML file")
	searchCmd.Flags().String("load", "", "start from a saved search file; filter flags override it")
	searchCmd.Flags().Duration("wait", 30*time.Second, "give up waiting for results after this long")

	rootCmd.AddCommand(searchCmd)
}
