// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-search/internal/filters"
	"github.com/pdiddy/catalog-search/internal/search"
	"github.com/pdiddy/catalog-search/internal/view"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Edit filters line by line and re-render results as they arrive",
	Long: `Watch reads one filter edit per line from stdin and renders the view after
every change. Results for an older filter combination are never shown once a
newer one has been entered.

Commands:
  q <text>            free-text query
  min <price>         minimum price (invalid text clears it)
  max <price>         maximum price
  tag <tag>           tag filter
  skin <type>         skin type filter
  ingredient <name>   ingredient filter
  limit <n>           results per list
  clear               reset every filter
  quit                exit

A command with no argument clears that filter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		jsonOut, _ := cmd.Flags().GetBool("json")

		sess, err := openSession(cfg, logger)
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runWatch(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), sess, jsonOut, logger)
	},
}

// watchCommand is one parsed input line.
type watchCommand struct {
	name string
	arg  string
}

var watchCommands = map[string]bool{
	"q": true, "min": true, "max": true, "tag": true, "skin": true,
	"ingredient": true, "limit": true, "clear": true, "quit": true,
}

// parseWatchLine splits a line into a command and its argument. The
// argument keeps inner spaces so "q vitamin c" searches for "vitamin c".
func parseWatchLine(line string) (watchCommand, error) {
	line = strings.TrimSpace(line)
	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	if name == "exit" {
		name = "quit"
	}
	if !watchCommands[name] {
		return watchCommand{}, fmt.Errorf("unknown command %q", name)
	}
	return watchCommand{name: name, arg: strings.TrimSpace(arg)}, nil
}

// apply runs c against ctrl. It reports whether the loop should stop.
func (c watchCommand) apply(ctrl *filters.Controller) (quit bool, err error) {
	switch c.name {
	case "q":
		ctrl.SetText(c.arg)
	case "min":
		ctrl.SetMinPrice(c.arg)
	case "max":
		ctrl.SetMaxPrice(c.arg)
	case "tag":
		ctrl.SetTag(c.arg)
	case "skin":
		ctrl.SetSkinType(c.arg)
	case "ingredient":
		ctrl.SetIngredient(c.arg)
	case "limit":
		n := 0
		if c.arg != "" {
			n, err = strconv.Atoi(c.arg)
			if err != nil {
				return false, fmt.Errorf("limit %q is not a whole number", c.arg)
			}
		}
		ctrl.SetLimit(n)
	case "clear":
		ctrl.ClearAll()
	case "quit":
		return true, nil
	}
	return false, nil
}

// runWatch drives the filter controller from in and renders every view
// state to w until quit or end of input. At end of input it waits for the
// current key to settle so the final results are rendered.
func runWatch(ctx context.Context, in io.Reader, w io.Writer, sess *session, jsonOut bool, log zerolog.Logger) error {
	var mu sync.Mutex
	render := func(s view.State) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "== %s\n", s.Key)
		if jsonOut {
			if err := search.FormatJSON(s, w); err != nil {
				log.Warn().Err(err).Msg("rendering state")
			}
			return
		}
		search.FormatTable(s, w)
		fmt.Fprintln(w)
	}

	states, unsubscribe := sess.view.Subscribe()
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for s := range states {
			render(s)
		}
	}()

	// Start from the unfiltered search.
	sess.filters.ClearAll()

	scanner := bufio.NewScanner(in)
	quit := false
	for !quit && scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		c, err := parseWatchLine(line)
		if err == nil {
			quit, err = c.apply(sess.filters)
		}
		if err != nil {
			mu.Lock()
			fmt.Fprintf(w, "error: %v\n", err)
			mu.Unlock()
		}
	}
	scanErr := scanner.Err()

	if !quit {
		if _, err := sess.view.Await(ctx); err != nil {
			log.Warn().Err(err).Str("key", string(sess.filters.Key())).Msg("results did not settle")
		}
	}
	unsubscribe()
	<-rendered
	return scanErr
}

func init() {
	watchCmd.Flags().Bool("json", false, "render each state as JSON")
	rootCmd.AddCommand(watchCmd)
}
