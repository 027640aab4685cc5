// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catalog-search/internal/filters"
	"github.com/pdiddy/catalog-search/pkg/types"
)

// catalogStub answers every request with a body chosen by its query string
// and records the request URIs it saw.
type catalogStub struct {
	mu   sync.Mutex
	seen []string
}

func (c *catalogStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.seen = append(c.seen, r.URL.RequestURI())
	c.mu.Unlock()

	if r.URL.Query().Get("tag") == "broken" {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	products := `[]`
	if r.URL.Query().Get("q") == "serum" {
		products = `[{"id": 1, "name": "Glow Serum", "price_amount": 199, "price_currency": "SEK", "inci": ["Niacinamide"]}]`
	}
	fmt.Fprintf(w, `{"providers": [{"id": 3, "name": "Lyko"}], "products": %s}`, products)
}

func (c *catalogStub) requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.seen...)
}

func testConfig(baseURL string) types.Config {
	cfg := types.Config{
		Client: types.DefaultClientConfig(),
		Cache:  types.DefaultCacheConfig(),
	}
	cfg.Client.BaseURL = baseURL
	return cfg
}

func filterCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addFilterFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

// --- watch line parsing ---

func TestParseWatchLine(t *testing.T) {
	tests := []struct {
		line    string
		want    watchCommand
		wantErr bool
	}{
		{"q serum", watchCommand{"q", "serum"}, false},
		{"q   vitamin c  ", watchCommand{"q", "vitamin c"}, false},
		{"MIN 100", watchCommand{"min", "100"}, false},
		{"tag", watchCommand{"tag", ""}, false},
		{"exit", watchCommand{"quit", ""}, false},
		{"clear", watchCommand{"clear", ""}, false},
		{"sort price", watchCommand{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseWatchLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type keyRecorder struct{ keys []types.RequestKey }

func (r *keyRecorder) SetKey(k types.RequestKey) { r.keys = append(r.keys, k) }

func TestWatchCommandApply(t *testing.T) {
	rec := &keyRecorder{}
	ctrl := filters.New(rec)

	for _, line := range []string{"q serum", "min 100", "max abc", "skin dry", "limit 10"} {
		c, err := parseWatchLine(line)
		require.NoError(t, err)
		quit, err := c.apply(ctrl)
		require.NoError(t, err)
		assert.False(t, quit)
	}
	assert.Equal(t, types.RequestKey("/search?q=serum&min_price=100&skin_type=dry&limit=10"), ctrl.Key())

	_, err := watchCommand{"limit", "ten"}.apply(ctrl)
	assert.Error(t, err)

	quit, err := watchCommand{name: "quit"}.apply(ctrl)
	require.NoError(t, err)
	assert.True(t, quit)
}

// --- filter flags ---

func TestFiltersFromFlags(t *testing.T) {
	cmd := filterCommand(t, "--query", "serum", "--min-price", "100.50", "--max-price", "cheap", "--ingredient", "niacinamide")
	f := filtersFromFlags(cmd, types.FilterState{}, zerolog.Nop())

	assert.Equal(t, "serum", f.Text)
	require.NotNil(t, f.MinPrice)
	assert.Equal(t, "100.5", f.MinPrice.String())
	assert.Nil(t, f.MaxPrice, "invalid price text leaves the filter absent")
	assert.Equal(t, "niacinamide", f.Ingredient)
	assert.Equal(t, types.DefaultLimit, f.Limit)
}

func TestFiltersFromFlagsOverlayBase(t *testing.T) {
	base := types.FilterState{Text: "retinol", Tag: "night", Limit: 10}
	cmd := filterCommand(t, "--tag", "day")
	f := filtersFromFlags(cmd, base, zerolog.Nop())

	assert.Equal(t, "retinol", f.Text)
	assert.Equal(t, "day", f.Tag)
	assert.Equal(t, 10, f.Limit)
}

func TestInvalidateKey(t *testing.T) {
	cmd := filterCommand(t, "--query", "spf")
	cmd.Flags().String("key", "", "")
	key, err := invalidateKey(cmd)
	require.NoError(t, err)
	assert.Equal(t, types.RequestKey("/search?q=spf&limit=50"), key)

	require.NoError(t, cmd.Flags().Set("key", "/search?limit=50&q=spf"))
	key, err = invalidateKey(cmd)
	require.NoError(t, err)
	assert.Equal(t, types.RequestKey("/search?q=spf&limit=50"), key, "keys are canonicalised")

	require.NoError(t, cmd.Flags().Set("key", "/products?q=spf"))
	_, err = invalidateKey(cmd)
	assert.Error(t, err)
}

// --- search ---

func TestRunSearch(t *testing.T) {
	stub := &catalogStub{}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	cmd := filterCommand(t, "--query", "serum", "--ingredient", "niacinamide")
	var out bytes.Buffer
	err := runSearch(context.Background(), cmd, testConfig(ts.URL), searchOptions{}, &out, zerolog.Nop())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Glow Serum")
	assert.Contains(t, out.String(), "199.00 SEK")
	assert.Equal(t, []string{"/search?q=serum&ingredient=niacinamide&limit=50"}, stub.requests())
}

func TestRunSearchFailure(t *testing.T) {
	ts := httptest.NewServer(&catalogStub{})
	defer ts.Close()

	cmd := filterCommand(t, "--tag", "broken")
	var out bytes.Buffer
	err := runSearch(context.Background(), cmd, testConfig(ts.URL), searchOptions{json: true}, &out, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBadResponse)
	assert.Contains(t, out.String(), `"error_kind": "bad_response"`)
}

func TestRunSearchSaveAndLoad(t *testing.T) {
	stub := &catalogStub{}
	ts := httptest.NewServer(stub)
	defer ts.Close()
	cfg := testConfig(ts.URL)
	path := filepath.Join(t.TempDir(), "serum.yaml")

	var out bytes.Buffer
	cmd := filterCommand(t, "--query", "serum", "--skin-type", "dry")
	require.NoError(t, runSearch(context.Background(), cmd, cfg, searchOptions{save: path}, &out, zerolog.Nop()))

	out.Reset()
	cmd = filterCommand(t, "--limit", "5")
	require.NoError(t, runSearch(context.Background(), cmd, cfg, searchOptions{load: path}, &out, zerolog.Nop()))

	assert.Equal(t, []string{
		"/search?q=serum&skin_type=dry&limit=50",
		"/search?q=serum&skin_type=dry&limit=5",
	}, stub.requests())
}

func TestRunSearchSQLiteCacheAcrossSessions(t *testing.T) {
	stub := &catalogStub{}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.Cache.Backend = types.BackendSQLite
	cfg.Cache.SQLitePath = filepath.Join(t.TempDir(), "cache.db")

	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		cmd := filterCommand(t, "--query", "serum")
		require.NoError(t, runSearch(context.Background(), cmd, cfg, searchOptions{}, &out, zerolog.Nop()))
		assert.Contains(t, out.String(), "Glow Serum")
	}
	assert.Len(t, stub.requests(), 1, "second run is served from the sqlite store")
}

// --- watch ---

func TestRunWatch(t *testing.T) {
	stub := &catalogStub{}
	ts := httptest.NewServer(stub)
	defer ts.Close()

	sess, err := openSession(testConfig(ts.URL), zerolog.Nop())
	require.NoError(t, err)
	defer sess.Close()

	in := strings.NewReader("q serum\nbogus\ningredient niacinamide\n")
	var out bytes.Buffer
	require.NoError(t, runWatch(context.Background(), in, &out, sess, false, zerolog.Nop()))

	assert.Contains(t, out.String(), `error: unknown command "bogus"`)
	assert.Contains(t, out.String(), "== /search?q=serum&ingredient=niacinamide&limit=50")
	assert.Contains(t, out.String(), "Glow Serum")

	st := sess.view.State()
	assert.False(t, st.Loading)
	assert.Equal(t, types.RequestKey("/search?q=serum&ingredient=niacinamide&limit=50"), st.Key)
}

// --- cache ---

func TestPrintCacheStats(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Cache.Backend = types.BackendSQLite
	cfg.Cache.SQLitePath = filepath.Join(t.TempDir(), "cache.db")

	s, err := openSession(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.store.Set(context.Background(), "/search?limit=50", &types.SearchResult{}, 0))

	var out bytes.Buffer
	require.NoError(t, printCacheStats(context.Background(), &out, cfg, s.store))
	assert.Contains(t, out.String(), "Backend:  sqlite")
	assert.Contains(t, out.String(), "Entries:  1")
	require.NoError(t, s.Close())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "catalog-search dev\n", out.String())
}
