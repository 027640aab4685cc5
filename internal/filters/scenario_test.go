// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filters

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catalog-search/internal/fetchcache"
	"github.com/pdiddy/catalog-search/internal/search"
	"github.com/pdiddy/catalog-search/internal/view"
	"github.com/pdiddy/catalog-search/pkg/types"
)

const glowSerumJSON = `{
  "providers": [],
  "products": [
    {"id": 1, "name": "Glow Serum", "price_amount": 199, "price_currency": "SEK", "url": "https://x.se/p/1", "inci": ["Water", "Niacinamide"]}
  ]
}`

// catalogServer serves canned bodies by request URI and records requests.
type catalogServer struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
	status   map[string]int
}

func (s *catalogServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	uri := r.URL.RequestURI()
	s.requests = append(s.requests, uri)
	body, ok := s.bodies[uri]
	status := s.status[uri]
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		fmt.Fprint(w, `{"detail":"internal error"}`)
		return
	}
	if !ok {
		body = `{"providers": [], "products": []}`
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func (s *catalogServer) respond(uri, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[uri] = body
}

func (s *catalogServer) fail(uri string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[uri] = status
}

func (s *catalogServer) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

type stack struct {
	server *catalogServer
	cache  *fetchcache.Cache
	model  *view.Model
	ctl    *Controller
}

func newStack(t *testing.T) *stack {
	t.Helper()
	srv := &catalogServer{bodies: map[string]string{}, status: map[string]int{}}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	cfg := types.DefaultClientConfig()
	cfg.BaseURL = ts.URL
	client, err := search.NewClient(cfg, ts.Client(), zerolog.Nop())
	require.NoError(t, err)

	cache := fetchcache.New(client, fetchcache.WithPolicy(types.PolicyForever, 0))
	t.Cleanup(func() { cache.Close() })

	model := view.New(cache, zerolog.Nop())
	t.Cleanup(model.Close)

	return &stack{server: srv, cache: cache, model: model, ctl: New(model)}
}

func settled(t *testing.T, m *view.Model, key types.RequestKey) view.State {
	t.Helper()
	require.Eventually(t, func() bool {
		s := m.State()
		return s.Key == key && !s.Loading
	}, 2*time.Second, 2*time.Millisecond)
	return m.State()
}

func TestScenarioNiacinamideSerum(t *testing.T) {
	st := newStack(t)
	const key = "/search?q=niacinamide&tag=serum&limit=50"
	st.server.respond(key, glowSerumJSON)

	st.ctl.SetText("niacinamide")
	st.ctl.SetTag("serum")
	require.Equal(t, types.RequestKey(key), st.ctl.Key())

	s := settled(t, st.model, key)
	assert.False(t, s.Loading)
	assert.Nil(t, s.Err)
	assert.Empty(t, s.Providers)
	require.Len(t, s.Products, 1)

	p := s.Products[0]
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "Glow Serum", p.Name)
	require.NotNil(t, p.PriceAmount)
	assert.Equal(t, "199", p.PriceAmount.String())
	assert.Equal(t, "SEK", p.PriceCurrency)
	assert.Equal(t, "https://x.se/p/1", p.URL)
	assert.Equal(t, []string{"Water", "Niacinamide"}, p.INCI)
}

func TestScenarioClearAllRefetches(t *testing.T) {
	st := newStack(t)

	st.ctl.SetText("retinol")
	settled(t, st.model, "/search?q=retinol&limit=50")

	st.ctl.ClearAll()
	assert.Equal(t, types.RequestKey("/search?limit=50"), st.ctl.Key())
	settled(t, st.model, "/search?limit=50")

	assert.Contains(t, st.server.seen(), "/search?limit=50")
}

func TestScenarioServerErrorClearsResults(t *testing.T) {
	st := newStack(t)
	const okKey = "/search?q=niacinamide&tag=serum&limit=50"
	const badKey = "/search?q=niacinamide&tag=serum&skin_type=dry&limit=50"
	st.server.respond(okKey, glowSerumJSON)
	st.server.fail(badKey, http.StatusInternalServerError)

	st.ctl.SetText("niacinamide")
	st.ctl.SetTag("serum")
	s := settled(t, st.model, okKey)
	require.Len(t, s.Products, 1)

	st.ctl.SetSkinType("dry")
	s = settled(t, st.model, badKey)
	assert.False(t, s.Loading)
	assert.Equal(t, types.KindBadResponse, s.ErrKind())
	assert.Empty(t, s.Products)
	assert.Empty(t, s.Providers)

	// Further edits still work after a failure.
	st.ctl.SetSkinType("")
	s = settled(t, st.model, okKey)
	assert.Nil(t, s.Err)
	assert.Len(t, s.Products, 1)
}

func TestScenarioCachedKeyNotRefetched(t *testing.T) {
	st := newStack(t)

	st.ctl.SetTag("serum")
	settled(t, st.model, "/search?tag=serum&limit=50")
	st.ctl.SetTag("cream")
	settled(t, st.model, "/search?tag=cream&limit=50")
	st.ctl.SetTag("serum")
	settled(t, st.model, "/search?tag=serum&limit=50")

	count := 0
	for _, uri := range st.server.seen() {
		if uri == "/search?tag=serum&limit=50" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
