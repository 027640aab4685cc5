// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search talks to the remote catalog service: it fetches one
// RequestKey, decodes the {providers, products} body, and renders results.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/catalog-search/internal/httputil"
	"github.com/pdiddy/catalog-search/pkg/types"
)

const defaultMaxBodyBytes = 5 * 1024 * 1024

// Client fetches search results from the catalog service. It implements
// fetchcache.Fetcher.
type Client struct {
	base    string
	cfg     types.ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient validates cfg and builds a client. A nil httpClient gets a
// pooled transport with cfg.Timeout.
func NewClient(cfg types.ClientConfig, httpClient *http.Client, log zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", cfg.BaseURL)
	}

	locale, err := types.ParseLocale(string(cfg.Locale))
	if err != nil {
		return nil, err
	}
	cfg.Locale = locale

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				MaxIdleConns:          20,
				IdleConnTimeout:       90 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}

	c := &Client{
		base: base,
		cfg:  cfg,
		http: httpClient,
		log:  log,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

// URL returns the absolute URL for key.
func (c *Client) URL(key types.RequestKey) string {
	return c.base + string(key)
}

// Fetch issues GET <base><key> and decodes the body. Transport failures wrap
// types.ErrNetworkFailure; non-2xx statuses and undecodable bodies wrap
// types.ErrBadResponse. Only HTTP 429 is retried, and only when
// MaxRetries is positive.
func (c *Client) Fetch(ctx context.Context, key types.RequestKey) (*types.SearchResult, error) {
	reqID := uuid.NewString()
	log := c.log.With().Str("request_id", reqID).Str("key", string(key)).Logger()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: waiting for rate limiter: %w", types.ErrNetworkFailure, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", types.ErrNetworkFailure, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", string(c.cfg.Locale))
	req.Header.Set("X-Request-ID", reqID)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(log.WithContext(ctx), c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog request: %w", types.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("catalog responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: catalog returned HTTP %d", types.ErrBadResponse, resp.StatusCode)
	}

	body, err := readBody(resp, c.cfg.MaxBodyBytes)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) || errors.Is(err, errBadEncoding) {
			return nil, fmt.Errorf("%w: %w", types.ErrBadResponse, err)
		}
		return nil, fmt.Errorf("%w: reading catalog response: %w", types.ErrNetworkFailure, err)
	}

	return decodeResult(body)
}

// decodeResult parses a catalog body. Missing lists decode as empty.
func decodeResult(body []byte) (*types.SearchResult, error) {
	var res types.SearchResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: parsing catalog response: %w", types.ErrBadResponse, err)
	}
	if res.Providers == nil {
		res.Providers = []types.Provider{}
	}
	if res.Products == nil {
		res.Products = []types.Product{}
	}
	for i := range res.Products {
		if res.Products[i].INCI == nil {
			res.Products[i].INCI = []string{}
		}
	}
	return &res, nil
}
