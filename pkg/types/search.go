// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for catalog-search.
// Covers the filter state and request key (query encoder), the decoded
// catalog response (SearchResult, Provider, Product) and the cache entry
// lifecycle shared by the fetch cache and the view model.
package types

import (
	"github.com/shopspring/decimal"
)

// DefaultLimit is the page size sent when a FilterState carries no limit.
const DefaultLimit = 50

// FilterState holds the optional search filters. Empty strings and nil
// prices are absent and never serialized into a RequestKey.
type FilterState struct {
	// Text is the free-text query, sent as q.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// MinPrice and MaxPrice bound the product price. Nil means absent.
	MinPrice *decimal.Decimal `json:"min_price,omitempty" yaml:"min_price,omitempty"`
	MaxPrice *decimal.Decimal `json:"max_price,omitempty" yaml:"max_price,omitempty"`

	Tag        string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Ingredient string `json:"ingredient,omitempty" yaml:"ingredient,omitempty"`
	SkinType   string `json:"skin_type,omitempty" yaml:"skin_type,omitempty"`

	// Limit is the maximum number of results per list. Zero or negative
	// means DefaultLimit.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// EffectiveLimit returns Limit, or DefaultLimit when Limit is not positive.
func (f FilterState) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// RequestKey is the canonical request path and query string for one filter
// combination, e.g. "/search?q=retinol&limit=50". Equal filters always
// produce byte-identical keys.
type RequestKey string

// String implements fmt.Stringer.
func (k RequestKey) String() string { return string(k) }

// SearchResult is one decoded catalog response. It is never mutated after
// decoding; a newer response replaces it.
type SearchResult struct {
	Providers []Provider `json:"providers" yaml:"providers"`
	Products  []Product  `json:"products" yaml:"products"`
}

// Provider is a shop or brand offering products.
type Provider struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Website string `json:"website,omitempty" yaml:"website,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Product is a single catalog item.
type Product struct {
	ID            int64            `json:"id" yaml:"id"`
	Name          string           `json:"name" yaml:"name"`
	PriceAmount   *decimal.Decimal `json:"price_amount,omitempty" yaml:"price_amount,omitempty"`
	PriceCurrency string           `json:"price_currency,omitempty" yaml:"price_currency,omitempty"`
	URL           string           `json:"url,omitempty" yaml:"url,omitempty"`

	// INCI is the ingredient list in label order, carried as opaque strings.
	INCI []string `json:"inci" yaml:"inci"`
}
