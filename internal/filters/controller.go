// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filters owns the user's current filter values and publishes the
// matching RequestKey after every edit.
package filters

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/catalog-search/internal/query"
	"github.com/pdiddy/catalog-search/pkg/types"
)

// KeySink receives the current key. *view.Model satisfies it.
type KeySink interface {
	SetKey(key types.RequestKey)
}

// Controller holds the raw filter fields. Every mutator recomputes the key
// and publishes it before returning; none of them fail.
type Controller struct {
	sink KeySink

	mu          sync.Mutex
	state       types.FilterState
	minPriceRaw string
	maxPriceRaw string
	key         types.RequestKey
}

// New returns a controller with every field absent. It does not publish
// until the first mutation.
func New(sink KeySink) *Controller {
	return &Controller{
		sink: sink,
		key:  query.Encode(types.FilterState{}),
	}
}

// SetText sets the free-text query.
func (c *Controller) SetText(text string) {
	c.update(func(f *types.FilterState) { f.Text = text })
}

// SetMinPrice sets the minimum price from user text. Text that is empty or
// not a number leaves the field absent.
func (c *Controller) SetMinPrice(text string) {
	c.update(func(f *types.FilterState) {
		c.minPriceRaw = text
		f.MinPrice = priceOrAbsent(text)
	})
}

// SetMaxPrice sets the maximum price from user text, like SetMinPrice.
func (c *Controller) SetMaxPrice(text string) {
	c.update(func(f *types.FilterState) {
		c.maxPriceRaw = text
		f.MaxPrice = priceOrAbsent(text)
	})
}

func (c *Controller) SetTag(tag string) {
	c.update(func(f *types.FilterState) { f.Tag = tag })
}

func (c *Controller) SetSkinType(skinType string) {
	c.update(func(f *types.FilterState) { f.SkinType = skinType })
}

func (c *Controller) SetIngredient(ingredient string) {
	c.update(func(f *types.FilterState) { f.Ingredient = ingredient })
}

// SetLimit sets the page size. Non-positive values restore the default.
func (c *Controller) SetLimit(limit int) {
	c.update(func(f *types.FilterState) { f.Limit = limit })
}

// ClearAll resets every field to absent and the limit to its default.
func (c *Controller) ClearAll() {
	c.update(func(f *types.FilterState) {
		*f = types.FilterState{}
		c.minPriceRaw = ""
		c.maxPriceRaw = ""
	})
}

// Apply replaces every field with f and publishes once.
func (c *Controller) Apply(f types.FilterState) {
	c.update(func(dst *types.FilterState) {
		*dst = f
		c.minPriceRaw = decimalText(f.MinPrice)
		c.maxPriceRaw = decimalText(f.MaxPrice)
	})
}

// Filters returns the parsed filter state.
func (c *Controller) Filters() types.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RawPrices returns the price text as last entered, including text that did
// not parse.
func (c *Controller) RawPrices() (minPrice, maxPrice string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minPriceRaw, c.maxPriceRaw
}

// Key returns the key for the current filters.
func (c *Controller) Key() types.RequestKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// update publishes while holding c.mu so keys reach the sink in mutation
// order.
func (c *Controller) update(mutate func(*types.FilterState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mutate(&c.state)
	c.key = query.Encode(c.state)
	c.sink.SetKey(c.key)
}

func priceOrAbsent(text string) *decimal.Decimal {
	d, err := query.ParsePrice(text)
	if err != nil {
		return nil
	}
	return d
}

func decimalText(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
