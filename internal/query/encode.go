// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns a FilterState into its canonical RequestKey and back.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/catalog-search/pkg/types"
)

// SearchPath is the catalog endpoint every key addresses.
const SearchPath = "/search"

// Parameter names in canonical order. Changing this order changes every key.
const (
	paramText       = "q"
	paramMinPrice   = "min_price"
	paramMaxPrice   = "max_price"
	paramTag        = "tag"
	paramSkinType   = "skin_type"
	paramIngredient = "ingredient"
	paramLimit      = "limit"
)

// Encode returns the canonical request key for f. Absent fields are
// omitted and limit is always present.
func Encode(f types.FilterState) types.RequestKey {
	var b strings.Builder
	b.WriteString(SearchPath)

	sep := byte('?')
	add := func(name, value string) {
		b.WriteByte(sep)
		sep = '&'
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	if f.Text != "" {
		add(paramText, f.Text)
	}
	if f.MinPrice != nil {
		add(paramMinPrice, f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		add(paramMaxPrice, f.MaxPrice.String())
	}
	if f.Tag != "" {
		add(paramTag, f.Tag)
	}
	if f.SkinType != "" {
		add(paramSkinType, f.SkinType)
	}
	if f.Ingredient != "" {
		add(paramIngredient, f.Ingredient)
	}
	add(paramLimit, strconv.Itoa(f.EffectiveLimit()))

	return types.RequestKey(b.String())
}

// ParsePrice converts user-entered price text into a decimal. Empty text is
// absent (nil, nil). Text that is not a number returns
// types.ErrInvalidNumericInput.
func ParsePrice(text string) (*decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("price %q: %w", text, types.ErrInvalidNumericInput)
	}
	return &d, nil
}

// ParseKey recovers the FilterState a key was encoded from. Unknown
// parameters are rejected so a key always round-trips through Encode.
func ParseKey(key types.RequestKey) (types.FilterState, error) {
	var f types.FilterState

	s := string(key)
	path, rawQuery, _ := strings.Cut(s, "?")
	if path != SearchPath {
		return f, fmt.Errorf("request key %q: path is not %s", s, SearchPath)
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return f, fmt.Errorf("request key %q: %w", s, err)
	}

	for name, vs := range values {
		if len(vs) != 1 {
			return f, fmt.Errorf("request key %q: parameter %s repeated", s, name)
		}
		v := vs[0]
		switch name {
		case paramText:
			f.Text = v
		case paramMinPrice, paramMaxPrice:
			d, err := ParsePrice(v)
			if err != nil {
				return f, fmt.Errorf("request key %q: %w", s, err)
			}
			if name == paramMinPrice {
				f.MinPrice = d
			} else {
				f.MaxPrice = d
			}
		case paramTag:
			f.Tag = v
		case paramSkinType:
			f.SkinType = v
		case paramIngredient:
			f.Ingredient = v
		case paramLimit:
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, fmt.Errorf("request key %q: limit %q: %w", s, v, types.ErrInvalidNumericInput)
			}
			f.Limit = n
		default:
			return f, fmt.Errorf("request key %q: unknown parameter %s", s, name)
		}
	}
	return f, nil
}
