// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-search/internal/query"
	"github.com/pdiddy/catalog-search/pkg/types"
)

// addFilterFlags registers one flag per filter field on cmd.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "free-text search")
	cmd.Flags().String("min-price", "", "minimum price")
	cmd.Flags().String("max-price", "", "maximum price")
	cmd.Flags().String("tag", "", "filter by tag")
	cmd.Flags().String("skin-type", "", "filter by skin type")
	cmd.Flags().String("ingredient", "", "filter by ingredient")
	cmd.Flags().Int("limit", types.DefaultLimit, "maximum results per list")
}

// filtersFromFlags overlays the flags the user set on base. Price text that
// is not a number leaves that price absent.
func filtersFromFlags(cmd *cobra.Command, base types.FilterState, log zerolog.Logger) types.FilterState {
	f := base
	fs := cmd.Flags()

	if fs.Changed("query") {
		f.Text, _ = fs.GetString("query")
	}
	if fs.Changed("min-price") {
		text, _ := fs.GetString("min-price")
		f.MinPrice = parsePriceFlag(log, "min-price", text)
	}
	if fs.Changed("max-price") {
		text, _ := fs.GetString("max-price")
		f.MaxPrice = parsePriceFlag(log, "max-price", text)
	}
	if fs.Changed("tag") {
		f.Tag, _ = fs.GetString("tag")
	}
	if fs.Changed("skin-type") {
		f.SkinType, _ = fs.GetString("skin-type")
	}
	if fs.Changed("ingredient") {
		f.Ingredient, _ = fs.GetString("ingredient")
	}
	if fs.Changed("limit") || f.Limit == 0 {
		f.Limit, _ = fs.GetInt("limit")
	}
	return f
}

func parsePriceFlag(log zerolog.Logger, flag, text string) *decimal.Decimal {
	d, err := query.ParsePrice(text)
	if err != nil {
		log.Warn().Err(err).Str("flag", flag).Msg("ignoring price filter")
		return nil
	}
	return d
}
