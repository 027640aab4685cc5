// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/catalog-search/internal/view"
	"github.com/pdiddy/catalog-search/pkg/types"
)

// FormatTable writes a rendered view state as two human-readable tables.
func FormatTable(s view.State, w io.Writer) {
	switch {
	case s.Loading:
		fmt.Fprintln(w, "Loading...")
		return
	case s.Err != nil:
		fmt.Fprintf(w, "Error (%s): %v\n", s.ErrKind(), s.Err)
		return
	}

	fmt.Fprintf(w, "Providers (%d)\n", len(s.Providers))
	if len(s.Providers) == 0 {
		fmt.Fprintln(w, "  No results.")
	} else {
		fmt.Fprintf(w, "%-6s  %-30s  %-7s  %s\n", "ID", "Name", "Country", "Website")
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for _, p := range s.Providers {
			fmt.Fprintf(w, "%-6d  %-30s  %-7s  %s\n", p.ID, truncate(p.Name, 30), p.Country, p.Website)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Products (%d)\n", len(s.Products))
	if len(s.Products) == 0 {
		fmt.Fprintln(w, "  No results.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-30s  %-12s  %-24s  %s\n", "ID", "Name", "Price", "INCI", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, p := range s.Products {
		fmt.Fprintf(w, "%-6d  %-30s  %-12s  %-24s  %s\n",
			p.ID, truncate(p.Name, 30), formatPrice(p), truncate(strings.Join(p.INCI, ", "), 24), p.URL)
	}
}

// jsonState is the machine-readable form of a view state.
type jsonState struct {
	Key       types.RequestKey `json:"key"`
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
	ErrorKind types.ErrorKind  `json:"error_kind,omitempty"`
	Providers []types.Provider `json:"providers"`
	Products  []types.Product  `json:"products"`
}

// FormatJSON writes a view state as indented JSON to w.
func FormatJSON(s view.State, w io.Writer) error {
	out := jsonState{
		Key:       s.Key,
		Loading:   s.Loading,
		ErrorKind: s.ErrKind(),
		Providers: s.Providers,
		Products:  s.Products,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	if out.Providers == nil {
		out.Providers = []types.Provider{}
	}
	if out.Products == nil {
		out.Products = []types.Product{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatPrice(p types.Product) string {
	if p.PriceAmount == nil {
		return ""
	}
	if p.PriceCurrency == "" {
		return p.PriceAmount.StringFixed(2)
	}
	return p.PriceAmount.StringFixed(2) + " " + p.PriceCurrency
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
