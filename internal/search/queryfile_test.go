// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/catalog-search/internal/query"
	"github.com/pdiddy/catalog-search/pkg/types"
)

func TestQueryFileRoundTrip(t *testing.T) {
	minPrice := decimal.RequireFromString("100.5")
	filters := types.FilterState{
		Text:     "serum",
		MinPrice: &minPrice,
		SkinType: "dry",
		Limit:    20,
	}
	path := filepath.Join(t.TempDir(), "serum.yaml")

	if err := WriteQueryFile(path, filters, sampleState()); err != nil {
		t.Fatalf("WriteQueryFile: %v", err)
	}
	qf, err := ReadQueryFile(path)
	if err != nil {
		t.Fatalf("ReadQueryFile: %v", err)
	}

	if qf.Key != query.Encode(filters) {
		t.Errorf("Key = %q, want %q", qf.Key, query.Encode(filters))
	}
	if qf.Filters.MinPrice == nil || !qf.Filters.MinPrice.Equal(minPrice) {
		t.Errorf("MinPrice = %v, want 100.5", qf.Filters.MinPrice)
	}
	if qf.Filters.MaxPrice != nil {
		t.Errorf("MaxPrice = %v, want nil", qf.Filters.MaxPrice)
	}
	if qf.Summary.Providers != 1 || qf.Summary.Products != 2 {
		t.Errorf("Summary = %+v", qf.Summary)
	}
	if qf.Summary.Timestamp.IsZero() {
		t.Error("Summary.Timestamp is zero")
	}
	if len(qf.Results.Products) != 2 || qf.Results.Products[0].Name != "Glow Serum" {
		t.Errorf("Results.Products = %+v", qf.Results.Products)
	}
}

func TestReadQueryFileFillsMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	content := "filters:\n  text: retinol\n  tag: night\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	qf, err := ReadQueryFile(path)
	if err != nil {
		t.Fatalf("ReadQueryFile: %v", err)
	}
	if qf.Key != "/search?q=retinol&tag=night&limit=50" {
		t.Errorf("Key = %q", qf.Key)
	}
}

func TestReadQueryFileKeyMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	content := "filters:\n  text: retinol\nkey: /search?q=spf&limit=50\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadQueryFile(path)
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Errorf("err = %v, want key mismatch", err)
	}
}

func TestReadQueryFileMissing(t *testing.T) {
	if _, err := ReadQueryFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
