// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/catalog-search/internal/query"
	"github.com/pdiddy/catalog-search/internal/view"
	"github.com/pdiddy/catalog-search/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results. A
// saved search can be reloaded to restore the filters without retyping them.
type QueryFile struct {
	Filters types.FilterState  `yaml:"filters"`
	Key     types.RequestKey   `yaml:"key"`
	Results types.SearchResult `yaml:"results"`
	Summary QuerySummary       `yaml:"summary"`
}

// QuerySummary stores result counts and a timestamp.
type QuerySummary struct {
	Providers int       `yaml:"providers"`
	Products  int       `yaml:"products"`
	Error     string    `yaml:"error,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves the filters and the rendered state to a YAML file.
func WriteQueryFile(path string, filters types.FilterState, s view.State) error {
	qf := QueryFile{
		Filters: filters,
		Key:     query.Encode(filters),
		Results: types.SearchResult{
			Providers: s.Providers,
			Products:  s.Products,
		},
		Summary: QuerySummary{
			Providers: len(s.Providers),
			Products:  len(s.Products),
			Timestamp: time.Now().UTC(),
		},
	}
	if s.Err != nil {
		qf.Summary.Error = s.Err.Error()
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a saved search. The stored key must match the stored
// filters so a hand-edited file cannot point at a different search.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	want := query.Encode(qf.Filters)
	if qf.Key == "" {
		qf.Key = want
	}
	if qf.Key != want {
		return nil, fmt.Errorf("query file %s: key %q does not match filters (want %q)", path, qf.Key, want)
	}
	return &qf, nil
}
