// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each regular file is one secret: the filename is the key and the trimmed
// contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Known secret names.
const (
	CatalogAPIKey = "catalog-api-key"
	RedisPassword = "redis-password"
)

// DefaultDir is where the CLI looks for secrets.
const DefaultDir = ".secrets/"

// Secrets maps secret names to values.
type Secrets map[string]string

// Load reads every non-hidden file in dir. A missing directory yields an
// empty set. Unreadable files are logged and skipped.
func Load(dir string, log zerolog.Logger) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Get returns explicit when it is set, otherwise the stored secret for key.
// Flags and config therefore override files in .secrets/.
func (s Secrets) Get(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return s[key]
}

// Names returns the loaded secret names, sorted. Values are never exposed.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
