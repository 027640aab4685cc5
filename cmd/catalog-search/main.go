// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the catalog-search CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/catalog-search/internal/secrets"
	"github.com/pdiddy/catalog-search/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// logger is configured from --log-level before any subcommand runs.
var logger = zerolog.Nop()

// rootCmd is the base command for the catalog-search CLI.
var rootCmd = &cobra.Command{
	Use:   "catalog-search",
	Short: "Search a skincare product catalog",
	Long: `catalog-search queries a remote skincare catalog by free text and by
structured filters (price range, tag, ingredient, skin type) and prints the
matching providers and products.

Use search for one-shot queries, watch to edit filters interactively, and
cache to inspect the persistent result store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(viper.GetString("log_level"))
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()

		if f := viper.ConfigFileUsed(); f != "" {
			logger.Info().Str("file", f).Msg("using config file")
		}

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug().Strs("names", s.Names()).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	client := types.DefaultClientConfig()
	cache := types.DefaultCacheConfig()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./catalog-search.yaml or ~/.config/catalog-search/config.yaml)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of secret files")
	pf.String("base-url", client.BaseURL, "catalog service base URL")
	pf.String("locale", string(client.Locale), "catalog language: sv or en")
	pf.Duration("timeout", client.Timeout, "HTTP request timeout")
	pf.Float64("rps", client.RequestsPerSecond, "maximum requests per second (0 disables)")
	pf.String("cache-policy", string(cache.Policy), "cache policy: none, ttl, forever")
	pf.Duration("cache-ttl", cache.TTL, "freshness window for the ttl policy")
	pf.String("cache-backend", string(cache.Backend), "persistent cache: memory, sqlite, redis")

	bindings := map[string]string{
		"log_level":                  "log-level",
		"secrets_dir":                "secrets-dir",
		"client.base_url":            "base-url",
		"client.locale":              "locale",
		"client.timeout":             "timeout",
		"client.requests_per_second": "rps",
		"cache.policy":               "cache-policy",
		"cache.ttl":                  "cache-ttl",
		"cache.backend":              "cache-backend",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("catalog-search")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "catalog-search"))
		}
	}

	viper.SetEnvPrefix("CATALOG_SEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// loadConfig merges defaults, the config file, environment and flags, then
// fills credentials from .secrets/ where config leaves them empty.
func loadConfig() (types.Config, error) {
	cfg := types.Config{
		Client: types.DefaultClientConfig(),
		Cache:  types.DefaultCacheConfig(),
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	cfg.Client.APIKey = loadedSecrets.Get(secrets.CatalogAPIKey, cfg.Client.APIKey)
	cfg.Cache.Redis.Password = loadedSecrets.Get(secrets.RedisPassword, cfg.Cache.Redis.Password)

	switch cfg.Cache.Policy {
	case types.PolicyNone, types.PolicyTTL, types.PolicyForever:
	default:
		return cfg, fmt.Errorf("unknown cache policy %q (want none, ttl or forever)", cfg.Cache.Policy)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
