// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kingsroom/config.yaml",
	"/etc/kingsroom/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix marks passthrough variables: KINGSROOM_STREAM_TOPIC_PREFIX -> stream.topic_prefix.
const EnvPrefix = "KINGSROOM_"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:                "/data/kingsroom",
			InMemory:            false,
			TableSuffix:         "", // Required: TABLE_SUFFIX or ENV
			SyncWrites:          false,
			MaxConflictRetries:  16,
			RetryBackoff:        5 * time.Millisecond,
			BreakerEnabled:      true,
			BreakerMinRequests:  20,
			BreakerFailureRatio: 0.5,
			BreakerInterval:     time.Minute,
			BreakerTimeout:      30 * time.Second,
		},
		Enrichment: EnrichmentConfig{
			Timezone:            "Australia/Sydney",
			DealerRatePerEntry:  15.0,
			ToleranceRatio:      2.0,
			EvolutionWindow:     12,
			NameGate:            0.6,
			AcceptThreshold:     0.75,
			AutoCreateSeries:    true,
			AutoCreateRecurring: true,
		},
		VenueMetrics: VenueMetricsConfig{
			ActiveWindowDays: 90,
		},
		Stream: StreamConfig{
			Transport:            "channel",
			TopicPrefix:          "kingsroom",
			BufferSize:           1024,
			NATSURL:              "",
			EmbeddedNATS:         true,
			NATSStoreDir:         "/data/nats",
			NATSPort:             4222,
			DurableName:          "kingsroom-enrichment",
			DedupEnabled:         true,
			DedupTTL:             10 * time.Minute,
			DedupSize:            10000,
			RetryMaxRetries:      5,
			RetryInitialInterval: 200 * time.Millisecond,
			RetryMaxInterval:     30 * time.Second,
			ThrottlePerSecond:    0, // Unlimited
			CloseTimeout:         30 * time.Second,
		},
		Bulk: BulkConfig{
			BatchSize:     25,
			Interval:      100 * time.Millisecond,
			RatePerSecond: 10,
			MaxRetries:    5,
			RetryBackoff:  100 * time.Millisecond,
			Concurrency:   4,

			ScheduleInterval: 0, // opt-in: an external scheduler may drive mark-missed instead
			GraceDays:        2,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any setting
//
// The result is validated; errors wrap ErrConfiguration.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := FindConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.applyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFallbacks fills the table suffix and region from their secondary
// variables (ENV, REGION) when the primary ones were not given.
func (c *Config) applyFallbacks() {
	if c.Store.TableSuffix == "" {
		c.Store.TableSuffix = c.Store.SuffixFallback
	}
	if c.Store.Region == "" {
		c.Store.Region = c.Store.RegionFallback
	}
}

// FindConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func FindConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps the deployment's environment names to config paths.
var envMappings = map[string]string{
	"aws_region":            "store.region",
	"region":                "store.region_fallback",
	"table_suffix":          "store.table_suffix",
	"env":                   "store.suffix_fallback",
	"dealer_rate_per_entry": "enrichment.dealer_rate_per_entry",
	"venue_timezone":        "enrichment.timezone",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"http_host": "server.host",
	"http_port": "server.port",

	"nats_url": "stream.nats_url",
}

// passthroughSections are the config sections reachable as KINGSROOM_<SECTION>_<KEY>.
var passthroughSections = []string{
	"store", "enrichment", "venue_metrics", "stream", "bulk", "server", "logging",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - TABLE_SUFFIX -> store.table_suffix
//   - VENUE_TIMEZONE -> enrichment.timezone
//   - KINGSROOM_BULK_RATE_PER_SECOND -> bulk.rate_per_second
//   - KINGSROOM_VENUE_METRICS_ACTIVE_WINDOW_DAYS -> venue_metrics.active_window_days
//
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	rest, ok := strings.CutPrefix(key, strings.ToLower(EnvPrefix))
	if !ok {
		return ""
	}
	for _, section := range passthroughSections {
		if field, ok := strings.CutPrefix(rest, section+"_"); ok && field != "" {
			return section + "." + field
		}
	}
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes.
// The caller is responsible for synchronizing reloads.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
