// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and the environment.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig
//  2. Config File: optional YAML (CONFIG_PATH or config.yaml)
//  3. Environment Variables: highest priority
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Store        StoreConfig        `koanf:"store"`
	Enrichment   EnrichmentConfig   `koanf:"enrichment"`
	VenueMetrics VenueMetricsConfig `koanf:"venue_metrics"`
	Stream       StreamConfig       `koanf:"stream"`
	Bulk         BulkConfig         `koanf:"bulk"`
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// StoreConfig configures the Badger document store and its resilience wrappers.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// TableSuffix completes every table name (Game-<suffix>). Required.
	TableSuffix string `koanf:"table_suffix"`

	// Region is informational; it is logged at startup and reported by health.
	Region string `koanf:"region"`

	SyncWrites         bool          `koanf:"sync_writes"`
	MaxConflictRetries int           `koanf:"max_conflict_retries"`
	RetryBackoff       time.Duration `koanf:"retry_backoff"`

	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`

	// Fallbacks for ENV and REGION, applied when the primary key is unset.
	SuffixFallback string `koanf:"suffix_fallback"`
	RegionFallback string `koanf:"region_fallback"`
}

// EnrichmentConfig holds the resolver thresholds and financial settings.
type EnrichmentConfig struct {
	// Timezone is the IANA zone used to date games at venues without their own.
	Timezone            string  `koanf:"timezone"`
	DealerRatePerEntry  float64 `koanf:"dealer_rate_per_entry"`
	ToleranceRatio      float64 `koanf:"tolerance_ratio"`
	EvolutionWindow     int     `koanf:"evolution_window"`
	NameGate            float64 `koanf:"name_gate"`
	AcceptThreshold     float64 `koanf:"accept_threshold"`
	AutoCreateSeries    bool    `koanf:"auto_create_series"`
	AutoCreateRecurring bool    `koanf:"auto_create_recurring"`
}

// VenueMetricsConfig configures the venue aggregator.
type VenueMetricsConfig struct {
	// ActiveWindowDays bounds how far back a game keeps its venue ACTIVE.
	ActiveWindowDays int `koanf:"active_window_days"`
}

// ActiveWindow returns ActiveWindowDays as a duration.
func (c VenueMetricsConfig) ActiveWindow() time.Duration {
	return time.Duration(c.ActiveWindowDays) * 24 * time.Hour
}

// StreamConfig configures the change-stream router and its transport.
type StreamConfig struct {
	// Transport is "channel" (in process) or "nats" (requires the nats build tag).
	Transport    string `koanf:"transport"`
	TopicPrefix  string `koanf:"topic_prefix"`
	BufferSize   int64  `koanf:"buffer_size"`
	NATSURL      string `koanf:"nats_url"`
	EmbeddedNATS bool   `koanf:"embedded_nats"`
	NATSStoreDir string `koanf:"nats_store_dir"`
	NATSPort     int    `koanf:"nats_port"`
	DurableName  string `koanf:"durable_name"`

	DedupEnabled bool          `koanf:"dedup_enabled"`
	DedupTTL     time.Duration `koanf:"dedup_ttl"`
	DedupSize    int           `koanf:"dedup_size"`

	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	ThrottlePerSecond    int64         `koanf:"throttle_per_second"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
}

// BulkConfig paces the maintenance jobs.
type BulkConfig struct {
	// BatchSize is capped at the store's batch limit of 25.
	BatchSize     int           `koanf:"batch_size"`
	Interval      time.Duration `koanf:"interval"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	MaxRetries    int           `koanf:"max_retries"`
	RetryBackoff  time.Duration `koanf:"retry_backoff"`
	Concurrency   int           `koanf:"concurrency"`

	// ScheduleInterval runs mark-missed periodically; 0 disables the schedule.
	ScheduleInterval time.Duration `koanf:"schedule_interval"`
	GraceDays        int           `koanf:"grace_days"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Location loads the enrichment timezone.
func (c *EnrichmentConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}
