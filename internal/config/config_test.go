// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// isolate points the loader at an empty directory so no stray config.yaml is read.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Chdir(t.TempDir())
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Store.TableSuffix = "test"
	return cfg
}

func TestDefaultConfig_ValidOnceSuffixed(t *testing.T) {
	if err := defaultConfig().Validate(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("defaults without a suffix: err = %v, want ErrConfiguration", err)
	}
	if err := validConfig().Validate(); err != nil {
		t.Errorf("defaults with a suffix: %v", err)
	}
}

func TestLoad_RequiresTableSuffix(t *testing.T) {
	isolate(t)
	t.Setenv("TABLE_SUFFIX", "")
	t.Setenv("ENV", "")
	if _, err := Load(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Load without suffix: err = %v, want ErrConfiguration", err)
	}
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("ENV", "staging")
	t.Setenv("TABLE_SUFFIX", "prod")
	t.Setenv("REGION", "us-east-1")
	t.Setenv("AWS_REGION", "ap-southeast-2")
	t.Setenv("DEALER_RATE_PER_ENTRY", "12.5")
	t.Setenv("VENUE_TIMEZONE", "Australia/Perth")
	t.Setenv("KINGSROOM_BULK_RATE_PER_SECOND", "3")
	t.Setenv("KINGSROOM_VENUE_METRICS_ACTIVE_WINDOW_DAYS", "30")
	t.Setenv("KINGSROOM_STREAM_DEDUP_TTL", "90s")
	t.Setenv("KINGSROOM_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("KINGSROOM_UNKNOWN_THING", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := struct {
		Suffix, Region, Zone string
		Rate, BulkRate       float64
		Window               int
		DedupTTL             time.Duration
		Origins              []string
	}{
		cfg.Store.TableSuffix, cfg.Store.Region, cfg.Enrichment.Timezone,
		cfg.Enrichment.DealerRatePerEntry, cfg.Bulk.RatePerSecond,
		cfg.VenueMetrics.ActiveWindowDays, cfg.Stream.DedupTTL, cfg.Server.CORSOrigins,
	}
	want := got
	want.Suffix, want.Region, want.Zone = "prod", "ap-southeast-2", "Australia/Perth"
	want.Rate, want.BulkRate = 12.5, 3
	want.Window = 30
	want.DedupTTL = 90 * time.Second
	want.Origins = []string{"https://a.example", "https://b.example"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loaded config mismatch (-want +got):\n%s", diff)
	}
	if cfg.VenueMetrics.ActiveWindow() != 30*24*time.Hour {
		t.Errorf("ActiveWindow = %v", cfg.VenueMetrics.ActiveWindow())
	}
}

func TestLoad_Fallbacks(t *testing.T) {
	isolate(t)
	t.Setenv("TABLE_SUFFIX", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("ENV", "dev")
	t.Setenv("REGION", "eu-west-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.TableSuffix != "dev" || cfg.Store.Region != "eu-west-1" {
		t.Errorf("suffix=%q region=%q, want dev and eu-west-1", cfg.Store.TableSuffix, cfg.Store.Region)
	}
}

func TestLoad_YAMLFileUnderEnvironment(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "kingsroom.yaml")
	yaml := "store:\n  table_suffix: fromfile\n  in_memory: true\nbulk:\n  batch_size: 10\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.TableSuffix != "fromfile" || !cfg.Store.InMemory || cfg.Bulk.BatchSize != 10 {
		t.Errorf("file values not applied: %+v %+v", cfg.Store, cfg.Bulk)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level = %q, environment should win over the file", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"blank suffix", func(c *Config) { c.Store.TableSuffix = "  " }},
		{"no path on disk", func(c *Config) { c.Store.Path = "" }},
		{"bad breaker ratio", func(c *Config) { c.Store.BreakerFailureRatio = 1.5 }},
		{"unknown timezone", func(c *Config) { c.Enrichment.Timezone = "Mars/Olympus" }},
		{"negative dealer rate", func(c *Config) { c.Enrichment.DealerRatePerEntry = -1 }},
		{"tolerance below one", func(c *Config) { c.Enrichment.ToleranceRatio = 0.5 }},
		{"accept threshold above one", func(c *Config) { c.Enrichment.AcceptThreshold = 1.2 }},
		{"zero active window", func(c *Config) { c.VenueMetrics.ActiveWindowDays = 0 }},
		{"unknown transport", func(c *Config) { c.Stream.Transport = "kafka" }},
		{"external nats without url", func(c *Config) {
			c.Stream.Transport = "nats"
			c.Stream.EmbeddedNATS = false
		}},
		{"external nats bad scheme", func(c *Config) {
			c.Stream.Transport = "nats"
			c.Stream.EmbeddedNATS = false
			c.Stream.NATSURL = "http://nats:4222"
		}},
		{"batch above store limit", func(c *Config) { c.Bulk.BatchSize = 26 }},
		{"zero concurrency", func(c *Config) { c.Bulk.Concurrency = 0 }},
		{"sub-minute schedule", func(c *Config) { c.Bulk.ScheduleInterval = time.Second }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"sub-second rate window", func(c *Config) { c.Server.RateLimitWindow = time.Millisecond }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
				t.Errorf("Validate = %v, want ErrConfiguration", err)
			}
		})
	}

	cfg := validConfig()
	cfg.Stream.Transport = "nats"
	cfg.Stream.EmbeddedNATS = false
	cfg.Stream.NATSURL = "nats://nats.internal:4222"
	if err := cfg.Validate(); err != nil {
		t.Errorf("external nats with url: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"TABLE_SUFFIX":                               "store.table_suffix",
		"ENV":                                        "store.suffix_fallback",
		"AWS_REGION":                                 "store.region",
		"VENUE_TIMEZONE":                             "enrichment.timezone",
		"KINGSROOM_STREAM_TRANSPORT":                 "stream.transport",
		"KINGSROOM_VENUE_METRICS_ACTIVE_WINDOW_DAYS": "venue_metrics.active_window_days",
		"KINGSROOM_BULK_":                            "",
		"KINGSROOM_PLEX_URL":                         "",
		"HOME":                                       "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
