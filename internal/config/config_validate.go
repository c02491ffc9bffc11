// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConfiguration wraps every validation failure. A missing table suffix is
// the usual cause and is fatal at startup.
var ErrConfiguration = errors.New("configuration error")

// maxBulkBatchSize mirrors the store's per-batch write limit.
const maxBulkBatchSize = 25

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateStore,
		c.validateEnrichment,
		c.validateVenueMetrics,
		c.validateStream,
		c.validateBulk,
		c.validateServer,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	if strings.TrimSpace(c.Store.TableSuffix) == "" {
		return errors.New("TABLE_SUFFIX (or ENV) is required to name the store tables")
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("store.path is required unless store.in_memory is set")
	}
	if c.Store.MaxConflictRetries < 0 {
		return fmt.Errorf("store.max_conflict_retries must be >= 0, got %d", c.Store.MaxConflictRetries)
	}
	if c.Store.BreakerEnabled {
		if c.Store.BreakerFailureRatio <= 0 || c.Store.BreakerFailureRatio > 1 {
			return fmt.Errorf("store.breaker_failure_ratio must be in (0, 1], got %v", c.Store.BreakerFailureRatio)
		}
		if c.Store.BreakerTimeout <= 0 {
			return errors.New("store.breaker_timeout must be positive")
		}
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	e := &c.Enrichment
	if _, err := e.Location(); err != nil {
		return fmt.Errorf("enrichment.timezone %q: %w", e.Timezone, err)
	}
	if e.DealerRatePerEntry < 0 {
		return fmt.Errorf("enrichment.dealer_rate_per_entry must be >= 0, got %v", e.DealerRatePerEntry)
	}
	if e.ToleranceRatio < 1 {
		return fmt.Errorf("enrichment.tolerance_ratio must be >= 1, got %v", e.ToleranceRatio)
	}
	if e.EvolutionWindow < 1 {
		return fmt.Errorf("enrichment.evolution_window must be >= 1, got %d", e.EvolutionWindow)
	}
	if e.NameGate < 0 || e.NameGate > 1 {
		return fmt.Errorf("enrichment.name_gate must be in [0, 1], got %v", e.NameGate)
	}
	if e.AcceptThreshold < 0 || e.AcceptThreshold > 1 {
		return fmt.Errorf("enrichment.accept_threshold must be in [0, 1], got %v", e.AcceptThreshold)
	}
	return nil
}

func (c *Config) validateVenueMetrics() error {
	if c.VenueMetrics.ActiveWindowDays < 1 {
		return fmt.Errorf("venue_metrics.active_window_days must be >= 1, got %d", c.VenueMetrics.ActiveWindowDays)
	}
	return nil
}

func (c *Config) validateStream() error {
	s := &c.Stream
	switch s.Transport {
	case "channel":
	case "nats":
		if !s.EmbeddedNATS {
			if s.NATSURL == "" {
				return errors.New("stream.nats_url is required when embedded_nats is false")
			}
			if err := validateNATSURL(s.NATSURL); err != nil {
				return fmt.Errorf("stream.nats_url is invalid: %w", err)
			}
		}
	default:
		return fmt.Errorf("stream.transport must be channel or nats, got %q", s.Transport)
	}
	if strings.TrimSpace(s.TopicPrefix) == "" {
		return errors.New("stream.topic_prefix is required")
	}
	if s.DedupEnabled && s.DedupTTL <= 0 {
		return errors.New("stream.dedup_ttl must be positive when dedup is enabled")
	}
	if s.RetryMaxRetries < 0 {
		return fmt.Errorf("stream.retry_max_retries must be >= 0, got %d", s.RetryMaxRetries)
	}
	return nil
}

func (c *Config) validateBulk() error {
	b := &c.Bulk
	if b.BatchSize < 1 || b.BatchSize > maxBulkBatchSize {
		return fmt.Errorf("bulk.batch_size must be between 1 and %d, got %d", maxBulkBatchSize, b.BatchSize)
	}
	if b.RatePerSecond < 0 {
		return fmt.Errorf("bulk.rate_per_second must be >= 0, got %v", b.RatePerSecond)
	}
	if b.Concurrency < 1 {
		return fmt.Errorf("bulk.concurrency must be >= 1, got %d", b.Concurrency)
	}
	if b.MaxRetries < 0 {
		return fmt.Errorf("bulk.max_retries must be >= 0, got %d", b.MaxRetries)
	}
	if b.ScheduleInterval < 0 || (b.ScheduleInterval > 0 && b.ScheduleInterval < time.Minute) {
		return fmt.Errorf("bulk.schedule_interval must be 0 or at least 1m, got %v", b.ScheduleInterval)
	}
	if b.GraceDays < 0 {
		return fmt.Errorf("bulk.grace_days must be >= 0, got %d", b.GraceDays)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitRequests < 1 {
			return fmt.Errorf("server.rate_limit_requests must be >= 1, got %d", c.Server.RateLimitRequests)
		}
		if c.Server.RateLimitWindow < time.Second {
			return fmt.Errorf("server.rate_limit_window must be at least 1s, got %v", c.Server.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
