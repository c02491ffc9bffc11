// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package config provides centralized configuration management for Kingsroom.

Configuration is layered with Koanf v2: struct defaults, then an optional
YAML file (CONFIG_PATH, config.yaml, /etc/kingsroom/config.yaml), then the
environment. Load validates the result and wraps every failure in
ErrConfiguration.

# Sections

  - store: Badger path or in-memory mode, table suffix, region, conflict
    retries and the circuit breaker
  - enrichment: timezone, dealer rate, recurring thresholds, auto-create flags
  - venue_metrics: active window
  - stream: change-stream transport (channel or nats), topic prefix, dedup and retry
  - bulk: maintenance batch size (at most 25), pacing, retries, concurrency
    and the mark-missed schedule
  - server: HTTP bind, timeouts, CORS origins, rate limit
  - logging: level, format, caller

# Environment Variables

Deployment names:
  - TABLE_SUFFIX (fallback ENV): table name suffix, required
  - AWS_REGION (fallback REGION): store region
  - DEALER_RATE_PER_ENTRY: dealer cost per entry
  - VENUE_TIMEZONE: default venue timezone
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER, HTTP_HOST, HTTP_PORT, NATS_URL

Any field is also reachable as KINGSROOM_<SECTION>_<FIELD>, for example
KINGSROOM_BULK_RATE_PER_SECOND=5 or KINGSROOM_STREAM_TRANSPORT=nats.

# Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	loc, _ := cfg.Enrichment.Location()
*/
package config
