// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package metrics defines the Prometheus instruments exported on /metrics.

Instruments are registered on the default registry through promauto at
package init. Callers use the Record* helpers rather than touching vectors
directly so that label values stay consistent.

Metric Families:

  - kingsroom_enrichment_*: enrichment requests, latency and resolver outcomes
  - kingsroom_store_*: document-store operations and latency
  - kingsroom_change_events_total: change-stream decisions
  - kingsroom_venue_metrics_recomputes_total: aggregator runs by mode
  - kingsroom_bulk_*: maintenance batches and retries
  - kingsroom_circuit_breaker_*: breaker state and transitions
  - kingsroom_http_*: API requests
*/
package metrics
