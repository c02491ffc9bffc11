// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package bulk runs paced maintenance jobs over stored games, snapshots and
recurring instances.

Jobs:
  - re-enrich: replay every game of a venue or entity through the pipeline
  - recompute-metrics: rebuild venue aggregates from scratch
  - overlay-repair: fix snapshot totals summed without the guarantee overlay
  - timezone-repair: recompute instance dates in the venue zone
  - status-repair: rewrite legacy game status aliases
  - project-instances: create EXPECTED instances for the coming weeks
  - mark-missed: move past-due EXPECTED instances to MISSED

Items are processed in batches of at most 25 with a rate limiter between
batches. Throughput errors from the store are retried with exponential
backoff. An item that still fails is counted in the Report and the run
continues; only cancellation ends a run early. DryRun reports what would
change without writing.
*/
package bulk
