// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package main is the entry point for the Kingsroom enrichment server.

Kingsroom takes raw tournament records from scrapers and ingesters and
turns them into fully linked games. Each game gets a validated status and
venue, a tournament series and recurring-game template, and a financial
snapshot. Venue aggregates are kept current from the store's change
stream.

# Application Architecture

	RootSupervisor ("kingsroom")
	├── DataSupervisor ("data-layer")
	│   └── change stream (Watermill router, venue metrics)
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── mark-missed scheduler (BULK schedule_interval > 0)
	└── APISupervisor ("api-layer")
	    └── HTTP server (chi)

Startup order:

 1. Configuration: koanf v2 defaults, YAML file, then environment
 2. Logging: zerolog, JSON or console
 3. Store: Badger, optionally behind a gobreaker circuit breaker
 4. Pipeline: enrichment orchestrator and venue aggregator
 5. Change stream: gochannel or NATS JetStream (-tags nats)
 6. Maintenance: bulk job runner
 7. Supervisor tree and HTTP server

# Configuration

The table suffix is required. Everything else has a default.

	TABLE_SUFFIX=prod          # or ENV=prod
	AWS_REGION=ap-southeast-2  # or REGION
	VENUE_TIMEZONE=Australia/Sydney
	HTTP_PORT=8080
	LOG_LEVEL=info
	KINGSROOM_BULK_SCHEDULE_INTERVAL=1h

Any setting is reachable as KINGSROOM_<SECTION>_<KEY>. A config file is
read from CONFIG_PATH or ./config.yaml. Log level changes in the file apply
without a restart.

# Signal Handling

SIGINT and SIGTERM cancel the tree. The HTTP server drains for
server.shutdown_timeout, the change router finishes in-flight messages,
and the store is closed last.
*/
package main
