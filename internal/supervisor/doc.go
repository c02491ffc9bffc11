// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package supervisor runs Kingsroom's long-lived services under a suture v4
supervisor tree.

# Overview

Services are grouped into three layers so a failure in one does not restart
the others:

	RootSupervisor ("kingsroom")
	├── DataSupervisor ("data-layer")
	│   └── ChangeStreamService (venue metrics from game changes)
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── MaintenanceSchedulerService (mark-missed, if scheduled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A change stream stuck in restart backoff leaves enrichment over HTTP
untouched. Venue metrics go stale until the stream recovers and can be
rebuilt with the recompute-metrics maintenance job.

# Failure Handling

Each supervisor counts failures with exponential decay (FailureDecay
seconds). Past FailureThreshold it waits FailureBackoff before the next
restart. Zero fields in TreeConfig take DefaultTreeConfig values, which are
suture's own defaults.

Supervisor events are logged through sutureslog onto the slog bridge from
the logging package, so restarts land in the same zerolog stream as
everything else.

# Service Contract

Wrappers in the services subpackage implement suture.Service:

  - returning nil stops the service for good
  - returning an error triggers a restart
  - ctx cancellation requests shutdown

The badger store is not supervised. It is opened before the tree starts and
closed after it stops.
*/
package supervisor
