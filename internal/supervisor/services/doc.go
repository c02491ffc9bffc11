// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package services adapts Kingsroom components to suture.Service.

HTTPServerService wraps *http.Server, turning ListenAndServe and Shutdown
into a context-driven Serve.

ChangeStreamService wraps the change stream processor's Start and Shutdown.
A failed Start is returned so the supervisor retries it with backoff.

MaintenanceSchedulerService runs a bulk job on a fixed interval. Failed runs
are logged and retried on the next tick.

	tree.AddDataService(services.NewChangeStreamService(processor, 10*time.Second))
	tree.AddMaintenanceService(services.NewMaintenanceSchedulerService(
	    runner, bulk.JobMarkMissed, bulk.Request{GraceDays: 2}, time.Hour))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
*/
package services
