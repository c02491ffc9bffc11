// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata" // venue timezones must resolve in distroless images

	"github.com/tomtom215/kingsroom/internal/api"
	"github.com/tomtom215/kingsroom/internal/bulk"
	"github.com/tomtom215/kingsroom/internal/config"
	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/eventprocessor"
	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/recurring"
	"github.com/tomtom215/kingsroom/internal/store"
	"github.com/tomtom215/kingsroom/internal/supervisor"
	"github.com/tomtom215/kingsroom/internal/supervisor/services"
	"github.com/tomtom215/kingsroom/internal/venuemetrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	watchLogLevel()

	logging.Info().
		Str("table_suffix", cfg.Store.TableSuffix).
		Str("region", cfg.Store.Region).
		Str("transport", cfg.Stream.Transport).
		Msg("Starting Kingsroom")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Kingsroom stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires the components and blocks until a shutdown signal.
func run(cfg *config.Config) error {
	badgerStore, docStore, err := openStore(&cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := docStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	tables, err := store.NewTables(cfg.Store.TableSuffix)
	if err != nil {
		return err
	}
	db := database.New(docStore, tables)

	loc, err := cfg.Enrichment.Location()
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Enrichment.Timezone, err)
	}
	orchestrator := enrichment.New(db, enrichmentConfig(&cfg.Enrichment, loc), nil)
	aggregator := venuemetrics.NewAggregator(db, orchestrator.Venues(), cfg.VenueMetrics.ActiveWindow(), nil)

	handler := eventprocessor.NewChangeHandler(tables.IsGameTable, orchestrator, aggregator)
	processor, err := eventprocessor.NewProcessor(streamConfig(&cfg.Stream), tables.Game, handler, logging.NewWatermillAdapter())
	if err != nil {
		return fmt.Errorf("create change stream: %w", err)
	}
	defer func() {
		if err := processor.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing change stream")
		}
	}()
	badgerStore.SetChangeSink(processor.Sink())

	runner := bulk.NewRunner(db, bulk.Deps{
		Enricher:  orchestrator,
		Metrics:   aggregator,
		Instances: orchestrator.Recurring(),
		Venues:    orchestrator.Venues(),
	}, bulkConfig(&cfg.Bulk), nil)

	apiHandler := api.NewHandler(db, orchestrator, aggregator, runner, processor)
	router := api.NewRouter(apiHandler, api.NewChiMiddlewareFromServer(
		cfg.Server.CORSOrigins,
		cfg.Server.RateLimitRequests,
		cfg.Server.RateLimitWindow,
		cfg.Server.RateLimitDisabled,
	))
	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED")
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddDataService(services.NewChangeStreamService(processor, cfg.Stream.CloseTimeout))
	if cfg.Bulk.ScheduleInterval > 0 {
		tree.AddMaintenanceService(services.NewMaintenanceSchedulerService(
			runner, bulk.JobMarkMissed, bulk.Request{GraceDays: cfg.Bulk.GraceDays}, cfg.Bulk.ScheduleInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	for err := range tree.ServeBackground(ctx) {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}

// openStore opens Badger and, when enabled, guards it with the circuit
// breaker. The raw store is returned too because only it carries the
// change sink.
func openStore(cfg *config.StoreConfig) (*store.BadgerStore, store.Store, error) {
	bs, err := store.Open(store.Options{
		Path:               cfg.Path,
		InMemory:           cfg.InMemory,
		SyncWrites:         cfg.SyncWrites,
		MaxConflictRetries: cfg.MaxConflictRetries,
		RetryBackoff:       cfg.RetryBackoff,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	if !cfg.BreakerEnabled {
		return bs, bs, nil
	}
	return bs, store.NewBreakerStore(bs, store.BreakerConfig{
		MinRequests:  cfg.BreakerMinRequests,
		FailureRatio: cfg.BreakerFailureRatio,
		Interval:     cfg.BreakerInterval,
		Timeout:      cfg.BreakerTimeout,
	}), nil
}

func enrichmentConfig(cfg *config.EnrichmentConfig, loc *time.Location) enrichment.Config {
	ec := enrichment.DefaultConfig()
	ec.Location = loc
	ec.DealerRatePerEntry = cfg.DealerRatePerEntry
	ec.Recurring = recurring.Config{
		NameGate:        cfg.NameGate,
		AcceptThreshold: cfg.AcceptThreshold,
		ToleranceRatio:  cfg.ToleranceRatio,
		EvolutionWindow: cfg.EvolutionWindow,
		Location:        loc,
	}
	return ec
}

func streamConfig(cfg *config.StreamConfig) eventprocessor.Config {
	ec := eventprocessor.DefaultConfig()
	ec.Transport = cfg.Transport
	ec.TopicPrefix = cfg.TopicPrefix
	ec.BufferSize = cfg.BufferSize

	ec.Router.CloseTimeout = cfg.CloseTimeout
	ec.Router.RetryMaxRetries = cfg.RetryMaxRetries
	ec.Router.RetryInitialInterval = cfg.RetryInitialInterval
	ec.Router.RetryMaxInterval = cfg.RetryMaxInterval
	ec.Router.ThrottlePerSecond = cfg.ThrottlePerSecond
	ec.Router.DeduplicationEnabled = cfg.DedupEnabled
	ec.Router.DeduplicationTTL = cfg.DedupTTL
	ec.Router.DeduplicationSize = cfg.DedupSize

	ec.NATS.URL = cfg.NATSURL
	ec.NATS.Embedded = cfg.EmbeddedNATS
	ec.NATS.StoreDir = cfg.NATSStoreDir
	ec.NATS.Port = cfg.NATSPort
	ec.NATS.DurableName = cfg.DurableName
	ec.NATS.CloseTimeout = cfg.CloseTimeout
	return ec
}

func bulkConfig(cfg *config.BulkConfig) bulk.Config {
	return bulk.Config{
		BatchSize:     cfg.BatchSize,
		RatePerSecond: cfg.RatePerSecond,
		Interval:      cfg.Interval,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
		Concurrency:   cfg.Concurrency,
	}
}

// watchLogLevel re-reads the config file on change and applies a new log
// level. Other settings need a restart.
func watchLogLevel() {
	path := config.FindConfigFile()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		cfg, err := config.Load()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config change")
			return
		}
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
