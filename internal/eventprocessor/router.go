// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/kingsroom/internal/cache"
)

// Message metadata keys set by the ChangePublisher.
const (
	MetaTable     = "table"
	MetaKey       = "key"
	MetaVersion   = "version"
	MetaEventName = "event_name"
)

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// ThrottlePerSecond limits handled messages per second; 0 disables.
	ThrottlePerSecond int64

	DeduplicationEnabled bool
	DeduplicationTTL     time.Duration
	DeduplicationSize    int
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: 200 * time.Millisecond,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
		DeduplicationEnabled: true,
		DeduplicationTTL:     10 * time.Minute,
		DeduplicationSize:    10000,
	}
}

// Router wraps the Watermill Router with the change-stream middleware.
type Router struct {
	router    *message.Router
	config    RouterConfig
	logger    watermill.LoggerAdapter
	running   atomic.Bool
	handlers  map[string]*message.Handler
	dedupRepo *Deduplicator
	stats     *RouterMetrics
}

// RouterMetrics holds runtime counters for the Router.
type RouterMetrics struct {
	MessagesReceived     atomic.Int64
	MessagesProcessed    atomic.Int64
	MessagesFailed       atomic.Int64
	MessagesDeduplicated atomic.Int64
}

// Deduplicator implements middleware.ExpiringKeyRepository over an LRU cache.
type Deduplicator struct {
	cache *cache.LRU[struct{}]
	stats *RouterMetrics
}

// NewDeduplicator returns a deduplicator remembering size keys for ttl.
func NewDeduplicator(size int, ttl time.Duration) *Deduplicator {
	return &Deduplicator{cache: cache.NewLRU[struct{}](size, ttl)}
}

// IsDuplicate reports whether key was seen within the TTL and records it.
func (d *Deduplicator) IsDuplicate(_ context.Context, key string) (bool, error) {
	dup := d.cache.Seen(key)
	if dup && d.stats != nil {
		d.stats.MessagesDeduplicated.Add(1)
	}
	return dup, nil
}

// DedupKey identifies a change by (table, key, version). A committed write
// has exactly one version, so redeliveries and replays collapse onto it.
func DedupKey(msg *message.Message) (string, error) {
	table, key, version := msg.Metadata.Get(MetaTable), msg.Metadata.Get(MetaKey), msg.Metadata.Get(MetaVersion)
	if table == "" || key == "" {
		// Not produced by ChangePublisher; fall back to the message id.
		return msg.UUID, nil
	}
	return table + "|" + key + "|" + version, nil
}

// NewRouter creates a Router. poisonPublisher and poisonTopic may be empty,
// in which case exhausted messages are nacked instead of dead-lettered.
func NewRouter(cfg *RouterConfig, poisonPublisher message.Publisher, poisonTopic string, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:   wmRouter,
		config:   *cfg,
		logger:   logger,
		handlers: make(map[string]*message.Handler),
		stats:    &RouterMetrics{},
	}

	// Poison queue sits outermost so it only sees messages Retry gave up on.
	if poisonPublisher != nil && poisonTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, poisonTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)

	// Dedup must sit outside Retry, or every retry would look like a duplicate.
	if cfg.DeduplicationEnabled {
		r.dedupRepo = NewDeduplicator(cfg.DeduplicationSize, cfg.DeduplicationTTL)
		r.dedupRepo.stats = r.stats
		dedup := middleware.Deduplicator{
			KeyFactory: DedupKey,
			Repository: r.dedupRepo,
		}
		wmRouter.AddMiddleware(dedup.Middleware)
	}

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	return r, nil
}

// AddConsumerHandler registers a handler that produces no output messages.
// A returned error triggers the retry middleware.
func (r *Router) AddConsumerHandler(name, topic string, subscriber message.Subscriber, handler message.NoPublishHandlerFunc) *message.Handler {
	counted := func(msg *message.Message) error {
		r.stats.MessagesReceived.Add(1)
		if err := handler(msg); err != nil {
			r.stats.MessagesFailed.Add(1)
			return err
		}
		r.stats.MessagesProcessed.Add(1)
		return nil
	}
	h := r.router.AddConsumerHandler(name, topic, subscriber, counted)
	r.handlers[name] = h
	return h
}

// Run starts the router and blocks until ctx is done or Close is called.
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	return r.router.Run(ctx)
}

// Running returns a channel that closes once the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for in-flight messages.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning reports whether the router is processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// Metrics returns the router counters.
func (r *Router) Metrics() *RouterMetrics {
	return r.stats
}

// HealthCheck reports the router state.
func (r *Router) HealthCheck(context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "router",
		LastCheck: time.Now(),
		Details:   make(map[string]any),
	}
	if !r.IsRunning() {
		health.Error = "router is not running"
		return health
	}
	health.Healthy = true
	health.Message = "router is running"
	health.Details["handlers"] = len(r.handlers)
	health.Details["messages_received"] = r.stats.MessagesReceived.Load()
	health.Details["messages_processed"] = r.stats.MessagesProcessed.Load()
	health.Details["messages_failed"] = r.stats.MessagesFailed.Load()
	health.Details["messages_deduplicated"] = r.stats.MessagesDeduplicated.Load()
	return health
}
