// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/kingsroom/internal/logging"
)

const handlerName = "game-changes"

// Processor owns the change-stream transport and runs the router that feeds
// the ChangeHandler. Start and Shutdown may be called repeatedly, as a
// supervisor restarting the stream does; Close releases the transport.
type Processor struct {
	cfg       Config
	gameTopic string
	handler   *ChangeHandler
	transport *Transport
	sink      *ChangePublisher
	logger    watermill.LoggerAdapter

	mu     sync.Mutex
	router *Router
	done   chan error
}

// NewProcessor builds the transport for cfg and a processor consuming the
// change topic of gameTable.
func NewProcessor(cfg Config, gameTable string, handler *ChangeHandler, logger watermill.LoggerAdapter) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	transport, err := NewTransport(&cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create %s transport: %w", cfg.Transport, err)
	}
	return &Processor{
		cfg:       cfg,
		gameTopic: cfg.ChangeTopic(gameTable),
		handler:   handler,
		transport: transport,
		sink:      NewChangePublisher(transport.Publisher, cfg.ChangeTopic),
		logger:    logger,
	}, nil
}

// Sink returns the store.ChangeSink publishing onto this processor's stream.
func (p *Processor) Sink() *ChangePublisher {
	return p.sink
}

// Start runs a fresh router until ctx is done or Shutdown is called. It
// returns once the router is consuming.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.router != nil {
		return errors.New("change processor already started")
	}

	rcfg := p.cfg.Router
	router, err := NewRouter(&rcfg, p.transport.Publisher, p.cfg.DeadLetterTopic(), p.logger)
	if err != nil {
		return err
	}
	router.AddConsumerHandler(handlerName, p.gameTopic, p.transport.Subscriber, p.handler.HandleMessage)

	done := make(chan error, 1)
	go func() { done <- router.Run(ctx) }()

	select {
	case <-router.Running():
	case err := <-done:
		if err == nil {
			err = errors.New("router stopped before running")
		}
		return fmt.Errorf("start change router: %w", err)
	case <-ctx.Done():
		_ = router.Close()
		return ctx.Err()
	}

	p.router = router
	p.done = done
	logging.Info().
		Str("transport", p.transport.Name).
		Str("topic", p.gameTopic).
		Str("dlq", p.cfg.DeadLetterTopic()).
		Msg("Change stream processor started")
	return nil
}

// Shutdown stops the router and waits for it, bounded by ctx.
func (p *Processor) Shutdown(ctx context.Context) {
	p.mu.Lock()
	router, done := p.router, p.done
	p.router, p.done = nil, nil
	p.mu.Unlock()
	if router == nil {
		return
	}

	if err := router.Close(); err != nil {
		logging.Warn().Err(err).Msg("Change router close failed")
	}
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Warn().Err(err).Msg("Change router exited with error")
		}
	case <-ctx.Done():
		logging.Warn().Msg("Change router shutdown timed out")
	}
	logging.Info().Msg("Change stream processor stopped")
}

// IsRunning reports whether a router is consuming.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.router != nil && p.router.IsRunning()
}

// Close shuts down and releases the transport.
func (p *Processor) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p.Shutdown(ctx)
	return p.transport.Close()
}

// HealthCheck reports the router and publisher state.
func (p *Processor) HealthCheck(ctx context.Context) ComponentHealth {
	p.mu.Lock()
	router := p.router
	p.mu.Unlock()

	var health ComponentHealth
	if router != nil {
		health = router.HealthCheck(ctx)
	} else {
		health = ComponentHealth{Name: "router", LastCheck: time.Now(), Error: "router is not running", Details: map[string]any{}}
	}
	health.Name = "change-stream"
	published, failed := p.sink.Stats()
	health.Details["transport"] = p.transport.Name
	health.Details["events_published"] = published
	health.Details["events_publish_failed"] = failed
	return health
}
