// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/metrics"
)

// BreakerConfig tunes the store circuit breaker.
type BreakerConfig struct {
	Name string

	// MinRequests is the number of requests in an interval before tripping is considered.
	MinRequests uint32

	// FailureRatio at or above which the breaker opens.
	FailureRatio float64

	// Interval resets counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// HalfOpenRequests allowed while probing.
	HalfOpenRequests uint32
}

// DefaultBreakerConfig returns the production settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "document-store",
		MinRequests:      20,
		FailureRatio:     0.5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		HalfOpenRequests: 3,
	}
}

// BreakerStore guards a Store with a circuit breaker.
// Not-found, failed conditions and skipped writes count as successes.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerStore wraps next.
func NewBreakerStore(next Store, cfg BreakerConfig) *BreakerStore {
	def := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = def.FailureRatio
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = def.HalfOpenRequests
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_ratio", ratio).
					Msg("Store circuit breaker opening")
				return true
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrConditionFailed) ||
				errors.Is(err, ErrSkipWrite) ||
				errors.Is(err, ErrInvalidKey) ||
				errors.Is(err, ErrBatchTooLarge) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Store circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerStore{next: next, cb: cb, name: cfg.Name}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// State returns the breaker state.
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrThroughputExceeded, err)
	}
	if err != nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return res, nil
}

func castItem(res any, err error) (*Item, error) {
	if err != nil {
		return nil, err
	}
	item, ok := res.(*Item)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", res)
	}
	return item, nil
}

func (b *BreakerStore) Get(ctx context.Context, table, key string) (*Item, error) {
	return castItem(b.execute(func() (any, error) { return b.next.Get(ctx, table, key) }))
}

func (b *BreakerStore) Query(ctx context.Context, q Query) ([]Item, error) {
	res, err := b.execute(func() (any, error) { return b.next.Query(ctx, q) })
	if err != nil {
		return nil, err
	}
	items, _ := res.([]Item)
	return items, nil
}

func (b *BreakerStore) Scan(ctx context.Context, table string, fn func(Item) error) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Scan(ctx, table, fn) })
	return err
}

func (b *BreakerStore) Put(ctx context.Context, w Write) (*Item, error) {
	return castItem(b.execute(func() (any, error) { return b.next.Put(ctx, w) }))
}

func (b *BreakerStore) Update(ctx context.Context, table, key string, fn UpdateFunc) (*Item, error) {
	res, err := b.execute(func() (any, error) { return b.next.Update(ctx, table, key, fn) })
	if err != nil {
		return nil, err
	}
	item, _ := res.(*Item)
	return item, nil
}

func (b *BreakerStore) Delete(ctx context.Context, table, key string) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Delete(ctx, table, key) })
	return err
}

func (b *BreakerStore) BatchWrite(ctx context.Context, writes []Write) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.BatchWrite(ctx, writes) })
	return err
}

func (b *BreakerStore) Close() error {
	return b.next.Close()
}
