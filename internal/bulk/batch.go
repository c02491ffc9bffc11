// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package bulk

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/metrics"
	"github.com/tomtom215/kingsroom/internal/store"
)

// itemFunc processes one item and reports whether it changed anything.
type itemFunc[T any] func(ctx context.Context, item T) (bool, error)

// processBatches walks items in batches of cfg.BatchSize. Before each batch
// it waits on the run's rate limiter and the configured interval; within a
// batch up to cfg.Concurrency items run at once. Throughput errors are
// retried with exponential backoff; other item errors are recorded in the
// report and do not stop the run. Only cancellation stops it.
func processBatches[T any](ctx context.Context, r *Runner, rep *Report, items []T, fn itemFunc[T]) error {
	rep.Scanned += len(items)
	limiter := r.limiter()
	job := string(rep.Job)

	for start := 0; start < len(items); start += r.cfg.BatchSize {
		if start > 0 && r.cfg.Interval > 0 {
			if err := sleep(ctx, r.cfg.Interval); err != nil {
				return err
			}
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		end := min(start+r.cfg.BatchSize, len(items))
		batch := items[start:end]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.Concurrency)
		failedBefore := rep.Failed
		for _, item := range batch {
			g.Go(func() error {
				var changed bool
				attempts, err := store.Retry(gctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, store.IsRetryable, func() error {
					var ierr error
					changed, ierr = fn(gctx, item)
					return ierr
				})
				retries := attempts - 1
				for i := 0; i < retries; i++ {
					metrics.RecordBulkRetry(job)
				}
				if err != nil && ctx.Err() != nil {
					return ctx.Err()
				}
				rep.add(changed, retries, err)
				return nil
			})
		}
		err := g.Wait()
		rep.Batches++

		var batchErr error
		if rep.Failed > failedBefore {
			batchErr = errBatchPartial
		}
		metrics.RecordBulkBatch(job, len(batch), batchErr)
		logging.Ctx(ctx).Debug().
			Str("job", job).
			Int("batch", rep.Batches).
			Int("size", len(batch)).
			Int("failed_total", rep.Failed).
			Msg("Maintenance batch done")
		if err != nil {
			return err
		}
	}
	return nil
}

// errBatchPartial labels a batch with failed items in the batch metric.
var errBatchPartial = errors.New("batch had failed items")

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
