// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResultLabel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{errors.New("boom"), "error"},
		{fmt.Errorf("wrapped: %w", ctx.Err()), "timeout"},
	}
	for _, tt := range tests {
		if got := resultLabel(tt.err); got != tt.want {
			t.Errorf("resultLabel(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestRecordStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(StoreOperations.WithLabelValues("get", "Game-metrics", "ok"))
	RecordStoreOperation("get", "Game-metrics", nil, time.Millisecond)
	RecordStoreOperation("get", "Game-metrics", nil, time.Millisecond)
	after := testutil.ToFloat64(StoreOperations.WithLabelValues("get", "Game-metrics", "ok"))
	if after-before != 2 {
		t.Errorf("expected 2 increments, got %v", after-before)
	}
}

func TestRecordBulkBatch(t *testing.T) {
	RecordBulkBatch("metrics-test", 25, nil)
	RecordBulkBatch("metrics-test", 25, errors.New("throttled"))

	if got := testutil.ToFloat64(BulkItems.WithLabelValues("metrics-test")); got != 25 {
		t.Errorf("items = %v, want 25 (failed batches do not count)", got)
	}
	if got := testutil.ToFloat64(BulkBatches.WithLabelValues("metrics-test", "error")); got != 1 {
		t.Errorf("failed batches = %v, want 1", got)
	}
}

func TestRecordEnrichment(t *testing.T) {
	RecordEnrichment("preview", "success", 3*time.Millisecond)
	if got := testutil.ToFloat64(EnrichmentRequests.WithLabelValues("preview", "success")); got < 1 {
		t.Errorf("expected enrichment counter to increase, got %v", got)
	}
	RecordResolverOutcome("recurring", "CREATED_NEW")
	if got := testutil.ToFloat64(ResolverOutcomes.WithLabelValues("recurring", "CREATED_NEW")); got < 1 {
		t.Errorf("expected resolver counter to increase, got %v", got)
	}
}
