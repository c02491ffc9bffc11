// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error(msg)
}

func TestNewSupervisorTree_AppliesDefaults(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults", tree.config)
	}
	if tree.Root() == nil {
		t.Error("Root() is nil")
	}

	custom := TreeConfig{FailureThreshold: 2, FailureDecay: 5, FailureBackoff: time.Second, ShutdownTimeout: 3 * time.Second}
	tree, _ = NewSupervisorTree(quietLogger(), custom)
	if tree.config != custom {
		t.Errorf("config = %+v, want %+v", tree.config, custom)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	stream := newMockService("change-stream", 0)
	scheduler := newMockService("scheduler-mark-missed", 0)
	http := newMockService("http-server", 0)
	tree.AddDataService(stream)
	tree.AddMaintenanceService(scheduler)
	tree.AddAPIService(http)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	eventually(t, func() bool {
		return stream.starts.Load() >= 1 && scheduler.starts.Load() >= 1 && http.starts.Load() >= 1
	}, "not every layer started")
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down")
	}
	if report, err := tree.UnstoppedServiceReport(); err != nil || len(report) != 0 {
		t.Errorf("unstopped services: %v %v", report, err)
	}
}

func TestSupervisorTree_FailureIsolation(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	flaky := newMockService("change-stream", 2)
	stable := newMockService("http-server", 0)
	tree.AddDataService(flaky)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	eventually(t, func() bool { return flaky.starts.Load() >= 3 }, "failing stream was not restarted")
	if got := stable.starts.Load(); got != 1 {
		t.Errorf("api service started %d times, want 1", got)
	}
	cancel()
	<-errCh
}

func TestSupervisorTree_RemoveMaintenanceService(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	svc := newMockService("scheduler-mark-missed", 0)
	token := tree.AddMaintenanceService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)
	eventually(t, func() bool { return svc.starts.Load() >= 1 }, "scheduler did not start")

	if err := tree.RemoveMaintenanceService(token); err != nil {
		t.Errorf("RemoveMaintenanceService: %v", err)
	}
	cancel()
	<-errCh
}
