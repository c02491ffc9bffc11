// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kingsroom/internal/bulk"
	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/eventprocessor"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/testinfra"
	"github.com/tomtom215/kingsroom/internal/venuemetrics"
)

type testServer struct {
	db      *database.DB
	venue   *models.Venue
	handler http.Handler
}

type fakeComponent struct{ healthy bool }

func (f fakeComponent) HealthCheck(context.Context) eventprocessor.ComponentHealth {
	return eventprocessor.ComponentHealth{Name: "change-stream", Healthy: f.healthy, LastCheck: time.Now()}
}

func newTestServer(t *testing.T, chiMw *ChiMiddleware, components ...eventprocessor.HealthCheckable) *testServer {
	t.Helper()
	db := testinfra.NewDB(t)
	testinfra.SeedEntity(t, db, testinfra.EntityID)
	clock := testinfra.NewClock(testinfra.Thursday(0).Add(6 * time.Hour))

	cfg := enrichment.DefaultConfig()
	cfg.Location = testinfra.Sydney
	o := enrichment.New(db, cfg, clock.Now)
	agg := venuemetrics.NewAggregator(db, o.Venues(), venuemetrics.DefaultActiveWindow, clock.Now)

	bcfg := bulk.DefaultConfig()
	bcfg.RatePerSecond = 0
	bcfg.Interval = 0
	runner := bulk.NewRunner(db, bulk.Deps{Enricher: o, Metrics: agg, Instances: o.Recurring(), Venues: o.Venues()}, bcfg, clock.Now)

	h := NewHandler(db, o, agg, runner, components...)
	return &testServer{
		db:      db,
		venue:   testinfra.SeedVenue(t, db, testinfra.EntityID, "Star Poker Room"),
		handler: NewRouter(h, chiMw).SetupChi(),
	}
}

func (s *testServer) game(name string) *models.Game {
	g := testinfra.NewGame(name, testinfra.Thursday(0))
	g.VenueID = s.venue.ID
	g.BuyIn = 150
	g.Rake = 30
	g.TotalEntries = 40
	g.TotalUniquePlayers = 33
	g.HasGuarantee = true
	g.GuaranteeAmount = 5000
	g.PrizepoolPaid = 5000
	return g
}

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
	Error    *APIError       `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: body is not an envelope: %v\n%s", method, path, err, rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return v
}

func TestEnrichGame_CommitThenReplay(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	g := s.game("Thursday $5k GTD")
	body := map[string]any{"game": g, "options": map[string]any{}}

	rec, env := s.do(t, http.MethodPost, "/api/v1/games/enrich", body)
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Fatalf("status = %d %s, error = %+v", rec.Code, env.Status, env.Error)
	}
	res := decodeData[enrichment.Result](t, env)
	if !res.Success || res.Metadata.Persistence.Status != enrichment.StepSaved {
		t.Errorf("result = %+v", res.Metadata.Persistence)
	}
	if res.EnrichedGame == nil || res.EnrichedGame.RecurringGameID == "" {
		t.Fatalf("enriched game not linked: %+v", res.EnrichedGame)
	}
	if rec.Header().Get("ETag") == "" || env.Metadata.RequestID == "" {
		t.Errorf("etag %q request id %q", rec.Header().Get("ETag"), env.Metadata.RequestID)
	}

	_, env = s.do(t, http.MethodPost, "/api/v1/games/enrich", body)
	if replay := decodeData[enrichment.Result](t, env); replay.Metadata.Persistence.Status != enrichment.StepUnchanged {
		t.Errorf("replay persistence = %s, want UNCHANGED", replay.Metadata.Persistence.Status)
	}
}

func TestPreviewGame_NeverSaves(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	g := s.game("Thursday $5k GTD")
	body := map[string]any{"game": g, "options": map[string]any{"saveToDatabase": true}}

	rec, env := s.do(t, http.MethodPost, "/api/v1/games/enrich/preview", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", rec.Code, env.Error)
	}
	res := decodeData[enrichment.Result](t, env)
	if res.Metadata.Persistence.Status != enrichment.StepSkipped {
		t.Errorf("persistence = %s, want SKIPPED", res.Metadata.Persistence.Status)
	}
	if stored, _ := s.db.FindGame(context.Background(), g.ID); stored != nil {
		t.Errorf("preview stored the game")
	}
}

func TestEnrichGame_Errors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	nameless := s.game("")

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"empty body", nil, http.StatusBadRequest, "INVALID_BODY"},
		{"not json", "{game:", http.StatusBadRequest, "INVALID_BODY"},
		{"missing name", map[string]any{"game": nameless}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, "/api/v1/games/enrich", tt.body)
			if rec.Code != tt.wantCode || env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("got %d %+v, want %d %s", rec.Code, env.Error, tt.wantCode, tt.wantErr)
			}
		})
	}
}

func TestVenueMetrics_RecomputeThenRead(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	path := "/api/v1/venues/" + s.venue.ID + "/metrics"

	if rec, _ := s.do(t, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
		t.Errorf("metrics before any recompute = %d, want 404", rec.Code)
	}
	s.do(t, http.MethodPost, "/api/v1/games/enrich", map[string]any{"game": s.game("Thursday $5k GTD")})

	rec, env := s.do(t, http.MethodPost, path+"/recompute", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recompute = %d %+v", rec.Code, env.Error)
	}
	if d := decodeData[models.VenueDetails](t, env); d.TotalGamesHeld != 1 {
		t.Errorf("games held = %d, want 1", d.TotalGamesHeld)
	}
	if rec, _ := s.do(t, http.MethodGet, path, nil); rec.Code != http.StatusOK {
		t.Errorf("metrics after recompute = %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodPost, "/api/v1/venues/venue-missing/metrics/recompute", nil); rec.Code != http.StatusNotFound {
		t.Errorf("recompute of unknown venue = %d, want 404", rec.Code)
	}
}

func TestRecurringGame(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	_, env := s.do(t, http.MethodPost, "/api/v1/games/enrich", map[string]any{"game": s.game("Thursday $5k GTD")})
	id := decodeData[enrichment.Result](t, env).EnrichedGame.RecurringGameID

	rec, env := s.do(t, http.MethodGet, "/api/v1/recurring-games/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %+v", rec.Code, env.Error)
	}
	got := decodeData[RecurringGameResponse](t, env)
	if got.RecurringGame.ID != id || len(got.Instances) != 1 || got.Instances[0].Status != models.InstanceConfirmed {
		t.Errorf("response = %+v", got)
	}
	if rec, _ := s.do(t, http.MethodGet, "/api/v1/recurring-games/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown template = %d, want 404", rec.Code)
	}
}

func TestRunMaintenance(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	tests := []struct {
		name     string
		path     string
		body     any
		wantCode int
	}{
		{"unknown job", "/api/v1/maintenance/defrag", nil, http.StatusNotFound},
		{"missing scope", "/api/v1/maintenance/re-enrich", nil, http.StatusBadRequest},
		{"invalid weeks", "/api/v1/maintenance/project-instances", map[string]any{"entityId": "e", "weeks": 99}, http.StatusBadRequest},
		{"bad body", "/api/v1/maintenance/status-repair", "[", http.StatusBadRequest},
		{"status repair", "/api/v1/maintenance/status-repair", nil, http.StatusOK},
		{"dry run re-enrich", "/api/v1/maintenance/re-enrich", map[string]any{"venueId": s.venue.ID, "dryRun": true}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d %+v, want %d", rec.Code, env.Error, tt.wantCode)
			}
		})
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/maintenance", nil)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), string(bulk.JobMarkMissed)) {
		t.Errorf("jobs = %d %s", rec.Code, env.Data)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil, fakeComponent{healthy: true})
	rec, env := s.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if h := decodeData[HealthStatus](t, env); h.Status != "healthy" || !h.StoreConnected || len(h.Components) != 1 {
		t.Errorf("health = %+v", h)
	}

	degraded := newTestServer(t, nil, fakeComponent{healthy: false})
	_, env = degraded.do(t, http.MethodGet, "/api/v1/health", nil)
	if h := decodeData[HealthStatus](t, env); h.Status != "degraded" {
		t.Errorf("status = %s, want degraded", h.Status)
	}
	if rec, _ := degraded.do(t, http.MethodGet, "/api/v1/health/live", nil); rec.Code != http.StatusOK {
		t.Errorf("live = %d", rec.Code)
	}
}
