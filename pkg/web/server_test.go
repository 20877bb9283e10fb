package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teslashibe/go-sentry/pkg/camera"
	"github.com/teslashibe/go-sentry/pkg/game"
	"github.com/teslashibe/go-sentry/pkg/scores"
	"github.com/teslashibe/go-sentry/pkg/tracking"
	"github.com/teslashibe/go-sentry/pkg/tracking/pose"
	"github.com/teslashibe/go-sentry/pkg/upgrades"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.World == nil {
		opts.World = game.NewWorld(game.DefaultConfig(), nil, opts.Catalog)
	}
	return NewServer(opts)
}

func get(t *testing.T, s *Server, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request %s failed: %v", path, err)
	}
	return resp
}

func postJSON(t *testing.T, s *Server, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request %s failed: %v", path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := get(t, s, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
}

func TestStateEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := get(t, s, "/api/state")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var snap game.Snapshot
	decodeJSON(t, resp, &snap)
	if snap.Phase != "playing" {
		t.Errorf("Expected phase playing, got %s", snap.Phase)
	}
	if snap.Wave != 1 {
		t.Errorf("Expected wave 1, got %d", snap.Wave)
	}
	if snap.Turret.HP != 10 {
		t.Errorf("Expected turret hp 10, got %d", snap.Turret.HP)
	}
}

func TestUpgradeCatalogEndpoint(t *testing.T) {
	catalog := upgrades.NewCatalog(upgrades.DefaultDefinitions())
	s := newTestServer(t, Options{Catalog: catalog})

	resp := get(t, s, "/api/upgrades")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var defs []upgrades.Definition
	decodeJSON(t, resp, &defs)
	if len(defs) != len(upgrades.DefaultDefinitions()) {
		t.Errorf("Expected %d definitions, got %d", len(upgrades.DefaultDefinitions()), len(defs))
	}
}

func TestApplyUpgradeFlow(t *testing.T) {
	catalog := upgrades.NewCatalog(upgrades.DefaultDefinitions())

	// Zero quota so the first step completes wave 1 immediately.
	cfg := game.DefaultConfig()
	cfg.WaveBaseQuota = 0
	cfg.WaveQuotaStep = 0
	world := game.NewWorld(cfg, nil, catalog)
	world.Step(0.016)

	s := newTestServer(t, Options{World: world, Catalog: catalog})

	if world.Snapshot().Phase != "upgrading" {
		t.Fatalf("Expected upgrading phase, got %s", world.Snapshot().Phase)
	}

	// Unknown id is rejected
	resp := postJSON(t, s, "/api/game/upgrade", `{"id":"nope"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for unknown id, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Empty body is rejected
	resp = postJSON(t, s, "/api/game/upgrade", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing id, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	choices := world.Choices()
	if len(choices) == 0 {
		t.Fatal("Expected upgrade choices to be offered")
	}

	resp = postJSON(t, s, "/api/game/upgrade", `{"id":"`+choices[0].ID+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var snap game.Snapshot
	decodeJSON(t, resp, &snap)
	if snap.Phase != "playing" || snap.Wave != 2 {
		t.Errorf("Expected playing wave 2, got %s wave %d", snap.Phase, snap.Wave)
	}
}

func TestResetEndpoint(t *testing.T) {
	catalog := upgrades.NewCatalog(upgrades.DefaultDefinitions())

	// A one-hp turret and fast enemies with a huge arrival radius force a
	// game over within a few ticks regardless of spawn placement.
	cfg := game.DefaultConfig()
	cfg.TurretMaxHP = 1
	cfg.EnemySpeed = 2000
	cfg.EnemyArrivalRadius = 500
	cfg.SpawnBaseInterval = 0.5
	world := game.NewWorld(cfg, nil, catalog)

	s := newTestServer(t, Options{World: world, Catalog: catalog})

	// Not game over yet
	resp := postJSON(t, s, "/api/game/reset", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 while playing, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	for i := 0; i < 5; i++ {
		world.Step(0.25)
	}
	if world.Snapshot().Phase != "game_over" {
		t.Fatalf("Expected game over, got %s", world.Snapshot().Phase)
	}

	resp = postJSON(t, s, "/api/game/reset", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var snap game.Snapshot
	decodeJSON(t, resp, &snap)
	if snap.Phase != "playing" || snap.Wave != 1 {
		t.Errorf("Expected playing wave 1 after reset, got %s wave %d", snap.Phase, snap.Wave)
	}
}

func TestScoresEndpoint(t *testing.T) {
	store, err := scores.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	s := newTestServer(t, Options{Scores: store})

	resp := get(t, s, "/api/scores")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var runs []scores.Run
	decodeJSON(t, resp, &runs)
	if len(runs) != 0 {
		t.Errorf("Expected empty scores, got %d", len(runs))
	}

	if err := store.Record(scores.Run{ID: "r1", WavesCleared: 3, Kills: 12}); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	if err := store.Record(scores.Run{ID: "r2", WavesCleared: 5, Kills: 20}); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	resp = get(t, s, "/api/scores?sort=top&limit=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &runs)
	if len(runs) != 1 || runs[0].ID != "r2" {
		t.Errorf("Expected top run r2, got %+v", runs)
	}
}

func TestScoresUnavailable(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := get(t, s, "/api/scores")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a store, got %d", resp.StatusCode)
	}
}

func TestTrackingEndpoints(t *testing.T) {
	tracker := tracking.NewTracker(pose.NewMock(), tracking.DefaultConfig())
	s := newTestServer(t, Options{Tracker: tracker, SessionID: "sess-1"})

	resp := get(t, s, "/api/tracking")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var status map[string]interface{}
	decodeJSON(t, resp, &status)
	if status["session_id"] != "sess-1" {
		t.Errorf("Expected session_id sess-1, got %v", status["session_id"])
	}
	if status["enrolled"] != false {
		t.Errorf("Expected enrolled false, got %v", status["enrolled"])
	}

	resp = postJSON(t, s, "/api/tracking/enroll", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, s, "/api/tracking/tuning", `{"min_likelihood":0.8}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var params tracking.TuningParams
	decodeJSON(t, resp, &params)
	if params.MinLikelihood != 0.8 {
		t.Errorf("Expected min_likelihood 0.8, got %v", params.MinLikelihood)
	}
	if params.ColorThreshold != tracking.DefaultConfig().ColorThreshold {
		t.Errorf("Expected color threshold unchanged, got %v", params.ColorThreshold)
	}
}

func TestTrackingUnavailable(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, path := range []string{"/api/tracking", "/api/tracking/tuning"} {
		resp := get(t, s, path)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("Expected 503 for %s, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestCameraConfigEndpoints(t *testing.T) {
	mgr := camera.NewManager(camera.DefaultConfig())
	s := newTestServer(t, Options{Cameras: mgr})

	resp := postJSON(t, s, "/api/camera/config", `{"width":1280,"height":720}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = get(t, s, "/api/camera/config")
	var cfg map[string]interface{}
	decodeJSON(t, resp, &cfg)
	if cfg["width"] != float64(1280) || cfg["height"] != float64(720) {
		t.Errorf("Expected 1280x720, got %vx%v", cfg["width"], cfg["height"])
	}

	// Validation failures surface as 400
	resp = postJSON(t, s, "/api/camera/config", `{"rotation":45}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad rotation, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestWebRTCOfferUnavailable(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := postJSON(t, s, "/api/webrtc/offer", `{"type":"offer","sdp":"v=0"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without webrtc source, got %d", resp.StatusCode)
	}
}
