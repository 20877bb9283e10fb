// Package sentry wires the full stack together: camera capture, finger
// tracking, the tower-defense simulation, score persistence, and the web
// dashboard.
package sentry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-sentry/internal/config"
	"github.com/teslashibe/go-sentry/internal/log"
	"github.com/teslashibe/go-sentry/pkg/camera"
	"github.com/teslashibe/go-sentry/pkg/debug"
	"github.com/teslashibe/go-sentry/pkg/game"
	"github.com/teslashibe/go-sentry/pkg/scores"
	"github.com/teslashibe/go-sentry/pkg/tracking"
	"github.com/teslashibe/go-sentry/pkg/tracking/pose"
	"github.com/teslashibe/go-sentry/pkg/upgrades"
	"github.com/teslashibe/go-sentry/pkg/web"
)

// tickRate is the simulation frequency. The dashboard state stream runs
// at the same rate; discrete events ride their own stream.
const tickRate = 60

// Options come from the command line and select the configuration plus
// debug switches.
type Options struct {
	ConfigPath string

	// Overrides applied on top of the loaded file
	Addr         string
	CameraSource string
	PoseBackend  string

	LogLevel      string
	Debug         bool
	DebugTracking bool
}

// App is the main orchestrator. It manages all components and their
// lifecycle.
type App struct {
	config config.Config

	// Game
	world   *game.World
	catalog *upgrades.Catalog
	aim     *aimBridge

	// Capture & tracking
	cameras *camera.Manager
	rtc     *camera.WebRTCSource

	mu      sync.Mutex // Guards session swaps
	session *tracking.Session

	// Persistence
	store *scores.Store

	// Web dashboard
	web *web.Server

	// Current run bookkeeping, touched only by the tick loop
	runID    string
	runStart time.Time
}

// New creates the application from command line options.
func New(opts Options) (*App, error) {
	log.Init(opts.LogLevel)
	debug.Enabled = opts.Debug || opts.DebugTracking
	debug.Tracking = opts.DebugTracking

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	// Flag overrides bypass Load's validation, so re-check afterwards.
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.CameraSource != "" {
		cfg.Camera.Source = opts.CameraSource
	}
	if opts.PoseBackend != "" {
		cfg.Tracking.Backend = opts.PoseBackend
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}

	return &App{
		config: cfg,
		aim:    &aimBridge{},
	}, nil
}

// Init initializes all components. Call this after New() and before Run().
func (a *App) Init() error {
	fmt.Println("🛡️  go-sentry - finger-tracked tower defense")
	fmt.Println("============================================")
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}

	if err := a.initCatalog(); err != nil {
		return fmt.Errorf("catalog init: %w", err)
	}
	if err := a.initScores(); err != nil {
		return fmt.Errorf("scores init: %w", err)
	}

	a.cameras = camera.NewManager(a.config.Camera.Config)
	a.world = game.NewWorld(a.config.Game, a.aim, a.catalog)
	a.runID = uuid.NewString()
	a.runStart = time.Now()

	if err := a.initTracking(); err != nil {
		fmt.Printf("⚠️  Tracking: %v\n", err)
	}

	a.initWeb()

	fmt.Printf("🌐 Dashboard: http://localhost%s\n", a.config.Server.Addr)
	return nil
}

// Run starts the capture session, the web server, and the simulation
// loop. Blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.cameras.OnConfigChange = func(camera.Config) error {
		return a.restartCapture()
	}

	a.mu.Lock()
	if a.session != nil {
		// The session outlives ctx on purpose; Shutdown closes it.
		if err := a.session.Start(context.Background()); err != nil {
			log.Warn("sentry: capture start failed", "error", err)
		}
	}
	a.mu.Unlock()

	a.web.StartAsync()

	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()
	statusTicker := time.NewTicker(time.Second)
	defer statusTicker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			for _, ev := range a.world.Step(dt) {
				a.handleEvent(ev)
			}
			a.web.BroadcastState(a.world.Snapshot())

		case <-statusTicker.C:
			a.web.BroadcastTracking()
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	fmt.Println("\n👋 Shutting down")

	a.mu.Lock()
	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
	a.mu.Unlock()

	if a.web != nil {
		a.web.Shutdown()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// World exposes the simulation, mainly for tests.
func (a *App) World() *game.World {
	return a.world
}

func (a *App) initCatalog() error {
	if path := a.config.Upgrades.CatalogPath; path != "" {
		catalog, err := upgrades.Load(path)
		if err != nil {
			return err
		}
		a.catalog = catalog
		fmt.Printf("🗃️  Upgrades: %d definitions from %s\n", catalog.Len(), path)
		return nil
	}
	a.catalog = upgrades.NewCatalog(upgrades.DefaultDefinitions())
	fmt.Printf("🗃️  Upgrades: %d built-in definitions\n", a.catalog.Len())
	return nil
}

func (a *App) initScores() error {
	if a.config.Scores.Path == "" {
		fmt.Println("💾 Scores: disabled")
		return nil
	}
	store, err := scores.Open(a.config.Scores.Path)
	if err != nil {
		return err
	}
	a.store = store
	fmt.Printf("💾 Scores: %s\n", a.config.Scores.Path)
	return nil
}

// initTracking builds the capture source, the pose provider, and the
// session around them. Failure leaves the game running without aim input.
func (a *App) initTracking() error {
	if a.config.Camera.Source == config.SourceNone || a.config.Tracking.Backend == config.BackendNone {
		fmt.Println("🎯 Tracking: disabled")
		return nil
	}

	src, err := a.buildSource()
	if err != nil {
		return err
	}
	provider, err := a.buildProvider()
	if err != nil {
		src.Close()
		return err
	}

	sess := tracking.NewSession(src, provider, a.config.Tracking.Build())
	a.attachSession(sess)

	fmt.Printf("🎯 Tracking: %s via %s (profile %s)\n",
		a.config.Camera.Source, a.config.Tracking.Backend, a.config.Tracking.Profile)
	return nil
}

func (a *App) initWeb() {
	opts := web.Options{
		Addr:      a.config.Server.Addr,
		StaticDir: a.config.Server.StaticDir,
		World:     a.world,
		Catalog:   a.catalog,
		Scores:    a.store,
		Cameras:   a.cameras,
		WebRTC:    a.rtc,
	}
	if a.session != nil {
		opts.Tracker = a.session.Tracker()
		opts.SessionID = a.session.ID
	}
	a.web = web.NewServer(opts)
}

// captureConfig returns the live capture settings. The manager is the
// source of truth once the dashboard starts changing them.
func (a *App) captureConfig() camera.Config {
	if a.cameras != nil {
		return a.cameras.GetConfig()
	}
	return a.config.Camera.Config
}

func (a *App) buildSource() (camera.Source, error) {
	cfg := a.captureConfig()
	switch a.config.Camera.Source {
	case config.SourceWebcam:
		return camera.OpenWebcam(cfg)
	case config.SourceWebRTC:
		// One source for the process lifetime: the offer endpoint keeps
		// pointing at it across session restarts.
		if a.rtc == nil {
			a.rtc = camera.NewWebRTCSource(cfg)
		} else {
			a.rtc.SetConfig(cfg)
		}
		return a.rtc, nil
	}
	return nil, fmt.Errorf("unknown camera source %q", a.config.Camera.Source)
}

func (a *App) buildProvider() (pose.Provider, error) {
	switch a.config.Tracking.Backend {
	case config.BackendBlazePose:
		bcfg := pose.DefaultBlazeConfig()
		if a.config.Tracking.ModelPath != "" {
			bcfg.ModelPath = a.config.Tracking.ModelPath
		}
		bp, err := pose.NewBlazePose(bcfg)
		if err != nil {
			return nil, err
		}
		return bp, nil
	case config.BackendSidecar:
		remote := pose.NewRemote(pose.DefaultRemoteConfig(a.config.Tracking.SidecarURL))
		if err := remote.Connect(); err != nil {
			return nil, err
		}
		return remote, nil
	}
	return nil, fmt.Errorf("unknown pose backend %q", a.config.Tracking.Backend)
}

// attachSession publishes a new session to the aim bridge, the dashboard
// aim stream, and the tracking endpoints.
func (a *App) attachSession(sess *tracking.Session) {
	tracker := sess.Tracker()
	tracker.Subscribe(func(aim tracking.Aim) {
		if a.web != nil {
			a.web.BroadcastAim(aim.X, aim.Y, aim.Valid)
		}
	})
	a.aim.set(tracker)
	a.session = sess
	if a.web != nil {
		a.web.SetSession(tracker, sess.ID)
	}
}

// restartCapture tears down the current tracking session and rebuilds it
// with the manager's capture settings. Enrollment and tuning reset with
// the session.
func (a *App) restartCapture() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
	a.aim.set(nil)
	if a.web != nil {
		a.web.SetSession(nil, "")
	}

	if a.config.Camera.Source == config.SourceNone || a.config.Tracking.Backend == config.BackendNone {
		return nil
	}

	src, err := a.buildSource()
	if err != nil {
		return err
	}
	provider, err := a.buildProvider()
	if err != nil {
		src.Close()
		return err
	}

	sess := tracking.NewSession(src, provider, a.config.Tracking.Build())
	a.attachSession(sess)
	log.Info("sentry: capture restarted", "session", sess.ID)

	return sess.Start(context.Background())
}

// handleEvent forwards a game event to the dashboard and reacts to the
// run boundaries.
func (a *App) handleEvent(ev game.Event) {
	a.web.BroadcastEvent(ev)

	switch ev.Kind {
	case game.EventWaveAnnounced:
		if ev.Wave == 1 {
			// A fresh run: either the first, or one following a reset.
			a.runID = uuid.NewString()
			a.runStart = time.Now()
		}
		log.Info("sentry: wave started", "wave", ev.Wave)

	case game.EventWaveCleared:
		log.Info("sentry: wave cleared", "wave", ev.Wave)

	case game.EventGameOver:
		log.Info("sentry: game over", "wave", ev.Wave, "kills", ev.Kills)
		a.recordRun(ev)
	}
}

// recordRun persists a finished game.
func (a *App) recordRun(ev game.Event) {
	if a.store == nil {
		return
	}
	now := time.Now()
	run := scores.Run{
		ID:              a.runID,
		StartedAt:       a.runStart,
		EndedAt:         now,
		WavesCleared:    ev.Wave - 1,
		Kills:           ev.Kills,
		DurationSeconds: now.Sub(a.runStart).Seconds(),
	}
	if err := a.store.Record(run); err != nil {
		log.Error("sentry: record run", "error", err)
		return
	}
	log.Info("sentry: run recorded",
		"id", run.ID,
		"waves_cleared", run.WavesCleared,
		"kills", run.Kills)
}

// aimBridge lets the world read aim from whichever tracker is current;
// capture restarts swap the tracker underneath it.
type aimBridge struct {
	mu sync.RWMutex
	t  *tracking.Tracker
}

func (b *aimBridge) set(t *tracking.Tracker) {
	b.mu.Lock()
	b.t = t
	b.mu.Unlock()
}

// Aim implements game.AimSource.
func (b *aimBridge) Aim() (float64, float64, bool) {
	b.mu.RLock()
	t := b.t
	b.mu.RUnlock()
	if t == nil {
		return 0, 0, false
	}
	aim := t.Aim()
	return aim.X, aim.Y, aim.Valid
}
