// Package web serves the dashboard: REST endpoints for game control and
// tracking configuration, plus websocket streams for state and events.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-sentry/internal/log"
	"github.com/teslashibe/go-sentry/pkg/camera"
	"github.com/teslashibe/go-sentry/pkg/game"
	"github.com/teslashibe/go-sentry/pkg/hub"
	"github.com/teslashibe/go-sentry/pkg/protocol"
	"github.com/teslashibe/go-sentry/pkg/scores"
	"github.com/teslashibe/go-sentry/pkg/tracking"
	"github.com/teslashibe/go-sentry/pkg/upgrades"
)

// Options wires the server to the rest of the system. World is required;
// handlers whose dependency is absent answer 503 so the dashboard can run
// against a partial stack (e.g. no camera on a dev box).
type Options struct {
	Addr      string // listen address, default ":8080"
	StaticDir string // dashboard assets, empty to disable

	World     *game.World
	Catalog   *upgrades.Catalog
	Tracker   *tracking.Tracker
	SessionID string
	Scores    *scores.Store
	Cameras   *camera.Manager
	WebRTC    *camera.WebRTCSource
}

// Server is the dashboard web server
type Server struct {
	app  *fiber.App
	addr string

	world   *game.World
	catalog *upgrades.Catalog
	store   *scores.Store
	cameras *camera.Manager
	rtc     *camera.WebRTCSource

	// The tracker is swapped out when a capture restart replaces the
	// tracking session, so handlers go through currentTracker.
	trackerMu sync.RWMutex
	tracker   *tracking.Tracker
	sessionID string

	started time.Time

	// Hubs for websocket broadcast (thread-safe!)
	stateHub  *hub.Hub
	eventsHub *hub.Hub
}

// NewServer creates the dashboard server and registers all routes.
func NewServer(opts Options) *Server {
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		addr:      addr,
		world:     opts.World,
		catalog:   opts.Catalog,
		tracker:   opts.Tracker,
		sessionID: opts.SessionID,
		store:     opts.Scores,
		cameras:   opts.Cameras,
		rtc:       opts.WebRTC,
		started:   time.Now(),
		stateHub:  hub.NewReplay("state"),
		eventsHub: hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-sentry dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())

	// Static files
	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	app.Get("/healthz", s.handleHealth)

	// API routes
	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/upgrades", s.handleUpgradeCatalog)
	api.Post("/game/upgrade", s.handleApplyUpgrade)
	api.Post("/game/reset", s.handleReset)
	api.Get("/scores", s.handleScores)
	api.Get("/tracking", s.handleTrackingStatus)
	api.Post("/tracking/enroll", s.handleEnroll)
	api.Get("/tracking/tuning", s.handleGetTuning)
	api.Post("/tracking/tuning", s.handleSetTuning)
	api.Get("/camera/config", s.handleGetCameraConfig)
	api.Post("/camera/config", s.handleSetCameraConfig)
	api.Post("/webrtc/offer", s.handleWebRTCOffer)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/state", websocket.New(s.handleStateWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// Start starts the web server and its broadcast hubs. Blocks.
func (s *Server) Start() error {
	log.Info("web: dashboard listening", "addr", s.addr)

	go s.stateHub.Run()
	go s.eventsHub.Run()

	return s.app.Listen(s.addr)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web: server stopped", "error", err)
		}
	}()
}

// BroadcastState pushes a simulation snapshot to state stream clients.
func (s *Server) BroadcastState(snap game.Snapshot) {
	msg, err := protocol.NewStateMessage(snap)
	if err != nil {
		log.Error("web: encode state", "error", err)
		return
	}
	s.stateHub.BroadcastJSON(msg)
}

// BroadcastEvent pushes a discrete game event to event stream clients.
func (s *Server) BroadcastEvent(ev game.Event) {
	msg, err := protocol.NewEventMessage(ev)
	if err != nil {
		log.Error("web: encode event", "error", err)
		return
	}
	s.eventsHub.BroadcastJSON(msg)
}

// BroadcastAim pushes an aim estimate to state stream clients. Aim updates
// ride the state stream so the dashboard needs one connection for
// everything it draws.
func (s *Server) BroadcastAim(x, y float64, valid bool) {
	msg, err := protocol.NewAimMessage(x, y, valid)
	if err != nil {
		return
	}
	s.stateHub.BroadcastJSON(msg)
}

// BroadcastTracking pushes the current tracking pipeline status to state
// stream clients. No-op when no tracker is wired.
func (s *Server) BroadcastTracking() {
	tracker, sessionID := s.currentTracker()
	if tracker == nil {
		return
	}
	processed, dropped := tracker.Stats()
	var color *protocol.ColorData
	if col, ok := tracker.EnrolledColor(); ok {
		color = &protocol.ColorData{R: col.R, G: col.G, B: col.B}
	}
	msg, err := protocol.NewTrackingMessage(sessionID, processed, dropped, color)
	if err != nil {
		return
	}
	s.stateHub.BroadcastJSON(msg)
}

// SetSession swaps the tracker behind the tracking endpoints when a
// capture restart replaces the session.
func (s *Server) SetSession(t *tracking.Tracker, sessionID string) {
	s.trackerMu.Lock()
	s.tracker = t
	s.sessionID = sessionID
	s.trackerMu.Unlock()
}

func (s *Server) currentTracker() (*tracking.Tracker, string) {
	s.trackerMu.RLock()
	defer s.trackerMu.RUnlock()
	return s.tracker, s.sessionID
}

// StateHub returns the state broadcast hub
func (s *Server) StateHub() *hub.Hub {
	return s.stateHub
}

// EventsHub returns the event broadcast hub
func (s *Server) EventsHub() *hub.Hub {
	return s.eventsHub
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
