package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	pionwebrtc "github.com/pion/webrtc/v3"

	"github.com/teslashibe/go-sentry/internal/log"
	"github.com/teslashibe/go-sentry/pkg/hub"
	"github.com/teslashibe/go-sentry/pkg/protocol"
	"github.com/teslashibe/go-sentry/pkg/scores"
	"github.com/teslashibe/go-sentry/pkg/tracking"
)

// unavailable answers for endpoints whose backing dependency is not wired
func unavailable(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": what + " not available",
	})
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

// handleState returns the current simulation snapshot
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.world.Snapshot())
}

// handleUpgradeCatalog returns every upgrade the game can offer
func (s *Server) handleUpgradeCatalog(c *fiber.Ctx) error {
	if s.catalog == nil {
		return unavailable(c, "upgrade catalog")
	}
	return c.JSON(s.catalog.Definitions())
}

// ApplyUpgradeRequest is the request body for choosing an upgrade
type ApplyUpgradeRequest struct {
	ID string `json:"id"`
}

// handleApplyUpgrade applies one of the offered upgrade choices
func (s *Server) handleApplyUpgrade(c *fiber.Ctx) error {
	var req ApplyUpgradeRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing upgrade id",
		})
	}

	if !s.world.ApplyUpgradeID(req.ID) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "upgrade not available",
		})
	}

	return c.JSON(s.world.Snapshot())
}

// handleReset starts a new game after a game over
func (s *Server) handleReset(c *fiber.Ctx) error {
	if !s.world.Reset() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "game is not over",
		})
	}
	return c.JSON(s.world.Snapshot())
}

// handleScores lists recorded runs. ?sort=top ranks by waves cleared,
// the default is newest first. ?limit caps the result count.
func (s *Server) handleScores(c *fiber.Ctx) error {
	if s.store == nil {
		return unavailable(c, "score store")
	}

	limit := c.QueryInt("limit", 0)
	var (
		runs []scores.Run
		err  error
	)
	if c.Query("sort") == "top" {
		runs, err = s.store.Top(limit)
	} else {
		runs, err = s.store.Recent(limit)
	}
	if err != nil {
		log.Error("web: list scores", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list scores",
		})
	}
	if runs == nil {
		runs = []scores.Run{}
	}
	return c.JSON(runs)
}

// handleTrackingStatus reports the tracking pipeline counters
func (s *Server) handleTrackingStatus(c *fiber.Ctx) error {
	tracker, sessionID := s.currentTracker()
	if tracker == nil {
		return unavailable(c, "tracking")
	}

	processed, dropped := tracker.Stats()
	data := protocol.TrackingData{
		SessionID: sessionID,
		Processed: processed,
		Dropped:   dropped,
	}
	if col, ok := tracker.EnrolledColor(); ok {
		data.Enrolled = true
		data.Color = &protocol.ColorData{R: col.R, G: col.G, B: col.B}
	}
	return c.JSON(data)
}

// handleEnroll samples the player's finger color from the next frame
func (s *Server) handleEnroll(c *fiber.Ctx) error {
	tracker, _ := s.currentTracker()
	if tracker == nil {
		return unavailable(c, "tracking")
	}
	tracker.RequestEnrollment()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "pending",
	})
}

// handleGetTuning returns the live tracking tuning parameters
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	tracker, _ := s.currentTracker()
	if tracker == nil {
		return unavailable(c, "tracking")
	}
	return c.JSON(tracker.GetTuningParams())
}

// handleSetTuning updates tracking tuning parameters at runtime
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	tracker, _ := s.currentTracker()
	if tracker == nil {
		return unavailable(c, "tracking")
	}

	var params tracking.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid tuning payload",
		})
	}

	tracker.SetTuningParams(params)
	return c.JSON(tracker.GetTuningParams())
}

// handleGetCameraConfig returns the active capture configuration
func (s *Server) handleGetCameraConfig(c *fiber.Ctx) error {
	if s.cameras == nil {
		return unavailable(c, "camera")
	}
	return c.JSON(s.cameras.GetConfigJSON())
}

// handleSetCameraConfig applies capture configuration changes
func (s *Server) handleSetCameraConfig(c *fiber.Ctx) error {
	if s.cameras == nil {
		return unavailable(c, "camera")
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid config payload",
		})
	}

	if err := s.cameras.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.cameras.GetConfigJSON())
}

// handleWebRTCOffer accepts a browser publisher's SDP offer and returns
// the answer. The whole exchange is one HTTP round trip.
func (s *Server) handleWebRTCOffer(c *fiber.Ctx) error {
	if s.rtc == nil {
		return unavailable(c, "webrtc ingest")
	}

	var offer pionwebrtc.SessionDescription
	if err := c.BodyParser(&offer); err != nil || offer.SDP == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid SDP offer",
		})
	}

	answer, err := s.rtc.Accept(offer)
	if err != nil {
		log.Error("web: accept webrtc offer", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to accept offer",
		})
	}
	return c.JSON(answer)
}

// handleStateWS serves the snapshot/aim/tracking stream
func (s *Server) handleStateWS(c *websocket.Conn) {
	hub.NewClient(s.stateHub, c).Run()
}

// handleEventsWS serves the discrete game event stream
func (s *Server) handleEventsWS(c *websocket.Conn) {
	hub.NewClient(s.eventsHub, c).Run()
}
