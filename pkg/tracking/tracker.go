// Package tracking converts raw camera frames into a verified, smoothed,
// normalized aim estimate. The pipeline per frame: enroll if requested,
// detect poses, pick the better raised index fingertip, verify its color
// against the enrolled reference, then smooth.
package tracking

import (
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-sentry/internal/log"
	"github.com/teslashibe/go-sentry/pkg/debug"
	"github.com/teslashibe/go-sentry/pkg/imaging"
	"github.com/teslashibe/go-sentry/pkg/tracking/pose"
)

// Aim is the tracker's output: a normalized screen position in [0,1]² and
// a validity flag. When Valid is false the position holds the last known
// estimate and must not drive anything.
type Aim struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Valid bool    `json:"valid"`
}

// Observer receives aim updates. Observers run on the frame-processing
// goroutine and must not block.
type Observer func(aim Aim)

// Tracker runs the per-frame finger-tracking pipeline. Frames are handed
// in through TryProcess; at most one frame is processed at a time and
// frames arriving while one is in flight are dropped, never queued.
type Tracker struct {
	provider pose.Provider
	config   Config

	busy    atomic.Bool // reentrancy guard, one frame in flight
	stopped atomic.Bool // suppresses results after session teardown

	processed atomic.Uint64
	dropped   atomic.Uint64

	mu          sync.RWMutex
	aim         Aim
	smoothedX   float64
	smoothedY   float64
	hasSmoothed bool
	enrolled    *imaging.Color
	enrollNext  bool
	observers   []Observer
}

// NewTracker creates a tracker reading poses from the given provider.
func NewTracker(provider pose.Provider, config Config) *Tracker {
	return &Tracker{
		provider: provider,
		config:   config,
	}
}

// Subscribe registers an observer for aim changes. Observers are notified
// at most once per processed frame, and only when validity or position
// actually changed.
func (t *Tracker) Subscribe(obs Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, obs)
}

// Aim returns the current aim estimate.
func (t *Tracker) Aim() Aim {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.aim
}

// RequestEnrollment samples the center color of the next processed frame
// and commits it as the active reference. Exactly one frame is consumed
// per request.
func (t *Tracker) RequestEnrollment() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enrollNext = true
}

// SetEnrolledColor installs a reference color directly, replacing any
// active one.
func (t *Tracker) SetEnrolledColor(c imaging.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enrolled = &c
}

// EnrolledColor returns the active reference color, if any.
func (t *Tracker) EnrolledColor() (imaging.Color, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.enrolled == nil {
		return imaging.Color{}, false
	}
	return *t.enrolled, true
}

// Stats reports how many frames were processed and how many were dropped
// by the busy guard.
func (t *Tracker) Stats() (processed, dropped uint64) {
	return t.processed.Load(), t.dropped.Load()
}

// TryProcess runs the pipeline on one frame, or drops the frame when a
// previous one is still in flight. It reports whether the frame was
// processed.
func (t *Tracker) TryProcess(frame *imaging.Frame, rotation imaging.Rotation) bool {
	if t.stopped.Load() {
		return false
	}
	if !t.busy.CompareAndSwap(false, true) {
		t.dropped.Add(1)
		return false
	}
	defer t.busy.Store(false)

	t.processed.Add(1)
	t.process(frame, rotation)
	return true
}

func (t *Tracker) process(frame *imaging.Frame, rotation imaging.Rotation) {
	// TODO: map landmark coordinates through the rotation hint; portrait
	// phones deliver sensor-rotated frames and this needs device testing.
	_ = rotation

	t.consumeEnrollment(frame)

	poses, err := t.provider.Detect(frame)
	if err != nil {
		debug.TrackLog("🎯 pose detection error: %v\n", err)
		t.invalidate()
		return
	}
	if len(poses) == 0 {
		t.invalidate()
		return
	}

	tip, ok := t.selectFingertip(poses[0])
	if !ok {
		t.invalidate()
		return
	}

	// Verification samples the raw image pixel under the fingertip, not
	// the normalized coordinate.
	if !t.verifyColor(frame, int(tip.X), int(tip.Y)) {
		t.invalidate()
		return
	}

	x := tip.X / float64(frame.Width)
	y := tip.Y / float64(frame.Height)
	if t.config.MirrorX {
		x = 1 - x
	}
	t.commit(clamp(x, 0, 1), clamp(y, 0, 1))
}

// consumeEnrollment samples the frame's geometric center once when an
// enrollment was requested. The request is consumed whether or not the
// sample succeeds.
func (t *Tracker) consumeEnrollment(frame *imaging.Frame) {
	t.mu.Lock()
	want := t.enrollNext
	t.enrollNext = false
	t.mu.Unlock()
	if !want {
		return
	}

	c, ok := imaging.SampleRGB(frame, frame.Width/2, frame.Height/2)
	if !ok {
		log.Warn("tracking: enrollment sample failed", "format", frame.Format.String())
		return
	}

	t.mu.Lock()
	t.enrolled = &c
	t.mu.Unlock()
	log.Info("tracking: color enrolled", "r", c.R, "g", c.G, "b", c.B)
}

// selectFingertip picks the qualifying hand with the strictly higher
// score from the primary pose. A tie selects nothing.
func (t *Tracker) selectFingertip(p pose.Pose) (pose.Point, bool) {
	left := t.scoreHand(p, pose.LeftIndex, pose.LeftWrist)
	right := t.scoreHand(p, pose.RightIndex, pose.RightWrist)
	debug.TrackLog("🎯 hand scores left=%.2f right=%.2f\n", left, right)

	switch {
	case left > right && left >= 0:
		pt, _ := p.Landmark(pose.LeftIndex)
		return pt, true
	case right > left && right >= 0:
		pt, _ := p.Landmark(pose.RightIndex)
		return pt, true
	default:
		return pose.Point{}, false
	}
}

// scoreHand returns the fingertip likelihood, or -1 when the hand is
// disqualified: fingertip missing, likelihood under the floor, or the
// fingertip not above its wrist. A missing wrist relaxes the wrist check.
func (t *Tracker) scoreHand(p pose.Pose, tip, wrist pose.Landmark) float64 {
	tipPt, ok := p.Landmark(tip)
	if !ok || tipPt.Likelihood < t.config.MinLikelihood {
		return -1
	}
	if wristPt, ok := p.Landmark(wrist); ok && tipPt.Y >= wristPt.Y {
		return -1
	}
	return tipPt.Likelihood
}

// verifyColor checks the pixel under the fingertip against the enrolled
// reference. Sessions without an enrollment pass everything through.
// Out-of-bounds coordinates and unreadable frames fail verification.
func (t *Tracker) verifyColor(frame *imaging.Frame, px, py int) bool {
	t.mu.RLock()
	ref := t.enrolled
	t.mu.RUnlock()
	if ref == nil {
		return true
	}

	if px < 0 || py < 0 || px >= frame.Width || py >= frame.Height {
		return false
	}
	c, ok := imaging.SampleRGB(frame, px, py)
	if !ok {
		return false
	}

	dist := c.Distance(*ref)
	debug.TrackLog("🎯 fingertip color distance %.1f (threshold %.1f)\n", dist, t.config.ColorThreshold)
	return dist < t.config.ColorThreshold
}

// commit smooths the new target into the running estimate and publishes.
func (t *Tracker) commit(x, y float64) {
	if t.stopped.Load() {
		return
	}

	t.mu.Lock()
	if t.hasSmoothed {
		x = t.smoothedX + (x-t.smoothedX)*t.config.Smoothing
		y = t.smoothedY + (y-t.smoothedY)*t.config.Smoothing
	}
	t.smoothedX, t.smoothedY = x, y
	t.hasSmoothed = true

	aim := Aim{X: x, Y: y, Valid: true}
	changed := aim != t.aim
	t.aim = aim
	observers := t.observers
	t.mu.Unlock()

	if changed {
		for _, obs := range observers {
			obs(aim)
		}
	}
}

// invalidate marks the estimate invalid, keeping the last position. The
// smoothing state survives so a re-acquired finger continues from where
// it was lost.
func (t *Tracker) invalidate() {
	if t.stopped.Load() {
		return
	}

	t.mu.Lock()
	aim := t.aim
	aim.Valid = false
	changed := aim != t.aim
	t.aim = aim
	observers := t.observers
	t.mu.Unlock()

	if changed {
		for _, obs := range observers {
			obs(aim)
		}
	}
}

// stop suppresses all further results and notifications. In-flight
// processing finishes but its outcome is dropped.
func (t *Tracker) stop() {
	t.stopped.Store(true)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
