package tracking

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/teslashibe/go-sentry/internal/log"
	"github.com/teslashibe/go-sentry/pkg/camera"
	"github.com/teslashibe/go-sentry/pkg/imaging"
	"github.com/teslashibe/go-sentry/pkg/tracking/pose"
)

// Session owns one capture-to-aim pipeline: a camera source, a pose
// provider, and the tracker between them. Closing the session tears all
// three down and suppresses any result still in flight.
type Session struct {
	ID string

	src      camera.Source
	provider pose.Provider
	tracker  *Tracker

	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
	closed  atomic.Bool
}

// NewSession wires a source and provider to a fresh tracker.
func NewSession(src camera.Source, provider pose.Provider, config Config) *Session {
	return &Session{
		ID:       uuid.NewString(),
		src:      src,
		provider: provider,
		tracker:  NewTracker(provider, config),
		done:     make(chan struct{}),
	}
}

// Tracker exposes the session's tracker for subscriptions and tuning.
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

// Start begins pulling frames from the source on a background goroutine.
// A capture failure invalidates the aim and ends tracking; it does not
// propagate beyond the log.
func (s *Session) Start(ctx context.Context) error {
	if s.closed.Load() {
		return fmt.Errorf("session %s is closed", s.ID)
	}
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("session %s already started", s.ID)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	log.Info("tracking: session started", "session_id", s.ID)

	go func() {
		defer close(s.done)
		err := s.src.Start(ctx, func(frame *imaging.Frame, rotation imaging.Rotation) {
			if s.closed.Load() {
				return
			}
			s.tracker.TryProcess(frame, rotation)
		})
		if err != nil && !s.closed.Load() {
			log.Error("tracking: capture failed", "session_id", s.ID, "error", err)
			s.tracker.invalidate()
		}
	}()
	return nil
}

// Close stops the capture loop and releases the source and provider.
// It is safe to call more than once; later calls are no-ops.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	// Stop the tracker first so a frame already being processed cannot
	// publish after Close returns.
	s.tracker.stop()
	if s.cancel != nil {
		s.cancel()
	}

	err := s.src.Close()
	if s.started.Load() {
		<-s.done
	}
	if perr := s.provider.Close(); err == nil {
		err = perr
	}

	processed, dropped := s.tracker.Stats()
	log.Info("tracking: session closed", "session_id", s.ID, "frames", processed, "dropped", dropped)
	return err
}
