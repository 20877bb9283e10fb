package camera

import (
	"context"

	"github.com/teslashibe/go-sentry/pkg/imaging"
)

// FrameFunc receives each captured frame with the device rotation hint.
// The callback runs on the source's capture goroutine and must return
// quickly; the tracking layer drops frames that arrive while one is still
// being processed.
type FrameFunc func(frame *imaging.Frame, rotation imaging.Rotation)

// Source is a push-style frame producer. Start blocks until ctx is
// canceled, Close is called, or the source fails.
type Source interface {
	Start(ctx context.Context, fn FrameFunc) error
	Close() error
}
