package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-sentry/internal/log"
	"github.com/teslashibe/go-sentry/pkg/imaging"
)

// maxConsecutiveMisses aborts the capture loop when the device stops
// delivering; isolated read failures are skipped.
const maxConsecutiveMisses = 30

// Webcam captures packed BGRA frames from a local device through OpenCV.
type Webcam struct {
	config Config

	mu sync.Mutex
	vc *gocv.VideoCapture
}

// OpenWebcam opens the configured capture device.
func OpenWebcam(cfg Config) (*Webcam, error) {
	vc, err := gocv.OpenVideoCapture(cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", cfg.DeviceID, err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	log.Info("camera: webcam opened",
		"device", cfg.DeviceID,
		"width", cfg.Width,
		"height", cfg.Height,
		"fps", cfg.Framerate)

	return &Webcam{config: cfg, vc: vc}, nil
}

// Start reads frames until ctx is canceled or the device stops delivering.
// Each frame is converted to packed BGRA and handed to fn with the
// configured rotation hint.
func (w *Webcam) Start(ctx context.Context, fn FrameFunc) error {
	img := gocv.NewMat()
	defer img.Close()
	bgra := gocv.NewMat()
	defer bgra.Close()

	rotation := imaging.Rotation(w.config.Rotation)
	misses := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		w.mu.Lock()
		vc := w.vc
		w.mu.Unlock()
		if vc == nil {
			return nil
		}

		if ok := vc.Read(&img); !ok || img.Empty() {
			misses++
			if misses >= maxConsecutiveMisses {
				return fmt.Errorf("camera: device %d stopped delivering frames", w.config.DeviceID)
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}
		misses = 0

		gocv.CvtColor(img, &bgra, gocv.ColorBGRToBGRA)
		frame, err := imaging.NewBGRAFrame(bgra.Cols(), bgra.Rows(), bgra.ToBytes())
		if err != nil {
			log.Warn("camera: dropping malformed frame", "error", err)
			continue
		}
		fn(frame, rotation)
	}
}

// Close releases the capture device. A running Start loop stops on its
// next iteration.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.vc == nil {
		return nil
	}
	err := w.vc.Close()
	w.vc = nil
	return err
}
