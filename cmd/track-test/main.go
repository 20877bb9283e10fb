// Track test - run the finger-tracking pipeline without the game
// Prints aim updates to stdout so camera placement and tuning can be
// checked before a real session.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-sentry/pkg/camera"
	"github.com/teslashibe/go-sentry/pkg/debug"
	"github.com/teslashibe/go-sentry/pkg/tracking"
	"github.com/teslashibe/go-sentry/pkg/tracking/pose"
)

func main() {
	device := flag.Int("camera", 0, "Webcam device ID")
	width := flag.Int("width", 640, "Capture width")
	height := flag.Int("height", 480, "Capture height")
	backend := flag.String("backend", "blazepose", "Pose backend: blazepose, sidecar")
	sidecarURL := flag.String("sidecar-url", "ws://127.0.0.1:9090/pose", "Sidecar websocket URL")
	modelPath := flag.String("model", "", "BlazePose ONNX model path (overrides default)")
	profile := flag.String("profile", "default", "Tracking profile: default, strict, relaxed")
	duration := flag.Duration("duration", 0, "Stop after this long (0 = run until Ctrl+C)")
	debugTracking := flag.Bool("debug-tracking", false, "Enable per-frame tracking logs")
	flag.Parse()

	debug.Enabled = *debugTracking
	debug.Tracking = *debugTracking

	fmt.Println("🎯 Finger Tracking Test")
	fmt.Println("=======================")
	fmt.Printf("Camera: device %d @ %dx%d\n", *device, *width, *height)
	fmt.Printf("Backend: %s, profile: %s\n\n", *backend, *profile)

	camCfg := camera.DefaultConfig()
	camCfg.DeviceID = *device
	camCfg.Width = *width
	camCfg.Height = *height

	src, err := camera.OpenWebcam(camCfg)
	if err != nil {
		fmt.Printf("❌ Camera failed: %v\n", err)
		os.Exit(1)
	}

	provider, err := buildProvider(*backend, *sidecarURL, *modelPath)
	if err != nil {
		src.Close()
		fmt.Printf("❌ Pose backend failed: %v\n", err)
		os.Exit(1)
	}

	sess := tracking.NewSession(src, provider, tracking.ConfigByName(*profile))
	defer sess.Close()

	sess.Tracker().Subscribe(func(aim tracking.Aim) {
		if aim.Valid {
			fmt.Printf("👆 aim x=%.3f y=%.3f\n", aim.X, aim.Y)
		} else {
			fmt.Println("🫥 aim lost")
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := sess.Start(ctx); err != nil {
		fmt.Printf("❌ Session failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🎬 Tracking (Ctrl+C to stop)...")
	start := time.Now()
	<-ctx.Done()

	processed, dropped := sess.Tracker().Stats()
	elapsed := time.Since(start).Seconds()
	fmt.Printf("\n📊 Final: %d frames processed, %d dropped in %.1fs = %.2f fps\n",
		processed, dropped, elapsed, float64(processed)/elapsed)
}

func buildProvider(backend, sidecarURL, modelPath string) (pose.Provider, error) {
	switch backend {
	case "blazepose":
		cfg := pose.DefaultBlazeConfig()
		if modelPath != "" {
			cfg.ModelPath = modelPath
		}
		return pose.NewBlazePose(cfg)
	case "sidecar":
		remote := pose.NewRemote(pose.DefaultRemoteConfig(sidecarURL))
		if err := remote.Connect(); err != nil {
			return nil, err
		}
		return remote, nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}
