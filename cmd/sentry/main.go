// go-sentry - Finger-tracked tower defense turret
// Aims a virtual turret with your index finger via camera pose tracking
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-sentry/pkg/sentry"
)

func main() {
	opts := parseFlags()

	app, err := sentry.New(opts)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns application options.
func parseFlags() sentry.Options {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Dashboard listen address (overrides config)")
	cameraSource := flag.String("camera", "", "Camera source: webcam, webrtc, none (overrides config)")
	poseBackend := flag.String("pose", "", "Pose backend: blazepose, sidecar, none (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	debugTracking := flag.Bool("debug-tracking", false, "Enable per-frame tracking logs")
	flag.Parse()

	return sentry.Options{
		ConfigPath:    *configPath,
		Addr:          *addr,
		CameraSource:  *cameraSource,
		PoseBackend:   *poseBackend,
		LogLevel:      *logLevel,
		Debug:         *debug,
		DebugTracking: *debugTracking,
	}
}
