// Package config loads go-sentry configuration from a YAML file with
// environment overrides on top.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-sentry/pkg/camera"
	"github.com/teslashibe/go-sentry/pkg/game"
	"github.com/teslashibe/go-sentry/pkg/tracking"
)

// Camera source kinds
const (
	SourceWebcam = "webcam"
	SourceWebRTC = "webrtc"
	SourceNone   = "none"
)

// Pose backend kinds
const (
	BackendBlazePose = "blazepose"
	BackendSidecar   = "sidecar"
	BackendNone      = "none"
)

// ServerConfig holds the dashboard listener settings.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// CameraConfig selects a frame source and its capture settings.
type CameraConfig struct {
	Source        string `yaml:"source"` // webcam | webrtc | none
	camera.Config `yaml:",inline"`
}

// TrackingConfig selects the pose backend and tracking profile. The
// pointer fields override individual profile values when set.
type TrackingConfig struct {
	Profile    string `yaml:"profile"` // default | strict | relaxed
	Backend    string `yaml:"backend"` // blazepose | sidecar | none
	SidecarURL string `yaml:"sidecar_url"`
	ModelPath  string `yaml:"model_path"` // blazepose ONNX model, empty for the bundled default

	MinLikelihood  *float64 `yaml:"min_likelihood"`
	ColorThreshold *float64 `yaml:"color_threshold"`
	Smoothing      *float64 `yaml:"smoothing"`
	MirrorX        *bool    `yaml:"mirror_x"`
}

// Build resolves the profile and overrides into a tracking configuration.
func (t TrackingConfig) Build() tracking.Config {
	cfg := tracking.ConfigByName(t.Profile)
	if t.MinLikelihood != nil {
		cfg.MinLikelihood = *t.MinLikelihood
	}
	if t.ColorThreshold != nil {
		cfg.ColorThreshold = *t.ColorThreshold
	}
	if t.Smoothing != nil {
		cfg.Smoothing = *t.Smoothing
	}
	if t.MirrorX != nil {
		cfg.MirrorX = *t.MirrorX
	}
	return cfg
}

// ScoresConfig holds score persistence settings.
type ScoresConfig struct {
	Path string `yaml:"path"` // empty disables persistence
}

// UpgradesConfig holds upgrade catalog settings.
type UpgradesConfig struct {
	CatalogPath string `yaml:"catalog_path"` // empty uses the built-in catalog
}

// Config is the full go-sentry configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Camera   CameraConfig   `yaml:"camera"`
	Tracking TrackingConfig `yaml:"tracking"`
	Game     game.Config    `yaml:"game"`
	Scores   ScoresConfig   `yaml:"scores"`
	Upgrades UpgradesConfig `yaml:"upgrades"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":8080",
			StaticDir: "./web",
		},
		Camera: CameraConfig{
			Source: SourceWebcam,
			Config: camera.DefaultConfig(),
		},
		Tracking: TrackingConfig{
			Profile:    "default",
			Backend:    BackendBlazePose,
			SidecarURL: "ws://127.0.0.1:9090/pose",
		},
		Game: game.DefaultConfig(),
		Scores: ScoresConfig{
			Path: "sentry.db",
		},
	}
}

// Load reads the file at path (empty path skips the file), applies
// environment overrides, and validates the result. File values only
// replace the defaults for keys that are present, so a partial config
// is fine.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if problems := cfg.Validate(); len(problems) > 0 {
		return cfg, fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// applyEnv layers SENTRY_* environment variables over the loaded file.
func applyEnv(cfg *Config) {
	cfg.Server.Addr = envString("SENTRY_ADDR", cfg.Server.Addr)
	cfg.Server.StaticDir = envString("SENTRY_STATIC_DIR", cfg.Server.StaticDir)
	cfg.Camera.Source = envString("SENTRY_CAMERA_SOURCE", cfg.Camera.Source)
	cfg.Tracking.Profile = envString("SENTRY_TRACKING_PROFILE", cfg.Tracking.Profile)
	cfg.Tracking.Backend = envString("SENTRY_POSE_BACKEND", cfg.Tracking.Backend)
	cfg.Tracking.SidecarURL = envString("SENTRY_SIDECAR_URL", cfg.Tracking.SidecarURL)
	cfg.Tracking.ModelPath = envString("SENTRY_MODEL_PATH", cfg.Tracking.ModelPath)
	cfg.Scores.Path = envString("SENTRY_SCORES_PATH", cfg.Scores.Path)
	cfg.Upgrades.CatalogPath = envString("SENTRY_CATALOG", cfg.Upgrades.CatalogPath)
}

// envString returns the environment value for key, falling back to the
// provided value when unset.
func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate returns a list of problems with the configuration.
func (c Config) Validate() []string {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server addr is empty")
	}

	switch c.Camera.Source {
	case SourceWebcam, SourceWebRTC, SourceNone:
	default:
		problems = append(problems, fmt.Sprintf("unknown camera source %q", c.Camera.Source))
	}
	problems = append(problems, c.Camera.Config.Validate()...)

	switch c.Tracking.Backend {
	case BackendBlazePose, BackendNone:
	case BackendSidecar:
		if c.Tracking.SidecarURL == "" {
			problems = append(problems, "sidecar backend needs sidecar_url")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown pose backend %q", c.Tracking.Backend))
	}

	switch c.Tracking.Profile {
	case "", "default", "strict", "relaxed":
	default:
		problems = append(problems, fmt.Sprintf("unknown tracking profile %q", c.Tracking.Profile))
	}

	if c.Game.PlayWidth <= 0 || c.Game.PlayHeight <= 0 {
		problems = append(problems, "play area must be positive")
	}
	if c.Game.TurretMaxHP <= 0 {
		problems = append(problems, "turret_max_hp must be positive")
	}
	if c.Game.FireInterval <= 0 {
		problems = append(problems, "fire_interval must be positive")
	}
	if c.Game.UpgradeChoices <= 0 {
		problems = append(problems, "upgrade_choices must be positive")
	}

	return problems
}
