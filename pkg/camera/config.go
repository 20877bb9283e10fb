// Package camera provides frame sources and runtime-configurable capture
// settings. A source pushes raw frames to a callback; the tracking layer
// owns what happens to them.
package camera

import "fmt"

// Config holds capture configuration shared by all source kinds.
// Fields can be changed at runtime through the camera API.
type Config struct {
	// DeviceID selects the local capture device (webcam source only).
	DeviceID int `json:"device_id" yaml:"device_id"`

	Width     int `json:"width" yaml:"width"`         // Frame width in pixels
	Height    int `json:"height" yaml:"height"`       // Frame height in pixels
	Framerate int `json:"framerate" yaml:"framerate"` // Target FPS

	// Rotation is the clockwise rotation hint forwarded with every frame,
	// for cameras mounted sideways or upside down. One of 0, 90, 180, 270.
	Rotation int `json:"rotation" yaml:"rotation"`
}

// DefaultConfig returns the recommended capture configuration. Pose
// estimation downsamples its input anyway, so VGA keeps the pipeline
// cheap without hurting landmark quality.
func DefaultConfig() Config {
	return Config{
		DeviceID:  0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Rotation:  0,
	}
}

// Validate returns a list of problems with the configuration.
func (c Config) Validate() []string {
	var problems []string
	if c.Width <= 0 || c.Height <= 0 {
		problems = append(problems, fmt.Sprintf("invalid resolution %dx%d", c.Width, c.Height))
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		problems = append(problems, "resolution must be even for semi-planar output")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		problems = append(problems, fmt.Sprintf("framerate %d out of range 1-120", c.Framerate))
	}
	switch c.Rotation {
	case 0, 90, 180, 270:
	default:
		problems = append(problems, fmt.Sprintf("rotation %d not one of 0/90/180/270", c.Rotation))
	}
	if c.DeviceID < 0 {
		problems = append(problems, fmt.Sprintf("negative device id %d", c.DeviceID))
	}
	return problems
}
