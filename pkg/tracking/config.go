package tracking

// Config holds all tunable parameters for the finger-tracking pipeline
type Config struct {
	// Selection
	MinLikelihood float64 // Fingertip likelihood below this disqualifies the hand

	// Verification
	ColorThreshold float64 // Max RGB distance from the enrolled reference (0-441 scale)

	// Smoothing
	Smoothing float64 // Fraction of the remaining gap covered per frame (0-1)

	// Coordinate mapping
	MirrorX bool // Flip x for mirrored front-camera previews
}

// DefaultConfig returns the recommended configuration for front-camera
// finger tracking
func DefaultConfig() Config {
	return Config{
		MinLikelihood:  0.6,
		ColorThreshold: 80.0,
		Smoothing:      0.4,  // 40% new, 60% old
		MirrorX:        true, // Front cameras preview mirrored
	}
}

// StrictConfig returns a configuration that trades responsiveness for
// fewer false positives
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.MinLikelihood = 0.75
	cfg.ColorThreshold = 60.0
	cfg.Smoothing = 0.3 // More dampening
	return cfg
}

// RelaxedConfig returns a configuration for poor lighting, where both
// landmark likelihoods and color fidelity drop
func RelaxedConfig() Config {
	cfg := DefaultConfig()
	cfg.MinLikelihood = 0.5
	cfg.ColorThreshold = 120.0
	cfg.Smoothing = 0.5 // Trust new readings more
	return cfg
}

// ConfigByName resolves a profile name to its configuration. Unknown
// names fall back to the default profile.
func ConfigByName(name string) Config {
	switch name {
	case "strict":
		return StrictConfig()
	case "relaxed":
		return RelaxedConfig()
	default:
		return DefaultConfig()
	}
}
