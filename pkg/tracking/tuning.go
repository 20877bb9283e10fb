package tracking

// TuningParams holds the real-time adjustable tracking parameters.
// These can be modified via the tuning API without restarting the tracker.
type TuningParams struct {
	MinLikelihood  float64 `json:"min_likelihood"`  // Landmark confidence floor (0-1)
	ColorThreshold float64 `json:"color_threshold"` // Max RGB distance to enrolled color
	Smoothing      float64 `json:"smoothing"`       // EMA factor (0.4=default, higher=responsive)
	MirrorX        *bool   `json:"mirror_x,omitempty"`
}

// GetTuningParams returns current tuning parameters from the tracker.
func (t *Tracker) GetTuningParams() TuningParams {
	t.mu.RLock()
	defer t.mu.RUnlock()

	mirror := t.config.MirrorX
	return TuningParams{
		MinLikelihood:  t.config.MinLikelihood,
		ColorThreshold: t.config.ColorThreshold,
		Smoothing:      t.config.Smoothing,
		MirrorX:        &mirror,
	}
}

// SetTuningParams updates tuning parameters at runtime.
// Only non-zero values are applied.
func (t *Tracker) SetTuningParams(params TuningParams) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if params.MinLikelihood > 0 {
		t.config.MinLikelihood = clamp(params.MinLikelihood, 0.0, 1.0)
	}
	if params.ColorThreshold > 0 {
		t.config.ColorThreshold = params.ColorThreshold
	}
	if params.Smoothing > 0 {
		t.config.Smoothing = clamp(params.Smoothing, 0.01, 1.0)
	}
	if params.MirrorX != nil {
		t.config.MirrorX = *params.MirrorX
	}
}
