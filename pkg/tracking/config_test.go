package tracking

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !floatEquals(cfg.MinLikelihood, 0.6) {
		t.Errorf("Expected MinLikelihood=0.6, got %v", cfg.MinLikelihood)
	}
	if !floatEquals(cfg.ColorThreshold, 80.0) {
		t.Errorf("Expected ColorThreshold=80, got %v", cfg.ColorThreshold)
	}
	if !floatEquals(cfg.Smoothing, 0.4) {
		t.Errorf("Expected Smoothing=0.4, got %v", cfg.Smoothing)
	}
	if !cfg.MirrorX {
		t.Error("Expected MirrorX=true for front cameras")
	}
}

func TestConfigByName(t *testing.T) {
	if got := ConfigByName("strict"); !floatEquals(got.MinLikelihood, StrictConfig().MinLikelihood) {
		t.Errorf("Expected strict config, got %+v", got)
	}
	if got := ConfigByName("relaxed"); !floatEquals(got.ColorThreshold, RelaxedConfig().ColorThreshold) {
		t.Errorf("Expected relaxed config, got %+v", got)
	}
	if got := ConfigByName("nope"); !floatEquals(got.Smoothing, DefaultConfig().Smoothing) {
		t.Errorf("Expected unknown name to fall back to default, got %+v", got)
	}
}
