package tracking

import (
	"math"
	"testing"

	"github.com/teslashibe/go-sentry/pkg/imaging"
	"github.com/teslashibe/go-sentry/pkg/tracking/pose"
)

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// testConfig disables mirroring and smoothing lag so position assertions
// read straight off the landmark coordinates.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MirrorX = false
	cfg.Smoothing = 1.0
	return cfg
}

// grayBGRA builds a w×h BGRA frame filled with one gray value.
func grayBGRA(w, h int, v byte) *imaging.Frame {
	data := make([]byte, w*h*4)
	for i := 0; i < len(data); i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = v, v, v, 255
	}
	f, err := imaging.NewBGRAFrame(w, h, data)
	if err != nil {
		panic(err)
	}
	return f
}

// raisedFinger builds a pose with one index fingertip held above its wrist.
func raisedFinger(tip, wrist pose.Landmark, x, y, likelihood float64) pose.Pose {
	return pose.Pose{Landmarks: map[pose.Landmark]pose.Point{
		tip:   {X: x, Y: y, Likelihood: likelihood},
		wrist: {X: x, Y: y + 40, Likelihood: 0.9},
	}}
}

func TestValidDetectionProducesNormalizedAim(t *testing.T) {
	provider := pose.NewMock([]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 16, 24, 0.9)})
	tr := NewTracker(provider, testConfig())
	frame := grayBGRA(64, 48, 100)

	if !tr.TryProcess(frame, imaging.Rotation0) {
		t.Fatal("Expected frame to be processed")
	}

	aim := tr.Aim()
	if !aim.Valid {
		t.Fatal("Expected valid aim")
	}
	if !floatEquals(aim.X, 0.25) || !floatEquals(aim.Y, 0.5) {
		t.Errorf("Expected aim (0.25, 0.5), got (%v, %v)", aim.X, aim.Y)
	}
}

func TestNoPosesInvalidates(t *testing.T) {
	provider := pose.NewMock(
		[]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 16, 24, 0.9)},
		nil,
	)
	tr := NewTracker(provider, testConfig())
	frame := grayBGRA(64, 48, 100)

	tr.TryProcess(frame, imaging.Rotation0)
	tr.TryProcess(frame, imaging.Rotation0)

	aim := tr.Aim()
	if aim.Valid {
		t.Error("Expected invalid aim after empty detection")
	}
	// Last known position is retained for display.
	if !floatEquals(aim.X, 0.25) || !floatEquals(aim.Y, 0.5) {
		t.Errorf("Expected last position (0.25, 0.5) retained, got (%v, %v)", aim.X, aim.Y)
	}
}

func TestLowLikelihoodNeverSelected(t *testing.T) {
	provider := pose.NewMock([]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 16, 24, 0.5)})
	tr := NewTracker(provider, testConfig())

	tr.TryProcess(grayBGRA(64, 48, 100), imaging.Rotation0)

	if tr.Aim().Valid {
		t.Error("Expected likelihood 0.5 below floor 0.6 to be rejected")
	}
}

func TestHigherScoringHandWins(t *testing.T) {
	p := pose.Pose{Landmarks: map[pose.Landmark]pose.Point{
		pose.LeftIndex:  {X: 10, Y: 10, Likelihood: 0.7},
		pose.LeftWrist:  {X: 10, Y: 40, Likelihood: 0.9},
		pose.RightIndex: {X: 48, Y: 24, Likelihood: 0.9},
		pose.RightWrist: {X: 48, Y: 44, Likelihood: 0.9},
	}}
	provider := pose.NewMock([]pose.Pose{p})
	tr := NewTracker(provider, testConfig())

	tr.TryProcess(grayBGRA(64, 48, 100), imaging.Rotation0)

	aim := tr.Aim()
	if !aim.Valid {
		t.Fatal("Expected valid aim")
	}
	if !floatEquals(aim.X, 0.75) || !floatEquals(aim.Y, 0.5) {
		t.Errorf("Expected right hand at (0.75, 0.5), got (%v, %v)", aim.X, aim.Y)
	}
}

func TestTieSelectsNothing(t *testing.T) {
	p := pose.Pose{Landmarks: map[pose.Landmark]pose.Point{
		pose.LeftIndex:  {X: 10, Y: 10, Likelihood: 0.9},
		pose.LeftWrist:  {X: 10, Y: 40, Likelihood: 0.9},
		pose.RightIndex: {X: 48, Y: 24, Likelihood: 0.9},
		pose.RightWrist: {X: 48, Y: 44, Likelihood: 0.9},
	}}
	provider := pose.NewMock([]pose.Pose{p})
	tr := NewTracker(provider, testConfig())

	tr.TryProcess(grayBGRA(64, 48, 100), imaging.Rotation0)

	if tr.Aim().Valid {
		t.Error("Expected equally scored hands to select nothing")
	}
}

func TestWristGate(t *testing.T) {
	// Fingertip at or below the wrist is not a deliberate point.
	lowered := pose.Pose{Landmarks: map[pose.Landmark]pose.Point{
		pose.LeftIndex: {X: 16, Y: 30, Likelihood: 0.9},
		pose.LeftWrist: {X: 16, Y: 20, Likelihood: 0.9},
	}}
	provider := pose.NewMock([]pose.Pose{lowered})
	tr := NewTracker(provider, testConfig())
	tr.TryProcess(grayBGRA(64, 48, 100), imaging.Rotation0)
	if tr.Aim().Valid {
		t.Error("Expected fingertip below wrist to be rejected")
	}

	// A missing wrist relaxes the check rather than disqualifying.
	noWrist := pose.Pose{Landmarks: map[pose.Landmark]pose.Point{
		pose.LeftIndex: {X: 16, Y: 30, Likelihood: 0.9},
	}}
	provider = pose.NewMock([]pose.Pose{noWrist})
	tr = NewTracker(provider, testConfig())
	tr.TryProcess(grayBGRA(64, 48, 100), imaging.Rotation0)
	if !tr.Aim().Valid {
		t.Error("Expected fingertip with no wrist landmark to be accepted")
	}
}

func TestOnlyPrimaryPoseConsidered(t *testing.T) {
	empty := pose.Pose{Landmarks: map[pose.Landmark]pose.Point{}}
	second := raisedFinger(pose.LeftIndex, pose.LeftWrist, 16, 24, 0.9)
	provider := pose.NewMock([]pose.Pose{empty, second})
	tr := NewTracker(provider, testConfig())

	tr.TryProcess(grayBGRA(64, 48, 100), imaging.Rotation0)

	if tr.Aim().Valid {
		t.Error("Expected only the first detected person to be evaluated")
	}
}

func TestMirrorAndClamp(t *testing.T) {
	cfg := testConfig()
	cfg.MirrorX = true

	provider := pose.NewMock([]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 16, 24, 0.9)})
	tr := NewTracker(provider, cfg)
	tr.TryProcess(grayBGRA(64, 48, 100), imaging.Rotation0)

	aim := tr.Aim()
	if !floatEquals(aim.X, 0.75) {
		t.Errorf("Expected mirrored X=0.75, got %v", aim.X)
	}
	if !floatEquals(aim.Y, 0.5) {
		t.Errorf("Expected Y=0.5, got %v", aim.Y)
	}

	// Landmarks can land outside the frame; the result clamps to [0,1].
	outside := raisedFinger(pose.LeftIndex, pose.LeftWrist, -10, 500, 0.9)
	provider = pose.NewMock([]pose.Pose{outside})
	tr = NewTracker(provider, cfg)
	tr.TryProcess(grayBGRA(64, 48, 100), imaging.Rotation0)

	aim = tr.Aim()
	if !aim.Valid {
		t.Fatal("Expected out-of-frame fingertip to clamp, not invalidate")
	}
	if !floatEquals(aim.X, 1.0) || !floatEquals(aim.Y, 1.0) {
		t.Errorf("Expected clamped aim (1, 1), got (%v, %v)", aim.X, aim.Y)
	}
}

func TestSmoothingFormula(t *testing.T) {
	cfg := testConfig()
	cfg.Smoothing = 0.4

	provider := pose.NewMock(
		[]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 32, 24, 0.9)},
		[]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 64, 48, 0.9)},
	)
	tr := NewTracker(provider, cfg)
	frame := grayBGRA(64, 48, 100)

	// First detection jumps straight to the target.
	tr.TryProcess(frame, imaging.Rotation0)
	aim := tr.Aim()
	if !floatEquals(aim.X, 0.5) || !floatEquals(aim.Y, 0.5) {
		t.Fatalf("Expected first aim (0.5, 0.5), got (%v, %v)", aim.X, aim.Y)
	}

	// Second moves 40% of the way: 0.5 + (1.0-0.5)*0.4 = 0.7.
	tr.TryProcess(frame, imaging.Rotation0)
	aim = tr.Aim()
	if !floatEquals(aim.X, 0.7) || !floatEquals(aim.Y, 0.7) {
		t.Errorf("Expected smoothed aim (0.7, 0.7), got (%v, %v)", aim.X, aim.Y)
	}
}

func TestSmoothingConvergence(t *testing.T) {
	cfg := testConfig()
	cfg.Smoothing = 0.4

	provider := pose.NewMock(
		[]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 0, 0, 0.9)},
		[]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 64, 48, 0.9)},
	)
	tr := NewTracker(provider, cfg)
	frame := grayBGRA(64, 48, 100)

	tr.TryProcess(frame, imaging.Rotation0)

	prev := tr.Aim().X
	for i := 0; i < 35; i++ {
		tr.TryProcess(frame, imaging.Rotation0)
		x := tr.Aim().X
		if x < prev {
			t.Fatalf("Expected monotonic approach, got %v after %v", x, prev)
		}
		if x > 1.0 {
			t.Fatalf("Expected no overshoot past 1.0, got %v", x)
		}
		prev = x
	}
	if math.Abs(1.0-prev) > 1e-6 {
		t.Errorf("Expected convergence to 1.0 within 35 frames, got %v", prev)
	}
}

func TestColorVerification(t *testing.T) {
	provider := pose.NewMock([]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 16, 24, 0.9)})
	tr := NewTracker(provider, testConfig())
	grayFrame := grayBGRA(64, 48, 100)
	whiteFrame := grayBGRA(64, 48, 255)

	// Enroll the center of the gray frame; the fingertip pixel matches.
	tr.RequestEnrollment()
	tr.TryProcess(grayFrame, imaging.Rotation0)

	c, ok := tr.EnrolledColor()
	if !ok {
		t.Fatal("Expected an enrolled color")
	}
	if c.R != 100 || c.G != 100 || c.B != 100 {
		t.Errorf("Expected enrolled gray (100,100,100), got %+v", c)
	}
	if !tr.Aim().Valid {
		t.Error("Expected matching fingertip color to pass verification")
	}

	// A white fingertip sits ~268 away from the enrolled gray.
	tr.TryProcess(whiteFrame, imaging.Rotation0)
	if tr.Aim().Valid {
		t.Error("Expected mismatched fingertip color to fail verification")
	}

	tr.TryProcess(grayFrame, imaging.Rotation0)
	if !tr.Aim().Valid {
		t.Error("Expected matching color to recover validity")
	}
}

func TestSetEnrolledColor(t *testing.T) {
	provider := pose.NewMock([]pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 16, 24, 0.9)})
	tr := NewTracker(provider, testConfig())
	frame := grayBGRA(64, 48, 100)

	tr.SetEnrolledColor(imaging.Color{R: 0, G: 0, B: 0})
	tr.TryProcess(frame, imaging.Rotation0)
	if tr.Aim().Valid {
		t.Error("Expected gray fingertip to fail against black reference")
	}

	tr.SetEnrolledColor(imaging.Color{R: 100, G: 100, B: 100})
	tr.TryProcess(frame, imaging.Rotation0)
	if !tr.Aim().Valid {
		t.Error("Expected gray fingertip to pass against gray reference")
	}
}

func TestEnrollmentConsumesOneFrame(t *testing.T) {
	provider := pose.NewMock()
	tr := NewTracker(provider, testConfig())
	unreadable := &imaging.Frame{Width: 64, Height: 48, Format: imaging.FormatUnknown}

	// The request is spent on the unreadable frame and keeps the old
	// (here: absent) reference.
	tr.RequestEnrollment()
	tr.TryProcess(unreadable, imaging.Rotation0)
	if _, ok := tr.EnrolledColor(); ok {
		t.Error("Expected failed sample to leave no enrolled color")
	}

	// The next readable frame must not enroll; the request was consumed.
	tr.TryProcess(grayBGRA(64, 48, 100), imaging.Rotation0)
	if _, ok := tr.EnrolledColor(); ok {
		t.Error("Expected enrollment request to be consumed by the failed frame")
	}

	tr.RequestEnrollment()
	tr.TryProcess(grayBGRA(64, 48, 200), imaging.Rotation0)
	c, ok := tr.EnrolledColor()
	if !ok || c.R != 200 {
		t.Errorf("Expected fresh request to enroll (200,200,200), got %+v ok=%v", c, ok)
	}
}

// blockingProvider parks Detect until released so tests can hold the
// tracker busy.
type blockingProvider struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Detect(*imaging.Frame) ([]pose.Pose, error) {
	p.entered <- struct{}{}
	<-p.release
	return nil, nil
}

func (p *blockingProvider) Close() error { return nil }

func TestDropWhileBusy(t *testing.T) {
	provider := &blockingProvider{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	tr := NewTracker(provider, testConfig())
	frame := grayBGRA(64, 48, 100)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if !tr.TryProcess(frame, imaging.Rotation0) {
			t.Error("Expected first frame to be processed")
		}
	}()
	<-provider.entered

	if tr.TryProcess(frame, imaging.Rotation0) {
		t.Error("Expected frame to be dropped while busy")
	}
	close(provider.release)
	<-done

	processed, dropped := tr.Stats()
	if processed != 1 {
		t.Errorf("Expected 1 processed frame, got %d", processed)
	}
	if dropped != 1 {
		t.Errorf("Expected 1 dropped frame, got %d", dropped)
	}
}

func TestObserverNotifiedOnChangeOnly(t *testing.T) {
	finger := []pose.Pose{raisedFinger(pose.LeftIndex, pose.LeftWrist, 16, 24, 0.9)}
	provider := pose.NewMock(nil, nil, finger, finger, nil, nil)
	tr := NewTracker(provider, testConfig())
	frame := grayBGRA(64, 48, 100)

	var seen []Aim
	tr.Subscribe(func(aim Aim) {
		seen = append(seen, aim)
	})

	for i := 0; i < 6; i++ {
		tr.TryProcess(frame, imaging.Rotation0)
	}

	if len(seen) != 2 {
		t.Fatalf("Expected 2 notifications, got %d: %+v", len(seen), seen)
	}
	if !seen[0].Valid || !floatEquals(seen[0].X, 0.25) || !floatEquals(seen[0].Y, 0.5) {
		t.Errorf("Expected first notification (0.25, 0.5, valid), got %+v", seen[0])
	}
	if seen[1].Valid || !floatEquals(seen[1].X, 0.25) || !floatEquals(seen[1].Y, 0.5) {
		t.Errorf("Expected second notification (0.25, 0.5, invalid), got %+v", seen[1])
	}
}

func TestTuningParamsRoundTrip(t *testing.T) {
	provider := pose.NewMock()
	tr := NewTracker(provider, DefaultConfig())

	mirror := false
	tr.SetTuningParams(TuningParams{
		MinLikelihood:  0.8,
		ColorThreshold: 50,
		Smoothing:      0.25,
		MirrorX:        &mirror,
	})

	got := tr.GetTuningParams()
	if !floatEquals(got.MinLikelihood, 0.8) {
		t.Errorf("Expected min_likelihood 0.8, got %v", got.MinLikelihood)
	}
	if !floatEquals(got.ColorThreshold, 50) {
		t.Errorf("Expected color_threshold 50, got %v", got.ColorThreshold)
	}
	if !floatEquals(got.Smoothing, 0.25) {
		t.Errorf("Expected smoothing 0.25, got %v", got.Smoothing)
	}
	if got.MirrorX == nil || *got.MirrorX {
		t.Error("Expected mirror_x false")
	}

	// Zero values leave settings untouched.
	tr.SetTuningParams(TuningParams{})
	got = tr.GetTuningParams()
	if !floatEquals(got.MinLikelihood, 0.8) {
		t.Errorf("Expected zero-value update to keep 0.8, got %v", got.MinLikelihood)
	}
}
