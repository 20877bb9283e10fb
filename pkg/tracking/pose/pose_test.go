package pose

import (
	"errors"
	"math"
	"testing"
)

func TestLandmarkNames(t *testing.T) {
	if landmarkCount != 33 {
		t.Fatalf("vocabulary holds %d landmarks, want 33", landmarkCount)
	}
	tests := []struct {
		l    Landmark
		want string
	}{
		{Nose, "nose"},
		{LeftWrist, "left_wrist"},
		{RightWrist, "right_wrist"},
		{LeftIndex, "left_index"},
		{RightIndex, "right_index"},
		{RightFootIndex, "right_foot_index"},
		{Landmark(99), "unknown"},
		{Landmark(-1), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.l.String(); got != tt.want {
			t.Errorf("Landmark(%d).String() = %q, want %q", tt.l, got, tt.want)
		}
	}
}

func TestPoseLandmarkLookup(t *testing.T) {
	p := Pose{Landmarks: map[Landmark]Point{
		RightIndex: {X: 10, Y: 20, Likelihood: 0.8},
	}}

	pt, ok := p.Landmark(RightIndex)
	if !ok || pt.X != 10 || pt.Y != 20 {
		t.Errorf("RightIndex = %+v ok=%v, want {10 20 0.8} true", pt, ok)
	}
	if _, ok := p.Landmark(LeftWrist); ok {
		t.Error("missing landmark reported as present")
	}
}

func TestParseLandmarks(t *testing.T) {
	data := make([]float32, int(landmarkCount)*5)
	base := int(LeftIndex) * 5
	data[base] = 128  // x in model-input pixels
	data[base+1] = 64 // y
	data[base+3] = 10 // visibility logit, sigmoid ~1

	p, score := parseLandmarks(data, 256, 640, 480)
	if len(p.Landmarks) != int(landmarkCount) {
		t.Fatalf("parsed %d landmarks, want %d", len(p.Landmarks), landmarkCount)
	}

	pt, _ := p.Landmark(LeftIndex)
	if math.Abs(pt.X-320) > 1e-9 || math.Abs(pt.Y-120) > 1e-9 {
		t.Errorf("LeftIndex = (%v, %v), want (320, 120)", pt.X, pt.Y)
	}
	if pt.Likelihood < 0.999 {
		t.Errorf("LeftIndex likelihood = %v, want ~1", pt.Likelihood)
	}

	// 32 landmarks sit at logit 0 (sigmoid 0.5), one near 1.
	want := (32*0.5 + sigmoid(10)) / 33
	if math.Abs(score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func TestParseLandmarksTruncatedTensor(t *testing.T) {
	p, score := parseLandmarks(make([]float32, 10), 256, 640, 480)
	if len(p.Landmarks) != 0 || score != 0 {
		t.Errorf("truncated tensor parsed to %d landmarks score %v, want none",
			len(p.Landmarks), score)
	}
}

func TestMockSequencing(t *testing.T) {
	one := []Pose{{Landmarks: map[Landmark]Point{Nose: {X: 1}}}}
	two := []Pose{{Landmarks: map[Landmark]Point{Nose: {X: 2}}}}
	m := NewMock(one, two)

	for i, wantX := range []float64{1, 2, 2} {
		poses, err := m.Detect(nil)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if pt, _ := poses[0].Landmark(Nose); pt.X != wantX {
			t.Errorf("call %d: nose x = %v, want %v", i, pt.X, wantX)
		}
	}
	if m.Calls() != 3 {
		t.Errorf("calls = %d, want 3", m.Calls())
	}

	m.SetError(errors.New("boom"))
	if _, err := m.Detect(nil); err == nil {
		t.Error("scripted error not returned")
	}
	if m.Close(); !m.Closed() {
		t.Error("close not recorded")
	}
}
