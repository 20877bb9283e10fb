// Package pose defines the body-landmark vocabulary and the detector
// backends that produce poses from camera frames.
package pose

import "github.com/teslashibe/go-sentry/pkg/imaging"

// Landmark names one anatomical point in the fixed 33-point vocabulary
// shared by all backends.
type Landmark int

const (
	Nose Landmark = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex

	landmarkCount
)

var landmarkNames = [landmarkCount]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer", "right_eye_inner",
	"right_eye", "right_eye_outer", "left_ear", "right_ear", "mouth_left",
	"mouth_right", "left_shoulder", "right_shoulder", "left_elbow",
	"right_elbow", "left_wrist", "right_wrist", "left_pinky", "right_pinky",
	"left_index", "right_index", "left_thumb", "right_thumb", "left_hip",
	"right_hip", "left_knee", "right_knee", "left_ankle", "right_ankle",
	"left_heel", "right_heel", "left_foot_index", "right_foot_index",
}

func (l Landmark) String() string {
	if l < 0 || l >= landmarkCount {
		return "unknown"
	}
	return landmarkNames[l]
}

// Point is one detected landmark in source-frame pixel coordinates with a
// likelihood in [0, 1].
type Point struct {
	X          float64
	Y          float64
	Likelihood float64
}

// Pose is one detected body. Landmarks holds only the points the backend
// reported; absent landmarks have no entry. Poses carry no identity across
// frames.
type Pose struct {
	Landmarks map[Landmark]Point
}

// Landmark returns the named point and whether the pose contains it.
func (p Pose) Landmark(l Landmark) (Point, bool) {
	pt, ok := p.Landmarks[l]
	return pt, ok
}

// Provider is the interface for pose estimation backends. A nil pose list
// with a nil error means "nobody in frame". The tracking pipeline issues
// one Detect call at a time.
type Provider interface {
	Detect(frame *imaging.Frame) ([]Pose, error)
	Close() error
}
