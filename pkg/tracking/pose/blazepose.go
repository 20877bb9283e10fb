package pose

import (
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-sentry/pkg/imaging"
)

// BlazeConfig holds configuration for the ONNX landmark model.
type BlazeConfig struct {
	ModelPath    string
	MinPoseScore float64 // mean landmark visibility below this discards the pose
	InputSize    int
}

// DefaultBlazeConfig returns production defaults for the full-body
// BlazePose landmark model.
func DefaultBlazeConfig() BlazeConfig {
	return BlazeConfig{
		ModelPath:    "models/pose_landmark_full.onnx",
		MinPoseScore: 0.3,
		InputSize:    256,
	}
}

// BlazePose runs the BlazePose full-body landmark model through OpenCV's
// DNN module. It reports at most one pose per frame.
type BlazePose struct {
	net    gocv.Net
	config BlazeConfig
	mu     sync.Mutex // Protects inference
}

// NewBlazePose loads the ONNX model from disk.
func NewBlazePose(cfg BlazeConfig) (*BlazePose, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load pose model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &BlazePose{
		net:    net,
		config: cfg,
	}, nil
}

// Detect runs the landmark model on one frame.
func (b *BlazePose) Detect(frame *imaging.Frame) ([]Pose, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	img, err := frameToBGR(frame)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("pose: empty image")
	}

	inputSize := image.Pt(b.config.InputSize, b.config.InputSize)
	blob := gocv.BlobFromImage(img, 1.0/255.0, inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	b.net.SetInput(blob, "")
	output := b.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("pose: read output tensor: %w", err)
	}

	p, score := parseLandmarks(data, b.config.InputSize, frame.Width, frame.Height)
	if score < b.config.MinPoseScore {
		return nil, nil
	}
	return []Pose{p}, nil
}

// Close releases the network resources.
func (b *BlazePose) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.net.Close()
}

// parseLandmarks converts the raw output tensor into a pose in frame pixel
// coordinates. The full-body model emits 33 landmarks of 5 floats each:
// x and y in model-input pixels, z depth, then visibility and presence
// logits. The returned score is the mean landmark visibility.
func parseLandmarks(data []float32, inputSize, frameW, frameH int) (Pose, float64) {
	p := Pose{Landmarks: make(map[Landmark]Point, landmarkCount)}
	if len(data) < int(landmarkCount)*5 {
		return p, 0
	}

	var sum float64
	for i := 0; i < int(landmarkCount); i++ {
		base := i * 5
		vis := sigmoid(float64(data[base+3]))
		sum += vis
		p.Landmarks[Landmark(i)] = Point{
			X:          float64(data[base]) / float64(inputSize) * float64(frameW),
			Y:          float64(data[base+1]) / float64(inputSize) * float64(frameH),
			Likelihood: vis,
		}
	}
	return p, sum / float64(landmarkCount)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// frameToBGR converts a raw frame into the BGR Mat the DNN input expects.
func frameToBGR(frame *imaging.Frame) (gocv.Mat, error) {
	switch frame.Format {
	case imaging.FormatNV21:
		raw, err := frame.NV21Bytes()
		if err != nil {
			return gocv.Mat{}, err
		}
		yuv, err := gocv.NewMatFromBytes(frame.Height*3/2, frame.Width, gocv.MatTypeCV8UC1, raw)
		if err != nil {
			return gocv.Mat{}, fmt.Errorf("pose: wrap nv21 frame: %w", err)
		}
		defer yuv.Close()

		bgr := gocv.NewMat()
		gocv.CvtColor(yuv, &bgr, gocv.ColorYUVToBGRNV21)
		return bgr, nil

	case imaging.FormatBGRA:
		packed := frame.Width * frame.Height * 4
		if len(frame.Planes) != 1 || len(frame.Planes[0].Data) < packed {
			return gocv.Mat{}, fmt.Errorf("pose: malformed bgra frame")
		}
		bgra, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC4, frame.Planes[0].Data[:packed])
		if err != nil {
			return gocv.Mat{}, fmt.Errorf("pose: wrap bgra frame: %w", err)
		}
		defer bgra.Close()

		bgr := gocv.NewMat()
		gocv.CvtColor(bgra, &bgr, gocv.ColorBGRAToBGR)
		return bgr, nil

	default:
		return gocv.Mat{}, fmt.Errorf("pose: unsupported frame format %s", frame.Format)
	}
}
