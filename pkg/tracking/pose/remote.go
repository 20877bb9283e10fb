package pose

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-sentry/pkg/imaging"
)

// ErrNotConnected is returned by Detect before Connect has succeeded or
// after the sidecar connection dropped.
var ErrNotConnected = errors.New("pose: sidecar not connected")

// RemoteConfig holds sidecar client configuration.
type RemoteConfig struct {
	URL           string
	DialTimeout   time.Duration
	DetectTimeout time.Duration
}

// DefaultRemoteConfig returns defaults for a local sidecar process.
func DefaultRemoteConfig(url string) RemoteConfig {
	return RemoteConfig{
		URL:           url,
		DialTimeout:   10 * time.Second,
		DetectTimeout: 2 * time.Second,
	}
}

// Remote talks to an out-of-process pose estimator over a websocket. Each
// Detect sends a JSON header followed by the raw frame bytes and waits for
// one result message carrying normalized landmarks, which Remote scales
// back to frame pixels.
type Remote struct {
	config RemoteConfig

	mu   sync.Mutex // Protects conn and serializes request/response pairs
	conn *websocket.Conn
}

// Sidecar wire format. Landmark arrays follow the vocabulary order in
// pose.go; coordinates are normalized to [0,1] by the sidecar.
type sidecarFrame struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

type sidecarLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Likelihood float64 `json:"likelihood"`
}

type sidecarResult struct {
	Poses [][]sidecarLandmark `json:"poses"`
	Error string              `json:"error,omitempty"`
}

// NewRemote creates a sidecar client. Call Connect before Detect.
func NewRemote(cfg RemoteConfig) *Remote {
	return &Remote{config: cfg}
}

// Connect dials the sidecar websocket.
func (r *Remote) Connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: r.config.DialTimeout,
	}

	conn, _, err := dialer.Dial(r.config.URL, nil)
	if err != nil {
		return fmt.Errorf("pose: sidecar connect failed: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
	return nil
}

// Detect ships one frame to the sidecar and waits for its landmarks.
func (r *Remote) Detect(frame *imaging.Frame) ([]Pose, error) {
	payload, err := framePayload(frame)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil, ErrNotConnected
	}

	header := sidecarFrame{
		Width:  frame.Width,
		Height: frame.Height,
		Format: frame.Format.String(),
	}
	if err := r.conn.WriteJSON(header); err != nil {
		return nil, r.drop(fmt.Errorf("pose: send frame header: %w", err))
	}
	if err := r.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		return nil, r.drop(fmt.Errorf("pose: send frame bytes: %w", err))
	}

	r.conn.SetReadDeadline(time.Now().Add(r.config.DetectTimeout))
	var res sidecarResult
	err = r.conn.ReadJSON(&res)
	r.conn.SetReadDeadline(time.Time{})
	if err != nil {
		return nil, r.drop(fmt.Errorf("pose: read result: %w", err))
	}
	if res.Error != "" {
		return nil, fmt.Errorf("pose: sidecar: %s", res.Error)
	}

	poses := make([]Pose, 0, len(res.Poses))
	for _, lms := range res.Poses {
		p := Pose{Landmarks: make(map[Landmark]Point, len(lms))}
		for i, lm := range lms {
			if Landmark(i) >= landmarkCount {
				break
			}
			p.Landmarks[Landmark(i)] = Point{
				X:          lm.X * float64(frame.Width),
				Y:          lm.Y * float64(frame.Height),
				Likelihood: lm.Likelihood,
			}
		}
		poses = append(poses, p)
	}
	return poses, nil
}

// Close shuts the sidecar connection down.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}

// drop discards a connection after a stream error so the next Detect
// reports ErrNotConnected instead of reusing a broken stream. Callers hold
// r.mu.
func (r *Remote) drop(err error) error {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	return err
}

// framePayload flattens a frame into the byte layout the sidecar expects
// for its format tag.
func framePayload(frame *imaging.Frame) ([]byte, error) {
	switch frame.Format {
	case imaging.FormatNV21:
		return frame.NV21Bytes()
	case imaging.FormatBGRA:
		packed := frame.Width * frame.Height * 4
		if len(frame.Planes) != 1 || len(frame.Planes[0].Data) < packed {
			return nil, fmt.Errorf("pose: malformed bgra frame")
		}
		return frame.Planes[0].Data[:packed], nil
	default:
		return nil, fmt.Errorf("pose: unsupported frame format %s", frame.Format)
	}
}
