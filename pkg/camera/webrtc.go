package camera

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v3"

	"github.com/teslashibe/go-sentry/internal/log"
	"github.com/teslashibe/go-sentry/pkg/imaging"
)

// WebRTCSource receives a browser-published video track and decodes it to
// NV21 frames. The HTTP layer feeds it SDP offers; at most one publisher
// is active at a time and a new offer replaces the previous connection.
// Answers carry all ICE candidates up front since the offer/answer
// exchange happens over a single HTTP round trip.
type WebRTCSource struct {
	config Config

	mu  sync.Mutex
	pc  *webrtc.PeerConnection
	dec *h264Decoder

	frames chan *imaging.Frame
}

// NewWebRTCSource creates an idle source. Frames start flowing once a
// publisher's offer is accepted.
func NewWebRTCSource(cfg Config) *WebRTCSource {
	return &WebRTCSource{
		config: cfg,
		frames: make(chan *imaging.Frame, 1),
	}
}

// SetConfig updates capture settings for the next publisher connection.
// The active connection, if any, keeps its dimensions.
func (s *WebRTCSource) SetConfig(cfg Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

func (s *WebRTCSource) getConfig() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Accept answers a publisher's SDP offer and starts consuming its video.
func (s *WebRTCSource) Accept(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	// Register H264 only: the decoder speaks nothing else, so the browser
	// must not be allowed to negotiate VP8/VP9.
	engine := &webrtc.MediaEngine{}
	if err := engine.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeH264,
			ClockRate:   90000,
			SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f",
		},
		PayloadType: 102,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		return nil, fmt.Errorf("camera: register codec: %w", err)
	}

	api := webrtc.NewAPI(webrtc.WithMediaEngine(engine))
	pc, err := api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, fmt.Errorf("camera: create peer connection: %w", err)
	}

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		pc.Close()
		return nil, fmt.Errorf("camera: add transceiver: %w", err)
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		log.Info("camera: publisher track",
			"kind", track.Kind().String(),
			"codec", track.Codec().MimeType)
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			go s.consumeTrack(track)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Debug("camera: publisher connection state", "state", state.String())
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("camera: set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("camera: create answer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("camera: set local description: %w", err)
	}
	<-gathered

	s.mu.Lock()
	if s.pc != nil {
		s.pc.Close()
	}
	s.pc = pc
	s.mu.Unlock()

	return pc.LocalDescription(), nil
}

// consumeTrack depacketizes RTP into an H264 elementary stream and feeds
// the decoder.
func (s *WebRTCSource) consumeTrack(track *webrtc.TrackRemote) {
	cfg := s.getConfig()
	dec, err := newH264Decoder(cfg.Width, cfg.Height)
	if err != nil {
		log.Error("camera: start decoder", "error", err)
		return
	}

	s.mu.Lock()
	if s.dec != nil {
		s.dec.Close()
	}
	s.dec = dec
	s.mu.Unlock()

	go s.readFrames(dec, cfg)

	depacketizer := &codecs.H264Packet{}
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			log.Debug("camera: publisher track ended", "error", err)
			dec.Close()
			return
		}

		nal, err := depacketizer.Unmarshal(pkt.Payload)
		if err != nil || len(nal) == 0 {
			continue
		}
		if _, err := dec.Write(nal); err != nil {
			return
		}
	}
}

// readFrames pulls decoded frames off the ffmpeg pipe. A full channel
// means the consumer is behind; the fresh frame is dropped rather than
// queued.
func (s *WebRTCSource) readFrames(dec *h264Decoder, cfg Config) {
	size := cfg.Width * cfg.Height * 3 / 2
	for {
		buf := make([]byte, size)
		if err := dec.ReadFrame(buf); err != nil {
			return
		}
		frame, err := imaging.NewNV21Frame(cfg.Width, cfg.Height, buf)
		if err != nil {
			continue
		}
		select {
		case s.frames <- frame:
		default:
		}
	}
}

// Start delivers decoded frames to fn until ctx is canceled.
func (s *WebRTCSource) Start(ctx context.Context, fn FrameFunc) error {
	rotation := imaging.Rotation(s.getConfig().Rotation)
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-s.frames:
			fn(frame, rotation)
		}
	}
}

// Close tears down the peer connection and decoder.
func (s *WebRTCSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.pc != nil {
		err = s.pc.Close()
		s.pc = nil
	}
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
	return err
}
