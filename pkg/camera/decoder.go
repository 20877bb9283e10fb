package camera

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// h264Decoder feeds an elementary H264 stream through a persistent ffmpeg
// process and reads back fixed-size NV21 frames over pipes. Keeping one
// process alive avoids the overhead of spawning ffmpeg per frame.
type h264Decoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	mu     sync.Mutex
	closed bool
}

func newH264Decoder(width, height int) (*h264Decoder, error) {
	cmd := exec.Command("ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "h264", // Input format
		"-i", "pipe:0", // Read from stdin
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-f", "rawvideo", // Output raw frames
		"-pix_fmt", "nv21", // Same semi-planar layout phone cameras deliver
		"pipe:1", // Write to stdout
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("camera: decoder stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("camera: decoder stdout: %w", err)
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("camera: start ffmpeg: %w", err)
	}

	return &h264Decoder{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

// Write feeds depacketized NAL units into the decoder.
func (d *h264Decoder) Write(p []byte) (int, error) {
	return d.stdin.Write(p)
}

// ReadFrame blocks until ffmpeg emits one full frame into buf.
func (d *h264Decoder) ReadFrame(buf []byte) error {
	_, err := io.ReadFull(d.stdout, buf)
	return err
}

// Close stops the decoder, giving ffmpeg a moment to drain before killing
// it.
func (d *h264Decoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	d.stdin.Close()

	done := make(chan error, 1)
	go func() {
		done <- d.cmd.Wait()
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		d.cmd.Process.Kill()
		<-done
	}
}
