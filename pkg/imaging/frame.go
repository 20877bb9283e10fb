// Package imaging defines the raw camera frame model shared by the capture,
// pose, and tracking layers, along with pixel sampling and color math.
package imaging

import "fmt"

// PixelFormat identifies the memory layout of a Frame's planes.
type PixelFormat int

const (
	// FormatUnknown marks frames the sampler refuses to read.
	FormatUnknown PixelFormat = iota
	// FormatNV21 is semi-planar YUV 4:2:0: a full-resolution luma plane
	// followed by a single interleaved VU plane at half resolution.
	FormatNV21
	// FormatBGRA is packed 8-bit BGRA, four bytes per pixel.
	FormatBGRA
)

func (f PixelFormat) String() string {
	switch f {
	case FormatNV21:
		return "nv21"
	case FormatBGRA:
		return "bgra"
	default:
		return "unknown"
	}
}

// Rotation is the clockwise rotation needed to bring a frame upright, as
// reported by the capture device.
type Rotation int

const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// Plane is one buffer of a Frame. RowStride is the byte offset between
// vertically adjacent samples and PixelStride between horizontally adjacent
// ones; hardware buffers may pad either beyond the packed minimum.
type Plane struct {
	Data        []byte
	RowStride   int
	PixelStride int
}

// Frame is a single camera image. It is owned by the processing call that
// receives it and must not be retained afterwards; producers are free to
// reuse the backing buffers for the next frame.
//
// NV21 frames carry three planes in the convention used by mobile camera
// stacks: Y, then U and V views that both alias the interleaved VU buffer
// with a pixel stride of 2. BGRA frames carry a single packed plane.
type Frame struct {
	Width  int
	Height int
	Format PixelFormat
	Planes []Plane
}

// NewBGRAFrame wraps a packed BGRA buffer. The buffer must hold at least
// width*height*4 bytes.
func NewBGRAFrame(width, height int, data []byte) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imaging: invalid frame size %dx%d", width, height)
	}
	if need := width * height * 4; len(data) < need {
		return nil, fmt.Errorf("imaging: bgra buffer holds %d bytes, need %d", len(data), need)
	}
	return &Frame{
		Width:  width,
		Height: height,
		Format: FormatBGRA,
		Planes: []Plane{{Data: data, RowStride: width * 4, PixelStride: 4}},
	}, nil
}

// NewNV21Frame wraps a contiguous NV21 buffer: width*height luma bytes
// followed by the interleaved VU plane. The returned frame exposes the
// chroma as separate U and V planes aliasing the VU buffer.
func NewNV21Frame(width, height int, data []byte) (*Frame, error) {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return nil, fmt.Errorf("imaging: invalid nv21 frame size %dx%d", width, height)
	}
	lumaLen := width * height
	need := lumaLen + lumaLen/2
	if len(data) < need {
		return nil, fmt.Errorf("imaging: nv21 buffer holds %d bytes, need %d", len(data), need)
	}
	vu := data[lumaLen:need]
	return &Frame{
		Width:  width,
		Height: height,
		Format: FormatNV21,
		Planes: []Plane{
			{Data: data[:lumaLen], RowStride: width, PixelStride: 1},
			{Data: vu[1:], RowStride: width, PixelStride: 2},
			{Data: vu, RowStride: width, PixelStride: 2},
		},
	}, nil
}

// NV21Bytes reassembles the contiguous NV21 buffer for a semi-planar frame,
// honoring per-plane strides. Decoder backends use this to hand the frame
// to OpenCV in one piece.
func (f *Frame) NV21Bytes() ([]byte, error) {
	if f.Format != FormatNV21 || len(f.Planes) != 3 {
		return nil, fmt.Errorf("imaging: frame format %s is not nv21", f.Format)
	}
	yp, up, vp := f.Planes[0], f.Planes[1], f.Planes[2]
	out := make([]byte, 0, f.Width*f.Height*3/2)
	for row := 0; row < f.Height; row++ {
		base := row * yp.RowStride
		for col := 0; col < f.Width; col++ {
			out = append(out, yp.Data[base+col*yp.PixelStride])
		}
	}
	for row := 0; row < f.Height/2; row++ {
		for col := 0; col < f.Width/2; col++ {
			out = append(out, vp.Data[row*vp.RowStride+col*vp.PixelStride])
			out = append(out, up.Data[row*up.RowStride+col*up.PixelStride])
		}
	}
	return out, nil
}
