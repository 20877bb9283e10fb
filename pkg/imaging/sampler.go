package imaging

import "math"

// Color is an RGB sample with channels in [0, 255]. Channels are float64 so
// distance math stays exact through the verification path.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Distance returns the Euclidean distance to another color in RGB space.
// The range is [0, ~441.67] for 8-bit channels.
func (c Color) Distance(o Color) float64 {
	dr := c.R - o.R
	dg := c.G - o.G
	db := c.B - o.B
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// SampleRGB reads the pixel at (x, y) and returns it as an RGB color.
// ok is false when the coordinate is outside the frame or the format is one
// the sampler does not understand; the returned color is black in that case.
func SampleRGB(f *Frame, x, y int) (Color, bool) {
	if f == nil || x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return Color{}, false
	}
	switch f.Format {
	case FormatNV21:
		return sampleNV21(f, x, y)
	case FormatBGRA:
		return sampleBGRA(f, x, y)
	default:
		return Color{}, false
	}
}

// sampleNV21 reads luma at full resolution and chroma at half resolution,
// then applies the BT.601 YUV-to-RGB transform.
func sampleNV21(f *Frame, x, y int) (Color, bool) {
	if len(f.Planes) != 3 {
		return Color{}, false
	}
	yp, up, vp := f.Planes[0], f.Planes[1], f.Planes[2]

	yi := y*yp.RowStride + x*yp.PixelStride
	ui := (y/2)*up.RowStride + (x/2)*up.PixelStride
	vi := (y/2)*vp.RowStride + (x/2)*vp.PixelStride
	if yi >= len(yp.Data) || ui >= len(up.Data) || vi >= len(vp.Data) {
		return Color{}, false
	}

	luma := float64(yp.Data[yi])
	u := float64(up.Data[ui]) - 128
	v := float64(vp.Data[vi]) - 128

	return Color{
		R: clampChannel(luma + 1.402*v),
		G: clampChannel(luma - 0.344136*u - 0.714136*v),
		B: clampChannel(luma + 1.772*u),
	}, true
}

// sampleBGRA reads a packed four-byte pixel; alpha is ignored.
func sampleBGRA(f *Frame, x, y int) (Color, bool) {
	if len(f.Planes) != 1 {
		return Color{}, false
	}
	p := f.Planes[0]
	i := y*p.RowStride + x*p.PixelStride
	if i+2 >= len(p.Data) {
		return Color{}, false
	}
	return Color{
		R: float64(p.Data[i+2]),
		G: float64(p.Data[i+1]),
		B: float64(p.Data[i]),
	}, true
}

func clampChannel(v float64) float64 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
