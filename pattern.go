package vpxenc

import (
	"fmt"
	"math"
	"strings"
)

// PixelFormat is the memory layout of a raw input frame.
type PixelFormat int

const (
	PixelFormatI420 PixelFormat = iota
	PixelFormatNV12
	PixelFormatRGB24
	PixelFormatRGBA32
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatI420:
		return "i420"
	case PixelFormatNV12:
		return "nv12"
	case PixelFormatRGB24:
		return "rgb24"
	case PixelFormatRGBA32:
		return "rgba"
	default:
		return "unknown"
	}
}

// ParsePixelFormat accepts the names returned by String.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(s) {
	case "i420", "yuv420p":
		return PixelFormatI420, nil
	case "nv12":
		return PixelFormatNV12, nil
	case "rgb24", "rgb":
		return PixelFormatRGB24, nil
	case "rgba", "rgba32":
		return PixelFormatRGBA32, nil
	default:
		return 0, fmt.Errorf("%w: pixel format %q", ErrUnsupportedFormat, s)
	}
}

// FrameSize returns the bytes of one width x height frame.
func (f PixelFormat) FrameSize(width, height int) int {
	switch f {
	case PixelFormatI420, PixelFormatNV12:
		return I420Size(width, height)
	case PixelFormatRGB24:
		return width * height * 3
	case PixelFormatRGBA32:
		return width * height * 4
	default:
		return 0
	}
}

// View wraps buf as a FrameView of this format.
func (f PixelFormat) View(buf []byte, width, height int) (*FrameView, error) {
	if n := f.FrameSize(width, height); n == 0 || len(buf) < n {
		return nil, fmt.Errorf("%w: %s frame %dx%d needs %d bytes, have %d",
			ErrBufferTooSmall, f, width, height, n, len(buf))
	}
	switch f {
	case PixelFormatI420:
		return NewI420View(buf, width, height), nil
	case PixelFormatNV12:
		return NewNV12View(buf, width, height), nil
	case PixelFormatRGB24:
		return NewPackedRGBView(buf, width, height, 3), nil
	default:
		return NewPackedRGBView(buf, width, height, 4), nil
	}
}

// PatternType selects the synthetic picture.
type PatternType int

const (
	PatternColorBars PatternType = iota
	PatternGradient
	PatternCheckerboard
	PatternMovingBox
	PatternNoise
)

func (p PatternType) String() string {
	switch p {
	case PatternColorBars:
		return "colorbars"
	case PatternGradient:
		return "gradient"
	case PatternCheckerboard:
		return "checkerboard"
	case PatternMovingBox:
		return "movingbox"
	case PatternNoise:
		return "noise"
	default:
		return "unknown"
	}
}

// ParsePatternType accepts the names returned by String.
func ParsePatternType(s string) (PatternType, error) {
	for p := PatternColorBars; p <= PatternNoise; p++ {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: pattern %q", ErrConfiguration, s)
}

// SMPTE color bars (simplified 8-bar pattern)
var colorBarsRGB = [8][3]uint8{
	{192, 192, 192},
	{192, 192, 0},
	{0, 192, 192},
	{0, 192, 0},
	{192, 0, 192},
	{192, 0, 0},
	{0, 0, 192},
	{16, 16, 16},
}

// PatternGenerator renders synthetic frames into a reusable buffer.
type PatternGenerator struct {
	Pattern PatternType
	Format  PixelFormat
	Width   int
	Height  int

	buf      []byte
	rngState uint64
}

// NewPatternGenerator creates a generator for width x height frames.
func NewPatternGenerator(pattern PatternType, format PixelFormat, width, height int) *PatternGenerator {
	return &PatternGenerator{
		Pattern:  pattern,
		Format:   format,
		Width:    width,
		Height:   height,
		buf:      make([]byte, format.FrameSize(width, height)),
		rngState: 0x9E3779B97F4A7C15,
	}
}

// Frame renders frame number n. The returned view aliases the generator's
// buffer and is valid until the next call.
func (g *PatternGenerator) Frame(n uint64) (*FrameView, error) {
	view, err := g.Format.View(g.buf, g.Width, g.Height)
	if err != nil {
		return nil, err
	}
	w, h := g.Width, g.Height
	switch view.Layout {
	case LayoutRGB, LayoutRGBA:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, gr, b := g.pixel(x, y, n)
				view.Planes[0].Data[y*view.Planes[0].RowInc+x*view.Planes[0].ColInc] = r
				view.Planes[1].Data[y*view.Planes[1].RowInc+x*view.Planes[1].ColInc] = gr
				view.Planes[2].Data[y*view.Planes[2].RowInc+x*view.Planes[2].ColInc] = b
				if view.Layout == LayoutRGBA {
					view.Planes[3].Data[y*view.Planes[3].RowInc+x*view.Planes[3].ColInc] = 255
				}
			}
		}
	default:
		yp, up, vp := &view.Planes[0], &view.Planes[1], &view.Planes[2]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, gr, b := g.pixel(x, y, n)
				yv, u, v := rgbToYUV(r, gr, b)
				yp.Data[y*yp.RowInc+x] = yv
				if x%2 == 0 && y%2 == 0 {
					up.Data[(y/2)*up.RowInc+(x/2)*up.ColInc] = u
					vp.Data[(y/2)*vp.RowInc+(x/2)*vp.ColInc] = v
				}
			}
		}
	}
	return view, nil
}

func (g *PatternGenerator) pixel(x, y int, n uint64) (r, gr, b uint8) {
	w, h := g.Width, g.Height
	switch g.Pattern {
	case PatternGradient:
		v := uint8((x * 255) / w)
		return v, v, v
	case PatternCheckerboard:
		if ((x/16)+(y/16))%2 == 0 {
			return 235, 235, 235
		}
		return 16, 16, 16
	case PatternMovingBox:
		boxSize := max(min(w, h)/4, 2)
		radius := float64(min(w, h)) / 4
		angle := float64(n) * 0.05
		bx := w/2 + int(radius*math.Cos(angle)) - boxSize/2
		by := h/2 + int(radius*math.Sin(angle)) - boxSize/2
		if x >= bx && x < bx+boxSize && y >= by && y < by+boxSize {
			return 235, 235, 235
		}
		return 16, 16, 16
	case PatternNoise:
		g.rngState ^= g.rngState << 13
		g.rngState ^= g.rngState >> 7
		g.rngState ^= g.rngState << 17
		v := uint8(g.rngState)
		return v, v, v
	default:
		bar := x / max(w/8, 1)
		if bar >= 8 {
			bar = 7
		}
		c := colorBarsRGB[bar]
		return c[0], c[1], c[2]
	}
}

// rgbToYUV converts RGB to limited-range BT.601 YUV.
func rgbToYUV(r, g, b uint8) (y, u, v uint8) {
	yf := 16.0 + 65.481*float64(r)/255.0 + 128.553*float64(g)/255.0 + 24.966*float64(b)/255.0
	uf := 128.0 - 37.797*float64(r)/255.0 - 74.203*float64(g)/255.0 + 112.0*float64(b)/255.0
	vf := 128.0 + 112.0*float64(r)/255.0 - 93.786*float64(g)/255.0 - 18.214*float64(b)/255.0

	y = uint8(math.Max(16, math.Min(yf, 235)))
	u = uint8(math.Max(16, math.Min(uf, 240)))
	v = uint8(math.Max(16, math.Min(vf, 240)))
	return
}
