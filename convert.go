package vpxenc

import "fmt"

// ColorConverter turns packed RGB/RGBA views into planar 4:2:0 samples.
type ColorConverter interface {
	// ConvertToPlanarYUV420 writes Y (stride x vstride), then U and V
	// (stride/2 x vstride/2) into dst.
	ConvertToPlanarYUV420(dst []byte, stride, vstride int, src *FrameView, matrix ColorMatrix, rng ColorRange) error
}

// PlanarLayout describes a destination planar 4:2:0 image inside one buffer.
type PlanarLayout struct {
	Width, Height int
	Offset        [3]int
	Stride        [3]int
}

// NewPlanarLayout returns the I420 layout of a stride x vstride buffer
// holding a width x height picture.
func NewPlanarLayout(width, height, stride, vstride int) PlanarLayout {
	ySize := stride * vstride
	cStride := stride / 2
	return PlanarLayout{
		Width:  width,
		Height: height,
		Offset: [3]int{0, ySize, ySize + cStride*(vstride/2)},
		Stride: [3]int{stride, cStride, cStride},
	}
}

// Size returns the number of bytes the layout addresses.
func (l PlanarLayout) Size() int {
	return l.Offset[2] + l.Stride[2]*((l.Height+1)/2)
}

// ImageCopier copies an arbitrary YUV420 view into a planar layout.
type ImageCopier interface {
	CopyToPlanar420(dst []byte, layout PlanarLayout, src *FrameView) error
}

// yuvWeights are 8-bit fixed-point RGB to YUV coefficients.
type yuvWeights struct {
	yr, yg, yb int
	ur, ug, ub int
	vr, vg, vb int
	yOffset    int
}

var (
	bt601Limited = yuvWeights{66, 129, 25, -38, -74, 112, 112, -94, -18, 16}
	bt601Full    = yuvWeights{77, 150, 29, -43, -85, 128, 128, -107, -21, 0}
	bt709Limited = yuvWeights{47, 157, 16, -26, -87, 112, 112, -102, -10, 16}
	bt709Full    = yuvWeights{54, 183, 18, -29, -99, 128, 128, -116, -12, 0}
)

func weightsFor(matrix ColorMatrix, rng ColorRange) yuvWeights {
	full := rng == RangeFull
	if matrix == MatrixBT709 {
		if full {
			return bt709Full
		}
		return bt709Limited
	}
	if full {
		return bt601Full
	}
	return bt601Limited
}

// RGBConverter is the default ColorConverter. BT.709 is used when requested,
// BT.601 otherwise; limited range unless full range is requested.
// Chroma is taken from the top-left pixel of each 2x2 block.
type RGBConverter struct{}

// ConvertToPlanarYUV420 implements ColorConverter.
func (RGBConverter) ConvertToPlanarYUV420(dst []byte, stride, vstride int, src *FrameView, matrix ColorMatrix, rng ColorRange) error {
	if src.Layout != LayoutRGB && src.Layout != LayoutRGBA {
		return fmt.Errorf("%w: %s is not RGB", ErrUnsupportedFormat, src.Layout)
	}
	if len(src.Planes) < 3 {
		return fmt.Errorf("%w: RGB view has %d planes", ErrUnsupportedFormat, len(src.Planes))
	}
	w, h := src.Width, src.Height
	if w > stride || h > vstride {
		return fmt.Errorf("%w: %dx%d does not fit %dx%d", ErrBufferTooSmall, w, h, stride, vstride)
	}
	layout := NewPlanarLayout(w, h, stride, vstride)
	if len(dst) < stride*vstride*3/2 {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, stride*vstride*3/2, len(dst))
	}
	for i := 0; i < 3; i++ {
		if src.Planes[i].span(w, h) > len(src.Planes[i].Data) {
			return fmt.Errorf("%w: RGB plane %d shorter than %dx%d", ErrBufferTooSmall, i, w, h)
		}
	}

	wt := weightsFor(matrix, rng)
	r, g, b := &src.Planes[0], &src.Planes[1], &src.Planes[2]
	yPlane := dst[layout.Offset[0]:]
	uPlane := dst[layout.Offset[1]:]
	vPlane := dst[layout.Offset[2]:]

	for y := 0; y < h; y++ {
		row := y * layout.Stride[0]
		for x := 0; x < w; x++ {
			rv, gv, bv := int(r.At(x, y)), int(g.At(x, y)), int(b.At(x, y))
			yPlane[row+x] = clampByte(((wt.yr*rv + wt.yg*gv + wt.yb*bv + 128) >> 8) + wt.yOffset)
			if x&1 == 0 && y&1 == 0 {
				ci := (y/2)*layout.Stride[1] + x/2
				uPlane[ci] = clampByte(((wt.ur*rv + wt.ug*gv + wt.ub*bv + 128) >> 8) + 128)
				vPlane[ci] = clampByte(((wt.vr*rv + wt.vg*gv + wt.vb*bv + 128) >> 8) + 128)
			}
		}
	}
	return nil
}

// PlaneCopier is the default ImageCopier.
type PlaneCopier struct{}

// CopyToPlanar420 implements ImageCopier.
func (PlaneCopier) CopyToPlanar420(dst []byte, layout PlanarLayout, src *FrameView) error {
	if !src.IsYUV420() {
		return fmt.Errorf("%w: %s view is not YUV420", ErrUnsupportedFormat, src.Layout)
	}
	if len(dst) < layout.Size() {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, layout.Size(), len(dst))
	}
	w, h := layout.Width, layout.Height
	if src.Width < w || src.Height < h {
		return fmt.Errorf("%w: source %dx%d, want %dx%d", ErrDimensionMismatch, src.Width, src.Height, w, h)
	}
	for i := 0; i < 3; i++ {
		pw, ph := w, h
		if i > 0 {
			pw, ph = (w+1)/2, (h+1)/2
		}
		p := &src.Planes[i]
		if p.span(pw, ph) > len(p.Data) {
			return fmt.Errorf("%w: plane %d shorter than %dx%d", ErrBufferTooSmall, i, pw, ph)
		}
		out := dst[layout.Offset[i]:]
		stride := layout.Stride[i]
		for y := 0; y < ph; y++ {
			row := out[y*stride : y*stride+pw]
			if p.ColInc == 1 {
				copy(row, p.Data[y*p.RowInc:y*p.RowInc+pw])
				continue
			}
			for x := range row {
				row[x] = p.At(x, y)
			}
		}
	}
	return nil
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
