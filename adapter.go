package vpxenc

import "fmt"

// strideAlign is the alignment of scratch strides in both directions.
const strideAlign = 2

// maxImageDimension is the largest width or height the adapter will wrap.
const maxImageDimension = 0x8000

func alignUp(v, a int) int {
	return (v + a - 1) &^ (a - 1)
}

// ScratchSize returns the conversion buffer size for a width x height session.
func ScratchSize(width, height int) int {
	return alignUp(width, strideAlign) * alignUp(height, strideAlign) * 3 / 2
}

// FrameAdapter turns host frame views into engine images.
type FrameAdapter struct {
	Converter ColorConverter
	Copier    ImageCopier
}

// NewFrameAdapter returns an adapter using the default collaborators.
func NewFrameAdapter() *FrameAdapter {
	return &FrameAdapter{Converter: RGBConverter{}, Copier: PlaneCopier{}}
}

// Adapt prepares view for the engine at the configured picture size.
//
// Planar YUV420 with unit column increments is wrapped without copying.
// Packed RGB and semi-planar YUV are written into scratch, which is never
// grown; a scratch buffer that is too small rejects the frame.
func (a *FrameAdapter) Adapt(view *FrameView, cfg *SessionConfig, aspects ColorAspects, scratch []byte) (Image, error) {
	width, height := cfg.Width, cfg.Height
	if view.Width < width || view.Height < height {
		return Image{}, fmt.Errorf("%w: input %dx%d, configured %dx%d",
			ErrDimensionMismatch, view.Width, view.Height, width, height)
	}
	if width > maxImageDimension || height > maxImageDimension {
		return Image{}, fmt.Errorf("%w: image too big: %dx%d", ErrUnsupportedFormat, width, height)
	}
	stride := alignUp(width, strideAlign)
	vstride := alignUp(height, strideAlign)
	need := stride * vstride * 3 / 2

	switch view.Layout {
	case LayoutRGB, LayoutRGBA:
		if len(scratch) < need {
			return Image{}, fmt.Errorf("%w: conversion buffer %d bytes, need %d", ErrBufferTooSmall, len(scratch), need)
		}
		src := cropView(view, width, height)
		if err := a.Converter.ConvertToPlanarYUV420(scratch, stride, vstride, src, aspects.Matrix, aspects.Range); err != nil {
			return Image{}, fmt.Errorf("convert RGB: %w", err)
		}
		return wrapScratch(scratch, width, height, stride, vstride), nil

	case LayoutYUV, LayoutYUVA:
		if !view.IsYUV420() {
			return Image{}, fmt.Errorf("%w: input is not YUV420", ErrUnsupportedFormat)
		}
		if view.planarChroma() {
			return wrapPlanes(view, width, height)
		}
		if len(scratch) < need {
			return Image{}, fmt.Errorf("%w: conversion buffer too small: %dx%d for %d", ErrBufferTooSmall, stride, vstride, len(scratch))
		}
		layout := NewPlanarLayout(width, height, stride, vstride)
		if err := a.Copier.CopyToPlanar420(scratch, layout, view); err != nil {
			return Image{}, fmt.Errorf("copy to I420: %w", err)
		}
		img := wrapScratch(scratch, stride, vstride, stride, vstride)
		img.DisplayW, img.DisplayH = width, height
		return img, nil

	default:
		return Image{}, fmt.Errorf("%w: unrecognized plane layout %s", ErrUnsupportedFormat, view.Layout)
	}
}

// cropView narrows view to width x height without touching the planes.
func cropView(view *FrameView, width, height int) *FrameView {
	if view.Width == width && view.Height == height {
		return view
	}
	v := *view
	v.Width, v.Height = width, height
	return &v
}

// wrapScratch lays an I420 image of w x h over a stride x vstride buffer.
func wrapScratch(buf []byte, w, h, stride, vstride int) Image {
	l := NewPlanarLayout(w, h, stride, vstride)
	cSize := l.Stride[1] * (vstride / 2)
	return Image{
		Format:   ImageFormatI420,
		W:        w,
		H:        h,
		DisplayW: w,
		DisplayH: h,
		Planes: [3][]byte{
			buf[l.Offset[0]:l.Offset[1]],
			buf[l.Offset[1] : l.Offset[1]+cSize],
			buf[l.Offset[2] : l.Offset[2]+cSize],
		},
		Stride: l.Stride,
	}
}

// wrapPlanes points the image at the view's own planes. Each plane must
// cover the picture, since the engine reads it in place.
func wrapPlanes(view *FrameView, width, height int) (Image, error) {
	for i := 0; i < 3; i++ {
		pw, ph := width, height
		if i > 0 {
			pw, ph = (width+1)/2, (height+1)/2
		}
		p := &view.Planes[i]
		if n := p.span(pw, ph); n > len(p.Data) {
			return Image{}, fmt.Errorf("%w: plane %d has %d bytes, need %d", ErrBufferTooSmall, i, len(p.Data), n)
		}
	}
	img := Image{
		Format:   ImageFormatI420,
		W:        width,
		H:        height,
		DisplayW: width,
		DisplayH: height,
	}
	for i := 0; i < 3; i++ {
		img.Planes[i] = view.Planes[i].Data
		img.Stride[i] = view.Planes[i].RowInc
	}
	return img, nil
}
