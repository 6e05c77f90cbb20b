// Core frame and packet types used across the vpxenc package.
package vpxenc

// LayoutType classifies the planes of an input frame.
type LayoutType int

const (
	LayoutUnknown LayoutType = iota
	LayoutYUV                // Y, U, V planes (any subsampling)
	LayoutRGB                // R, G, B planes, usually packed
	LayoutRGBA               // R, G, B, A planes, usually packed
	LayoutYUVA               // Y, U, V, A planes
)

func (l LayoutType) String() string {
	switch l {
	case LayoutYUV:
		return "YUV"
	case LayoutRGB:
		return "RGB"
	case LayoutRGBA:
		return "RGBA"
	case LayoutYUVA:
		return "YUVA"
	default:
		return "Unknown"
	}
}

// Plane describes one colour component inside a mapped frame buffer.
//
// Sample (x, y) of the plane, in plane coordinates, lives at
// Data[y*RowInc + x*ColInc]. Packed and semi-planar formats are expressed by
// several planes sharing one backing array with ColInc > 1.
type Plane struct {
	Data        []byte
	ColInc      int // bytes between horizontally adjacent samples
	RowInc      int // bytes between vertically adjacent samples
	ColSampling int // horizontal subsampling factor (1 = full, 2 = half)
	RowSampling int // vertical subsampling factor
}

// At returns the sample at plane coordinates (x, y).
func (p *Plane) At(x, y int) byte {
	return p.Data[y*p.RowInc+x*p.ColInc]
}

// span returns the number of bytes needed to address a w x h plane region.
func (p *Plane) span(w, h int) int {
	if w <= 0 || h <= 0 {
		return 0
	}
	return (h-1)*p.RowInc + (w-1)*p.ColInc + 1
}

// FrameView is a borrowed, mapped view of one input picture.
// Plane order follows the layout: Y,U,V(,A) or R,G,B(,A).
type FrameView struct {
	Layout LayoutType
	Planes []Plane
	Width  int // allocated width in pixels
	Height int // allocated height in pixels
}

// IsYUV420 reports whether the view is 8-bit YUV with 2x2 subsampled chroma.
func (v *FrameView) IsYUV420() bool {
	if v.Layout != LayoutYUV && v.Layout != LayoutYUVA {
		return false
	}
	if len(v.Planes) < 3 {
		return false
	}
	y, u, p := v.Planes[0], v.Planes[1], v.Planes[2]
	return y.ColSampling == 1 && y.RowSampling == 1 &&
		u.ColSampling == 2 && u.RowSampling == 2 &&
		p.ColSampling == 2 && p.RowSampling == 2
}

// planarChroma reports whether every YUV plane has unit column increment.
func (v *FrameView) planarChroma() bool {
	for i := 0; i < 3 && i < len(v.Planes); i++ {
		if v.Planes[i].ColInc != 1 {
			return false
		}
	}
	return true
}

// NewI420View wraps a contiguous I420 buffer (Y, then U, then V).
func NewI420View(buf []byte, width, height int) *FrameView {
	cw, ch := (width+1)/2, (height+1)/2
	ySize := width * height
	uvSize := cw * ch
	return &FrameView{
		Layout: LayoutYUV,
		Width:  width,
		Height: height,
		Planes: []Plane{
			{Data: buf[:ySize], ColInc: 1, RowInc: width, ColSampling: 1, RowSampling: 1},
			{Data: buf[ySize : ySize+uvSize], ColInc: 1, RowInc: cw, ColSampling: 2, RowSampling: 2},
			{Data: buf[ySize+uvSize : ySize+2*uvSize], ColInc: 1, RowInc: cw, ColSampling: 2, RowSampling: 2},
		},
	}
}

// NewNV12View wraps a contiguous NV12 buffer (Y, then interleaved UV).
func NewNV12View(buf []byte, width, height int) *FrameView {
	cw, ch := (width+1)/2, (height+1)/2
	ySize := width * height
	uv := buf[ySize : ySize+cw*ch*2]
	return &FrameView{
		Layout: LayoutYUV,
		Width:  width,
		Height: height,
		Planes: []Plane{
			{Data: buf[:ySize], ColInc: 1, RowInc: width, ColSampling: 1, RowSampling: 1},
			{Data: uv, ColInc: 2, RowInc: cw * 2, ColSampling: 2, RowSampling: 2},
			{Data: uv[1:], ColInc: 2, RowInc: cw * 2, ColSampling: 2, RowSampling: 2},
		},
	}
}

// NewPackedRGBView wraps a packed RGB24 (bpp=3) or RGBA32 (bpp=4) buffer.
func NewPackedRGBView(buf []byte, width, height, bpp int) *FrameView {
	layout := LayoutRGB
	n := 3
	if bpp == 4 {
		layout = LayoutRGBA
		n = 4
	}
	stride := width * bpp
	planes := make([]Plane, n)
	for i := range planes {
		planes[i] = Plane{Data: buf[i:], ColInc: bpp, RowInc: stride, ColSampling: 1, RowSampling: 1}
	}
	return &FrameView{Layout: layout, Width: width, Height: height, Planes: planes}
}

// I420Size returns the total buffer size needed for an I420 frame.
func I420Size(width, height int) int {
	cw, ch := (width+1)/2, (height+1)/2
	return width*height + 2*cw*ch
}

// FrameFlags carry per-frame signalling between the host and the session.
type FrameFlags uint32

const (
	FlagEndOfStream FrameFlags = 1 << iota
	FlagDropFrame
	FlagCodecConfig
)

// FrameRequest is one unit of work submitted by the host.
// Buffers are borrowed for the duration of a single Process call.
type FrameRequest struct {
	Buffers    []*FrameView
	Timestamp  uint64 // presentation time in microseconds
	FrameIndex uint64
	Flags      FrameFlags
}

// EndOfStream reports whether the request carries the end-of-stream flag.
func (r *FrameRequest) EndOfStream() bool {
	return r.Flags&FlagEndOfStream != 0
}

// EncodedPacket is one compressed frame handed to the host.
// Data is owned by the caller once returned.
type EncodedPacket struct {
	Data            []byte
	Timestamp       int64 // packet PTS in microseconds
	FrameIndex      uint64
	KeyFrame        bool
	EndOfStream     bool
	TemporalLayerID uint8
}

// Output is the result of processing one FrameRequest.
type Output struct {
	Packets    []EncodedPacket
	Flags      FrameFlags
	FrameIndex uint64
	Timestamp  uint64
	// Processed is false when the engine produced nothing for a submitted
	// frame; encoders are allowed to buffer.
	Processed bool
}
