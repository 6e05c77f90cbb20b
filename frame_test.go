package vpxenc

import (
	"errors"
	"testing"
)

func TestI420Size(t *testing.T) {
	tests := []struct {
		width, height int
		want          int
	}{
		{1920, 1080, 1920*1080 + 2*(960*540)},
		{1280, 720, 1280*720 + 2*(640*360)},
		{320, 240, 320*240 + 2*(160*120)},
		{3, 3, 9 + 2*4},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			if got := I420Size(tt.width, tt.height); got != tt.want {
				t.Errorf("I420Size(%d, %d) = %v, want %v", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestFrameView_IsYUV420(t *testing.T) {
	buf := make([]byte, I420Size(4, 4))
	if !NewI420View(buf, 4, 4).IsYUV420() {
		t.Error("I420 view not YUV420")
	}
	if !NewNV12View(buf, 4, 4).IsYUV420() {
		t.Error("NV12 view not YUV420")
	}
	if NewPackedRGBView(make([]byte, 48), 4, 4, 3).IsYUV420() {
		t.Error("RGB view reported as YUV420")
	}
	if (&FrameView{Layout: LayoutYUV}).IsYUV420() {
		t.Error("view without planes reported as YUV420")
	}
}

func TestNewNV12View_Interleave(t *testing.T) {
	buf := []byte{0, 0, 0, 0, 1, 2}
	v := NewNV12View(buf, 2, 2)
	if v.Planes[1].At(0, 0) != 1 || v.Planes[2].At(0, 0) != 2 {
		t.Errorf("chroma = %d/%d", v.Planes[1].At(0, 0), v.Planes[2].At(0, 0))
	}
	if v.planarChroma() {
		t.Error("NV12 reported as planar")
	}
}

func TestFrameRequest_EndOfStream(t *testing.T) {
	if (&FrameRequest{}).EndOfStream() {
		t.Error("zero request is end of stream")
	}
	if !(&FrameRequest{Flags: FlagEndOfStream | FlagCodecConfig}).EndOfStream() {
		t.Error("flag not detected")
	}
}

func TestLayoutType_String(t *testing.T) {
	tests := []struct {
		l    LayoutType
		want string
	}{
		{LayoutYUV, "YUV"},
		{LayoutRGB, "RGB"},
		{LayoutRGBA, "RGBA"},
		{LayoutYUVA, "YUVA"},
		{LayoutUnknown, "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.l.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.l, got, tt.want)
		}
	}
}

func TestPixelFormat_View(t *testing.T) {
	for _, f := range []PixelFormat{PixelFormatI420, PixelFormatNV12, PixelFormatRGB24, PixelFormatRGBA32} {
		t.Run(f.String(), func(t *testing.T) {
			parsed, err := ParsePixelFormat(f.String())
			if err != nil || parsed != f {
				t.Fatalf("ParsePixelFormat(%q) = %v, %v", f.String(), parsed, err)
			}
			v, err := f.View(make([]byte, f.FrameSize(16, 8)), 16, 8)
			if err != nil {
				t.Fatal(err)
			}
			if v.Width != 16 || v.Height != 8 {
				t.Errorf("view %dx%d", v.Width, v.Height)
			}
			if _, err := f.View(make([]byte, 10), 16, 8); !errors.Is(err, ErrBufferTooSmall) {
				t.Errorf("short buffer: %v", err)
			}
		})
	}
	if _, err := ParsePixelFormat("yuyv"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("yuyv: %v", err)
	}
}

func TestPatternGenerator(t *testing.T) {
	for p := PatternColorBars; p <= PatternNoise; p++ {
		t.Run(p.String(), func(t *testing.T) {
			parsed, err := ParsePatternType(p.String())
			if err != nil || parsed != p {
				t.Fatalf("ParsePatternType(%q) = %v, %v", p.String(), parsed, err)
			}
			g := NewPatternGenerator(p, PixelFormatI420, 64, 32)
			v, err := g.Frame(3)
			if err != nil {
				t.Fatal(err)
			}
			y := v.Planes[0]
			for i := 0; i < 64*32; i++ {
				if y.Data[i] < 16 || y.Data[i] > 235 {
					t.Fatalf("luma %d out of range at %d", y.Data[i], i)
				}
			}
		})
	}

	g := NewPatternGenerator(PatternMovingBox, PixelFormatI420, 64, 64)
	a, _ := g.Frame(0)
	first := append([]byte(nil), a.Planes[0].Data...)
	b, _ := g.Frame(40)
	if string(first) == string(b.Planes[0].Data) {
		t.Error("moving box did not move")
	}
}
