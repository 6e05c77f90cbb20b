package vpxenc

import (
	"errors"
	"testing"
)

func TestDirective_Flags(t *testing.T) {
	tests := []struct {
		d    Directive
		want EncodeFlags
	}{
		{UpdateLast, EFlagNoUpdGolden | EFlagNoUpdAltRef | EFlagNoRefGolden | EFlagNoRefAltRef},
		{UpdateGolden, EFlagNoRefAltRef | EFlagNoUpdAltRef | EFlagNoUpdLast},
		{UpdateGoldenWithoutDependency, EFlagNoRefGolden | EFlagNoRefAltRef | EFlagNoUpdAltRef | EFlagNoUpdLast},
		{UpdateAltRef, EFlagNoUpdGolden | EFlagNoUpdLast},
		{UpdateAltRefWithoutDependency, EFlagNoRefAltRef | EFlagNoRefGolden | EFlagNoUpdGolden | EFlagNoUpdLast},
		{UpdateNone, EFlagNoUpdLast | EFlagNoUpdGolden | EFlagNoUpdAltRef | EFlagNoUpdEntropy},
		{UpdateNoneNoRefAltRef, EFlagNoRefAltRef | EFlagNoUpdLast | EFlagNoUpdGolden | EFlagNoUpdAltRef | EFlagNoUpdEntropy},
		{UpdateNoneNoRefGoldenRefAltRef, EFlagNoRefGolden | EFlagNoUpdLast | EFlagNoUpdGolden | EFlagNoUpdAltRef | EFlagNoUpdEntropy},
		{UpdateGoldenWithoutDependencyRefAltRef, EFlagNoRefGolden | EFlagNoUpdAltRef | EFlagNoUpdLast},
		{UpdateLastRefAltRef, EFlagNoUpdGolden | EFlagNoUpdAltRef | EFlagNoRefGolden},
		{UpdateGoldenRefAltRef, EFlagNoUpdAltRef | EFlagNoUpdLast},
		{UpdateLastAndGoldenRefAltRef, EFlagNoUpdAltRef | EFlagNoRefGolden},
		{UpdateLastRefAll, EFlagNoUpdAltRef | EFlagNoUpdGolden},
		{Directive(-1), 0},
		{directiveCount, 0},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			if got := tt.d.Flags(); got != tt.want {
				t.Errorf("Flags() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestDirective_FlagsNeverForceKeyframe(t *testing.T) {
	for d := Directive(0); d < directiveCount; d++ {
		if d.Flags().Has(EFlagForceKeyframe) {
			t.Errorf("%s forces a key frame", d)
		}
	}
}

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		layers      int
		cycle       int
		periodicity uint32
		decimator   []uint32
		layerID     []uint32
	}{
		{0, 0, 0, nil, nil},
		{1, 1, 1, []uint32{1}, []uint32{0}},
		{2, 8, 2, []uint32{2, 1}, []uint32{0, 1}},
		{3, 8, 4, []uint32{4, 2, 1}, []uint32{0, 2, 1, 2}},
	}
	for _, tt := range tests {
		l, err := LayoutFor(tt.layers)
		if err != nil {
			t.Fatalf("LayoutFor(%d): %v", tt.layers, err)
		}
		if len(l.Directives) != tt.cycle || l.Periodicity != tt.periodicity {
			t.Errorf("layers=%d: cycle %d periodicity %d", tt.layers, len(l.Directives), l.Periodicity)
		}
		if !equalU32(l.RateDecimator, tt.decimator) || !equalU32(l.LayerID, tt.layerID) {
			t.Errorf("layers=%d: decimator %v layer ids %v", tt.layers, l.RateDecimator, l.LayerID)
		}
	}

	for _, n := range []int{-1, 4, 5} {
		if _, err := LayoutFor(n); !errors.Is(err, ErrConfiguration) {
			t.Errorf("LayoutFor(%d) = %v, want ErrConfiguration", n, err)
		}
	}
}

func equalU32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTemporalPattern_Cycle(t *testing.T) {
	p, err := PatternFor(3)
	if err != nil {
		t.Fatal(err)
	}
	want := []Directive{
		UpdateLastAndGoldenRefAltRef,
		UpdateNoneNoRefGoldenRefAltRef,
		UpdateGoldenWithoutDependencyRefAltRef,
		UpdateNone,
		UpdateLastRefAltRef,
		UpdateNone,
		UpdateGoldenRefAltRef,
		UpdateNone,
	}
	wantLayer := []uint8{0, 2, 1, 2}
	for i := 0; i < 2*len(want); i++ {
		d, layer, ok := p.Next()
		if !ok {
			t.Fatalf("frame %d: no directive", i)
		}
		if d != want[i%len(want)] {
			t.Errorf("frame %d: %s, want %s", i, d, want[i%len(want)])
		}
		if layer != wantLayer[i%4] {
			t.Errorf("frame %d: layer %d, want %d", i, layer, wantLayer[i%4])
		}
	}

	p.Reset()
	if d, _, _ := p.Next(); d != want[0] {
		t.Errorf("after Reset: %s, want %s", d, want[0])
	}
}

func TestTemporalPattern_Disabled(t *testing.T) {
	p, err := PatternFor(0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d", p.Len())
	}
	for i := 0; i < 3; i++ {
		if _, _, ok := p.Next(); ok {
			t.Error("disabled pattern produced a directive")
		}
		if f, layer := p.NextFlags(); f != 0 || layer != 0 {
			t.Errorf("NextFlags() = %#x, %d", f, layer)
		}
	}
}

func TestTemporalPattern_SingleLayer(t *testing.T) {
	p, _ := PatternFor(1)
	for i := 0; i < 4; i++ {
		f, layer := p.NextFlags()
		if f != UpdateLastRefAll.Flags() || layer != 0 {
			t.Errorf("frame %d: %#x layer %d", i, f, layer)
		}
	}
}
