package vpxenc

import "fmt"

// Directive names which reference buffers (last, golden, altref) a frame may
// read or refresh.
type Directive int

const (
	UpdateLast Directive = iota
	UpdateGoldenWithoutDependency
	UpdateGolden
	UpdateAltRefWithoutDependency
	UpdateAltRef
	UpdateNoneNoRefAltRef
	UpdateNone
	UpdateNoneNoRefGoldenRefAltRef
	UpdateGoldenWithoutDependencyRefAltRef
	UpdateLastRefAltRef
	UpdateGoldenRefAltRef
	UpdateLastAndGoldenRefAltRef
	UpdateLastRefAll
	directiveCount
)

var directiveNames = [directiveCount]string{
	UpdateLast:                             "UpdateLast",
	UpdateGoldenWithoutDependency:          "UpdateGoldenWithoutDependency",
	UpdateGolden:                           "UpdateGolden",
	UpdateAltRefWithoutDependency:          "UpdateAltRefWithoutDependency",
	UpdateAltRef:                           "UpdateAltRef",
	UpdateNoneNoRefAltRef:                  "UpdateNoneNoRefAltRef",
	UpdateNone:                             "UpdateNone",
	UpdateNoneNoRefGoldenRefAltRef:         "UpdateNoneNoRefGoldenRefAltRef",
	UpdateGoldenWithoutDependencyRefAltRef: "UpdateGoldenWithoutDependencyRefAltRef",
	UpdateLastRefAltRef:                    "UpdateLastRefAltRef",
	UpdateGoldenRefAltRef:                  "UpdateGoldenRefAltRef",
	UpdateLastAndGoldenRefAltRef:           "UpdateLastAndGoldenRefAltRef",
	UpdateLastRefAll:                       "UpdateLastRefAll",
}

func (d Directive) String() string {
	if d < 0 || d >= directiveCount {
		return "Unknown"
	}
	return directiveNames[d]
}

const (
	noUpdAll = EFlagNoUpdLast | EFlagNoUpdGolden | EFlagNoUpdAltRef
)

// directiveFlags is the engine flag set for every directive.
// The "without dependency" variants add the extra no-reference flags of the
// directive they extend.
var directiveFlags = [directiveCount]EncodeFlags{
	UpdateLast:                             EFlagNoUpdGolden | EFlagNoUpdAltRef | EFlagNoRefGolden | EFlagNoRefAltRef,
	UpdateGoldenWithoutDependency:          EFlagNoRefGolden | EFlagNoRefAltRef | EFlagNoUpdAltRef | EFlagNoUpdLast,
	UpdateGolden:                           EFlagNoRefAltRef | EFlagNoUpdAltRef | EFlagNoUpdLast,
	UpdateAltRefWithoutDependency:          EFlagNoRefAltRef | EFlagNoRefGolden | EFlagNoUpdGolden | EFlagNoUpdLast,
	UpdateAltRef:                           EFlagNoUpdGolden | EFlagNoUpdLast,
	UpdateNoneNoRefAltRef:                  EFlagNoRefAltRef | noUpdAll | EFlagNoUpdEntropy,
	UpdateNone:                             noUpdAll | EFlagNoUpdEntropy,
	UpdateNoneNoRefGoldenRefAltRef:         EFlagNoRefGolden | noUpdAll | EFlagNoUpdEntropy,
	UpdateGoldenWithoutDependencyRefAltRef: EFlagNoRefGolden | EFlagNoUpdAltRef | EFlagNoUpdLast,
	UpdateLastRefAltRef:                    EFlagNoUpdGolden | EFlagNoUpdAltRef | EFlagNoRefGolden,
	UpdateGoldenRefAltRef:                  EFlagNoUpdAltRef | EFlagNoUpdLast,
	UpdateLastAndGoldenRefAltRef:           EFlagNoUpdAltRef | EFlagNoRefGolden,
	UpdateLastRefAll:                       EFlagNoUpdAltRef | EFlagNoUpdGolden,
}

// Flags returns the engine flags for the directive.
func (d Directive) Flags() EncodeFlags {
	if d < 0 || d >= directiveCount {
		return 0
	}
	return directiveFlags[d]
}

// LayerLayout is the static description of one temporal layering mode.
type LayerLayout struct {
	Layers        int
	Directives    []Directive
	RateDecimator []uint32
	LayerID       []uint32 // indexed by frame % Periodicity
	Periodicity   uint32
	// ConfiguredRatios is how many leading per-layer bitrate ratios are
	// taken from the session configuration; the rest stay at 1.0.
	ConfiguredRatios int
}

var layerLayouts = [...]LayerLayout{
	{Layers: 0},
	{
		Layers:        1,
		Directives:    []Directive{UpdateLastRefAll},
		RateDecimator: []uint32{1},
		LayerID:       []uint32{0},
		Periodicity:   1,
	},
	{
		Layers: 2,
		Directives: []Directive{
			UpdateLastAndGoldenRefAltRef,
			UpdateGoldenWithoutDependencyRefAltRef,
			UpdateLastRefAltRef,
			UpdateGoldenRefAltRef,
			UpdateLastRefAltRef,
			UpdateGoldenRefAltRef,
			UpdateLastRefAltRef,
			UpdateNone,
		},
		RateDecimator:    []uint32{2, 1},
		LayerID:          []uint32{0, 1},
		Periodicity:      2,
		ConfiguredRatios: 1,
	},
	{
		Layers: 3,
		Directives: []Directive{
			UpdateLastAndGoldenRefAltRef,
			UpdateNoneNoRefGoldenRefAltRef,
			UpdateGoldenWithoutDependencyRefAltRef,
			UpdateNone,
			UpdateLastRefAltRef,
			UpdateNone,
			UpdateGoldenRefAltRef,
			UpdateNone,
		},
		RateDecimator:    []uint32{4, 2, 1},
		LayerID:          []uint32{0, 2, 1, 2},
		Periodicity:      4,
		ConfiguredRatios: 2,
	},
}

// LayoutFor returns the static layering description for layerCount.
func LayoutFor(layerCount int) (LayerLayout, error) {
	if layerCount < 0 || layerCount >= len(layerLayouts) {
		return LayerLayout{}, fmt.Errorf("%w: %d temporal layers not supported", ErrConfiguration, layerCount)
	}
	return layerLayouts[layerCount], nil
}

// TemporalPattern walks a layering mode's directive cycle.
type TemporalPattern struct {
	layout LayerLayout
	index  uint64
}

// PatternFor returns a pattern positioned at the first frame.
func PatternFor(layerCount int) (*TemporalPattern, error) {
	layout, err := LayoutFor(layerCount)
	if err != nil {
		return nil, err
	}
	return &TemporalPattern{layout: layout}, nil
}

// Len returns the cycle length; 0 when layering is disabled.
func (p *TemporalPattern) Len() int {
	return len(p.layout.Directives)
}

// Layout returns the static description backing the pattern.
func (p *TemporalPattern) Layout() LayerLayout {
	return p.layout
}

// Next returns the directive for the current frame and advances the cursor.
// ok is false when layering is disabled; the cursor does not move then.
func (p *TemporalPattern) Next() (d Directive, layerID uint8, ok bool) {
	n := uint64(len(p.layout.Directives))
	if n == 0 {
		return 0, 0, false
	}
	idx := p.index
	p.index++
	d = p.layout.Directives[idx%n]
	if per := uint64(p.layout.Periodicity); per > 0 {
		layerID = uint8(p.layout.LayerID[idx%per])
	}
	return d, layerID, true
}

// NextFlags is Next translated to engine flags; zero when layering is off.
func (p *TemporalPattern) NextFlags() (EncodeFlags, uint8) {
	d, layer, ok := p.Next()
	if !ok {
		return 0, 0
	}
	return d.Flags(), layer
}

// Reset rewinds the cursor to the first frame.
func (p *TemporalPattern) Reset() {
	p.index = 0
}
