package vpxenc

import (
	"fmt"
	"math"
)

// Picture and bitrate bounds accepted by the session.
const (
	MinDimension  = 2
	MaxDimension  = 2048
	MinBitrateBps = 4096
	MaxBitrateBps = 40000000
	MaxLayerCount = 4
)

// SyncIntervalNever disables periodic sync frames.
const SyncIntervalNever int64 = math.MaxInt64

// IntraRefreshMode mirrors the host's intra-refresh setting.
type IntraRefreshMode int

const (
	IntraRefreshDisabled IntraRefreshMode = iota
	IntraRefreshArbitrary
)

// IntraRefresh is accepted and tracked but not translated into engine controls.
type IntraRefresh struct {
	Mode   IntraRefreshMode `yaml:"mode"`
	Period float64          `yaml:"period"`
}

// TemporalLayering configures temporal scalability.
type TemporalLayering struct {
	LayerCount    int       `yaml:"layers"`
	BLayerCount   int       `yaml:"b_layers"`
	BitrateRatios []float64 `yaml:"bitrate_ratios"`
}

// normalize clamps the layer count, forces B-layers off and makes the
// ratios non-decreasing within [0,1].
func (l TemporalLayering) normalize() TemporalLayering {
	out := TemporalLayering{
		LayerCount: l.LayerCount,
	}
	if out.LayerCount > MaxLayerCount {
		out.LayerCount = MaxLayerCount
	}
	if out.LayerCount < 0 {
		out.LayerCount = 0
	}
	if len(l.BitrateRatios) > 0 {
		out.BitrateRatios = make([]float64, len(l.BitrateRatios))
		prev := 0.0
		for i, r := range l.BitrateRatios {
			r = math.Min(math.Max(r, prev), 1)
			out.BitrateRatios[i] = r
			prev = r
		}
	}
	return out
}

// ColorRange is the quantisation range of coded samples.
type ColorRange int

const (
	RangeUnspecified ColorRange = iota
	RangeFull
	RangeLimited
	RangeOther
)

// ColorMatrix selects the RGB to YUV coefficients.
type ColorMatrix int

const (
	MatrixUnspecified ColorMatrix = iota
	MatrixBT709
	MatrixFCC47
	MatrixBT601
	MatrixSMPTE240M
	MatrixBT2020
	MatrixBT2020Constant
	MatrixOther
)

// ColorAspects describe the colour signalling of the coded stream.
type ColorAspects struct {
	Range     ColorRange  `yaml:"range"`
	Primaries int         `yaml:"primaries"`
	Transfer  int         `yaml:"transfer"`
	Matrix    ColorMatrix `yaml:"matrix"`
}

// clamp bounds each aspect to its "other" value.
func (c ColorAspects) clamp() ColorAspects {
	if c.Range < 0 || c.Range > RangeOther {
		c.Range = RangeOther
	}
	if c.Matrix < 0 || c.Matrix > MatrixOther {
		c.Matrix = MatrixOther
	}
	return c
}

// SessionConfig is the encoder configuration snapshot owned by a session.
type SessionConfig struct {
	Codec           Codec            `yaml:"-"`
	Width           int              `yaml:"width"`
	Height          int              `yaml:"height"`
	BitrateBps      int              `yaml:"bitrate"`
	BitrateMode     BitrateMode      `yaml:"-"`
	FrameRate       float64          `yaml:"frame_rate"`
	Layering        TemporalLayering `yaml:"temporal_layering"`
	SyncInterval    int64            `yaml:"sync_interval_us"` // microseconds
	IntraRefresh    IntraRefresh     `yaml:"intra_refresh"`
	MinQuantizer    int              `yaml:"min_quantizer"`
	MaxQuantizer    int              `yaml:"max_quantizer"`
	ErrorResilience bool             `yaml:"error_resilience"`
	ColorAspects    ColorAspects     `yaml:"color_aspects"`
}

// DefaultSessionConfig returns the host defaults: 320x240 VBR at 64 kbps,
// 30 fps, no temporal layers and a sync frame every second.
func DefaultSessionConfig(codec Codec) SessionConfig {
	return SessionConfig{
		Codec:        codec,
		Width:        320,
		Height:       240,
		BitrateBps:   64000,
		BitrateMode:  BitrateVariable,
		FrameRate:    30,
		SyncInterval: 1000000,
		ColorAspects: ColorAspects{Range: RangeLimited},
	}
}

// Validate reports the first setting outside its accepted range.
func (c *SessionConfig) Validate() error {
	if err := validateSize(c.Width, c.Height); err != nil {
		return err
	}
	if c.BitrateBps < MinBitrateBps || c.BitrateBps > MaxBitrateBps {
		return fmt.Errorf("%w: bitrate %d outside [%d, %d]", ErrConfiguration, c.BitrateBps, MinBitrateBps, MaxBitrateBps)
	}
	if !(c.FrameRate > 0) {
		return fmt.Errorf("%w: frame rate %v must be positive", ErrConfiguration, c.FrameRate)
	}
	if c.Layering.LayerCount < 0 || c.Layering.LayerCount > MaxLayerCount {
		return fmt.Errorf("%w: layer count %d outside [0, %d]", ErrConfiguration, c.Layering.LayerCount, MaxLayerCount)
	}
	if c.BitrateMode != BitrateVariable && c.BitrateMode != BitrateConstant {
		return fmt.Errorf("%w: bitrate mode %d", ErrConfiguration, c.BitrateMode)
	}
	if c.MinQuantizer < 0 || c.MaxQuantizer < 0 || c.MinQuantizer > 63 || c.MaxQuantizer > 63 {
		return fmt.Errorf("%w: quantizer bounds %d..%d", ErrConfiguration, c.MinQuantizer, c.MaxQuantizer)
	}
	return nil
}

func validateSize(width, height int) error {
	if width < MinDimension || width > MaxDimension || width%2 != 0 {
		return fmt.Errorf("%w: width %d must be even in [%d, %d]", ErrConfiguration, width, MinDimension, MaxDimension)
	}
	if height < MinDimension || height > MaxDimension || height%2 != 0 {
		return fmt.Errorf("%w: height %d must be even in [%d, %d]", ErrConfiguration, height, MinDimension, MaxDimension)
	}
	return nil
}

// SyncFramePeriod converts the sync interval to a frame count.
// It returns 0 when periodic sync frames are disabled.
func (c *SessionConfig) SyncFramePeriod() uint32 {
	if c.SyncInterval < 0 || c.SyncInterval == SyncIntervalNever {
		return 0
	}
	period := float64(c.SyncInterval) / 1e6 * c.FrameRate
	return uint32(math.Max(math.Min(period+0.5, math.MaxUint32), 1))
}

// LayerRatio returns the configured bitrate ratio for layer i, or 1.
func (c *SessionConfig) LayerRatio(i int) float64 {
	if i < len(c.Layering.BitrateRatios) {
		return c.Layering.BitrateRatios[i]
	}
	return 1
}

func (c SessionConfig) clone() SessionConfig {
	if c.Layering.BitrateRatios != nil {
		c.Layering.BitrateRatios = append([]float64(nil), c.Layering.BitrateRatios...)
	}
	return c
}
