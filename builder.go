package vpxenc

import "math"

// Constant-bitrate tuning values.
const (
	cbrUndershootPct  = 100
	cbrOvershootPct   = 15
	cbrBufInitialMs   = 500
	cbrBufOptimalMs   = 600
	cbrBufMs          = 1000
	cbrKeyframeMax    = 3000
	cbrCPUUsed        = -8
	minIntraTargetPct = 300
)

// TargetKbps converts bits per second to kilobits, rounding half up.
func TargetKbps(bps int) uint32 {
	return uint32((bps + 500) / 1000)
}

// MaxIntraTarget returns the key-frame size cap as a percentage of the
// per-frame bandwidth: the optimal buffer expressed in frames, halved
// (optimal_ms * fps / 1000 * 0.5 * 100), never below 300%.
func MaxIntraTarget(bufOptimalMs uint32, frameRate float64) uint32 {
	t := uint32(float64(bufOptimalMs)*frameRate/20 + 0.5)
	if t < minIntraTargetPct {
		t = minIntraTargetPct
	}
	return t
}

// BuildResult is everything derived from a SessionConfig at initialisation.
type BuildResult struct {
	Config   EngineConfig
	Pattern  *TemporalPattern
	Controls []ControlSetting // applied in order after the engine is opened
}

// BuildEngineConfig derives the engine configuration from sc, starting from
// the engine defaults in base.
func BuildEngineConfig(base EngineConfig, sc *SessionConfig) (BuildResult, error) {
	return buildEngineConfig(base, sc, sc.SyncFramePeriod())
}

// buildEngineConfig takes the sync period in frames separately; the session
// reads it from its config store.
func buildEngineConfig(base EngineConfig, sc *SessionConfig, syncPeriod uint32) (BuildResult, error) {
	pattern, err := PatternFor(sc.Layering.LayerCount)
	if err != nil {
		return BuildResult{}, err
	}

	cfg := base
	cfg.Width = uint32(sc.Width)
	cfg.Height = uint32(sc.Height)
	cfg.Threads = 0
	cfg.ErrorResilient = sc.ErrorResilience

	// timebase is microseconds regardless of frame rate
	cfg.TimebaseNum = 1
	cfg.TimebaseDen = 1000000
	cfg.TargetBitrateKbps = TargetKbps(sc.BitrateBps)
	cfg.EndUsage = RateControlVBR
	if sc.BitrateMode == BitrateConstant {
		cfg.EndUsage = RateControlCBR
	}
	cfg.DropFrameThresh = 0
	cfg.LagInFrames = 0

	if cfg.EndUsage == RateControlCBR {
		cfg.ResizeAllowed = false
		cfg.Pass = PassOne
		cfg.UndershootPct = cbrUndershootPct
		cfg.OvershootPct = cbrOvershootPct
		cfg.BufInitialMs = cbrBufInitialMs
		cfg.BufOptimalMs = cbrBufOptimalMs
		cfg.BufMs = cbrBufMs
		cfg.ErrorResilient = true
		cfg.KeyframeMaxDist = cbrKeyframeMax
		cfg.KeyframeMode = KeyframeAuto
	}

	applyLayering(&cfg, pattern.Layout(), sc)

	if syncPeriod > 0 {
		cfg.KeyframeMaxDist = syncPeriod
		cfg.KeyframeMinDist = syncPeriod
		cfg.KeyframeMode = KeyframeAuto
	}
	if sc.MinQuantizer > 0 {
		cfg.MinQuantizer = uint32(sc.MinQuantizer)
	}
	if sc.MaxQuantizer > 0 {
		cfg.MaxQuantizer = uint32(sc.MaxQuantizer)
	}

	return BuildResult{
		Config:   cfg,
		Pattern:  pattern,
		Controls: buildControls(&cfg, sc),
	}, nil
}

func applyLayering(cfg *EngineConfig, layout LayerLayout, sc *SessionConfig) {
	cfg.TSNumberLayers = 0
	cfg.TSPeriodicity = 0
	cfg.TSTargetBitrate = [MaxTemporalLayers]uint32{}
	cfg.TSRateDecimator = [MaxTemporalLayers]uint32{}
	cfg.TSLayerID = [maxPeriodicity]uint32{}
	if layout.Layers == 0 {
		return
	}

	cfg.TSNumberLayers = uint32(layout.Layers)
	cfg.TSPeriodicity = layout.Periodicity
	copy(cfg.TSRateDecimator[:], layout.RateDecimator)
	copy(cfg.TSLayerID[:], layout.LayerID)
	setLayerBitrates(cfg, layout, sc)
}

// setLayerBitrates splits TargetBitrateKbps across the temporal layers.
// Bitrates are cumulative: layer i carries layers 0..i.
func setLayerBitrates(cfg *EngineConfig, layout LayerLayout, sc *SessionConfig) {
	for i := 0; i < layout.Layers; i++ {
		ratio := 1.0
		if i < layout.ConfiguredRatios {
			ratio = sc.LayerRatio(i)
		}
		cfg.TSTargetBitrate[i] = uint32(math.Floor(float64(cfg.TargetBitrateKbps) * ratio))
	}
}

// buildControls lists the post-init controls for the session.
func buildControls(cfg *EngineConfig, sc *SessionConfig) []ControlSetting {
	var controls []ControlSetting
	if cfg.EndUsage == RateControlCBR {
		controls = append(controls,
			ControlSetting{ControlStaticThreshold, 1},
			ControlSetting{ControlMaxIntraBitratePct, int(MaxIntraTarget(cfg.BufOptimalMs, sc.FrameRate))},
			ControlSetting{ControlCPUUsed, cbrCPUUsed},
		)
	}
	return append(controls, codecControls(sc.Codec, cfg)...)
}

// codecControls are the per-codec defaults applied after the generic ones.
func codecControls(codec Codec, cfg *EngineConfig) []ControlSetting {
	switch codec {
	case CodecVP8:
		return []ControlSetting{{ControlTokenPartitions, 0}}
	case CodecVP9:
		controls := []ControlSetting{
			{ControlTileColumns, 0},
			{ControlFrameParallelDecoding, 0},
			{ControlRowMT, 1},
		}
		if cfg.EndUsage == RateControlCBR {
			controls = append(controls, ControlSetting{ControlAQMode, 3})
		}
		return controls
	default:
		return nil
	}
}
