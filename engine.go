package vpxenc

// MaxTemporalLayers is the size of the engine's per-layer arrays.
const MaxTemporalLayers = 5

// maxPeriodicity is the size of the engine's layer-id array.
const maxPeriodicity = 16

// EngineConfig mirrors the subset of vpx_codec_enc_cfg_t this package drives.
type EngineConfig struct {
	Width   uint32
	Height  uint32
	Threads uint32 // 0 = engine decides
	Profile uint32

	ErrorResilient bool

	TimebaseNum int32
	TimebaseDen int32

	Pass        EncodingPass
	LagInFrames uint32

	TargetBitrateKbps uint32
	EndUsage          RateControlMode
	DropFrameThresh   uint32
	ResizeAllowed     bool
	UndershootPct     uint32
	OvershootPct      uint32
	BufInitialMs      uint32
	BufOptimalMs      uint32
	BufMs             uint32
	MinQuantizer      uint32
	MaxQuantizer      uint32

	KeyframeMode    KeyframeMode
	KeyframeMinDist uint32
	KeyframeMaxDist uint32

	TSNumberLayers  uint32
	TSTargetBitrate [MaxTemporalLayers]uint32
	TSRateDecimator [MaxTemporalLayers]uint32
	TSPeriodicity   uint32
	TSLayerID       [maxPeriodicity]uint32
}

// DefaultEngineConfig returns the values libvpx reports from
// vpx_codec_enc_config_default for the real-time usage profile.
// Engines that can query the library should prefer that.
func DefaultEngineConfig(codec Codec) EngineConfig {
	cfg := EngineConfig{
		Width:             320,
		Height:            240,
		TimebaseNum:       1,
		TimebaseDen:       30,
		Pass:              PassOne,
		LagInFrames:       0,
		TargetBitrateKbps: 256,
		EndUsage:          RateControlVBR,
		DropFrameThresh:   0,
		UndershootPct:     100,
		OvershootPct:      100,
		BufInitialMs:      4000,
		BufOptimalMs:      5000,
		BufMs:             6000,
		MinQuantizer:      4,
		MaxQuantizer:      63,
		KeyframeMode:      KeyframeAuto,
		KeyframeMinDist:   0,
		KeyframeMaxDist:   128,
	}
	if codec == CodecVP9 {
		cfg.UndershootPct = 50
		cfg.OvershootPct = 50
		cfg.MinQuantizer = 0
		cfg.KeyframeMaxDist = 9999
		cfg.LagInFrames = 25
	}
	return cfg
}

// EncodeFlags are per-frame engine flags (vpx_enc_frame_flags_t).
type EncodeFlags uint64

// Values match VPX_EFLAG_* and VP8_EFLAG_* in libvpx.
const (
	EFlagForceKeyframe EncodeFlags = 1 << 0
	EFlagNoRefLast     EncodeFlags = 1 << 16
	EFlagNoRefGolden   EncodeFlags = 1 << 17
	EFlagNoUpdLast     EncodeFlags = 1 << 18
	EFlagForceGolden   EncodeFlags = 1 << 19
	EFlagNoUpdEntropy  EncodeFlags = 1 << 20
	EFlagNoRefAltRef   EncodeFlags = 1 << 21
	EFlagNoUpdGolden   EncodeFlags = 1 << 22
	EFlagNoUpdAltRef   EncodeFlags = 1 << 23
	EFlagForceAltRef   EncodeFlags = 1 << 24
)

// Has returns true if all specified flags are set.
func (f EncodeFlags) Has(flag EncodeFlags) bool { return f&flag == flag }

// Deadline selects the engine's speed/quality trade-off for one encode call.
type Deadline uint64

// Values match VPX_DL_* in libvpx.
const (
	DeadlineBestQuality Deadline = 0
	DeadlineRealtime    Deadline = 1
	DeadlineGoodQuality Deadline = 1000000
)

// Control identifies an engine-specific control (vpx_codec_control).
type Control int

const (
	ControlCPUUsed Control = iota
	ControlStaticThreshold
	ControlMaxIntraBitratePct
	ControlTokenPartitions
	ControlNoiseSensitivity
	ControlTileColumns
	ControlFrameParallelDecoding
	ControlRowMT
	ControlAQMode
)

func (c Control) String() string {
	switch c {
	case ControlCPUUsed:
		return "cpu-used"
	case ControlStaticThreshold:
		return "static-threshold"
	case ControlMaxIntraBitratePct:
		return "max-intra-bitrate-pct"
	case ControlTokenPartitions:
		return "token-partitions"
	case ControlNoiseSensitivity:
		return "noise-sensitivity"
	case ControlTileColumns:
		return "tile-columns"
	case ControlFrameParallelDecoding:
		return "frame-parallel-decoding"
	case ControlRowMT:
		return "row-mt"
	case ControlAQMode:
		return "aq-mode"
	default:
		return "unknown"
	}
}

// ControlSetting is a control id with its value.
type ControlSetting struct {
	ID    Control
	Value int
}

// ImageFormat is the engine image pixel format. Only I420 is produced.
type ImageFormat int

const (
	ImageFormatI420 ImageFormat = iota
)

// Image is the engine-ready picture (vpx_image_t).
//
// W and H are the storage dimensions; DisplayW and DisplayH are the visible
// rectangle anchored at the origin.
type Image struct {
	Format   ImageFormat
	W, H     int
	DisplayW int
	DisplayH int
	Planes   [3][]byte
	Stride   [3]int
}

// PacketKind mirrors vpx_codec_cx_pkt_kind.
type PacketKind int

const (
	PacketFrame PacketKind = iota
	PacketStats
	PacketFPMBStats
	PacketPSNR
	PacketCustom
)

// EnginePacket is one packet yielded by the engine after an encode call.
// Data is owned by the engine and valid until the next Encode.
type EnginePacket struct {
	Kind     PacketKind
	Data     []byte
	PTS      int64
	Duration uint64
	KeyFrame bool
}

// Engine creates encoder instances.
type Engine interface {
	// DefaultConfig returns the engine defaults for codec.
	DefaultConfig(codec Codec) (EngineConfig, error)

	// Open initialises an encoder instance from cfg.
	Open(codec Codec, cfg *EngineConfig) (EngineSession, error)
}

// EngineSession is one live encoder instance.
// Implementations are not safe for concurrent use.
type EngineSession interface {
	// SetConfig pushes an updated configuration into the live instance.
	SetConfig(cfg *EngineConfig) error

	// Control applies an engine-specific control.
	Control(id Control, value int) error

	// Encode submits one image. Packets become available through NextPacket
	// until the next Encode call.
	Encode(img *Image, pts int64, duration uint64, flags EncodeFlags, deadline Deadline) error

	// NextPacket returns the next packet produced by the last Encode.
	NextPacket() (EnginePacket, bool)

	// Close destroys the instance. It is safe to call more than once.
	Close() error
}
