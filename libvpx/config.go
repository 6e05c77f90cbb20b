package libvpx

import (
	"errors"
	"fmt"

	"github.com/thesyncim/vpxenc"
)

// Constants from media_vpxenc.h
const (
	codecVP8 = 1
	codecVP9 = 2

	resultOK = 0
)

var errEncoderClosed = errors.New("encoder closed")

// cConfig matches media_vpxenc_config_t in C. Every field is 4 bytes wide.
// This struct must be heap-allocated for purego to work correctly on arm64.
type cConfig struct {
	Width           uint32
	Height          uint32
	Threads         uint32
	Profile         uint32
	ErrorResilient  int32
	TimebaseNum     int32
	TimebaseDen     int32
	Pass            int32
	LagInFrames     uint32
	TargetBitrate   uint32
	EndUsage        int32
	DropframeThresh uint32
	ResizeAllowed   int32
	UndershootPct   uint32
	OvershootPct    uint32
	BufInitialSz    uint32
	BufOptimalSz    uint32
	BufSz           uint32
	MinQuantizer    uint32
	MaxQuantizer    uint32
	KfMode          int32
	KfMinDist       uint32
	KfMaxDist       uint32
	TSNumberLayers  uint32
	TSTargetBitrate [vpxenc.MaxTemporalLayers]uint32
	TSRateDecimator [vpxenc.MaxTemporalLayers]uint32
	TSPeriodicity   uint32
	TSLayerID       [16]uint32
}

// cPacket matches media_vpxenc_packet_t in C.
type cPacket struct {
	Data     uint64
	Size     uint64
	PTS      int64
	Duration uint64
	Kind     int32
	KeyFrame int32
}

func codecID(codec vpxenc.Codec) (int32, error) {
	switch codec {
	case vpxenc.CodecVP8:
		return codecVP8, nil
	case vpxenc.CodecVP9:
		return codecVP9, nil
	default:
		return 0, fmt.Errorf("%w: unsupported codec %s", vpxenc.ErrConfiguration, codec)
	}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func toCConfig(cfg *vpxenc.EngineConfig, out *cConfig) {
	*out = cConfig{
		Width:           cfg.Width,
		Height:          cfg.Height,
		Threads:         cfg.Threads,
		Profile:         cfg.Profile,
		ErrorResilient:  boolToInt32(cfg.ErrorResilient),
		TimebaseNum:     cfg.TimebaseNum,
		TimebaseDen:     cfg.TimebaseDen,
		Pass:            int32(cfg.Pass),
		LagInFrames:     cfg.LagInFrames,
		TargetBitrate:   cfg.TargetBitrateKbps,
		EndUsage:        int32(cfg.EndUsage),
		DropframeThresh: cfg.DropFrameThresh,
		ResizeAllowed:   boolToInt32(cfg.ResizeAllowed),
		UndershootPct:   cfg.UndershootPct,
		OvershootPct:    cfg.OvershootPct,
		BufInitialSz:    cfg.BufInitialMs,
		BufOptimalSz:    cfg.BufOptimalMs,
		BufSz:           cfg.BufMs,
		MinQuantizer:    cfg.MinQuantizer,
		MaxQuantizer:    cfg.MaxQuantizer,
		KfMode:          int32(cfg.KeyframeMode),
		KfMinDist:       cfg.KeyframeMinDist,
		KfMaxDist:       cfg.KeyframeMaxDist,
		TSNumberLayers:  cfg.TSNumberLayers,
		TSTargetBitrate: cfg.TSTargetBitrate,
		TSRateDecimator: cfg.TSRateDecimator,
		TSPeriodicity:   cfg.TSPeriodicity,
		TSLayerID:       cfg.TSLayerID,
	}
}

func fromCConfig(in *cConfig) vpxenc.EngineConfig {
	return vpxenc.EngineConfig{
		Width:             in.Width,
		Height:            in.Height,
		Threads:           in.Threads,
		Profile:           in.Profile,
		ErrorResilient:    in.ErrorResilient != 0,
		TimebaseNum:       in.TimebaseNum,
		TimebaseDen:       in.TimebaseDen,
		Pass:              vpxenc.EncodingPass(in.Pass),
		LagInFrames:       in.LagInFrames,
		TargetBitrateKbps: in.TargetBitrate,
		EndUsage:          vpxenc.RateControlMode(in.EndUsage),
		DropFrameThresh:   in.DropframeThresh,
		ResizeAllowed:     in.ResizeAllowed != 0,
		UndershootPct:     in.UndershootPct,
		OvershootPct:      in.OvershootPct,
		BufInitialMs:      in.BufInitialSz,
		BufOptimalMs:      in.BufOptimalSz,
		BufMs:             in.BufSz,
		MinQuantizer:      in.MinQuantizer,
		MaxQuantizer:      in.MaxQuantizer,
		KeyframeMode:      vpxenc.KeyframeMode(in.KfMode),
		KeyframeMinDist:   in.KfMinDist,
		KeyframeMaxDist:   in.KfMaxDist,
		TSNumberLayers:    in.TSNumberLayers,
		TSTargetBitrate:   in.TSTargetBitrate,
		TSRateDecimator:   in.TSRateDecimator,
		TSPeriodicity:     in.TSPeriodicity,
		TSLayerID:         in.TSLayerID,
	}
}

// packetKind maps the C packet kind to vpxenc's.
func packetKind(k int32) vpxenc.PacketKind {
	switch k {
	case 0:
		return vpxenc.PacketFrame
	case 1:
		return vpxenc.PacketStats
	case 2:
		return vpxenc.PacketFPMBStats
	case 3:
		return vpxenc.PacketPSNR
	default:
		return vpxenc.PacketCustom
	}
}

// checkImage rejects images the native side would read out of bounds.
func checkImage(img *vpxenc.Image) error {
	if img.W <= 0 || img.H <= 0 {
		return fmt.Errorf("%w: image %dx%d", vpxenc.ErrUnsupportedFormat, img.W, img.H)
	}
	if img.Format != vpxenc.ImageFormatI420 {
		return fmt.Errorf("%w: image format %d", vpxenc.ErrUnsupportedFormat, img.Format)
	}
	cw, ch := (img.W+1)/2, (img.H+1)/2
	need := [3]int{
		img.Stride[0]*(img.H-1) + img.W,
		img.Stride[1]*(ch-1) + cw,
		img.Stride[2]*(ch-1) + cw,
	}
	for i := range need {
		if len(img.Planes[i]) < need[i] {
			return fmt.Errorf("%w: plane %d has %d bytes, need %d", vpxenc.ErrBufferTooSmall, i, len(img.Planes[i]), need[i])
		}
	}
	return nil
}
