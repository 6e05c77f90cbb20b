package vpxenc

// Codec identifies the VPx bitstream produced by an engine.
type Codec int

const (
	CodecUnknown Codec = iota
	CodecVP8
	CodecVP9
)

func (c Codec) String() string {
	switch c {
	case CodecVP8:
		return "VP8"
	case CodecVP9:
		return "VP9"
	default:
		return "Unknown"
	}
}

// MimeType returns the MIME type for this codec.
func (c Codec) MimeType() string {
	switch c {
	case CodecVP8:
		return "video/VP8"
	case CodecVP9:
		return "video/VP9"
	default:
		return ""
	}
}

// FourCC returns the IVF container tag for this codec.
func (c Codec) FourCC() [4]byte {
	switch c {
	case CodecVP9:
		return [4]byte{'V', 'P', '9', '0'}
	default:
		return [4]byte{'V', 'P', '8', '0'}
	}
}

// ClockRate returns the RTP clock rate for this codec.
func (c Codec) ClockRate() uint32 {
	// All video codecs use 90kHz clock
	return 90000
}

// DefaultPayloadType returns a typical payload type for this codec.
// Note: Actual payload type is negotiated via SDP.
func (c Codec) DefaultPayloadType() uint8 {
	switch c {
	case CodecVP9:
		return 98
	default:
		return 96
	}
}

// ParseCodec parses a codec name such as "vp8" or "VP9".
func ParseCodec(s string) (Codec, bool) {
	switch s {
	case "vp8", "VP8":
		return CodecVP8, true
	case "vp9", "VP9":
		return CodecVP9, true
	default:
		return CodecUnknown, false
	}
}

// BitrateMode is the rate control requested by the host.
type BitrateMode int

const (
	BitrateVariable BitrateMode = iota
	BitrateConstant
)

func (m BitrateMode) String() string {
	switch m {
	case BitrateVariable:
		return "VBR"
	case BitrateConstant:
		return "CBR"
	default:
		return "Unknown"
	}
}

// ParseBitrateMode parses "vbr"/"variable" and "cbr"/"constant".
func ParseBitrateMode(s string) (BitrateMode, bool) {
	switch s {
	case "vbr", "VBR", "variable":
		return BitrateVariable, true
	case "cbr", "CBR", "constant":
		return BitrateConstant, true
	default:
		return BitrateVariable, false
	}
}

// RateControlMode is the engine end-usage setting.
type RateControlMode int

const (
	RateControlVBR RateControlMode = iota // Variable bitrate
	RateControlCBR                        // Constant bitrate
	RateControlCQ                         // Constrained quality
	RateControlQ                          // Constant quality
)

func (r RateControlMode) String() string {
	switch r {
	case RateControlVBR:
		return "VBR"
	case RateControlCBR:
		return "CBR"
	case RateControlCQ:
		return "CQ"
	case RateControlQ:
		return "Q"
	default:
		return "Unknown"
	}
}

// EncodingPass mirrors vpx_enc_pass.
type EncodingPass int

const (
	PassOne EncodingPass = iota
	PassFirst
	PassLast
)

// KeyframeMode mirrors vpx_kf_mode.
type KeyframeMode int

const (
	KeyframeDisabled KeyframeMode = iota
	KeyframeAuto
)
