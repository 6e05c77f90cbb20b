package vpxenc

import (
	"testing"
)

func TestCodec_String(t *testing.T) {
	tests := []struct {
		codec Codec
		want  string
	}{
		{CodecVP8, "VP8"},
		{CodecVP9, "VP9"},
		{CodecUnknown, "Unknown"},
		{Codec(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.codec.String(); got != tt.want {
				t.Errorf("Codec.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodec_MimeType(t *testing.T) {
	tests := []struct {
		codec Codec
		want  string
	}{
		{CodecVP8, "video/VP8"},
		{CodecVP9, "video/VP9"},
		{CodecUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.codec.String(), func(t *testing.T) {
			if got := tt.codec.MimeType(); got != tt.want {
				t.Errorf("Codec.MimeType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodec_FourCC(t *testing.T) {
	if got := CodecVP8.FourCC(); string(got[:]) != "VP80" {
		t.Errorf("VP8 FourCC = %q", got)
	}
	if got := CodecVP9.FourCC(); string(got[:]) != "VP90" {
		t.Errorf("VP9 FourCC = %q", got)
	}
}

func TestCodec_DefaultPayloadType(t *testing.T) {
	if CodecVP8.DefaultPayloadType() != 96 || CodecVP9.DefaultPayloadType() != 98 {
		t.Errorf("payload types = %d/%d", CodecVP8.DefaultPayloadType(), CodecVP9.DefaultPayloadType())
	}
	if CodecVP8.ClockRate() != 90000 {
		t.Errorf("ClockRate() = %d", CodecVP8.ClockRate())
	}
}

func TestParseCodec(t *testing.T) {
	tests := []struct {
		in   string
		want Codec
		ok   bool
	}{
		{"vp8", CodecVP8, true},
		{"VP9", CodecVP9, true},
		{"h264", CodecUnknown, false},
		{"", CodecUnknown, false},
	}
	for _, tt := range tests {
		got, ok := ParseCodec(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCodec(%q) = %v, %v", tt.in, got, ok)
		}
	}
}

func TestParseBitrateMode(t *testing.T) {
	for _, m := range []BitrateMode{BitrateVariable, BitrateConstant} {
		got, ok := ParseBitrateMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseBitrateMode(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseBitrateMode("cq"); ok {
		t.Error("cq accepted")
	}
}

func TestRateControlMode_String(t *testing.T) {
	tests := []struct {
		mode RateControlMode
		want string
	}{
		{RateControlVBR, "VBR"},
		{RateControlCBR, "CBR"},
		{RateControlCQ, "CQ"},
		{RateControlQ, "Q"},
		{RateControlMode(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.mode.String(); got != tt.want {
				t.Errorf("RateControlMode.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusOK},
		{ErrAllocation, StatusNoMemory},
		{ErrNotSupported, StatusOmitted},
		{ErrReleased, StatusBadState},
		{ErrCorrupted, StatusCorrupted},
		{ErrEngine, StatusCorrupted},
		{ErrConfiguration, StatusCorrupted},
		{ErrUnsupportedFormat, StatusBadValue},
		{ErrDimensionMismatch, StatusBadValue},
		{ErrEndOfStream, StatusBadValue},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
