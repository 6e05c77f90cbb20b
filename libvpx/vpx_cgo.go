//go:build cgo && !novpx

// VP8/VP9 engine linked directly against libvpx. The media_vpxenc shim is
// compiled into the package, so only libvpx itself must be installed.

package libvpx

/*
#cgo pkg-config: vpx
#cgo CFLAGS: -I${SRCDIR}/clib -O2

#include "media_vpxenc.c"
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/thesyncim/vpxenc"
)

func lastError() string {
	cstr := C.media_vpxenc_last_error()
	if cstr == nil {
		return "unknown error"
	}
	return C.GoString(cstr)
}

func cfgPtr(c *cConfig) *C.media_vpxenc_config_t {
	return (*C.media_vpxenc_config_t)(unsafe.Pointer(c))
}

// Available reports whether the engine can encode codec.
func Available(codec vpxenc.Codec) bool {
	id, err := codecID(codec)
	if err != nil {
		return false
	}
	return C.media_vpxenc_codec_available(C.int(id)) != 0
}

// Engine implements vpxenc.Engine on top of libvpx.
type Engine struct{}

// New returns an engine. With cgo the library is linked at build time.
func New() (*Engine, error) {
	return &Engine{}, nil
}

// DefaultConfig implements vpxenc.Engine.
func (e *Engine) DefaultConfig(codec vpxenc.Codec) (vpxenc.EngineConfig, error) {
	id, err := codecID(codec)
	if err != nil {
		return vpxenc.EngineConfig{}, err
	}
	var out cConfig
	if rc := C.media_vpxenc_default_config(C.int(id), cfgPtr(&out)); rc != resultOK {
		return vpxenc.EngineConfig{}, fmt.Errorf("%w: %s", vpxenc.ErrEngine, lastError())
	}
	return fromCConfig(&out), nil
}

// Open implements vpxenc.Engine.
func (e *Engine) Open(codec vpxenc.Codec, cfg *vpxenc.EngineConfig) (vpxenc.EngineSession, error) {
	id, err := codecID(codec)
	if err != nil {
		return nil, err
	}
	var c cConfig
	toCConfig(cfg, &c)
	handle := C.media_vpxenc_open(C.int(id), cfgPtr(&c))
	if handle == 0 {
		return nil, fmt.Errorf("failed to create %s encoder: %s", codec, lastError())
	}
	return &session{handle: handle}, nil
}

type session struct {
	handle C.uint64_t
	cfg    cConfig
	pkt    C.media_vpxenc_packet_t
}

func (s *session) SetConfig(cfg *vpxenc.EngineConfig) error {
	if s.handle == 0 {
		return errEncoderClosed
	}
	toCConfig(cfg, &s.cfg)
	if rc := C.media_vpxenc_set_config(s.handle, cfgPtr(&s.cfg)); rc != resultOK {
		return errors.New(lastError())
	}
	return nil
}

func (s *session) Control(id vpxenc.Control, value int) error {
	if s.handle == 0 {
		return errEncoderClosed
	}
	if rc := C.media_vpxenc_control(s.handle, C.int(id), C.int(value)); rc != resultOK {
		return errors.New(lastError())
	}
	return nil
}

func planePtr(p []byte) *C.uint8_t {
	return (*C.uint8_t)(unsafe.Pointer(&p[0]))
}

func (s *session) Encode(img *vpxenc.Image, pts int64, duration uint64, flags vpxenc.EncodeFlags, deadline vpxenc.Deadline) error {
	if s.handle == 0 {
		return errEncoderClosed
	}
	var rc C.int
	if img == nil {
		rc = C.media_vpxenc_encode(s.handle, 0, 0, 0, 0, nil, nil, nil, 0, 0, 0,
			C.int64_t(pts), C.uint64_t(duration), C.uint64_t(flags), C.uint64_t(deadline))
	} else {
		if err := checkImage(img); err != nil {
			return err
		}
		rc = C.media_vpxenc_encode(s.handle,
			C.int(img.W), C.int(img.H), C.int(img.DisplayW), C.int(img.DisplayH),
			planePtr(img.Planes[0]), planePtr(img.Planes[1]), planePtr(img.Planes[2]),
			C.int(img.Stride[0]), C.int(img.Stride[1]), C.int(img.Stride[2]),
			C.int64_t(pts), C.uint64_t(duration), C.uint64_t(flags), C.uint64_t(deadline))
	}
	if rc != resultOK {
		return errors.New(lastError())
	}
	return nil
}

func (s *session) NextPacket() (vpxenc.EnginePacket, bool) {
	if s.handle == 0 {
		return vpxenc.EnginePacket{}, false
	}
	if C.media_vpxenc_next_packet(s.handle, &s.pkt) == 0 {
		return vpxenc.EnginePacket{}, false
	}
	out := vpxenc.EnginePacket{
		Kind:     packetKind(int32(s.pkt.kind)),
		PTS:      int64(s.pkt.pts),
		Duration: uint64(s.pkt.duration),
		KeyFrame: s.pkt.key_frame != 0,
	}
	if s.pkt.data != 0 && s.pkt.size > 0 {
		out.Data = unsafe.Slice((*byte)(unsafe.Pointer(uintptr(s.pkt.data))), int(s.pkt.size))
	}
	return out, true
}

func (s *session) Close() error {
	if s.handle != 0 {
		C.media_vpxenc_destroy(s.handle)
		s.handle = 0
	}
	return nil
}

var _ vpxenc.Engine = (*Engine)(nil)
