//go:build (darwin || linux) && !cgo && !novpx

// VP8/VP9 engine via libmedia_vpxenc using purego.
//
// Library locations checked (in order):
//   - VPXENC_LIB_PATH environment variable (file or directory)
//   - next to the executable and under ../lib
//   - build/ relative to the working directory or module root
//   - System library paths

package libvpx

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/thesyncim/vpxenc"
)

var (
	libOnce    sync.Once
	libHandle  uintptr
	libInitErr error
)

// libmedia_vpxenc function pointers
var (
	vpxencCodecAvailable func(codec int32) int32
	vpxencDefaultConfig  func(codec int32, out uintptr) int32
	vpxencOpen           func(codec int32, cfg uintptr) uint64
	vpxencSetConfig      func(handle uint64, cfg uintptr) int32
	vpxencControl        func(handle uint64, id, value int32) int32
	vpxencEncode         func(handle uint64, width, height, displayW, displayH int32, y, u, v uintptr, strideY, strideU, strideV int32, pts int64, duration, flags, deadline uint64) int32
	vpxencNextPacket     func(handle uint64, out uintptr) int32
	vpxencDestroy        func(handle uint64)
	vpxencLastError      func() uintptr
)

func loadLib() error {
	libOnce.Do(func() {
		libInitErr = openLib()
	})
	return libInitErr
}

func openLib() error {
	var lastErr error
	for _, path := range libPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		libHandle = handle
		registerSymbols()
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("%w: failed to load libmedia_vpxenc: %w", vpxenc.ErrEngineUnavailable, lastErr)
	}
	return fmt.Errorf("%w: libmedia_vpxenc not found", vpxenc.ErrEngineUnavailable)
}

func registerSymbols() {
	purego.RegisterLibFunc(&vpxencCodecAvailable, libHandle, "media_vpxenc_codec_available")
	purego.RegisterLibFunc(&vpxencDefaultConfig, libHandle, "media_vpxenc_default_config")
	purego.RegisterLibFunc(&vpxencOpen, libHandle, "media_vpxenc_open")
	purego.RegisterLibFunc(&vpxencSetConfig, libHandle, "media_vpxenc_set_config")
	purego.RegisterLibFunc(&vpxencControl, libHandle, "media_vpxenc_control")
	purego.RegisterLibFunc(&vpxencEncode, libHandle, "media_vpxenc_encode")
	purego.RegisterLibFunc(&vpxencNextPacket, libHandle, "media_vpxenc_next_packet")
	purego.RegisterLibFunc(&vpxencDestroy, libHandle, "media_vpxenc_destroy")
	purego.RegisterLibFunc(&vpxencLastError, libHandle, "media_vpxenc_last_error")
}

func lastError() string {
	ptr := vpxencLastError()
	if ptr == 0 {
		return "unknown error"
	}
	return cString(ptr)
}

// Available reports whether the engine can encode codec.
func Available(codec vpxenc.Codec) bool {
	id, err := codecID(codec)
	if err != nil || loadLib() != nil {
		return false
	}
	return vpxencCodecAvailable(id) != 0
}

// Engine implements vpxenc.Engine on top of libmedia_vpxenc.
type Engine struct{}

// New loads the native library.
func New() (*Engine, error) {
	if err := loadLib(); err != nil {
		return nil, err
	}
	return &Engine{}, nil
}

// DefaultConfig implements vpxenc.Engine.
func (e *Engine) DefaultConfig(codec vpxenc.Codec) (vpxenc.EngineConfig, error) {
	id, err := codecID(codec)
	if err != nil {
		return vpxenc.EngineConfig{}, err
	}
	out := new(cConfig)
	if rc := vpxencDefaultConfig(id, uintptr(unsafe.Pointer(out))); rc != resultOK {
		return vpxenc.EngineConfig{}, fmt.Errorf("%w: %s", vpxenc.ErrEngine, lastError())
	}
	return fromCConfig(out), nil
}

// Open implements vpxenc.Engine.
func (e *Engine) Open(codec vpxenc.Codec, cfg *vpxenc.EngineConfig) (vpxenc.EngineSession, error) {
	id, err := codecID(codec)
	if err != nil {
		return nil, err
	}
	c := new(cConfig)
	toCConfig(cfg, c)
	handle := vpxencOpen(id, uintptr(unsafe.Pointer(c)))
	runtime.KeepAlive(c)
	if handle == 0 {
		return nil, fmt.Errorf("failed to create %s encoder: %s", codec, lastError())
	}
	return &session{handle: handle, cfg: c, pkt: new(cPacket)}, nil
}

type session struct {
	handle uint64
	cfg    *cConfig
	pkt    *cPacket
}

func (s *session) SetConfig(cfg *vpxenc.EngineConfig) error {
	if s.handle == 0 {
		return errEncoderClosed
	}
	toCConfig(cfg, s.cfg)
	if rc := vpxencSetConfig(s.handle, uintptr(unsafe.Pointer(s.cfg))); rc != resultOK {
		return errors.New(lastError())
	}
	return nil
}

func (s *session) Control(id vpxenc.Control, value int) error {
	if s.handle == 0 {
		return errEncoderClosed
	}
	if rc := vpxencControl(s.handle, int32(id), int32(value)); rc != resultOK {
		return errors.New(lastError())
	}
	return nil
}

func (s *session) Encode(img *vpxenc.Image, pts int64, duration uint64, flags vpxenc.EncodeFlags, deadline vpxenc.Deadline) error {
	if s.handle == 0 {
		return errEncoderClosed
	}
	var rc int32
	if img == nil {
		rc = vpxencEncode(s.handle, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, pts, duration, uint64(flags), uint64(deadline))
	} else {
		if err := checkImage(img); err != nil {
			return err
		}
		rc = vpxencEncode(s.handle,
			int32(img.W), int32(img.H), int32(img.DisplayW), int32(img.DisplayH),
			uintptr(unsafe.Pointer(&img.Planes[0][0])),
			uintptr(unsafe.Pointer(&img.Planes[1][0])),
			uintptr(unsafe.Pointer(&img.Planes[2][0])),
			int32(img.Stride[0]), int32(img.Stride[1]), int32(img.Stride[2]),
			pts, duration, uint64(flags), uint64(deadline))
		runtime.KeepAlive(img)
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
	if vpxencNextPacket(s.handle, uintptr(unsafe.Pointer(s.pkt))) == 0 {
		return vpxenc.EnginePacket{}, false
	}
	p := s.pkt
	out := vpxenc.EnginePacket{
		Kind:     packetKind(p.Kind),
		PTS:      p.PTS,
		Duration: p.Duration,
		KeyFrame: p.KeyFrame != 0,
	}
	if p.Data != 0 && p.Size > 0 {
		out.Data = unsafe.Slice((*byte)(unsafe.Pointer(uintptr(p.Data))), int(p.Size))
	}
	return out, true
}

func (s *session) Close() error {
	if s.handle != 0 {
		vpxencDestroy(s.handle)
		s.handle = 0
	}
	return nil
}

var _ vpxenc.Engine = (*Engine)(nil)
