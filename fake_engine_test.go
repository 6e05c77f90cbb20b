package vpxenc

import (
	"errors"
	"fmt"
)

type encodeCall struct {
	img      Image
	pts      int64
	duration uint64
	flags    EncodeFlags
	deadline Deadline
}

// fakeEngine records what a session asks of the engine and emits one frame
// packet per encode, or none while skip is set.
type fakeEngine struct {
	defaults EngineConfig
	openErr  error

	sessions []*fakeSession
}

func newFakeEngine(codec Codec) *fakeEngine {
	return &fakeEngine{defaults: DefaultEngineConfig(codec)}
}

func (e *fakeEngine) DefaultConfig(codec Codec) (EngineConfig, error) {
	return e.defaults, nil
}

func (e *fakeEngine) Open(codec Codec, cfg *EngineConfig) (EngineSession, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	s := &fakeSession{opened: *cfg, packetsPerFrame: 1}
	e.sessions = append(e.sessions, s)
	return s, nil
}

// last returns the most recently opened instance.
func (e *fakeEngine) last() *fakeSession {
	if len(e.sessions) == 0 {
		return nil
	}
	return e.sessions[len(e.sessions)-1]
}

type fakeSession struct {
	opened   EngineConfig
	configs  []EngineConfig
	controls []ControlSetting
	encodes  []encodeCall
	closed   int

	packetsPerFrame int
	skip            bool
	extraStats      bool
	encodeErr       error
	setConfigErr    error

	pending []EnginePacket
}

func (s *fakeSession) SetConfig(cfg *EngineConfig) error {
	if s.setConfigErr != nil {
		return s.setConfigErr
	}
	s.configs = append(s.configs, *cfg)
	return nil
}

func (s *fakeSession) Control(id Control, value int) error {
	s.controls = append(s.controls, ControlSetting{id, value})
	return nil
}

func (s *fakeSession) Encode(img *Image, pts int64, duration uint64, flags EncodeFlags, deadline Deadline) error {
	if s.closed > 0 {
		return errors.New("encode on closed instance")
	}
	if s.encodeErr != nil {
		return s.encodeErr
	}
	s.encodes = append(s.encodes, encodeCall{img: *img, pts: pts, duration: duration, flags: flags, deadline: deadline})
	s.pending = s.pending[:0]
	if s.extraStats {
		s.pending = append(s.pending, EnginePacket{Kind: PacketStats, Data: []byte{1, 2}})
	}
	if s.skip {
		return nil
	}
	key := len(s.encodes) == 1 || flags.Has(EFlagForceKeyframe)
	for i := 0; i < s.packetsPerFrame; i++ {
		s.pending = append(s.pending, EnginePacket{
			Kind:     PacketFrame,
			Data:     []byte(fmt.Sprintf("frame-%d-%d", len(s.encodes), i)),
			PTS:      pts,
			Duration: duration,
			KeyFrame: key,
		})
	}
	return nil
}

func (s *fakeSession) NextPacket() (EnginePacket, bool) {
	if len(s.pending) == 0 {
		return EnginePacket{}, false
	}
	p := s.pending[0]
	s.pending = s.pending[1:]
	return p, true
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

// failingPool refuses every fetch.
type failingPool struct{}

func (failingPool) FetchLinearBlock(size int) ([]byte, error) {
	return nil, errors.New("pool exhausted")
}
