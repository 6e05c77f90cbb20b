package vpxenc

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateEncoding
	StateReconfiguring
	StateDraining
	StateError
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateEncoding:
		return "encoding"
	case StateReconfiguring:
		return "reconfiguring"
	case StateDraining:
		return "draining"
	case StateError:
		return "error"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// DrainMode selects what Drain should flush.
type DrainMode int

const (
	DrainNone DrainMode = iota
	DrainComponentWithEOS
	DrainComponentNoEOS
	DrainChain
)

// unsetTimestamp marks that no frame has been accepted since init.
const unsetTimestamp uint64 = math.MaxInt64

// Stats are cumulative counters for one session; Reset clears them.
type Stats struct {
	FramesSubmitted uint64 // frames handed to the engine
	FramesEncoded   uint64 // frame packets produced
	KeyFrames       uint64
	BytesEncoded    uint64
	EmptyOutputs    uint64 // submissions that produced no packet
	SyncRequests    uint64
	BitrateUpdates  uint64
}

// SessionOptions customise a Session. Zero values select the defaults.
type SessionOptions struct {
	Logger    *slog.Logger
	Converter ColorConverter
	Copier    ImageCopier
	Pool      BlockPool // used when Process is called with a nil pool

	// Deadline is passed to every encode call. The session is a realtime
	// encoder: the zero value (DeadlineBestQuality) means unset and selects
	// DeadlineRealtime, so best-quality encoding cannot be requested.
	Deadline Deadline
}

// Session drives one VP8/VP9 encoder instance through its lifecycle.
//
// A Session is not safe for concurrent use; the host serialises all calls.
type Session struct {
	codec   Codec
	engine  Engine
	store   ConfigStore
	log     *slog.Logger
	adapter *FrameAdapter
	pool    BlockPool
	dl      Deadline

	state   State
	cfg     SessionConfig
	engCfg  *EngineConfig
	handle  EngineSession
	pattern *TemporalPattern
	scratch []byte

	lastTimestamp  uint64
	signalledError bool
	signalledEOS   bool

	// values last seen in the store
	intraRefresh IntraRefresh
	bitrateBps   int
	requestSync  bool

	stats Stats
}

// NewSession creates an uninitialised session. Nothing is allocated until
// Start or the first Process call.
func NewSession(codec Codec, engine Engine, store ConfigStore, opts SessionOptions) (*Session, error) {
	if codec != CodecVP8 && codec != CodecVP9 {
		return nil, fmt.Errorf("%w: codec %s", ErrConfiguration, codec)
	}
	if engine == nil {
		return nil, ErrEngineUnavailable
	}
	if store == nil {
		return nil, fmt.Errorf("%w: nil config store", ErrConfiguration)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	adapter := NewFrameAdapter()
	if opts.Converter != nil {
		adapter.Converter = opts.Converter
	}
	if opts.Copier != nil {
		adapter.Copier = opts.Copier
	}
	pool := opts.Pool
	if pool == nil {
		pool = NewLinearPool(0)
	}
	dl := opts.Deadline
	if dl == DeadlineBestQuality { // unset
		dl = DeadlineRealtime
	}
	return &Session{
		codec:         codec,
		engine:        engine,
		store:         store,
		log:           logger.With("codec", codec.String()),
		adapter:       adapter,
		pool:          pool,
		dl:            dl,
		lastTimestamp: unsetTimestamp,
	}, nil
}

// Codec returns the session's codec.
func (s *Session) Codec() Codec { return s.codec }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Stats returns a copy of the session counters.
func (s *Session) Stats() Stats { return s.stats }

// EngineConfig returns a copy of the live engine configuration.
// ok is false while no encoder is open.
func (s *Session) EngineConfig() (cfg EngineConfig, ok bool) {
	if s.engCfg == nil {
		return EngineConfig{}, false
	}
	return *s.engCfg, true
}

// Start initialises the encoder if it is not already running.
func (s *Session) Start() error {
	switch {
	case s.state == StateReleased:
		return ErrReleased
	case s.signalledError:
		return fmt.Errorf("%w: session failed, reset required", ErrCorrupted)
	case s.handle != nil:
		return nil
	}
	return s.init()
}

func (s *Session) init() error {
	cfg := s.store.Snapshot()
	cfg.Codec = s.codec
	if err := cfg.Validate(); err != nil {
		return s.fail("validate config", err)
	}

	base, err := s.engine.DefaultConfig(s.codec)
	if err != nil {
		return s.fail("engine defaults", fmt.Errorf("%w: %w", ErrConfiguration, err))
	}
	res, err := buildEngineConfig(base, &cfg, s.store.SyncFramePeriod())
	if err != nil {
		return s.fail("build engine config", err)
	}
	s.engCfg = &res.Config

	s.log.Debug("vpxenc: initialising encoder",
		"width", cfg.Width,
		"height", cfg.Height,
		"bitrate_kbps", res.Config.TargetBitrateKbps,
		"mode", cfg.BitrateMode.String(),
		"fps", cfg.FrameRate,
		"layers", cfg.Layering.LayerCount,
		"kf_max_dist", res.Config.KeyframeMaxDist)

	handle, err := s.engine.Open(s.codec, s.engCfg)
	if err != nil {
		return s.fail("open encoder", fmt.Errorf("%w: %w", ErrConfiguration, err))
	}
	s.handle = handle

	for _, c := range res.Controls {
		if err := handle.Control(c.ID, c.Value); err != nil {
			return s.fail("set control", fmt.Errorf("%w: %s=%d: %w", ErrConfiguration, c.ID, c.Value, err))
		}
	}

	if uint64(cfg.Width)*uint64(cfg.Height) > math.MaxInt32/3 {
		return s.fail("allocate conversion buffer",
			fmt.Errorf("%w: %dx%d too big", ErrAllocation, cfg.Width, cfg.Height))
	}
	s.scratch = make([]byte, ScratchSize(cfg.Width, cfg.Height))

	s.cfg = cfg
	s.pattern = res.Pattern
	s.pattern.Reset()

	dyn := s.store.Dynamic()
	s.intraRefresh = dyn.IntraRefresh
	s.bitrateBps = dyn.BitrateBps
	if dyn.SyncFrameRequest {
		// the first frame is a key frame anyway
		s.store.ClearSyncFrameRequest()
	}
	s.requestSync = false

	s.state = StateReady
	return nil
}

// Process encodes one frame request. Packets are copied into blocks fetched
// from pool (or the session's default pool when nil).
//
// The returned error maps to a host result through StatusOf. Per-frame
// input errors leave the session usable; engine failures move it to
// StateError until Reset.
func (s *Session) Process(req *FrameRequest, pool BlockPool) (Output, error) {
	out := Output{
		Flags:      req.Flags,
		FrameIndex: req.FrameIndex,
		Timestamp:  req.Timestamp,
		Processed:  true,
	}
	switch {
	case s.state == StateReleased:
		return out, ErrReleased
	case s.signalledError:
		return out, fmt.Errorf("%w: session failed, reset required", ErrCorrupted)
	case s.signalledEOS:
		return out, ErrEndOfStream
	}
	if s.handle == nil {
		if err := s.init(); err != nil {
			return out, err
		}
	}
	if pool == nil {
		pool = s.pool
	}

	if len(req.Buffers) == 0 {
		// flush marker: nothing reaches the engine
		out.Flags = req.Flags & FlagEndOfStream
		return out, nil
	}
	view := req.Buffers[0]
	if view == nil {
		return out, fmt.Errorf("%w: nil frame view", ErrUnsupportedFormat)
	}

	img, err := s.adapter.Adapt(view, &s.cfg, s.store.ColorAspects(), s.scratch)
	if err != nil {
		s.log.Error("vpxenc: cannot adapt input frame", "frame", req.FrameIndex, "error", err)
		return out, err
	}

	flags, layerID := s.pattern.NextFlags()
	s.state = StateReconfiguring
	flags, err = s.applyDynamic(flags)
	if err != nil {
		return out, err
	}
	s.state = StateEncoding

	eos := req.EndOfStream()
	ts := req.Timestamp
	duration := s.frameDuration(ts)
	s.lastTimestamp = ts

	s.stats.FramesSubmitted++
	if err := s.handle.Encode(&img, int64(ts), duration, flags, s.dl); err != nil {
		return out, s.fail("encode frame", fmt.Errorf("%w: %w", ErrEngine, err))
	}

	for {
		pkt, ok := s.handle.NextPacket()
		if !ok {
			break
		}
		if pkt.Kind != PacketFrame {
			continue
		}
		block, err := pool.FetchLinearBlock(len(pkt.Data))
		if err != nil {
			s.log.Error("vpxenc: fetch output block failed", "size", len(pkt.Data), "error", err)
			if !errors.Is(err, ErrAllocation) {
				err = fmt.Errorf("%w: %w", ErrAllocation, err)
			}
			return out, err
		}
		copy(block, pkt.Data)

		out.Packets = append(out.Packets, EncodedPacket{
			Data:            block,
			Timestamp:       pkt.PTS,
			FrameIndex:      req.FrameIndex,
			KeyFrame:        pkt.KeyFrame,
			EndOfStream:     eos,
			TemporalLayerID: layerID,
		})
		out.Timestamp = uint64(pkt.PTS)
		s.stats.FramesEncoded++
		s.stats.BytesEncoded += uint64(len(pkt.Data))
		if pkt.KeyFrame {
			s.stats.KeyFrames++
		}
	}

	if len(out.Packets) == 0 {
		out.Processed = false
		s.stats.EmptyOutputs++
		return out, nil
	}
	out.Flags = 0
	if eos {
		out.Flags = FlagEndOfStream
		s.signalledEOS = true
		s.log.Debug("vpxenc: signalled end of stream", "frame", req.FrameIndex)
	}
	return out, nil
}

// applyDynamic diffs the dynamic parameters against the values last seen.
func (s *Session) applyDynamic(flags EncodeFlags) (EncodeFlags, error) {
	dyn := s.store.Dynamic()

	if dyn.IntraRefresh != s.intraRefresh {
		s.intraRefresh = dyn.IntraRefresh
		s.log.Debug("vpxenc: intra refresh request", "mode", dyn.IntraRefresh.Mode, "period", dyn.IntraRefresh.Period)
	}

	if dyn.SyncFrameRequest != s.requestSync {
		if dyn.SyncFrameRequest {
			s.store.ClearSyncFrameRequest()
			flags |= EFlagForceKeyframe
			s.stats.SyncRequests++
			s.log.Debug("vpxenc: sync frame request")
		}
		s.requestSync = false
	}

	if dyn.BitrateBps != s.bitrateBps {
		s.bitrateBps = dyn.BitrateBps
		s.cfg.BitrateBps = dyn.BitrateBps
		s.engCfg.TargetBitrateKbps = TargetKbps(dyn.BitrateBps)
		if s.engCfg.TSNumberLayers > 0 {
			setLayerBitrates(s.engCfg, s.pattern.Layout(), &s.cfg)
		}
		if err := s.handle.SetConfig(s.engCfg); err != nil {
			return flags, s.fail("update bitrate", fmt.Errorf("%w: %w", ErrEngine, err))
		}
		s.stats.BitrateUpdates++
		s.log.Debug("vpxenc: bitrate updated", "kbps", s.engCfg.TargetBitrateKbps)
	}
	return flags, nil
}

// frameDuration is the gap to the previous frame, or one nominal frame
// interval when ts does not advance.
func (s *Session) frameDuration(ts uint64) uint64 {
	if ts > s.lastTimestamp {
		return uint64(uint32(ts - s.lastTimestamp))
	}
	return nominalFrameDuration(s.cfg.FrameRate)
}

func nominalFrameDuration(fps float64) uint64 {
	if fps < 0.001 {
		fps = 30
	}
	return uint64(1000000/fps + 0.5)
}

// Drain flushes buffered output. The encoder runs without lookahead, so
// there is never anything left to drain.
func (s *Session) Drain(mode DrainMode, pool BlockPool) error {
	_ = pool
	if s.state == StateReleased {
		return ErrReleased
	}
	switch mode {
	case DrainNone:
		s.log.Warn("vpxenc: drain with DrainNone is a no-op")
		return nil
	case DrainChain:
		s.log.Warn("vpxenc: chain drain not supported")
		return ErrNotSupported
	}
	if s.state == StateReady || s.state == StateEncoding {
		s.state = StateDraining
	}
	return nil
}

// Flush discards the encoder; the next frame reinitialises it.
func (s *Session) Flush() error {
	return s.Stop()
}

// Stop releases the encoder and clears the error and end-of-stream latches.
func (s *Session) Stop() error {
	if s.state == StateReleased {
		return ErrReleased
	}
	s.releaseResources()
	s.lastTimestamp = unsetTimestamp
	s.signalledError = false
	s.signalledEOS = false
	s.state = StateUninitialized
	return nil
}

// Reset is Stop plus clearing the statistics.
func (s *Session) Reset() error {
	if err := s.Stop(); err != nil {
		return err
	}
	s.stats = Stats{}
	return nil
}

// Release frees everything the session owns. It is safe to call more than once.
func (s *Session) Release() error {
	s.releaseResources()
	s.state = StateReleased
	return nil
}

// fail moves the session to StateError, releasing the encoder and scratch buffer.
func (s *Session) fail(op string, err error) error {
	s.log.Error("vpxenc: "+op+" failed", "error", err)
	s.releaseResources()
	s.signalledError = true
	s.state = StateError
	return err
}

func (s *Session) releaseResources() {
	if s.handle != nil {
		if err := s.handle.Close(); err != nil {
			s.log.Warn("vpxenc: closing encoder", "error", err)
		}
		s.handle = nil
	}
	s.engCfg = nil
	s.scratch = nil
	s.pattern = nil
}
