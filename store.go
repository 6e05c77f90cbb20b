package vpxenc

import (
	"fmt"
	"sync"
)

// DynamicParams are the settings a session re-reads before every frame.
type DynamicParams struct {
	IntraRefresh     IntraRefresh
	BitrateBps       int
	SyncFrameRequest bool
}

// ConfigStore is the session's view of the host parameter system.
// Every call takes and releases the store's own lock.
type ConfigStore interface {
	// Snapshot returns a copy of the full configuration.
	Snapshot() SessionConfig

	// Dynamic returns the settings that may change mid-stream.
	Dynamic() DynamicParams

	// ClearSyncFrameRequest resets a pending sync-frame request.
	ClearSyncFrameRequest()

	// ColorAspects returns the coded colour aspects.
	ColorAspects() ColorAspects

	// SyncFramePeriod returns the sync interval in frames, 0 for none.
	SyncFramePeriod() uint32
}

// Params is the default in-memory ConfigStore.
//
// Setters validate their input the way the host parameter system does:
// out-of-range sizes are rejected, low bitrates are raised to the minimum and
// layering ratios are clamped.
type Params struct {
	mu          sync.Mutex
	cfg         SessionConfig
	requestSync bool
}

// NewParams creates a store initialised with codec defaults.
func NewParams(codec Codec) *Params {
	return &Params{cfg: DefaultSessionConfig(codec)}
}

// NewParamsFrom creates a store from cfg after validating it.
func NewParamsFrom(cfg SessionConfig) (*Params, error) {
	p := &Params{}
	if err := p.Apply(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply replaces the whole configuration.
func (p *Params) Apply(cfg SessionConfig) error {
	cfg = cfg.clone()
	if cfg.BitrateBps < MinBitrateBps {
		cfg.BitrateBps = MinBitrateBps
	}
	cfg.Layering = cfg.Layering.normalize()
	cfg.ColorAspects = cfg.ColorAspects.clamp()
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
	return nil
}

// Snapshot implements ConfigStore.
func (p *Params) Snapshot() SessionConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.clone()
}

// Dynamic implements ConfigStore.
func (p *Params) Dynamic() DynamicParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return DynamicParams{
		IntraRefresh:     p.cfg.IntraRefresh,
		BitrateBps:       p.cfg.BitrateBps,
		SyncFrameRequest: p.requestSync,
	}
}

// ClearSyncFrameRequest implements ConfigStore.
func (p *Params) ClearSyncFrameRequest() {
	p.mu.Lock()
	p.requestSync = false
	p.mu.Unlock()
}

// ColorAspects implements ConfigStore.
func (p *Params) ColorAspects() ColorAspects {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.ColorAspects
}

// SyncFramePeriod implements ConfigStore.
func (p *Params) SyncFramePeriod() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.SyncFramePeriod()
}

// SetPictureSize sets the coded picture size.
func (p *Params) SetPictureSize(width, height int) error {
	if err := validateSize(width, height); err != nil {
		return err
	}
	p.mu.Lock()
	p.cfg.Width, p.cfg.Height = width, height
	p.mu.Unlock()
	return nil
}

// SetBitrate updates the target bitrate. Values below MinBitrateBps are raised.
func (p *Params) SetBitrate(bps int) error {
	if bps > MaxBitrateBps {
		return fmt.Errorf("%w: bitrate %d above %d", ErrConfiguration, bps, MaxBitrateBps)
	}
	if bps < MinBitrateBps {
		bps = MinBitrateBps
	}
	p.mu.Lock()
	p.cfg.BitrateBps = bps
	p.mu.Unlock()
	return nil
}

// SetBitrateMode selects constant or variable bitrate.
func (p *Params) SetBitrateMode(mode BitrateMode) error {
	if mode != BitrateConstant && mode != BitrateVariable {
		return fmt.Errorf("%w: bitrate mode %d", ErrConfiguration, mode)
	}
	p.mu.Lock()
	p.cfg.BitrateMode = mode
	p.mu.Unlock()
	return nil
}

// SetFrameRate sets the nominal frame rate.
func (p *Params) SetFrameRate(fps float64) error {
	if !(fps > 0) {
		return fmt.Errorf("%w: frame rate %v must be positive", ErrConfiguration, fps)
	}
	p.mu.Lock()
	p.cfg.FrameRate = fps
	p.mu.Unlock()
	return nil
}

// SetTemporalLayering sets the layer count and per-layer bitrate ratios.
func (p *Params) SetTemporalLayering(l TemporalLayering) {
	l = l.normalize()
	p.mu.Lock()
	p.cfg.Layering = l
	p.mu.Unlock()
}

// SetSyncFrameInterval sets the sync interval in microseconds.
// Negative values and SyncIntervalNever disable periodic sync frames.
func (p *Params) SetSyncFrameInterval(us int64) {
	p.mu.Lock()
	p.cfg.SyncInterval = us
	p.mu.Unlock()
}

// SetIntraRefresh records the intra-refresh setting.
func (p *Params) SetIntraRefresh(ir IntraRefresh) {
	p.mu.Lock()
	p.cfg.IntraRefresh = ir
	p.mu.Unlock()
}

// SetQuantizer sets the quantizer bounds; 0 leaves a bound at the engine default.
func (p *Params) SetQuantizer(minQ, maxQ int) error {
	if minQ < 0 || maxQ < 0 || minQ > 63 || maxQ > 63 {
		return fmt.Errorf("%w: quantizer bounds %d..%d", ErrConfiguration, minQ, maxQ)
	}
	p.mu.Lock()
	p.cfg.MinQuantizer, p.cfg.MaxQuantizer = minQ, maxQ
	p.mu.Unlock()
	return nil
}

// SetErrorResilience toggles error-resilient coding.
func (p *Params) SetErrorResilience(on bool) {
	p.mu.Lock()
	p.cfg.ErrorResilience = on
	p.mu.Unlock()
}

// SetColorAspects sets the input colour aspects; the coded aspects follow them.
func (p *Params) SetColorAspects(c ColorAspects) {
	c = c.clamp()
	p.mu.Lock()
	p.cfg.ColorAspects = c
	p.mu.Unlock()
}

// RequestSyncFrame asks for the next submitted frame to be a key frame.
func (p *Params) RequestSyncFrame() {
	p.mu.Lock()
	p.requestSync = true
	p.mu.Unlock()
}

var _ ConfigStore = (*Params)(nil)
