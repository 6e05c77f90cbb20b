//go:build novpx || (!cgo && !darwin && !linux)

package libvpx

import "github.com/thesyncim/vpxenc"

// Available always reports false in builds without an engine.
func Available(codec vpxenc.Codec) bool { return false }

// Engine is a placeholder in builds without an engine.
type Engine struct{}

// New returns vpxenc.ErrEngineUnavailable.
func New() (*Engine, error) { return nil, vpxenc.ErrEngineUnavailable }

// DefaultConfig implements vpxenc.Engine.
func (e *Engine) DefaultConfig(codec vpxenc.Codec) (vpxenc.EngineConfig, error) {
	return vpxenc.EngineConfig{}, vpxenc.ErrEngineUnavailable
}

// Open implements vpxenc.Engine.
func (e *Engine) Open(codec vpxenc.Codec, cfg *vpxenc.EngineConfig) (vpxenc.EngineSession, error) {
	return nil, vpxenc.ErrEngineUnavailable
}

var _ vpxenc.Engine = (*Engine)(nil)
