package vpxenc

import "errors"

// Common errors
var (
	ErrConfiguration     = errors.New("invalid encoder configuration")
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrDimensionMismatch = errors.New("input smaller than configured picture size")
	ErrBufferTooSmall    = errors.New("buffer too small")
	ErrAllocation        = errors.New("allocation failed")
	ErrEngine            = errors.New("engine error")
	ErrEngineUnavailable = errors.New("encoder engine not available")
	ErrCorrupted         = errors.New("session in error state")
	ErrEndOfStream       = errors.New("end of stream already signalled")
	ErrNotSupported      = errors.New("operation not supported")
	ErrReleased          = errors.New("session released")
)

// Status is the result code reported to the component host.
type Status int

const (
	StatusOK Status = iota
	StatusBadValue
	StatusBadState
	StatusCorrupted
	StatusNoMemory
	StatusOmitted
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadValue:
		return "BAD_VALUE"
	case StatusBadState:
		return "BAD_STATE"
	case StatusCorrupted:
		return "CORRUPTED"
	case StatusNoMemory:
		return "NO_MEMORY"
	case StatusOmitted:
		return "OMITTED"
	default:
		return "UNKNOWN"
	}
}

// StatusOf maps an error returned by this package to a host result code.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrAllocation):
		return StatusNoMemory
	case errors.Is(err, ErrNotSupported):
		return StatusOmitted
	case errors.Is(err, ErrReleased):
		return StatusBadState
	case errors.Is(err, ErrCorrupted),
		errors.Is(err, ErrEngine),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrEngineUnavailable):
		return StatusCorrupted
	default:
		return StatusBadValue
	}
}
