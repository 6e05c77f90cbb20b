package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/thesyncim/vpxenc"
)

// frameSource yields frames until io.EOF. A returned view is valid until
// the next call.
type frameSource interface {
	Next() (*vpxenc.FrameView, error)
}

type patternSource struct {
	gen *vpxenc.PatternGenerator
	n   uint64
}

func newPatternSource(gen *vpxenc.PatternGenerator) *patternSource {
	return &patternSource{gen: gen}
}

func (p *patternSource) Next() (*vpxenc.FrameView, error) {
	view, err := p.gen.Frame(p.n)
	p.n++
	return view, err
}

// rawSource reads back-to-back frames of a fixed pixel format.
type rawSource struct {
	r      io.Reader
	format vpxenc.PixelFormat
	width  int
	height int
	buf    []byte
}

func newRawSource(r io.Reader, format vpxenc.PixelFormat, width, height int) *rawSource {
	return &rawSource{
		r:      r,
		format: format,
		width:  width,
		height: height,
		buf:    make([]byte, format.FrameSize(width, height)),
	}
}

func (s *rawSource) Next() (*vpxenc.FrameView, error) {
	if _, err := io.ReadFull(s.r, s.buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated %s frame: %w", s.format, err)
		}
		return nil, err
	}
	return s.format.View(s.buf, s.width, s.height)
}
