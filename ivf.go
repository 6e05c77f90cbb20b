package vpxenc

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	ivfSignature       = "DKIF"
	ivfFileHeaderSize  = 32
	ivfFrameHeaderSize = 12
)

// IVFHeader is the 32-byte IVF file header.
type IVFHeader struct {
	FourCC      [4]byte
	Width       uint16
	Height      uint16
	TimebaseDen uint32
	TimebaseNum uint32
	NumFrames   uint32
}

// IVFWriter writes encoded packets into an IVF container.
// Timestamps are written in the header's timebase.
type IVFWriter struct {
	w      io.Writer
	header IVFHeader
	frames uint32
	buf    [ivfFrameHeaderSize]byte
}

// NewIVFWriter writes the file header and returns a writer. Packet PTS in
// microseconds are stored as-is with a 1/1000000 timebase.
func NewIVFWriter(w io.Writer, codec Codec, width, height int) (*IVFWriter, error) {
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return nil, fmt.Errorf("%w: ivf size %dx%d", ErrConfiguration, width, height)
	}
	iw := &IVFWriter{
		w: w,
		header: IVFHeader{
			FourCC:      codec.FourCC(),
			Width:       uint16(width),
			Height:      uint16(height),
			TimebaseDen: 1000000,
			TimebaseNum: 1,
		},
	}
	if err := iw.writeHeader(); err != nil {
		return nil, err
	}
	return iw, nil
}

func (iw *IVFWriter) writeHeader() error {
	var h [ivfFileHeaderSize]byte
	copy(h[0:4], ivfSignature)
	binary.LittleEndian.PutUint16(h[4:], 0)
	binary.LittleEndian.PutUint16(h[6:], ivfFileHeaderSize)
	copy(h[8:12], iw.header.FourCC[:])
	binary.LittleEndian.PutUint16(h[12:], iw.header.Width)
	binary.LittleEndian.PutUint16(h[14:], iw.header.Height)
	binary.LittleEndian.PutUint32(h[16:], iw.header.TimebaseDen)
	binary.LittleEndian.PutUint32(h[20:], iw.header.TimebaseNum)
	binary.LittleEndian.PutUint32(h[24:], iw.frames)
	_, err := iw.w.Write(h[:])
	return err
}

// WritePacket appends one frame.
func (iw *IVFWriter) WritePacket(pkt *EncodedPacket) error {
	binary.LittleEndian.PutUint32(iw.buf[0:], uint32(len(pkt.Data)))
	binary.LittleEndian.PutUint64(iw.buf[4:], uint64(pkt.Timestamp))
	if _, err := iw.w.Write(iw.buf[:]); err != nil {
		return err
	}
	if _, err := iw.w.Write(pkt.Data); err != nil {
		return err
	}
	iw.frames++
	return nil
}

// Frames returns the number of frames written.
func (iw *IVFWriter) Frames() uint32 { return iw.frames }

// Close rewrites the frame count when the underlying writer can seek.
func (iw *IVFWriter) Close() error {
	ws, ok := iw.w.(io.WriteSeeker)
	if !ok {
		return nil
	}
	end, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := ws.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := iw.writeHeader(); err != nil {
		return err
	}
	_, err = ws.Seek(end, io.SeekStart)
	return err
}
