package vpxenc

import (
	"fmt"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// DefaultMTU is the default maximum RTP packet size.
const DefaultMTU = 1200

// rtpHeaderSize is the fixed RTP header without CSRCs or extensions.
const rtpHeaderSize = 12

// RTPTimestamp converts a microsecond PTS to RTP clock units.
func RTPTimestamp(us int64, clockRate uint32) uint32 {
	return uint32(us * int64(clockRate) / 1000000)
}

// Packetizer splits encoded VP8/VP9 packets into RTP packets using pion's
// payloaders.
type Packetizer struct {
	codec       Codec
	ssrc        uint32
	payloadType uint8
	mtu         int
	sequencer   rtp.Sequencer
	payloader   rtp.Payloader
	mu          sync.Mutex
}

// NewPacketizer creates a packetizer for codec. mtu <= 0 selects DefaultMTU.
func NewPacketizer(codec Codec, ssrc uint32, pt uint8, mtu int) (*Packetizer, error) {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	if mtu <= rtpHeaderSize {
		return nil, fmt.Errorf("%w: mtu %d too small", ErrConfiguration, mtu)
	}
	var payloader rtp.Payloader
	switch codec {
	case CodecVP8:
		payloader = &codecs.VP8Payloader{EnablePictureID: true}
	case CodecVP9:
		// flexible mode does not parse the VP9 frame header
		payloader = &codecs.VP9Payloader{FlexibleMode: true}
	default:
		return nil, fmt.Errorf("%w: no RTP payloader for %s", ErrNotSupported, codec)
	}
	return &Packetizer{
		codec:       codec,
		ssrc:        ssrc,
		payloadType: pt,
		mtu:         mtu,
		sequencer:   rtp.NewRandomSequencer(),
		payloader:   payloader,
	}, nil
}

// Packetize converts one encoded packet to RTP packets. The marker bit is
// set on the last packet of the frame.
func (p *Packetizer) Packetize(pkt *EncodedPacket) []*rtp.Packet {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(pkt.Data) == 0 {
		return nil
	}
	payloads := p.payloader.Payload(uint16(p.mtu-rtpHeaderSize), pkt.Data)
	if len(payloads) == 0 {
		return nil
	}

	ts := RTPTimestamp(pkt.Timestamp, p.codec.ClockRate())
	packets := make([]*rtp.Packet, len(payloads))
	for i, payload := range payloads {
		packets[i] = &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == len(payloads)-1,
				PayloadType:    p.payloadType,
				SequenceNumber: p.sequencer.NextSequenceNumber(),
				Timestamp:      ts,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		}
	}
	return packets
}

func (p *Packetizer) SSRC() uint32            { p.mu.Lock(); defer p.mu.Unlock(); return p.ssrc }
func (p *Packetizer) SetSSRC(ssrc uint32)     { p.mu.Lock(); p.ssrc = ssrc; p.mu.Unlock() }
func (p *Packetizer) PayloadType() uint8      { p.mu.Lock(); defer p.mu.Unlock(); return p.payloadType }
func (p *Packetizer) SetPayloadType(pt uint8) { p.mu.Lock(); p.payloadType = pt; p.mu.Unlock() }
func (p *Packetizer) MTU() int                { p.mu.Lock(); defer p.mu.Unlock(); return p.mtu }

// Depacketizer reassembles VP8/VP9 frames from RTP packets.
type Depacketizer struct {
	codec     Codec
	unpacker  rtp.Depacketizer
	buffer    []byte
	timestamp uint32
	started   bool
	mu        sync.Mutex
}

// NewDepacketizer creates a depacketizer for codec.
func NewDepacketizer(codec Codec) (*Depacketizer, error) {
	d := &Depacketizer{codec: codec}
	switch codec {
	case CodecVP8:
		d.unpacker = &codecs.VP8Packet{}
	case CodecVP9:
		d.unpacker = &codecs.VP9Packet{}
	default:
		return nil, fmt.Errorf("%w: no RTP depacketizer for %s", ErrNotSupported, codec)
	}
	return d, nil
}

// Push feeds one RTP packet. It returns the reassembled frame and its RTP
// timestamp when pkt carries the marker bit.
func (d *Depacketizer) Push(pkt *rtp.Packet) ([]byte, uint32, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	payload, err := d.unpacker.Unmarshal(pkt.Payload)
	if err != nil {
		return nil, 0, false, fmt.Errorf("%s unmarshal failed: %w", d.codec, err)
	}
	if d.started && d.timestamp != pkt.Timestamp {
		d.buffer = d.buffer[:0]
	}
	d.started = true
	d.timestamp = pkt.Timestamp
	d.buffer = append(d.buffer, payload...)

	if !pkt.Marker {
		return nil, 0, false, nil
	}
	frame := make([]byte, len(d.buffer))
	copy(frame, d.buffer)
	d.buffer = d.buffer[:0]
	d.started = false
	return frame, d.timestamp, true, nil
}

// Reset drops any partial frame.
func (d *Depacketizer) Reset() {
	d.mu.Lock()
	d.buffer = d.buffer[:0]
	d.started = false
	d.mu.Unlock()
}
