package vpxenc

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// LocalTrack implements pion's webrtc.TrackLocal for encoder output.
type LocalTrack struct {
	id       string
	streamID string
	rid      string
	codec    Codec
	cap      webrtc.RTPCodecCapability
	closed   atomic.Bool
	bindMu   sync.RWMutex
	bindings []webrtc.TrackLocalContext
}

// NewLocalTrack creates a video track for codec. Empty ids are replaced by
// random UUIDs.
func NewLocalTrack(codec Codec, id, streamID string) *LocalTrack {
	if id == "" {
		id = uuid.NewString()
	}
	if streamID == "" {
		streamID = uuid.NewString()
	}
	return &LocalTrack{
		id:       id,
		streamID: streamID,
		codec:    codec,
		cap: webrtc.RTPCodecCapability{
			MimeType:  codec.MimeType(),
			ClockRate: codec.ClockRate(),
		},
	}
}

func (t *LocalTrack) ID() string                { return t.id }
func (t *LocalTrack) StreamID() string          { return t.streamID }
func (t *LocalTrack) RID() string               { return t.rid }
func (t *LocalTrack) Kind() webrtc.RTPCodecType { return webrtc.RTPCodecTypeVideo }

// Codec returns the codec capability offered during negotiation.
func (t *LocalTrack) Codec() webrtc.RTPCodecCapability { return t.cap }

// Bind implements webrtc.TrackLocal.
func (t *LocalTrack) Bind(ctx webrtc.TrackLocalContext) (webrtc.RTPCodecParameters, error) {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	t.bindings = append(t.bindings, ctx)

	for _, p := range ctx.CodecParameters() {
		if p.MimeType == t.cap.MimeType {
			return p, nil
		}
	}
	return webrtc.RTPCodecParameters{
		RTPCodecCapability: t.cap,
		PayloadType:        webrtc.PayloadType(t.codec.DefaultPayloadType()),
	}, nil
}

// Unbind implements webrtc.TrackLocal.
func (t *LocalTrack) Unbind(ctx webrtc.TrackLocalContext) error {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	for i, b := range t.bindings {
		if b.ID() == ctx.ID() {
			t.bindings = append(t.bindings[:i], t.bindings[i+1:]...)
			break
		}
	}
	return nil
}

// Bound reports how many peer connections the track is bound to.
func (t *LocalTrack) Bound() int {
	t.bindMu.RLock()
	defer t.bindMu.RUnlock()
	return len(t.bindings)
}

// WriteRTP writes p to every bound context, rewriting SSRC and payload type.
func (t *LocalTrack) WriteRTP(p *rtp.Packet) error {
	if t.closed.Load() {
		return nil
	}
	t.bindMu.RLock()
	defer t.bindMu.RUnlock()

	for _, b := range t.bindings {
		h := p.Header
		h.SSRC = uint32(b.SSRC())
		for _, c := range b.CodecParameters() {
			if c.MimeType == t.cap.MimeType {
				h.PayloadType = uint8(c.PayloadType)
				break
			}
		}
		if _, err := b.WriteStream().WriteRTP(&h, p.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Close stops further writes.
func (t *LocalTrack) Close() error {
	t.closed.Store(true)
	return nil
}

var _ webrtc.TrackLocal = (*LocalTrack)(nil)

// PacketWriter receives RTP packets; LocalTrack is one.
type PacketWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// TrackSink packetizes session output and writes it to a PacketWriter.
type TrackSink struct {
	w          PacketWriter
	packetizer *Packetizer
	packets    atomic.Uint64
}

// NewTrackSink creates a sink for codec writing to w.
func NewTrackSink(codec Codec, w PacketWriter, ssrc uint32, mtu int) (*TrackSink, error) {
	p, err := NewPacketizer(codec, ssrc, codec.DefaultPayloadType(), mtu)
	if err != nil {
		return nil, err
	}
	return &TrackSink{w: w, packetizer: p}, nil
}

// WriteOutput sends every packet in out.
func (s *TrackSink) WriteOutput(out *Output) error {
	for i := range out.Packets {
		for _, p := range s.packetizer.Packetize(&out.Packets[i]) {
			if err := s.w.WriteRTP(p); err != nil {
				return err
			}
			s.packets.Add(1)
		}
	}
	return nil
}

// PacketsSent returns the number of RTP packets written.
func (s *TrackSink) PacketsSent() uint64 { return s.packets.Load() }
