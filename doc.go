// Package vpxenc implements a VP8/VP9 encoder session: the state machine and
// frame-format adaptation layer that sits between a frame-processing host and
// a libvpx encoder engine.
//
// Key pieces include:
//   - Session: lifecycle (Start, Process, Drain, Stop, Reset, Release),
//     per-frame dynamic reconfiguration and packet draining
//   - BuildEngineConfig: the SessionConfig to engine configuration rules
//   - TemporalPattern: 0-3 temporal layer reference patterns
//   - FrameAdapter: RGB/RGBA conversion, zero-copy I420 and semi-planar copy
//   - Params: an in-memory ConfigStore, loadable from YAML
//   - Packetizer, LocalTrack and TrackSink for sending output over WebRTC
//   - IVFWriter for writing output to disk
//
// # Architecture
//
//	ConfigStore -> Session -> FrameAdapter -> Engine -> BlockPool -> Output
//	Output -> TrackSink -> Packetizer -> LocalTrack (pion/webrtc)
//	Output -> IVFWriter
//
// # Native Libraries
//
// Engines live in the libvpx subpackage. By default it uses purego
// (CGO_ENABLED=0) and loads libmedia_vpxenc from VPXENC_LIB_PATH; with CGO
// enabled it links libvpx directly. Build with the novpx tag to compile
// without any engine.
//
// A Session is not safe for concurrent use. The host serialises calls; only
// Params takes a lock, around each read or write.
package vpxenc
