// Package libvpx provides the vpxenc.Engine backed by libvpx.
//
// Three build variants exist:
//   - cgo: links libvpx through pkg-config and compiles the clib shim in
//   - purego (CGO_ENABLED=0, darwin/linux): loads libmedia_vpxenc at runtime,
//     searching VPXENC_LIB_PATH first
//   - novpx, or unsupported platforms: New returns vpxenc.ErrEngineUnavailable
//
// Build the shared library for purego with:
//
//	cc -shared -fPIC -O2 -o build/libmedia_vpxenc.so libvpx/clib/media_vpxenc.c \
//	    $(pkg-config --cflags --libs vpx)
package libvpx
