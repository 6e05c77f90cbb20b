package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/thesyncim/vpxenc"
)

// parseEncodeFlags runs args through the encode flag set and returns the
// resulting session config.
func parseEncodeFlags(t *testing.T, args ...string) (vpxenc.SessionConfig, error) {
	t.Helper()
	var (
		cfg    vpxenc.SessionConfig
		cfgErr error
	)
	cmd := encodeCommand()
	cmd.Action = func(c *cli.Context) error {
		var params *vpxenc.Params
		if params, cfgErr = sessionParams(c); cfgErr == nil {
			cfg = params.Snapshot()
		}
		return nil
	}
	app := &cli.App{Name: "vpxenc", Commands: []*cli.Command{cmd}, Writer: io.Discard, ErrWriter: io.Discard}
	if err := app.Run(append([]string{"vpxenc", "encode", "-o", "out.ivf"}, args...)); err != nil {
		t.Fatalf("app.Run: %v", err)
	}
	return cfg, cfgErr
}

func TestSessionConfigDefaults(t *testing.T) {
	cfg, err := parseEncodeFlags(t)
	if err != nil {
		t.Fatalf("sessionParams: %v", err)
	}
	want := vpxenc.DefaultSessionConfig(vpxenc.CodecVP8)
	if cfg.Codec != want.Codec || cfg.Width != want.Width || cfg.Height != want.Height {
		t.Errorf("got %s %dx%d, want %s %dx%d", cfg.Codec, cfg.Width, cfg.Height, want.Codec, want.Width, want.Height)
	}
	if cfg.BitrateBps != want.BitrateBps {
		t.Errorf("BitrateBps = %d, want %d", cfg.BitrateBps, want.BitrateBps)
	}
}

func TestSessionConfigFlags(t *testing.T) {
	cfg, err := parseEncodeFlags(t,
		"--codec", "vp9",
		"-W", "640", "-H", "360",
		"--fps", "25",
		"-b", "500000",
		"--mode", "cbr",
		"--layers", "2",
		"--sync-interval", "2s",
	)
	if err != nil {
		t.Fatalf("sessionParams: %v", err)
	}
	if cfg.Codec != vpxenc.CodecVP9 {
		t.Errorf("Codec = %s", cfg.Codec)
	}
	if cfg.Width != 640 || cfg.Height != 360 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FrameRate != 25 {
		t.Errorf("FrameRate = %v", cfg.FrameRate)
	}
	if cfg.BitrateBps != 500000 || cfg.BitrateMode != vpxenc.BitrateConstant {
		t.Errorf("bitrate = %d %s", cfg.BitrateBps, cfg.BitrateMode)
	}
	if cfg.Layering.LayerCount != 2 {
		t.Errorf("LayerCount = %d", cfg.Layering.LayerCount)
	}
	if cfg.SyncInterval != 2000000 {
		t.Errorf("SyncInterval = %d", cfg.SyncInterval)
	}
}

func TestSessionConfigLowBitrateRaised(t *testing.T) {
	cfg, err := parseEncodeFlags(t, "--bitrate", "1000")
	if err != nil {
		t.Fatalf("sessionParams: %v", err)
	}
	if cfg.BitrateBps != vpxenc.MinBitrateBps {
		t.Errorf("BitrateBps = %d, want %d", cfg.BitrateBps, vpxenc.MinBitrateBps)
	}
}

func TestSessionConfigFileWithOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	data := []byte("codec: vp9\nwidth: 160\nheight: 120\nbitrate: 200000\nbitrate_mode: cbr\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := parseEncodeFlags(t, "--config", path, "-b", "300000")
	if err != nil {
		t.Fatalf("sessionParams: %v", err)
	}
	if cfg.Codec != vpxenc.CodecVP9 {
		t.Errorf("Codec = %s, want VP9 from file", cfg.Codec)
	}
	if cfg.Width != 160 || cfg.Height != 120 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.BitrateBps != 300000 {
		t.Errorf("BitrateBps = %d, want flag override", cfg.BitrateBps)
	}
	if cfg.BitrateMode != vpxenc.BitrateConstant {
		t.Errorf("BitrateMode = %s", cfg.BitrateMode)
	}
}

func TestSessionConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown codec", []string{"--codec", "h264"}},
		{"unknown mode", []string{"--mode", "abr"}},
		{"high bitrate", []string{"--bitrate", "50000000"}},
		{"odd height", []string{"-H", "241"}},
		{"zero width", []string{"-W", "0"}},
		{"missing file", []string{"--config", "/nonexistent/session.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseEncodeFlags(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfigCommand(t *testing.T) {
	var buf bytes.Buffer
	app := &cli.App{Name: "vpxenc", Commands: []*cli.Command{configCommand()}, Writer: &buf}
	if err := app.Run([]string{"vpxenc", "config", "vp9"}); err != nil {
		t.Fatalf("app.Run: %v", err)
	}
	cfg, err := vpxenc.ParseSessionConfig(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseSessionConfig: %v\n%s", err, buf.String())
	}
	if cfg.Codec != vpxenc.CodecVP9 {
		t.Errorf("Codec = %s, want VP9", cfg.Codec)
	}
}

func TestRawSource(t *testing.T) {
	const w, h = 4, 2
	size := vpxenc.I420Size(w, h)
	data := make([]byte, 2*size+3)
	for i := range data {
		data[i] = byte(i)
	}
	src := newRawSource(bytes.NewReader(data), vpxenc.PixelFormatI420, w, h)

	for i := 0; i < 2; i++ {
		view, err := src.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got := view.Planes[0].At(0, 0); got != byte(i*size) {
			t.Errorf("frame %d: first luma = %d, want %d", i, got, byte(i*size))
		}
	}
	if _, err := src.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated frame: err = %v", err)
	}

	empty := newRawSource(bytes.NewReader(nil), vpxenc.PixelFormatI420, w, h)
	if _, err := empty.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("empty input: err = %v, want io.EOF", err)
	}
}

func TestReadFrameLimit(t *testing.T) {
	gen := vpxenc.NewPatternGenerator(vpxenc.PatternMovingBox, vpxenc.PixelFormatI420, 16, 16)
	e := &encoder{limit: 3}
	frames := make(chan rawFrame)
	errc := make(chan error, 1)
	go func() {
		defer close(frames)
		errc <- e.read(context.Background(), newPatternSource(gen), frames)
	}()

	var got []rawFrame
	for f := range frames {
		got = append(got, f)
		close(f.done)
	}
	if err := <-errc; err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d frames, want 3", len(got))
	}
	for i, f := range got {
		if f.index != uint64(i) || f.view == nil {
			t.Errorf("frame %d: index %d, view %v", i, f.index, f.view != nil)
		}
		if f.last != (i == 2) {
			t.Errorf("frame %d: last = %v", i, f.last)
		}
	}
}

func TestReadEndMarker(t *testing.T) {
	data := make([]byte, vpxenc.I420Size(8, 8))
	e := &encoder{}
	frames := make(chan rawFrame)
	errc := make(chan error, 1)
	go func() {
		defer close(frames)
		errc <- e.read(context.Background(), newRawSource(bytes.NewReader(data), vpxenc.PixelFormatI420, 8, 8), frames)
	}()

	var got []rawFrame
	for f := range frames {
		got = append(got, f)
		close(f.done)
	}
	if err := <-errc; err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if got[0].view == nil || got[0].last {
		t.Errorf("first frame: view %v last %v", got[0].view != nil, got[0].last)
	}
	if got[1].view != nil || !got[1].last {
		t.Errorf("marker: view %v last %v", got[1].view != nil, got[1].last)
	}
}

func TestReadCancelled(t *testing.T) {
	gen := vpxenc.NewPatternGenerator(vpxenc.PatternColorBars, vpxenc.PixelFormatI420, 16, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &encoder{}
	if err := e.read(ctx, newPatternSource(gen), make(chan rawFrame)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
