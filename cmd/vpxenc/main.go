// Command vpxenc encodes raw or synthetic video to VP8/VP9 IVF files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/thesyncim/vpxenc"
	"github.com/thesyncim/vpxenc/libvpx"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "vpxenc",
		Usage:   "encode raw or synthetic video to VP8/VP9",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", EnvVars: []string{"DEBUG"}, Usage: "enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("debug") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Commands: []*cli.Command{
			encodeCommand(),
			configCommand(),
			infoCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("vpxenc failed", "error", err)
		os.Exit(1)
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "encode frames to an IVF file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML session config"},
			&cli.StringFlag{Name: "codec", Value: "vp8", Usage: "vp8 or vp9"},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: "picture width"},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: "picture height"},
			&cli.Float64Flag{Name: "fps", Usage: "frame rate"},
			&cli.IntFlag{Name: "bitrate", Aliases: []string{"b"}, Usage: "target bitrate in bits per second"},
			&cli.StringFlag{Name: "mode", Usage: "rate control: vbr or cbr"},
			&cli.IntFlag{Name: "layers", Value: -1, Usage: "temporal layers (0-3)"},
			&cli.DurationFlag{Name: "sync-interval", Usage: "time between key frames"},
			&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Value: 150, Usage: "frames to encode (0 = until input ends)"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "raw input file, - for stdin; empty for a test pattern"},
			&cli.StringFlag{Name: "format", Value: "i420", Usage: "raw pixel format: i420, nv12, rgb24, rgba"},
			&cli.StringFlag{Name: "pattern", Value: "movingbox", Usage: "test pattern when no input is given"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "output IVF file"},
		},
		Action: runEncode,
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "print the default session config as YAML",
		ArgsUsage: "[vp8|vp9]",
		Action: func(c *cli.Context) error {
			codec := vpxenc.CodecVP8
			if c.NArg() > 0 {
				var ok bool
				if codec, ok = vpxenc.ParseCodec(c.Args().First()); !ok {
					return fmt.Errorf("unknown codec %q", c.Args().First())
				}
			}
			data, err := vpxenc.MarshalSessionConfig(vpxenc.DefaultSessionConfig(codec))
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(data)
			return err
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "report which encoders are available",
		Action: func(c *cli.Context) error {
			for _, codec := range []vpxenc.Codec{vpxenc.CodecVP8, vpxenc.CodecVP9} {
				fmt.Fprintf(c.App.Writer, "%s: %v\n", codec, libvpx.Available(codec))
			}
			return nil
		},
	}
}

// sessionParams merges the config file and command-line overrides into a
// store, which applies the same clamping as its setters.
func sessionParams(c *cli.Context) (*vpxenc.Params, error) {
	codec, ok := vpxenc.ParseCodec(c.String("codec"))
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", c.String("codec"))
	}
	cfg := vpxenc.DefaultSessionConfig(codec)
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = vpxenc.LoadSessionConfig(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if c.IsSet("codec") {
			cfg.Codec = codec
		}
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("fps") {
		cfg.FrameRate = c.Float64("fps")
	}
	if c.IsSet("bitrate") {
		cfg.BitrateBps = c.Int("bitrate")
	}
	if c.IsSet("mode") {
		m, ok := vpxenc.ParseBitrateMode(c.String("mode"))
		if !ok {
			return nil, fmt.Errorf("unknown rate control %q", c.String("mode"))
		}
		cfg.BitrateMode = m
	}
	if n := c.Int("layers"); n >= 0 {
		cfg.Layering.LayerCount = n
	}
	if c.IsSet("sync-interval") {
		cfg.SyncInterval = c.Duration("sync-interval").Microseconds()
	}
	return vpxenc.NewParamsFrom(cfg)
}

func runEncode(c *cli.Context) error {
	params, err := sessionParams(c)
	if err != nil {
		return err
	}
	cfg := params.Snapshot()
	format, err := vpxenc.ParsePixelFormat(c.String("format"))
	if err != nil {
		return err
	}

	var src frameSource
	switch in := c.String("input"); in {
	case "":
		pattern, err := vpxenc.ParsePatternType(c.String("pattern"))
		if err != nil {
			return err
		}
		src = newPatternSource(vpxenc.NewPatternGenerator(pattern, format, cfg.Width, cfg.Height))
	case "-":
		src = newRawSource(os.Stdin, format, cfg.Width, cfg.Height)
	default:
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()
		src = newRawSource(f, format, cfg.Width, cfg.Height)
	}

	engine, err := libvpx.New()
	if err != nil {
		return err
	}
	sess, err := vpxenc.NewSession(cfg.Codec, engine, params, vpxenc.SessionOptions{
		Logger: slog.Default().With("component", "session"),
	})
	if err != nil {
		return err
	}
	defer sess.Release()

	out, err := os.Create(c.String("output"))
	if err != nil {
		return err
	}
	defer out.Close()
	ivf, err := vpxenc.NewIVFWriter(out, cfg.Codec, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("encoding",
		"codec", cfg.Codec.String(),
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"bitrate", cfg.BitrateBps,
		"mode", cfg.BitrateMode.String(),
		"layers", cfg.Layering.LayerCount,
		"output", c.String("output"))

	enc := &encoder{
		sess:     sess,
		ivf:      ivf,
		fps:      cfg.FrameRate,
		limit:    uint64(c.Int("frames")),
		progress: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
		w:        os.Stderr,
	}
	start := time.Now()
	if err := enc.run(ctx, src); err != nil {
		return err
	}
	if err := ivf.Close(); err != nil {
		return err
	}

	st := sess.Stats()
	slog.Info("done",
		"frames", st.FramesEncoded,
		"key_frames", st.KeyFrames,
		"bytes", st.BytesEncoded,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// encoder moves frames from a source through a session into an IVF file.
type encoder struct {
	sess     *vpxenc.Session
	ivf      *vpxenc.IVFWriter
	fps      float64
	limit    uint64 // 0 = no limit
	progress bool
	w        io.Writer
}

type rawFrame struct {
	view  *vpxenc.FrameView // nil for the end-of-stream marker
	index uint64
	last  bool
	done  chan struct{} // closed once the view may be reused
}

func (e *encoder) run(ctx context.Context, src frameSource) error {
	g, ctx := errgroup.WithContext(ctx)
	frames := make(chan rawFrame, 1)

	g.Go(func() error {
		defer close(frames)
		return e.read(ctx, src, frames)
	})
	g.Go(func() error {
		return e.encode(ctx, frames)
	})
	return g.Wait()
}

// read hands frames to the encoder one at a time; a view is reused once the
// encoder closes its done channel. The last frame carries end of stream, or
// an empty marker does when the source runs dry.
func (e *encoder) read(ctx context.Context, src frameSource, frames chan<- rawFrame) error {
	for n := uint64(0); ; n++ {
		f := rawFrame{index: n, done: make(chan struct{})}
		view, err := src.Next()
		switch {
		case errors.Is(err, io.EOF):
			f.last = true
		case err != nil:
			return err
		default:
			f.view = view
			f.last = e.limit > 0 && n+1 >= e.limit
		}
		select {
		case frames <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case <-f.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if f.last {
			return nil
		}
	}
}

func (e *encoder) encode(ctx context.Context, frames <-chan rawFrame) error {
	interval := 1e6 / e.fps
	for {
		var f rawFrame
		var ok bool
		select {
		case f, ok = <-frames:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		req := &vpxenc.FrameRequest{
			Timestamp:  uint64(float64(f.index)*interval + 0.5),
			FrameIndex: f.index,
		}
		if f.view != nil {
			req.Buffers = []*vpxenc.FrameView{f.view}
		}
		if f.last {
			req.Flags = vpxenc.FlagEndOfStream
		}
		out, err := e.sess.Process(req, nil)
		close(f.done)
		if err != nil {
			return fmt.Errorf("frame %d (%s): %w", f.index, vpxenc.StatusOf(err), err)
		}
		for i := range out.Packets {
			if err := e.ivf.WritePacket(&out.Packets[i]); err != nil {
				return err
			}
		}
		if e.progress && f.index%30 == 0 {
			st := e.sess.Stats()
			fmt.Fprintf(e.w, "\rframe %d  %d KiB", f.index, st.BytesEncoded/1024)
		}
		if f.last && e.progress {
			fmt.Fprintln(e.w)
		}
	}
}
