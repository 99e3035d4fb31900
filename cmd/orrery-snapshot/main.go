// Command orrery-snapshot renders a scene at one timestamp to a WebP or PNG
// file without opening a window.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/plus3/orrery/render"
	"github.com/plus3/orrery/solar"
	"github.com/plus3/orrery/texture"
)

type options struct {
	config   string
	assets   string
	at       float64
	out      string
	format   string
	width    int
	height   int
	maxEdge  int
	logLevel string
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "solar", "Preset name or path to a YAML scene.")
	flag.StringVar(&opts.assets, "assets", "assets", "Directory textures are loaded from.")
	flag.Float64Var(&opts.at, "at", 0, "Scene time to render, in milliseconds.")
	flag.StringVar(&opts.out, "out", "orrery.webp", "Output file.")
	flag.StringVar(&opts.format, "format", "", "Output format, webp or png. Defaults to the -out extension.")
	flag.IntVar(&opts.width, "width", 1280, "Image width.")
	flag.IntVar(&opts.height, "height", 720, "Image height.")
	flag.IntVar(&opts.maxEdge, "max-texture", 1024, "Downsize textures to this longest edge, 0 keeps them as is.")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error.")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		fmt.Fprintln(os.Stderr, "orrery-snapshot: -log-level:", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(opts, logger); err != nil {
		logger.Error("snapshot failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) (err error) {
	format := render.FormatFor(opts.out)
	if opts.format != "" {
		format = render.Format(opts.format)
	}
	if format != render.FormatWebP && format != render.FormatPNG {
		return fmt.Errorf("%w: %q", render.ErrUnknownFormat, format)
	}

	cfg, err := solar.Open(opts.config)
	if err != nil {
		return err
	}
	scene, err := solar.New(cfg,
		solar.WithLogger(logger),
		solar.WithTextures(texture.NewCache(texture.NewLoader(opts.assets, opts.maxEdge))),
		solar.WithViewport(opts.width, opts.height),
	)
	if err != nil {
		return err
	}
	defer func() {
		if derr := scene.Dispose(); derr != nil && err == nil {
			err = derr
		}
	}()

	if err := scene.Tick(opts.at); err != nil {
		return err
	}
	img := render.NewRasterizer(opts.width, opts.height).Render(scene.Snapshot())

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("orrery-snapshot: %w", err)
	}
	if err := render.Encode(f, img, format); err != nil {
		f.Close()
		os.Remove(opts.out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("orrery-snapshot: %w", err)
	}

	logger.Info("snapshot written", "out", opts.out, "format", format, "at_ms", opts.at)
	return nil
}
