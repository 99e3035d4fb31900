// Command orrery opens a window on an animated scene. Click a body to
// nudge it and set it spinning, drag to orbit the camera, scroll to zoom,
// R resets every spin override, Esc or Q quits.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/orrery/debugui"
	debugui_ebiten "github.com/plus3/orrery/debugui/ebiten"
	"github.com/plus3/orrery/solar"
	"github.com/plus3/orrery/texture"
)

func main() {
	config := flag.String("config", "solar", "Preset name ("+strings.Join(solar.Presets(), ", ")+") or path to a YAML scene.")
	assets := flag.String("assets", "assets", "Directory textures are loaded from.")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error.")
	watch := flag.Bool("watch", false, "Rebuild the scene when the config file changes.")
	width := flag.Int("width", 1280, "Initial window width.")
	height := flag.Int("height", 720, "Initial window height.")
	maxEdge := flag.Int("max-texture", 1024, "Downsize textures to this longest edge, 0 keeps them as is.")
	debug := flag.Bool("debug", false, "Show the ImGui debug windows.")
	flag.Parse()

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	game := &Game{
		logger:     logger,
		configName: *config,
		loader:     texture.NewLoader(*assets, *maxEdge),
		width:      *width,
		height:     *height,
	}

	if *debug {
		game.imgui = debugui_ebiten.NewImguiBackend("Orrery", *width, *height)
	} else {
		ebiten.SetWindowSize(*width, *height)
		ebiten.SetWindowTitle("Orrery")
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	cfg, err := solar.Open(*config)
	if err != nil {
		logger.Error("load config", "config", *config, "error", err)
		os.Exit(1)
	}
	if err := game.load(cfg); err != nil {
		logger.Error("build scene", "config", *config, "error", err)
		os.Exit(1)
	}

	if *watch {
		w, err := watchConfig(*config, logger)
		if err != nil {
			logger.Error("watch config", "config", *config, "error", err)
			os.Exit(1)
		}
		defer w.Close()
		game.reloads = w.Reloads()
	}

	runErr := ebiten.RunGame(game)
	if err := game.scene.Dispose(); err != nil {
		logger.Warn("dispose scene", "error", err)
	}
	if runErr != nil {
		logger.Error("run", "error", runErr)
		os.Exit(1)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("orrery: -log-level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

// sceneOptions returns the options every scene built by the window shares.
func (g *Game) sceneOptions() []solar.Option {
	opts := []solar.Option{
		solar.WithLogger(g.logger),
		solar.WithTextures(texture.NewCache(g.loader)),
		solar.WithViewport(g.width, g.height),
	}
	if g.imgui != nil {
		opts = append(opts,
			solar.WithComponents(debugui.RegisterComponents),
			solar.WithSystems(&debugui.ImguiSystem{}),
		)
	}
	return opts
}
