package main

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/plus3/orrery/debugui"
	debugui_ebiten "github.com/plus3/orrery/debugui/ebiten"
	"github.com/plus3/orrery/render"
	"github.com/plus3/orrery/solar"
	"github.com/plus3/orrery/texture"
)

const (
	dragThreshold    = 4     // pixels before a press becomes a drag
	orbitSensitivity = 0.005 // radians per pixel
	zoomStep         = 1.1
)

// Game implements ebiten.Game over one scene at a time. A config reload
// replaces the scene and restarts its clock.
type Game struct {
	logger     *slog.Logger
	configName string
	loader     *texture.Loader
	imgui      *debugui_ebiten.ImguiBackend
	reloads    <-chan struct{}

	scene     *solar.Scene
	raster    *render.Rasterizer
	frame     *ebiten.Image
	width     int
	height    int
	elapsedMs float64

	pressX, pressY int
	lastX, lastY   int
	dragging       bool
}

// load builds a scene from cfg and swaps it in. The previous scene is
// disposed only once the new one has been built.
func (g *Game) load(cfg *solar.Config) error {
	scene, err := solar.New(cfg, g.sceneOptions()...)
	if err != nil {
		return err
	}
	if g.imgui != nil {
		debugui.Spawn(scene)
	}

	if g.scene != nil {
		if err := g.scene.Dispose(); err != nil {
			g.logger.Warn("dispose scene", "error", err)
		}
	}
	g.scene = scene
	g.elapsedMs = 0
	if g.raster == nil {
		g.raster = render.NewRasterizer(g.width, g.height)
	}

	ebiten.SetWindowTitle(cfg.Title)
	g.logger.Info("scene loaded", "name", cfg.Name, "bodies", len(scene.Snapshot().Bodies))
	return nil
}

func (g *Game) reload() {
	cfg, err := solar.Open(g.configName)
	if err != nil {
		g.logger.Warn("reload config", "config", g.configName, "error", err)
		return
	}
	if err := g.load(cfg); err != nil {
		g.logger.Warn("rebuild scene", "config", g.configName, "error", err)
	}
}

func (g *Game) Update() error {
	if g.imgui != nil {
		g.imgui.BeginFrame()
		defer g.imgui.EndFrame()
	}

	select {
	case <-g.reloads:
		g.reload()
	default:
	}

	mouse, keyboard := debugui.Capturing(g.scene.Storage())
	if !keyboard {
		if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
			return ebiten.Termination
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyR) {
			n := g.scene.ResetOverrides()
			g.logger.Info("spin overrides reset", "count", n)
		}
	}
	if !mouse {
		g.handlePointer()
	}

	g.elapsedMs += 1000.0 / float64(ebiten.TPS())
	return g.scene.Tick(g.elapsedMs)
}

// handlePointer turns a short press into a click and a longer one into a
// camera orbit.
func (g *Game) handlePointer() {
	x, y := ebiten.CursorPosition()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.pressX, g.pressY = x, y
		g.lastX, g.lastY = x, y
		g.dragging = false
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !g.dragging && (abs(x-g.pressX) > dragThreshold || abs(y-g.pressY) > dragThreshold) {
			g.dragging = true
		}
		if g.dragging {
			g.scene.Camera().Orbit(-float64(x-g.lastX)*orbitSensitivity, float64(y-g.lastY)*orbitSensitivity)
		}
		g.lastX, g.lastY = x, y
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && !g.dragging {
		if hit, ok := g.scene.Click(float64(x), float64(y)); ok {
			g.logger.Info("body clicked", "body", hit.Name, "distance", hit.Distance)
		}
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		g.scene.Camera().Zoom(math.Pow(zoomStep, -dy))
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	img := g.raster.Render(g.scene.Snapshot())

	if g.frame == nil || g.frame.Bounds() != img.Bounds() {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(img.Bounds().Dx(), img.Bounds().Dy())
	}
	g.frame.WritePixels(img.Pix)
	screen.DrawImage(g.frame, nil)

	ebitenutil.DebugPrintAt(screen, g.scene.Config().Title, 10, 10)
	if hit, ok := g.scene.LastPick(); ok {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("picked %s", hit.Name), 10, 26)
	}

	if g.imgui != nil {
		g.imgui.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.imgui != nil {
		g.imgui.Layout(outsideWidth, outsideHeight)
	}
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.scene.Resize(outsideWidth, outsideHeight)
		g.raster.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
