package solar

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// ErrUnknownPreset is returned by Preset for names with no embedded file.
var ErrUnknownPreset = errors.New("solar: unknown preset")

// Config is a static scene descriptor. Building a scene from the same Config
// always yields the same bodies.
type Config struct {
	Name       string           `yaml:"name"`
	Title      string           `yaml:"title"`
	Seed       uint64           `yaml:"seed"`
	SpinMode   SpinMode         `yaml:"spin_mode"`
	Background BackgroundConfig `yaml:"background"`
	Ambient    AmbientConfig    `yaml:"ambient"`
	Light      LightConfig      `yaml:"light"`
	Camera     CameraConfig     `yaml:"camera"`
	Pick       PickConfig       `yaml:"pick"`
	Bodies     []BodyConfig     `yaml:"bodies"`
	Stars      DecorationConfig `yaml:"stars"`
	Asteroids  DecorationConfig `yaml:"asteroids"`
}

type BackgroundConfig struct {
	Color   Color  `yaml:"color"`
	Texture string `yaml:"texture"`
}

type AmbientConfig struct {
	Color     *Color   `yaml:"color"`
	Intensity *float64 `yaml:"intensity"`
}

// LightConfig places the point light. Follow names a body whose world
// position the light tracks; otherwise Position is used.
type LightConfig struct {
	Follow    string   `yaml:"follow"`
	Position  Vec3     `yaml:"position"`
	Color     *Color   `yaml:"color"`
	Intensity *float64 `yaml:"intensity"`
}

// CameraConfig holds the initial orbit camera. Angles are in degrees.
type CameraConfig struct {
	Target    Vec3    `yaml:"target"`
	Distance  float64 `yaml:"distance"`
	Azimuth   float64 `yaml:"azimuth"`
	Elevation float64 `yaml:"elevation"`
	FOV       float64 `yaml:"fov"`
	Near      float64 `yaml:"near"`
	Far       float64 `yaml:"far"`
}

// PickConfig controls the click perturbation.
type PickConfig struct {
	Nudge   *Vec3    `yaml:"nudge"`
	MaxSpin *float64 `yaml:"max_spin"`
}

type BodyConfig struct {
	Name     string       `yaml:"name"`
	Parent   string       `yaml:"parent"`
	Kind     GeometryKind `yaml:"kind"`
	Texture  string       `yaml:"texture"`
	Radius   float64      `yaml:"radius"`
	Color    *Color       `yaml:"color"`
	Emissive bool         `yaml:"emissive"`
	Opacity  *float64     `yaml:"opacity"`
	Position Vec3         `yaml:"position"`
	Orbit    *OrbitConfig `yaml:"orbit"`
	Spin     float64      `yaml:"spin"`
	Tumble   float64      `yaml:"tumble"`
	Pickable bool         `yaml:"pickable"`
}

// OrbitConfig describes a circular orbit around the parent. Speed is in
// radians per millisecond and Phase in radians.
type OrbitConfig struct {
	Radius float64 `yaml:"radius"`
	Speed  float64 `yaml:"speed"`
	Phase  float64 `yaml:"phase"`
}

// DecorationConfig describes a seeded field of decorative bodies. Positions
// are drawn per axis from [-Spread/2, Spread/2) + Offset and radii from
// [MinRadius, MaxRadius).
type DecorationConfig struct {
	Count     int            `yaml:"count"`
	MinRadius float64        `yaml:"min_radius"`
	MaxRadius float64        `yaml:"max_radius"`
	Spread    float64        `yaml:"spread"`
	Offset    float64        `yaml:"offset"`
	Spin      float64        `yaml:"spin"`
	Tumble    float64        `yaml:"tumble"`
	Color     *Color         `yaml:"color"`
	Kinds     []GeometryKind `yaml:"kinds"`
	Textures  []string       `yaml:"textures"`
	Pickable  bool           `yaml:"pickable"`
}

// Vec3 is an [x, y, z] triple in YAML.
type Vec3 [3]float64

func (v Vec3) Vec() r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// Color is written as "#rrggbb" or "#rrggbbaa".
type Color color.NRGBA

var white = Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA(c)
}

func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Load decodes and validates a YAML scene descriptor. Unknown fields are
// rejected.
func Load(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("solar: config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads a descriptor from disk.
func LoadFile(name string) (*Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("solar: config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Preset loads one of the embedded descriptors by name.
func Preset(name string) (*Config, error) {
	data, err := presetFS.ReadFile(path.Join("presets", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return Load(bytes.NewReader(data))
}

// Presets lists the embedded preset names.
func Presets() []string {
	entries, _ := presetFS.ReadDir("presets")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

// Open loads a preset when nameOrPath names one, and a file otherwise.
func Open(nameOrPath string) (*Config, error) {
	if slices.Contains(Presets(), nameOrPath) {
		return Preset(nameOrPath)
	}
	return LoadFile(nameOrPath)
}

func (c *Config) applyDefaults() {
	if c.Camera.Distance == 0 {
		c.Camera.Distance = 200
	}
	if c.Camera.FOV == 0 {
		c.Camera.FOV = 75
	}
	if c.Camera.Near == 0 {
		c.Camera.Near = 0.1
	}
	if c.Camera.Far == 0 {
		c.Camera.Far = 1500
	}
	if c.Pick.Nudge == nil {
		c.Pick.Nudge = &Vec3{0, 10, 0}
	}
	if c.Pick.MaxSpin == nil {
		maxSpin := 0.1
		c.Pick.MaxSpin = &maxSpin
	}
	if c.Ambient.Color == nil {
		c.Ambient.Color = &white
	}
	if c.Ambient.Intensity == nil {
		intensity := 0.35
		c.Ambient.Intensity = &intensity
	}
	if c.Light.Color == nil {
		c.Light.Color = &white
	}
	if c.Light.Intensity == nil {
		intensity := 1.0
		c.Light.Intensity = &intensity
	}
	if c.Background.Color.A == 0 {
		c.Background.Color = Color{A: 0xff}
	}
}

// Validate reports every problem with the descriptor at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	byName := make(map[string]*BodyConfig, len(c.Bodies))
	for i := range c.Bodies {
		b := &c.Bodies[i]
		switch {
		case b.Name == "":
			fail("body %d: missing name", i)
			continue
		case byName[b.Name] != nil:
			fail("body %q: duplicate name", b.Name)
			continue
		}
		byName[b.Name] = b

		if !(b.Radius >= 0) {
			fail("body %q: invalid radius %g", b.Name, b.Radius)
		}
		if b.Opacity != nil && !(*b.Opacity >= 0 && *b.Opacity <= 1) {
			fail("body %q: opacity %g outside [0, 1]", b.Name, *b.Opacity)
		}
		if b.Orbit != nil {
			if !(b.Orbit.Radius >= 0) {
				fail("body %q: invalid orbit radius %g", b.Name, b.Orbit.Radius)
			}
			if b.Parent == "" {
				fail("body %q: orbit without parent", b.Name)
			}
		}
	}

	for _, b := range c.Bodies {
		if b.Parent != "" && byName[b.Parent] == nil {
			fail("body %q: unknown parent %q", b.Name, b.Parent)
		}
	}
	for _, name := range parentCycles(c.Bodies, byName) {
		fail("body %q: parent cycle", name)
	}

	if c.Light.Follow != "" && byName[c.Light.Follow] == nil {
		fail("light: unknown body %q", c.Light.Follow)
	}

	cam := c.Camera
	if !(cam.FOV > 0 && cam.FOV < 180) {
		fail("camera: fov %g outside (0, 180)", cam.FOV)
	}
	if !(cam.Near > 0 && cam.Far > cam.Near) {
		fail("camera: invalid clip range [%g, %g]", cam.Near, cam.Far)
	}
	if !(cam.Distance >= 0) {
		fail("camera: negative distance %g", cam.Distance)
	}
	if c.Pick.MaxSpin != nil && !(*c.Pick.MaxSpin >= 0) {
		fail("pick: invalid max_spin %g", *c.Pick.MaxSpin)
	}

	for _, l := range []struct {
		label     string
		intensity *float64
	}{{"ambient", c.Ambient.Intensity}, {"light", c.Light.Intensity}} {
		if l.intensity != nil && !(*l.intensity >= 0) {
			fail("%s: invalid intensity %g", l.label, *l.intensity)
		}
	}

	for _, d := range []struct {
		label string
		DecorationConfig
	}{{"stars", c.Stars}, {"asteroids", c.Asteroids}} {
		label := d.label
		if d.Count < 0 {
			fail("%s: negative count %d", label, d.Count)
		}
		if d.MinRadius < 0 || d.MaxRadius < d.MinRadius {
			fail("%s: invalid radius range [%g, %g]", label, d.MinRadius, d.MaxRadius)
		}
		if d.Spread < 0 {
			fail("%s: negative spread %g", label, d.Spread)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("solar: config: %w", err)
	}
	return nil
}

// parentCycles returns the names of bodies whose parent chain loops back,
// in descriptor order.
func parentCycles(bodies []BodyConfig, byName map[string]*BodyConfig) []string {
	var names []string
	for _, b := range bodies {
		seen := map[string]bool{b.Name: true}
		for p := byName[b.Parent]; p != nil; p = byName[p.Parent] {
			if p.Name == b.Name {
				names = append(names, b.Name)
				break
			}
			if seen[p.Name] {
				break
			}
			seen[p.Name] = true
		}
	}
	return names
}

// degrees converts a config angle to radians.
func degrees(d float64) float64 {
	return d * math.Pi / 180
}
