package solar

import (
	"fmt"
	"image"
	"image/color"

	"github.com/plus3/orrery/ecs"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// GeometryKind selects the mesh a body is drawn with. Picking always uses
// the bounding sphere.
type GeometryKind int

const (
	KindSphere GeometryKind = iota
	KindDodecahedron
	KindIcosahedron
)

var geometryKindNames = map[GeometryKind]string{
	KindSphere:       "sphere",
	KindDodecahedron: "dodecahedron",
	KindIcosahedron:  "icosahedron",
}

func (k GeometryKind) String() string {
	if name, ok := geometryKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("GeometryKind(%d)", int(k))
}

// Facets returns the face count used for flat shading, or 0 for a smooth
// sphere.
func (k GeometryKind) Facets() int {
	switch k {
	case KindDodecahedron:
		return 12
	case KindIcosahedron:
		return 20
	}
	return 0
}

func (k *GeometryKind) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	for kind, n := range geometryKindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown geometry kind %q", node.Line, name)
}

// SpinMode selects how rotation advances.
type SpinMode int

const (
	// SpinPerTick adds the spin rate once per tick, whatever the elapsed time.
	SpinPerTick SpinMode = iota
	// SpinElapsed derives rotation from elapsed time, one rate step per
	// FrameMs.
	SpinElapsed
)

// FrameMs is the frame length spin rates are expressed against in
// SpinElapsed mode.
const FrameMs = 1000.0 / 60.0

func (m SpinMode) String() string {
	if m == SpinElapsed {
		return "elapsed"
	}
	return "per-tick"
}

func (m *SpinMode) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	switch name {
	case "", "per-tick":
		*m = SpinPerTick
	case "elapsed":
		*m = SpinElapsed
	default:
		return fmt.Errorf("line %d: unknown spin mode %q", node.Line, name)
	}
	return nil
}

// Body identifies a rendered celestial object. Order is the build order and
// breaks ties between equally distant pick hits.
type Body struct {
	Name    string
	Kind    GeometryKind
	Texture string
	Radius  float64
	Order   int
}

// Transform is a body's local frame: relative to its parent when it has
// one, absolute otherwise.
type Transform struct {
	Position r3.Vec
	Rotation r3.Vec
}

// Orbit places a body on a circle around its parent. Offset is added after
// the circle position and accumulates click nudges.
type Orbit struct {
	Radius float64
	Speed  float64
	Phase  float64
	Offset r3.Vec
}

// Position returns the local orbit position at elapsedMs.
func (o Orbit) Position(elapsedMs float64) r3.Vec {
	angle := o.Phase + elapsedMs*o.Speed
	return r3.Add(orbitPoint(o.Radius, angle), o.Offset)
}

// Parent links a body to the body it is positioned against.
type Parent struct {
	Ref *ecs.EntityRef
}

// Spin is the default rotation rate in radians per frame. Base is the
// rotation at elapsed zero in SpinElapsed mode.
type Spin struct {
	Rate r3.Vec
	Base r3.Vec
}

// SpinOverride replaces Spin once a body has been clicked. In SpinElapsed
// mode rotation continues from Base, captured at SinceMs.
type SpinOverride struct {
	Rate    r3.Vec
	Base    r3.Vec
	SinceMs float64
}

// Pickable marks bodies that pointer clicks may hit.
type Pickable struct{}

// Decoration marks generated stars and asteroids.
type Decoration struct{}

// Appearance is the resolved material of a body.
type Appearance struct {
	Color    color.NRGBA
	Emissive bool
	Opacity  float64
	Texture  *image.NRGBA
}

// World is the resolved absolute position, rewritten every tick.
type World struct {
	Position r3.Vec
}

// Clock is the scene's time singleton.
type Clock struct {
	Tick      uint64
	ElapsedMs float64
	DeltaMs   float64
	Mode      SpinMode
}

// RegisterComponents registers every solar component type.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Body](registry)
	ecs.RegisterComponent[Transform](registry)
	ecs.RegisterComponent[Orbit](registry)
	ecs.RegisterComponent[Parent](registry)
	ecs.RegisterComponent[Spin](registry)
	ecs.RegisterComponent[SpinOverride](registry)
	ecs.RegisterComponent[Pickable](registry)
	ecs.RegisterComponent[Decoration](registry)
	ecs.RegisterComponent[Appearance](registry)
	ecs.RegisterComponent[World](registry)
}
