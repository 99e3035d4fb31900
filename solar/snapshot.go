package solar

import (
	"image"
	"image/color"
	"slices"

	"github.com/plus3/orrery/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is what a renderer needs to draw one tick.
type Frame struct {
	Tick       uint64
	ElapsedMs  float64
	Width      int
	Height     int
	Camera     Camera
	Light      Light
	Ambient    Ambient
	Background Background
	Bodies     []BodyState
}

// BodyState is one body in world space.
type BodyState struct {
	Entity     ecs.EntityId
	Name       string
	Order      int
	Kind       GeometryKind
	Radius     float64
	Position   r3.Vec
	Rotation   r3.Vec
	Color      color.NRGBA
	Emissive   bool
	Opacity    float64
	Texture    *image.NRGBA
	Pickable   bool
	Decoration bool
	Overridden bool
}

// Light is a point light in world space.
type Light struct {
	Position  r3.Vec
	Color     color.NRGBA
	Intensity float64
}

// Ambient is light applied evenly to every lit surface.
type Ambient struct {
	Color     color.NRGBA
	Intensity float64
}

// Background fills the frame behind every body. Texture is nil when the
// configured image could not be loaded.
type Background struct {
	Color   color.NRGBA
	Texture *image.NRGBA
}

// Snapshot captures every body in build order. A disposed scene yields a
// frame without bodies.
func (s *Scene) Snapshot() Frame {
	clock := s.clock.Get()
	frame := Frame{
		Tick:      clock.Tick,
		ElapsedMs: clock.ElapsedMs,
		Width:     s.width,
		Height:    s.height,
		Camera:    s.camera,
		Light:     s.light(),
		Ambient: Ambient{
			Color:     s.cfg.Ambient.Color.NRGBA(),
			Intensity: *s.cfg.Ambient.Intensity,
		},
		Background: Background{
			Color:   s.cfg.Background.Color.NRGBA(),
			Texture: s.background,
		},
	}
	if s.disposed {
		return frame
	}

	frame.Bodies = make([]BodyState, 0, s.storage.Len())
	for id, v := range s.bodies.Iter() {
		frame.Bodies = append(frame.Bodies, BodyState{
			Entity:     id,
			Name:       v.Name,
			Order:      v.Order,
			Kind:       v.Kind,
			Radius:     v.Radius,
			Position:   v.World.Position,
			Rotation:   v.Transform.Rotation,
			Color:      v.Appearance.Color,
			Emissive:   v.Emissive,
			Opacity:    v.Opacity,
			Texture:    v.Appearance.Texture,
			Pickable:   v.Pickable != nil,
			Decoration: v.Decoration != nil,
			Overridden: v.Override != nil,
		})
	}
	slices.SortFunc(frame.Bodies, func(a, b BodyState) int { return a.Order - b.Order })
	return frame
}

func (s *Scene) light() Light {
	l := Light{
		Position:  s.cfg.Light.Position.Vec(),
		Color:     s.cfg.Light.Color.NRGBA(),
		Intensity: *s.cfg.Light.Intensity,
	}
	if s.disposed || s.cfg.Light.Follow == "" {
		return l
	}
	if id, ok := s.Body(s.cfg.Light.Follow); ok {
		if w := ecs.ReadComponent[World](s.storage, id); w != nil {
			l.Position = w.Position
		}
	}
	return l
}
