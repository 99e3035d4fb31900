package solar

import (
	"math"

	"github.com/plus3/orrery/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxDepth bounds parent chain walks.
const maxDepth = 64

func orbitPoint(radius, angle float64) r3.Vec {
	return r3.Vec{X: radius * math.Cos(angle), Z: radius * math.Sin(angle)}
}

// ClockSystem publishes the frame time to the Clock singleton.
type ClockSystem struct {
	Clock ecs.Singleton[Clock]
}

func (s *ClockSystem) Execute(frame *ecs.UpdateFrame) {
	clock := s.Clock.Get()
	clock.Tick = frame.Tick
	clock.ElapsedMs = frame.ElapsedMs
	clock.DeltaMs = frame.DeltaMs
}

// OrbitSystem places orbiting bodies on their circle. Positions depend on
// elapsed time only.
type OrbitSystem struct {
	Bodies ecs.Query[struct {
		*Orbit
		*Transform
	}]
}

func (s *OrbitSystem) Execute(frame *ecs.UpdateFrame) {
	for body := range s.Bodies.Iter() {
		body.Transform.Position = body.Orbit.Position(frame.ElapsedMs)
	}
}

// SpinSystem advances rotations, honoring spin overrides.
type SpinSystem struct {
	Clock  ecs.Singleton[Clock]
	Bodies ecs.Query[struct {
		*Transform
		*Spin
		Override *SpinOverride `ecs:"optional"`
	}]
}

func (s *SpinSystem) Execute(frame *ecs.UpdateFrame) {
	mode := s.Clock.Get().Mode
	for body := range s.Bodies.Iter() {
		if mode == SpinElapsed {
			body.Transform.Rotation = elapsedRotation(body.Spin, body.Override, frame.ElapsedMs)
			continue
		}
		rate := body.Spin.Rate
		if body.Override != nil {
			rate = body.Override.Rate
		}
		body.Transform.Rotation = r3.Add(body.Transform.Rotation, rate)
	}
}

func elapsedRotation(spin *Spin, override *SpinOverride, elapsedMs float64) r3.Vec {
	if override != nil {
		return r3.Add(override.Base, r3.Scale((elapsedMs-override.SinceMs)/FrameMs, override.Rate))
	}
	return r3.Add(spin.Base, r3.Scale(elapsedMs/FrameMs, spin.Rate))
}

// HierarchySystem resolves world positions through parent chains. A parent
// whose ref no longer resolves is ignored and the child is placed as a root.
type HierarchySystem struct {
	Bodies ecs.Query[struct {
		*Transform
		*World
		Parent *Parent `ecs:"optional"`
	}]
	Nodes ecs.View[struct {
		*Transform
		Parent *Parent `ecs:"optional"`
	}]

	storage  *ecs.Storage
	resolved map[ecs.EntityId]r3.Vec
}

func (s *HierarchySystem) Execute(frame *ecs.UpdateFrame) {
	if s.resolved == nil {
		s.resolved = make(map[ecs.EntityId]r3.Vec)
	}
	clear(s.resolved)
	s.storage = frame.Storage

	for id, body := range s.Bodies.Entries() {
		body.World.Position = s.resolve(id, body.Transform, body.Parent, 0)
	}
}

func (s *HierarchySystem) resolve(id ecs.EntityId, t *Transform, p *Parent, depth int) r3.Vec {
	if pos, ok := s.resolved[id]; ok {
		return pos
	}

	pos := t.Position
	if p != nil && depth < maxDepth {
		if parentId, ok := s.storage.ResolveEntityRef(p.Ref); ok && parentId != id {
			if parent := s.Nodes.Get(parentId); parent != nil {
				pos = r3.Add(s.resolve(parentId, parent.Transform, parent.Parent, depth+1), pos)
			}
		}
	}

	s.resolved[id] = pos
	return pos
}
