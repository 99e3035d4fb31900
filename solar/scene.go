package solar

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"slices"
	"time"

	"github.com/plus3/orrery/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDisposed is returned by Tick and Run once the scene has been disposed.
var ErrDisposed = errors.New("solar: scene disposed")

// TextureSource resolves texture names to images.
type TextureSource interface {
	Texture(name string) (*image.NRGBA, error)
}

type releaser interface {
	Release()
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the scene logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scene) { s.logger = logger }
}

// WithTextures sets where textures are loaded from. If src has a Release
// method the scene calls it on Dispose.
func WithTextures(src TextureSource) Option {
	return func(s *Scene) { s.textures = src }
}

// WithSystems registers extra systems after the built-in ones.
func WithSystems(systems ...ecs.System) Option {
	return func(s *Scene) { s.extraSystems = append(s.extraSystems, systems...) }
}

// WithComponents registers extra component types.
func WithComponents(register func(*ecs.ComponentRegistry)) Option {
	return func(s *Scene) { s.extraComponents = append(s.extraComponents, register) }
}

// WithPickSeed seeds the click perturbation. It defaults to the config seed.
func WithPickSeed(seed uint64) Option {
	return func(s *Scene) { s.pickSeed = &seed }
}

// WithViewport sets the initial viewport size.
func WithViewport(width, height int) Option {
	return func(s *Scene) { s.Resize(width, height) }
}

type bodyView struct {
	ecs.EntityId
	*Body
	*Transform
	*World
	*Appearance
	Override   *SpinOverride `ecs:"optional"`
	Pickable   *Pickable     `ecs:"optional"`
	Decoration *Decoration   `ecs:"optional"`
}

type pickView struct {
	ecs.EntityId
	*Body
	*World
	*Pickable
}

type overrideView struct {
	ecs.EntityId
	*Transform
	*Spin
	*SpinOverride
}

// Scene is an animated set of bodies built from a Config. It is not safe for
// concurrent use; Tick, Pick and Snapshot are meant to run on one goroutine.
type Scene struct {
	cfg    Config
	logger *slog.Logger

	textures        TextureSource
	extraSystems    []ecs.System
	extraComponents []func(*ecs.ComponentRegistry)
	pickSeed        *uint64

	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	clock     *ecs.Singleton[Clock]
	bodies    *ecs.View[bodyView]
	pickable  *ecs.View[pickView]
	overrides *ecs.View[overrideView]

	refs       map[string]*ecs.EntityRef
	camera     Camera
	background *image.NRGBA
	width      int
	height     int
	rng        *rand.Rand
	lastPick   *Hit

	closers  []func() error
	disposed bool
}

// New builds a scene. The config is validated first and copied, so later
// changes to cfg do not affect the scene.
func New(cfg *Config, opts ...Option) (*Scene, error) {
	c := *cfg
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s := &Scene{
		cfg:    c,
		logger: slog.New(slog.DiscardHandler),
		refs:   make(map[string]*ecs.EntityRef, len(c.Bodies)),
		camera: NewCamera(c.Camera),
		width:  1280,
		height: 720,
	}
	for _, opt := range opts {
		opt(s)
	}

	seed := c.Seed
	if s.pickSeed != nil {
		seed = *s.pickSeed
	}
	s.rng = rand.New(rand.NewPCG(seed, seed^pickStream))

	if r, ok := s.textures.(releaser); ok {
		s.OnDispose(func() error {
			r.Release()
			return nil
		})
	}

	registry := ecs.NewComponentRegistry()
	RegisterComponents(registry)
	for _, register := range s.extraComponents {
		register(registry)
	}
	s.storage = ecs.NewStorage(registry)
	s.clock = ecs.NewSingleton(s.storage, Clock{Mode: c.SpinMode})
	s.bodies = ecs.NewView[bodyView](s.storage)
	s.pickable = ecs.NewView[pickView](s.storage)
	s.overrides = ecs.NewView[overrideView](s.storage)

	if err := s.build(); err != nil {
		return nil, err
	}

	s.scheduler = ecs.NewScheduler(s.storage)
	s.scheduler.Register(&ClockSystem{})
	s.scheduler.Register(&OrbitSystem{})
	s.scheduler.Register(&SpinSystem{})
	s.scheduler.Register(&HierarchySystem{})
	for _, system := range s.extraSystems {
		s.scheduler.Register(system)
	}

	s.logger.Info("scene built",
		"name", c.Name,
		"bodies", len(c.Bodies),
		"decorations", c.Stars.Count+c.Asteroids.Count,
		"spin_mode", c.SpinMode.String(),
	)
	return s, nil
}

const (
	decorationStream = 0x9e3779b97f4a7c15
	pickStream       = 0xd1b54a32d192ed03
)

func (s *Scene) build() error {
	order := 0
	for _, b := range s.cfg.Bodies {
		components := []any{
			Body{Name: b.Name, Kind: b.Kind, Texture: b.Texture, Radius: b.Radius, Order: order},
			Transform{Position: b.Position.Vec()},
			World{Position: b.Position.Vec()},
			Spin{Rate: r3.Vec{X: b.Tumble, Y: b.Spin}},
			s.appearance(b.Name, b.Texture, b.Color, b.Emissive, b.Opacity),
		}
		if b.Orbit != nil {
			components = append(components, Orbit{Radius: b.Orbit.Radius, Speed: b.Orbit.Speed, Phase: b.Orbit.Phase})
		}
		if b.Pickable {
			components = append(components, Pickable{})
		}
		id := s.storage.Spawn(components...)
		s.refs[b.Name] = s.storage.CreateEntityRef(id)
		order++
	}

	for _, b := range s.cfg.Bodies {
		if b.Parent == "" {
			continue
		}
		s.storage.AddComponent(s.refs[b.Name].Id, Parent{Ref: s.refs[b.Parent]})
	}

	rng := rand.New(rand.NewPCG(s.cfg.Seed, s.cfg.Seed^decorationStream))
	order = s.decorate(rng, "star", s.cfg.Stars, order)
	s.decorate(rng, "asteroid", s.cfg.Asteroids, order)

	if name := s.cfg.Background.Texture; name != "" {
		s.background = s.texture("background", name)
	}

	// Place orbiting bodies before the first tick without advancing spin.
	initial := ecs.NewScheduler(s.storage)
	initial.Register(&OrbitSystem{})
	initial.Register(&HierarchySystem{})
	if err := initial.Step(0); err != nil {
		return fmt.Errorf("solar: build: %w", err)
	}
	initial.Close()
	return nil
}

// decorate spawns a seeded decoration field and returns the next order.
func (s *Scene) decorate(rng *rand.Rand, label string, d DecorationConfig, order int) int {
	for i := range d.Count {
		radius := d.MinRadius + rng.Float64()*(d.MaxRadius-d.MinRadius)
		pos := r3.Vec{
			X: (rng.Float64()-0.5)*d.Spread + d.Offset,
			Y: (rng.Float64()-0.5)*d.Spread + d.Offset,
			Z: (rng.Float64()-0.5)*d.Spread + d.Offset,
		}
		kind := KindSphere
		if len(d.Kinds) > 0 {
			kind = d.Kinds[rng.IntN(len(d.Kinds))]
		}
		var tex string
		if len(d.Textures) > 0 {
			tex = d.Textures[rng.IntN(len(d.Textures))]
		}

		name := fmt.Sprintf("%s-%03d", label, i)
		components := []any{
			Body{Name: name, Kind: kind, Texture: tex, Radius: radius, Order: order},
			Transform{Position: pos},
			World{Position: pos},
			Spin{Rate: r3.Vec{X: d.Tumble, Y: d.Spin}},
			s.appearance(name, tex, d.Color, false, nil),
			Decoration{},
		}
		if d.Pickable {
			components = append(components, Pickable{})
		}
		s.storage.Spawn(components...)
		order++
	}
	return order
}

func (s *Scene) appearance(body, tex string, c *Color, emissive bool, opacity *float64) Appearance {
	a := Appearance{Color: white.NRGBA(), Emissive: emissive, Opacity: 1}
	if c != nil {
		a.Color = c.NRGBA()
	}
	if opacity != nil {
		a.Opacity = *opacity
	}
	if tex != "" {
		a.Texture = s.texture(body, tex)
	}
	return a
}

// texture loads name, logging and returning nil on failure.
func (s *Scene) texture(body, name string) *image.NRGBA {
	if s.textures == nil {
		return nil
	}
	img, err := s.textures.Texture(name)
	if err != nil {
		s.logger.Warn("texture unavailable, using fallback material",
			"body", body, "texture", name, "error", err)
		return nil
	}
	return img
}

// Tick advances every body to elapsedMs, measured from the scene epoch.
func (s *Scene) Tick(elapsedMs float64) error {
	if s.disposed {
		return ErrDisposed
	}
	if err := s.scheduler.Step(elapsedMs); err != nil {
		if errors.Is(err, ecs.ErrClosed) {
			return ErrDisposed
		}
		return fmt.Errorf("solar: tick: %w", err)
	}
	return nil
}

// Run ticks the scene at interval until ctx is done or the scene is
// disposed. Elapsed time continues from the last tick.
func (s *Scene) Run(ctx context.Context, interval time.Duration) error {
	if s.disposed {
		return ErrDisposed
	}
	s.scheduler.Run(ctx, interval)
	return ctx.Err()
}

// Clock returns the time of the last tick.
func (s *Scene) Clock() Clock {
	return *s.clock.Get()
}

// Pick returns the nearest pickable body hit by the ray. Bodies are offered
// in build order, so equal distances resolve to the earlier body.
func (s *Scene) Pick(origin, direction r3.Vec) (Hit, bool) {
	if s.disposed {
		return Hit{}, false
	}

	var views []pickView
	for _, v := range s.pickable.Iter() {
		views = append(views, v)
	}
	slices.SortFunc(views, func(a, b pickView) int { return a.Order - b.Order })

	candidates := make([]Candidate, len(views))
	for i, v := range views {
		candidates[i] = Candidate{Entity: v.EntityId, Center: v.World.Position, Radius: v.Body.Radius}
	}

	ray := NewRay(origin, direction)
	i, t := PickNearest(ray, candidates)
	if i < 0 {
		return Hit{}, false
	}
	hit := Hit{
		Entity:   views[i].EntityId,
		Name:     views[i].Name,
		Distance: t,
		Point:    ray.At(t),
	}
	s.lastPick = &hit
	return hit, true
}

// PickAt picks through the viewport point (x, y).
func (s *Scene) PickAt(x, y float64) (Hit, bool) {
	ray := s.camera.Ray(x, y, float64(s.width), float64(s.height))
	return s.Pick(ray.Origin, ray.Direction)
}

// Click picks at (x, y) and perturbs the body that was hit. The returned hit
// carries the entity id the body has after the perturbation.
func (s *Scene) Click(x, y float64) (Hit, bool) {
	hit, ok := s.PickAt(x, y)
	if !ok {
		return Hit{}, false
	}
	if id, ok := s.Perturb(hit.Entity); ok {
		hit.Entity = id
		if s.lastPick != nil {
			s.lastPick.Entity = id
		}
	}
	return hit, true
}

// Perturb nudges a body by the configured offset and replaces its spin with
// a random override in [-max_spin, max_spin] per axis. Orbiting bodies are
// nudged through their orbit offset. A body gaining its first override
// moves archetype, so Perturb returns the body's current id.
func (s *Scene) Perturb(id ecs.EntityId) (ecs.EntityId, bool) {
	if s.disposed || !s.storage.Alive(id) {
		return 0, false
	}

	nudge := s.cfg.Pick.Nudge.Vec()
	if orbit := ecs.ReadComponent[Orbit](s.storage, id); orbit != nil {
		orbit.Offset = r3.Add(orbit.Offset, nudge)
	} else if t := ecs.ReadComponent[Transform](s.storage, id); t != nil {
		t.Position = r3.Add(t.Position, nudge)
	}

	maxSpin := *s.cfg.Pick.MaxSpin
	override := SpinOverride{
		Rate: r3.Vec{
			X: (s.rng.Float64()*2 - 1) * maxSpin,
			Y: (s.rng.Float64()*2 - 1) * maxSpin,
			Z: (s.rng.Float64()*2 - 1) * maxSpin,
		},
		SinceMs: s.clock.Get().ElapsedMs,
	}
	if t := ecs.ReadComponent[Transform](s.storage, id); t != nil {
		override.Base = t.Rotation
	}
	id = s.storage.AddComponent(id, override)

	if body := ecs.ReadComponent[Body](s.storage, id); body != nil {
		s.logger.Debug("body perturbed", "body", body.Name, "spin", override.Rate)
	}
	return id, true
}

// ResetOverrides removes every spin override and returns how many were
// cleared. In SpinElapsed mode rotation continues from where it is.
func (s *Scene) ResetOverrides() int {
	type reset struct {
		id   ecs.EntityId
		spin *Spin
		rot  r3.Vec
	}
	var resets []reset
	for id, v := range s.overrides.Iter() {
		resets = append(resets, reset{id: id, spin: v.Spin, rot: v.Transform.Rotation})
	}

	elapsed := s.clock.Get().ElapsedMs
	for _, r := range resets {
		if s.cfg.SpinMode == SpinElapsed {
			r.spin.Base = r3.Sub(r.rot, r3.Scale(elapsed/FrameMs, r.spin.Rate))
		}
		s.storage.RemoveComponent(r.id, reflect.TypeFor[SpinOverride]())
	}
	if len(resets) > 0 {
		s.logger.Debug("spin overrides cleared", "count", len(resets))
	}
	return len(resets)
}

// Remove deletes a configured body. Its children are placed as roots from
// the next tick on.
func (s *Scene) Remove(name string) bool {
	ref, ok := s.refs[name]
	if !ok || !ref.Valid() {
		return false
	}
	s.storage.Delete(ref.Id)
	delete(s.refs, name)
	return true
}

// Body returns the current entity id of a configured body.
func (s *Scene) Body(name string) (ecs.EntityId, bool) {
	ref, ok := s.refs[name]
	if !ok || !ref.Valid() {
		return 0, false
	}
	return ref.Id, true
}

// Resize sets the viewport. Zero or negative sizes are ignored.
func (s *Scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.width, s.height = width, height
}

// Viewport returns the viewport size.
func (s *Scene) Viewport() (int, int) {
	return s.width, s.height
}

// Camera returns the scene camera for the host to orbit and zoom.
func (s *Scene) Camera() *Camera {
	return &s.camera
}

// Config returns the validated config the scene was built from.
func (s *Scene) Config() *Config {
	return &s.cfg
}

// Storage exposes the entity storage.
func (s *Scene) Storage() *ecs.Storage {
	return s.storage
}

// LastPick returns the most recent successful pick.
func (s *Scene) LastPick() (Hit, bool) {
	if s.lastPick == nil {
		return Hit{}, false
	}
	return *s.lastPick, true
}

// SceneStats combines scheduler and storage statistics.
type SceneStats struct {
	Scheduler *ecs.SchedulerStats
	Storage   ecs.StorageStats
}

// Stats returns scheduler timings and the storage layout.
func (s *Scene) Stats() SceneStats {
	return SceneStats{
		Scheduler: s.scheduler.Stats(),
		Storage:   s.storage.CollectStats(),
	}
}

// OnDispose registers fn to run on Dispose. Functions run in reverse
// registration order.
func (s *Scene) OnDispose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Dispose stops ticking and releases resources. Only the first call has any
// effect; it returns the joined errors of the registered functions.
func (s *Scene) Dispose() error {
	if s.disposed {
		return nil
	}
	s.disposed = true
	if s.scheduler != nil {
		s.scheduler.Close()
	}

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	s.storage.Clear()
	s.background = nil
	s.lastPick = nil

	s.logger.Info("scene disposed", "name", s.cfg.Name)
	return errors.Join(errs...)
}

// Disposed reports whether Dispose has been called.
func (s *Scene) Disposed() bool {
	return s.disposed
}
