package ecs

import (
	"reflect"
	"slices"
	"unsafe"
	"weak"
)

// Storage is the ECS world: archetypes, entity refs and singletons.
type Storage struct {
	registry   *ComponentRegistry
	archetypes map[uint32]*Archetype
	order      []*Archetype
	singletons map[reflect.Type]*singletonEntry
	generation uint64
}

type singletonEntry struct {
	holder  reflect.Value
	dataPtr unsafe.Pointer
}

// NewStorage creates a new storage backed by the given component registry.
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		registry:   registry,
		archetypes: make(map[uint32]*Archetype),
		singletons: make(map[reflect.Type]*singletonEntry),
	}
}

// Registry returns the component registry this storage was built with.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// Archetypes returns all archetypes in creation order.
func (s *Storage) Archetypes() []*Archetype {
	return s.order
}

// ArchetypeOf returns the archetype holding a live entity, or nil.
func (s *Storage) ArchetypeOf(id EntityId) *Archetype {
	a, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !a.alive(id.Index()) {
		return nil
	}
	return a
}

// Len returns the number of live entities across all archetypes.
func (s *Storage) Len() int {
	n := 0
	for _, a := range s.order {
		n += a.count
	}
	return n
}

// Spawn creates a new entity with the provided components. Components may be
// passed by value or by pointer; pointers are copied.
func (s *Storage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}

	ids := s.componentIds(components)
	archetype := s.archetypeFor(ids)
	slot := archetype.alloc()
	for _, comp := range components {
		idx := archetype.columnOf(componentType(comp))
		archetype.columns[idx].put(int(slot), comp)
	}
	return NewEntityId(archetype.id, slot)
}

// Alive reports whether id names a live entity.
func (s *Storage) Alive(id EntityId) bool {
	a, ok := s.archetypes[id.ArchetypeId()]
	return ok && a.alive(id.Index())
}

// Delete removes the entity and invalidates any ref pointing at it.
func (s *Storage) Delete(id EntityId) bool {
	a, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !a.alive(id.Index()) {
		return false
	}
	if ref := a.detachRef(id); ref != nil {
		ref.Id = 0
		ref.Archetype = nil
	}
	a.release(id.Index())
	return true
}

// AddComponent attaches a component to an entity and returns the entity's
// new id. If the entity already has a component of that type it is
// overwritten in place and the id is unchanged. Dead ids return 0.
func (s *Storage) AddComponent(id EntityId, component any) EntityId {
	old, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !old.alive(id.Index()) {
		return 0
	}

	t := componentType(component)
	if idx := old.columnOf(t); idx >= 0 {
		old.columns[idx].put(int(id.Index()), component)
		return id
	}

	cid := s.registry.id(t)
	ids := make([]uint16, 0, len(old.ids)+1)
	ids = append(ids, old.ids...)
	ids = append(ids, cid)
	slices.Sort(ids)

	return s.migrate(id, old, s.archetypeFor(ids), component)
}

// RemoveComponent detaches a component type from an entity and returns its
// new id. Removing the last component deletes the entity and returns 0.
func (s *Storage) RemoveComponent(id EntityId, compType reflect.Type) EntityId {
	old, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !old.alive(id.Index()) {
		return 0
	}
	if !old.HasComponent(compType) {
		return id
	}
	if len(old.ids) == 1 {
		s.Delete(id)
		return 0
	}

	cid := s.registry.id(compType)
	ids := make([]uint16, 0, len(old.ids)-1)
	for _, c := range old.ids {
		if c != cid {
			ids = append(ids, c)
		}
	}
	return s.migrate(id, old, s.archetypeFor(ids), nil)
}

// migrate copies an entity into target, carrying its ref along.
func (s *Storage) migrate(id EntityId, from, target *Archetype, extra any) EntityId {
	slot := target.alloc()
	for i, t := range target.types {
		if idx := from.columnOf(t); idx >= 0 {
			target.columns[i].put(int(slot), from.columns[idx].value(int(id.Index())))
		}
	}
	if extra != nil {
		target.columns[target.columnOf(componentType(extra))].put(int(slot), extra)
	}

	newId := NewEntityId(target.id, slot)
	if ref := from.detachRef(id); ref != nil {
		ref.Id = newId
		ref.Archetype = target
		target.refs.Put(newId, weak.Make(ref))
	}
	from.release(id.Index())
	return newId
}

// GetComponent returns a pointer to the entity's component of the given type
// boxed in an interface, or nil.
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	a, ok := s.archetypes[id.ArchetypeId()]
	if !ok {
		return nil
	}
	return a.component(id.Index(), compType)
}

// HasComponent reports whether a live entity has the component type.
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	a, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !a.alive(id.Index()) {
		return false
	}
	return a.HasComponent(compType)
}

// CreateEntityRef returns the stable ref for a live entity, creating it on
// first use. Every call for the same entity returns the same pointer while
// any holder keeps it reachable.
func (s *Storage) CreateEntityRef(id EntityId) *EntityRef {
	a, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !a.alive(id.Index()) {
		return nil
	}

	if wp, ok := a.refs.Get(id); ok {
		if ref := wp.Value(); ref != nil {
			return ref
		}
	}

	ref := &EntityRef{Id: id, Archetype: a}
	a.refs.Put(id, weak.Make(ref))
	return ref
}

// ResolveEntityRef returns the current id of the referenced entity.
func (s *Storage) ResolveEntityRef(ref *EntityRef) (EntityId, bool) {
	if !ref.Valid() {
		return 0, false
	}
	return ref.Id, true
}

// InvalidateEntityRef detaches ref from its entity without deleting the
// entity.
func (s *Storage) InvalidateEntityRef(ref *EntityRef) bool {
	if !ref.Valid() {
		return false
	}
	if a := s.archetypes[ref.Id.ArchetypeId()]; a != nil {
		a.refs.Del(ref.Id)
	}
	ref.Id = 0
	ref.Archetype = nil
	return true
}

// Clear deletes every entity and singleton. Outstanding refs are
// invalidated.
func (s *Storage) Clear() {
	for _, a := range s.order {
		for id := range a.Iter() {
			if ref := a.detachRef(id); ref != nil {
				ref.Id = 0
				ref.Archetype = nil
			}
		}
	}
	s.archetypes = make(map[uint32]*Archetype)
	s.order = nil
	s.singletons = make(map[reflect.Type]*singletonEntry)
	s.generation++
}

// AddSingleton stores value as the singleton of its type. An existing
// singleton of that type is overwritten in place, so previously obtained
// pointers observe the new value.
func (s *Storage) AddSingleton(value any) {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	if entry, ok := s.singletons[t]; ok {
		entry.holder.Elem().Set(v)
		return
	}

	holder := reflect.New(t)
	holder.Elem().Set(v)
	s.singletons[t] = &singletonEntry{
		holder:  holder,
		dataPtr: holder.UnsafePointer(),
	}
}

// ReadSingleton points out at the stored singleton. out must be a **T.
// It returns false if no singleton of type T exists.
func (s *Storage) ReadSingleton(out any) bool {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Ptr {
		panic("ReadSingleton expects a pointer to a pointer")
	}
	t := v.Elem().Type().Elem()
	entry, ok := s.singletons[t]
	if !ok {
		return false
	}
	v.Elem().Set(reflect.NewAt(t, entry.dataPtr))
	return true
}

func (s *Storage) getSingletonEntry(t reflect.Type) *singletonEntry {
	return s.singletons[t]
}

// archetypeFor returns the archetype for a sorted component id set, creating
// it on first use. Hash collisions probe forward.
func (s *Storage) archetypeFor(ids []uint16) *Archetype {
	h := hashComponentIds(ids)
	for {
		a, ok := s.archetypes[h]
		if !ok {
			break
		}
		if slices.Equal(a.ids, ids) {
			return a
		}
		h++
		if h == 0 {
			h = 1
		}
	}

	a := newArchetype(h, slices.Clone(ids), s.registry)
	s.archetypes[h] = a
	s.order = append(s.order, a)
	return a
}

func (s *Storage) componentIds(components []any) []uint16 {
	ids := make([]uint16, 0, len(components))
	for _, comp := range components {
		ids = append(ids, s.registry.id(componentType(comp)))
	}
	slices.Sort(ids)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			panic("duplicate component type " + s.registry.types[ids[i]].String())
		}
	}
	return ids
}

// componentType returns the value type of a component passed by value or
// by pointer.
func componentType(comp any) reflect.Type {
	t := reflect.TypeOf(comp)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	checkComponentKind(t)
	return t
}

// hashComponentIds is FNV-1a over the component ids. Zero is reserved.
func hashComponentIds(ids []uint16) uint32 {
	var h uint32 = 2166136261
	const prime uint32 = 16777619
	for _, id := range ids {
		h ^= uint32(id & 0xFF)
		h *= prime
		h ^= uint32(id >> 8)
		h *= prime
	}
	if h == 0 {
		h = 1
	}
	return h
}

// ComponentReader is anything that can look up a component by entity.
type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns the entity's T component, or nil.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	c := reader.GetComponent(entityId, reflect.TypeFor[T]())
	if c == nil {
		return nil
	}
	return c.(*T)
}
