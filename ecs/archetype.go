package ecs

import (
	"iter"
	"math/bits"
	"reflect"
	"weak"

	"github.com/kamstrup/intmap"
)

// Archetype holds every entity that has exactly one particular set of
// component types. Slots are reused after deletion, so an EntityId is only
// stable until its entity is deleted; use an EntityRef to follow an entity.
type Archetype struct {
	id      uint32
	ids     []uint16
	types   []reflect.Type
	columns []column

	live  []uint64
	free  []uint32
	next  uint32
	count int

	refs *intmap.Map[EntityId, weak.Pointer[EntityRef]]
}

func newArchetype(id uint32, ids []uint16, registry *ComponentRegistry) *Archetype {
	a := &Archetype{
		id:      id,
		ids:     ids,
		types:   make([]reflect.Type, len(ids)),
		columns: make([]column, len(ids)),
		refs:    intmap.New[EntityId, weak.Pointer[EntityRef]](64),
	}
	for i, cid := range ids {
		a.types[i] = registry.types[cid]
		a.columns[i] = registry.factories[cid]()
	}
	return a
}

// ID returns the archetype's identifier.
func (a *Archetype) ID() uint32 {
	return a.id
}

// Types returns the component types of this archetype in registration order.
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of live entities.
func (a *Archetype) Len() int {
	return a.count
}

// HasComponent reports whether this archetype carries the component type.
func (a *Archetype) HasComponent(t reflect.Type) bool {
	return a.columnOf(t) >= 0
}

func (a *Archetype) columnOf(t reflect.Type) int {
	for i, typ := range a.types {
		if typ == t {
			return i
		}
	}
	return -1
}

func (a *Archetype) alloc() uint32 {
	var slot uint32
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		slot = a.next
		a.next++
	}

	word := int(slot / 64)
	for len(a.live) <= word {
		a.live = append(a.live, 0)
	}
	a.live[word] |= 1 << (slot % 64)
	a.count++
	return slot
}

func (a *Archetype) alive(slot uint32) bool {
	word := int(slot / 64)
	if word >= len(a.live) {
		return false
	}
	return a.live[word]&(1<<(slot%64)) != 0
}

// release zeroes the slot's components and returns it to the free list.
// It does not touch refs.
func (a *Archetype) release(slot uint32) {
	if !a.alive(slot) {
		return
	}
	a.live[slot/64] &^= 1 << (slot % 64)
	for _, c := range a.columns {
		c.reset(int(slot))
	}
	a.free = append(a.free, slot)
	a.count--
}

// component returns a *T boxed in an interface, or nil.
func (a *Archetype) component(slot uint32, t reflect.Type) any {
	if !a.alive(slot) {
		return nil
	}
	idx := a.columnOf(t)
	if idx < 0 {
		return nil
	}
	return a.columns[idx].value(int(slot))
}

// detachRef removes and returns the live ref tracked for id, if any.
func (a *Archetype) detachRef(id EntityId) *EntityRef {
	wp, ok := a.refs.Get(id)
	if !ok {
		return nil
	}
	a.refs.Del(id)
	return wp.Value()
}

// Iter yields the ids of all live entities in slot order.
func (a *Archetype) Iter() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for word, bitsSet := range a.live {
			for bitsSet != 0 {
				bit := bits.TrailingZeros64(bitsSet)
				bitsSet &^= 1 << bit
				slot := uint32(word*64 + bit)
				if !yield(NewEntityId(a.id, slot)) {
					return
				}
			}
		}
	}
}
