package ecs

import (
	"reflect"
)

// ComponentRegistry assigns a dense id to every component type and knows how
// to build column storage for it. Each Storage owns one registry, so
// independent worlds never share component layouts.
type ComponentRegistry struct {
	ids       map[reflect.Type]uint16
	types     []reflect.Type
	factories []func() column
}

// NewComponentRegistry creates an empty component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		ids: make(map[reflect.Type]uint16),
	}
}

// RegisterComponent registers T as a component type. Registering the same
// type twice is a no-op.
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeFor[T]()
	if _, ok := r.ids[t]; ok {
		return
	}
	checkComponentKind(t)

	r.ids[t] = uint16(len(r.types))
	r.types = append(r.types, t)
	r.factories = append(r.factories, func() column {
		return &pagedColumn[T]{}
	})
}

// Registered reports whether t has been registered.
func (r *ComponentRegistry) Registered(t reflect.Type) bool {
	_, ok := r.ids[t]
	return ok
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return len(r.types)
}

func (r *ComponentRegistry) id(t reflect.Type) uint16 {
	id, ok := r.ids[t]
	if !ok {
		panic("component type " + t.String() + " not registered")
	}
	return id
}

func checkComponentKind(t reflect.Type) {
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("components cannot be pointers, maps, channels, functions or interfaces: " + t.String())
	}
}
