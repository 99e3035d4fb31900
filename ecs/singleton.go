package ecs

import (
	"reflect"
)

// Singleton gives typed access to a component instance that belongs to the
// storage rather than to an entity: clocks, cameras, input state.
type Singleton[T any] struct {
	storage *Storage
	entry   *singletonEntry
}

// NewSingleton returns an accessor for the T singleton, creating it from
// initializer (or the zero value) if it does not exist yet.
func NewSingleton[T any](storage *Storage, initializer ...T) *Singleton[T] {
	t := reflect.TypeFor[T]()
	if storage.getSingletonEntry(t) == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		storage.AddSingleton(value)
	}

	s := &Singleton[T]{}
	s.Init(storage)
	return s
}

// Init binds the accessor to a storage. The scheduler calls it for Singleton
// fields of registered systems.
func (s *Singleton[T]) Init(storage *Storage) {
	s.storage = storage
	s.entry = storage.getSingletonEntry(reflect.TypeFor[T]())
}

// Get returns the singleton, or nil if it has not been added.
func (s *Singleton[T]) Get() *T {
	if s.entry == nil && s.storage != nil {
		s.entry = s.storage.getSingletonEntry(reflect.TypeFor[T]())
	}
	if s.entry == nil {
		return nil
	}
	return (*T)(s.entry.dataPtr)
}

// Exists reports whether the singleton has been added to storage.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}
