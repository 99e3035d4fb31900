package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

var entityIdType = reflect.TypeFor[EntityId]()

// View looks up entities through a struct of component pointers.
//
// T must be a struct. Each pointer field names a component type and is
// filled with a pointer into storage. A field of type EntityId is filled
// with the entity's id. Embedded pointer fields are always required; named
// pointer fields may be tagged `ecs:"optional"` and are left nil when the
// entity lacks that component.
type View[T any] struct {
	storage *Storage
	fields  []viewField
}

type viewField struct {
	offset   uintptr
	typ      reflect.Type
	optional bool
	entity   bool
}

// NewView creates a view over storage.
func NewView[T any](storage *Storage) *View[T] {
	v := &View[T]{}
	v.Init(storage)
	return v
}

// Init binds the view to a storage. The scheduler calls it for View fields of
// registered systems.
func (v *View[T]) Init(storage *Storage) {
	v.storage = storage
	if v.fields == nil {
		v.fields = parseViewFields(reflect.TypeFor[T]())
	}
}

func parseViewFields(structType reflect.Type) []viewField {
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	fields := make([]viewField, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Type == entityIdType {
			fields = append(fields, viewField{offset: field.Offset, entity: true})
			continue
		}
		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types or EntityId: " + field.Name)
		}

		optional := false
		if tag, ok := field.Tag.Lookup("ecs"); ok {
			if tag != "optional" {
				panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
			optional = !field.Anonymous
		}

		fields = append(fields, viewField{
			offset:   field.Offset,
			typ:      field.Type.Elem(),
			optional: optional,
		})
	}
	return fields
}

// matches reports whether the archetype has every required component.
func (v *View[T]) matches(a *Archetype) bool {
	for _, f := range v.fields {
		if f.entity || f.optional {
			continue
		}
		if !a.HasComponent(f.typ) {
			return false
		}
	}
	return true
}

// bind resolves each field to a column index in a, or -1.
func (v *View[T]) bind(a *Archetype) []int {
	cols := make([]int, len(v.fields))
	for i, f := range v.fields {
		if f.entity {
			cols[i] = -1
			continue
		}
		cols[i] = a.columnOf(f.typ)
	}
	return cols
}

// fill writes the entity's component pointers into *dst. The archetype must
// match and the slot must be live.
func (v *View[T]) fill(dst unsafe.Pointer, a *Archetype, slot uint32, cols []int) {
	for i, f := range v.fields {
		fieldPtr := unsafe.Add(dst, f.offset)
		if f.entity {
			*(*EntityId)(fieldPtr) = NewEntityId(a.id, slot)
			continue
		}
		if cols[i] < 0 {
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}
		*(*unsafe.Pointer)(fieldPtr) = a.columns[cols[i]].ptr(int(slot))
	}
}

// Fill populates *ptr for the entity. It returns false if the entity is dead
// or lacks a required component.
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	a, ok := v.storage.archetypes[id.ArchetypeId()]
	if !ok || !a.alive(id.Index()) || !v.matches(a) {
		return false
	}
	v.fill(unsafe.Pointer(ptr), a, id.Index(), v.bind(a))
	return true
}

// Get returns the populated view struct for the entity, or nil.
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// GetRef is Get through an EntityRef.
func (v *View[T]) GetRef(ref *EntityRef) *T {
	id, ok := v.storage.ResolveEntityRef(ref)
	if !ok {
		return nil
	}
	return v.Get(id)
}

// Iter yields every matching entity, archetypes in creation order and
// entities in slot order.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for _, a := range v.storage.order {
			if a.count == 0 || !v.matches(a) {
				continue
			}
			cols := v.bind(a)
			for id := range a.Iter() {
				var result T
				v.fill(unsafe.Pointer(&result), a, id.Index(), cols)
				if !yield(id, result) {
					return
				}
			}
		}
	}
}

// Values yields the view structs without ids.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}
