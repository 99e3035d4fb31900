package ecs

import (
	"iter"
	"unsafe"
)

// Query is a View that caches its matching archetypes and snapshots the
// matching entities once per frame. The Scheduler executes the queries of a
// system right before running it.
type Query[T any] struct {
	view       View[T]
	storage    *Storage
	archetypes []*Archetype
	seen       int
	generation uint64

	ids   []EntityId
	items []T
	valid bool
}

// NewQuery creates a query over storage.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init binds the query to a storage and drops any cached state.
func (q *Query[T]) Init(storage *Storage) {
	q.view.Init(storage)
	q.storage = storage
	q.archetypes = nil
	q.seen = -1
	q.valid = false
}

// Execute snapshots the matching entities.
func (q *Query[T]) Execute() {
	q.refreshArchetypes()

	q.ids = q.ids[:0]
	q.items = q.items[:0]
	for _, a := range q.archetypes {
		if a.count == 0 {
			continue
		}
		cols := q.view.bind(a)
		for id := range a.Iter() {
			var item T
			q.view.fill(unsafe.Pointer(&item), a, id.Index(), cols)
			q.ids = append(q.ids, id)
			q.items = append(q.items, item)
		}
	}
	q.valid = true
}

// Archetypes are only ever appended to storage.order between calls to
// Clear, so only the tail past q.seen needs matching.
func (q *Query[T]) refreshArchetypes() {
	if q.seen < 0 || q.generation != q.storage.generation {
		q.archetypes = nil
		q.seen = 0
		q.generation = q.storage.generation
	}
	order := q.storage.order
	if len(order) == q.seen {
		return
	}
	for _, a := range order[q.seen:] {
		if q.view.matches(a) {
			q.archetypes = append(q.archetypes, a)
		}
	}
	q.seen = len(order)
}

// Len returns the number of entities in the last snapshot.
func (q *Query[T]) Len() int {
	return len(q.items)
}

// Iter yields the view structs captured by the last Execute.
// Panics if Execute has not been called.
func (q *Query[T]) Iter() iter.Seq[T] {
	if !q.valid {
		panic("Query.Iter() called before Query.Execute()")
	}
	return func(yield func(T) bool) {
		for i := range q.items {
			if !yield(q.items[i]) {
				return
			}
		}
	}
}

// Entries yields ids alongside view structs from the last Execute.
// Panics if Execute has not been called.
func (q *Query[T]) Entries() iter.Seq2[EntityId, T] {
	if !q.valid {
		panic("Query.Entries() called before Query.Execute()")
	}
	return func(yield func(EntityId, T) bool) {
		for i := range q.items {
			if !yield(q.ids[i], q.items[i]) {
				return
			}
		}
	}
}
