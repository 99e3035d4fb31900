package ecs

import "unsafe"

// column is the type-erased storage for one component type inside an
// archetype. Slot allocation belongs to the archetype; a column only holds
// values.
type column interface {
	put(slot int, item any) bool
	reset(slot int)
	ptr(slot int) unsafe.Pointer
	value(slot int) any
}

const pageSize = 128

// pagedColumn stores values in fixed-size pages so a pointer handed out for
// a slot stays valid while other slots are appended.
type pagedColumn[T any] struct {
	pages []*[pageSize]T
}

func (c *pagedColumn[T]) put(slot int, item any) bool {
	var v T
	switch x := item.(type) {
	case T:
		v = x
	case *T:
		if x == nil {
			return false
		}
		v = *x
	default:
		return false
	}

	page := slot / pageSize
	for len(c.pages) <= page {
		c.pages = append(c.pages, new([pageSize]T))
	}
	c.pages[page][slot%pageSize] = v
	return true
}

func (c *pagedColumn[T]) reset(slot int) {
	page := slot / pageSize
	if page >= len(c.pages) {
		return
	}
	var zero T
	c.pages[page][slot%pageSize] = zero
}

func (c *pagedColumn[T]) ptr(slot int) unsafe.Pointer {
	return unsafe.Pointer(&c.pages[slot/pageSize][slot%pageSize])
}

// value returns a *T for the slot.
func (c *pagedColumn[T]) value(slot int) any {
	return &c.pages[slot/pageSize][slot%pageSize]
}
