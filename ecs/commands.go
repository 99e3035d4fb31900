package ecs

import "reflect"

// Commands buffers structural changes made while systems run. The scheduler
// flushes the buffer after the last system of a frame, so queries never see
// archetypes change underneath them.
type Commands struct {
	deletes []EntityId
	removes []removeOp
	adds    []addOp
	spawns  [][]any
	defers  []func()
}

type addOp struct {
	entity    EntityId
	component any
}

type removeOp struct {
	entity   EntityId
	compType reflect.Type
}

func newCommands() *Commands {
	return &Commands{}
}

// Spawn queues an entity spawn.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, components)
}

// Delete queues an entity deletion.
func (c *Commands) Delete(entity EntityId) {
	c.deletes = append(c.deletes, entity)
}

// AddComponent queues a component addition.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addOp{entity: entity, component: component})
}

// RemoveComponent queues a component removal.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeOp{entity: entity, compType: compType})
}

// Defer queues fn to run after every structural change has been applied.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.deletes) + len(c.removes) + len(c.adds) + len(c.spawns) + len(c.defers)
}

// Flush applies queued operations to storage in the order deletes, removes,
// adds, spawns, defers, and empties the buffer. Operations on an entity
// deleted in the same flush are dropped. Later operations on an entity follow
// it to the archetype it migrated to.
func (c *Commands) Flush(storage *Storage) {
	deleted := make(map[EntityId]struct{}, len(c.deletes))
	for _, id := range c.deletes {
		if storage.Delete(id) {
			deleted[id] = struct{}{}
		}
	}

	// current maps a queued id to where the entity lives now.
	current := make(map[EntityId]EntityId)
	resolve := func(id EntityId) EntityId {
		if now, ok := current[id]; ok {
			return now
		}
		return id
	}

	for _, op := range c.removes {
		if _, gone := deleted[op.entity]; !gone {
			current[op.entity] = storage.RemoveComponent(resolve(op.entity), op.compType)
		}
	}

	for _, op := range c.adds {
		if _, gone := deleted[op.entity]; !gone {
			current[op.entity] = storage.AddComponent(resolve(op.entity), op.component)
		}
	}

	for _, components := range c.spawns {
		storage.Spawn(components...)
	}

	for _, fn := range c.defers {
		fn()
	}

	c.deletes = c.deletes[:0]
	c.removes = c.removes[:0]
	c.adds = c.adds[:0]
	c.spawns = c.spawns[:0]
	c.defers = c.defers[:0]
}
