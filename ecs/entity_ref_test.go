package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/orrery/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRefLifecycle(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 1})
	ref := storage.CreateEntityRef(id)
	require.NotNil(t, ref)
	assert.Same(t, ref, storage.CreateEntityRef(id))

	resolved, ok := storage.ResolveEntityRef(ref)
	assert.True(t, ok)
	assert.Equal(t, id, resolved)

	assert.True(t, storage.InvalidateEntityRef(ref))
	assert.False(t, storage.InvalidateEntityRef(ref))
	_, ok = storage.ResolveEntityRef(ref)
	assert.False(t, ok)
	assert.True(t, storage.Alive(id), "invalidating a ref keeps the entity")
}

func TestEntityRefFollowsMoves(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 4})
	ref := storage.CreateEntityRef(id)

	added := storage.AddComponent(id, Velocity{DX: 1})
	assert.Equal(t, added, ref.Id)

	removed := storage.RemoveComponent(added, reflect.TypeFor[Velocity]())
	assert.Equal(t, removed, ref.Id)
	assert.Same(t, ref, storage.CreateEntityRef(removed))

	assert.Equal(t, 4.0, ecs.ReadComponent[Position](storage, ref.Id).X)
}

func TestEntityRefInvalidatedOnDelete(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	a := storage.Spawn(Position{X: 1})
	b := storage.Spawn(Position{X: 2})
	refA := storage.CreateEntityRef(a)
	refB := storage.CreateEntityRef(b)

	storage.Delete(a)
	assert.False(t, refA.Valid())
	assert.Nil(t, refA.Archetype)
	assert.True(t, refB.Valid())

	reused := storage.Spawn(Position{X: 3})
	assert.Equal(t, a, reused)
	assert.False(t, refA.Valid(), "slot reuse must not revive an old ref")

	last := storage.RemoveComponent(b, reflect.TypeFor[Position]())
	assert.Equal(t, ecs.EntityId(0), last)
	assert.False(t, refB.Valid())
}

func TestCreateEntityRefDeadEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{})
	storage.Delete(id)
	assert.Nil(t, storage.CreateEntityRef(id))

	var nilRef *ecs.EntityRef
	assert.False(t, nilRef.Valid())
	_, ok := storage.ResolveEntityRef(nilRef)
	assert.False(t, ok)
}
