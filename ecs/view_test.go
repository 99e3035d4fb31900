package ecs_test

import (
	"testing"

	"github.com/plus3/orrery/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type positionedName struct {
	ecs.EntityId
	*Position
	*Name
	Velocity *Velocity `ecs:"optional"`
}

func TestViewGet(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{X: 1}, Name{Value: "earth"})
	view := ecs.NewView[positionedName](storage)

	item := view.Get(id)
	require.NotNil(t, item)
	assert.Equal(t, id, item.EntityId)
	assert.Equal(t, "earth", item.Name.Value)
	assert.Nil(t, item.Velocity)

	item.Position.X = 10
	assert.Equal(t, 10.0, ecs.ReadComponent[Position](storage, id).X, "view fields point into storage")
}

func TestViewMissingRequired(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{})
	view := ecs.NewView[positionedName](storage)

	assert.Nil(t, view.Get(id))

	storage.Delete(id)
	var out positionedName
	assert.False(t, view.Fill(id, &out))
}

func TestViewOptionalPresent(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{}, Name{Value: "mars"}, Velocity{DX: 2})
	view := ecs.NewView[positionedName](storage)

	item := view.Get(id)
	require.NotNil(t, item)
	require.NotNil(t, item.Velocity)
	assert.Equal(t, 2.0, item.Velocity.DX)
}

func TestViewGetRef(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{X: 5}, Name{Value: "moon"})
	ref := storage.CreateEntityRef(id)
	view := ecs.NewView[positionedName](storage)

	storage.AddComponent(id, Radius(3))
	item := view.GetRef(ref)
	require.NotNil(t, item)
	assert.Equal(t, 5.0, item.Position.X)

	storage.Delete(ref.Id)
	assert.Nil(t, view.GetRef(ref))
}

func TestViewIterOrder(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	storage.Spawn(Position{X: 1}, Name{Value: "a"})
	storage.Spawn(Position{X: 2}, Name{Value: "b"}, Velocity{})
	storage.Spawn(Position{X: 3}, Name{Value: "c"})
	storage.Spawn(Position{X: 4})

	view := ecs.NewView[positionedName](storage)

	var names []string
	for item := range view.Values() {
		names = append(names, item.Name.Value)
	}
	assert.Equal(t, []string{"a", "c", "b"}, names, "archetypes in creation order, slots in order")
}

func TestViewInvalidStruct(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	assert.Panics(t, func() { ecs.NewView[int](storage) })
	assert.Panics(t, func() { ecs.NewView[struct{ Position }](storage) })
	assert.Panics(t, func() {
		ecs.NewView[struct {
			P *Position `ecs:"maybe"`
		}](storage)
	})
}
