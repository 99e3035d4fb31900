package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/orrery/ecs"
)

func BenchmarkSpawn(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		storage.Spawn(Position{X: 1, Y: 2}, Velocity{DX: 0.5, DY: 0.5})
	}
}

func BenchmarkDelete(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	ids := make([]ecs.EntityId, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = storage.Spawn(Position{X: 1, Y: 2}, Velocity{DX: 0.5, DY: 0.5})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		storage.Delete(ids[i])
	}
}

func BenchmarkAddRemoveComponent(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{X: 1})
	nameType := reflect.TypeFor[Name]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id = storage.AddComponent(id, Name{Value: "moon"})
		id = storage.RemoveComponent(id, nameType)
	}
}

func BenchmarkQueryExecute(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	for i := 0; i < 10000; i++ {
		storage.Spawn(Position{X: float64(i)}, Velocity{DX: 1})
	}
	query := ecs.NewQuery[struct {
		*Position
		*Velocity
	}](storage)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		query.Execute()
		for item := range query.Iter() {
			item.X += item.DX
		}
	}
}

func BenchmarkViewIter(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	for i := 0; i < 10000; i++ {
		storage.Spawn(Position{X: float64(i)}, Velocity{DX: 1})
	}
	view := ecs.NewView[struct {
		*Position
		*Velocity
	}](storage)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for item := range view.Values() {
			item.X += item.DX
		}
	}
}

func BenchmarkResolveEntityRef(b *testing.B) {
	storage := ecs.NewStorage(newTestRegistry())
	ref := storage.CreateEntityRef(storage.Spawn(Position{}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = storage.ResolveEntityRef(ref)
	}
}
