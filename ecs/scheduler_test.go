package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/orrery/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type driftSystem struct {
	Bodies ecs.Query[struct {
		*Position
		*Velocity
	}]
	Frames []ecs.UpdateFrame
}

func (s *driftSystem) Execute(frame *ecs.UpdateFrame) {
	s.Frames = append(s.Frames, *frame)
	for item := range s.Bodies.Iter() {
		item.Position.X += item.Velocity.DX * frame.DeltaMs
	}
}

type countSystem struct {
	Named ecs.View[struct{ *Name }]
	Total ecs.Singleton[int]
	Seen  int
}

func (s *countSystem) Execute(frame *ecs.UpdateFrame) {
	s.Seen = 0
	for range s.Named.Values() {
		s.Seen++
	}
	*s.Total.Get() += s.Seen
}

func TestSchedulerStep(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{}, Velocity{DX: 2})
	scheduler := ecs.NewScheduler(storage)

	drift := &driftSystem{}
	scheduler.Register(drift)

	require.NoError(t, scheduler.Step(10))
	require.NoError(t, scheduler.Step(25))
	require.NoError(t, scheduler.Advance(5))

	require.Len(t, drift.Frames, 3)
	assert.Equal(t, uint64(1), drift.Frames[0].Tick)
	assert.Equal(t, 10.0, drift.Frames[0].DeltaMs)
	assert.Equal(t, 15.0, drift.Frames[1].DeltaMs)
	assert.Equal(t, 30.0, drift.Frames[2].ElapsedMs)
	assert.Equal(t, 60.0, ecs.ReadComponent[Position](storage, id).X)
	assert.Equal(t, 30.0, scheduler.ElapsedMs())
}

func TestSchedulerBindsFields(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	ecs.NewSingleton[int](storage, 0)
	storage.Spawn(Name{Value: "a"})
	storage.Spawn(Name{Value: "b"}, Position{})

	scheduler := ecs.NewScheduler(storage)
	counter := &countSystem{}
	scheduler.Register(counter)

	require.NoError(t, scheduler.Step(1))
	require.NoError(t, scheduler.Step(2))
	assert.Equal(t, 2, counter.Seen)
	assert.Equal(t, 4, *counter.Total.Get())
}

func TestSchedulerClose(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)
	drift := &driftSystem{}
	scheduler.Register(drift)

	assert.False(t, scheduler.Closed())
	assert.True(t, scheduler.Close())
	assert.False(t, scheduler.Close())
	assert.True(t, scheduler.Closed())

	assert.ErrorIs(t, scheduler.Step(1), ecs.ErrClosed)
	assert.Empty(t, drift.Frames)
}

func TestSchedulerRun(t *testing.T) {
	t.Run("stops on cancel", func(t *testing.T) {
		scheduler := ecs.NewScheduler(ecs.NewStorage(newTestRegistry()))
		drift := &driftSystem{}
		scheduler.Register(drift)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			scheduler.Run(ctx, time.Millisecond)
			close(done)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop after context cancellation")
		}
		assert.NotEmpty(t, drift.Frames)
	})

	t.Run("stops on close", func(t *testing.T) {
		scheduler := ecs.NewScheduler(ecs.NewStorage(newTestRegistry()))
		scheduler.Register(&driftSystem{})

		done := make(chan struct{})
		go func() {
			scheduler.Run(context.Background(), time.Millisecond)
			close(done)
		}()

		time.Sleep(5 * time.Millisecond)
		scheduler.Close()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop after Close")
		}
	})
}

func TestSchedulerStats(t *testing.T) {
	scheduler := ecs.NewScheduler(ecs.NewStorage(newTestRegistry()))
	scheduler.Register(&driftSystem{})
	scheduler.Register(&countSystem{})

	stats := scheduler.Stats()
	assert.Equal(t, 2, stats.SystemCount)
	assert.Equal(t, time.Duration(0), stats.Systems[0].MinDuration)

	for i := 1; i <= 3; i++ {
		require.NoError(t, scheduler.Step(float64(i)))
	}

	stats = scheduler.Stats()
	assert.Equal(t, int64(6), stats.TotalExecutions)
	assert.Equal(t, uint64(3), stats.Ticks)
	assert.Equal(t, "driftSystem", stats.Systems[0].Name)
	assert.Equal(t, "countSystem", stats.Systems[1].Name)
	assert.Equal(t, int64(3), stats.Systems[0].ExecutionCount)
	assert.LessOrEqual(t, stats.Systems[0].MinDuration, stats.Systems[0].MaxDuration)
}
