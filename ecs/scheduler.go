package ecs

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"
)

// ErrClosed is returned by Step once the scheduler has been closed.
var ErrClosed = errors.New("ecs: scheduler closed")

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Ticks           uint64
	ElapsedMs       float64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

type binder interface {
	Init(storage *Storage)
}

type executor interface {
	Execute()
}

// Scheduler runs registered systems in registration order, one frame per
// Step. Frames are stamped with milliseconds since the scheduler's epoch.
type Scheduler struct {
	storage     *Storage
	systems     []System
	queries     [][]executor
	systemStats []*systemStatsInternal
	commands    *Commands

	tick        uint64
	lastElapsed float64

	done      chan struct{}
	closeOnce sync.Once
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{
		storage:  storage,
		commands: newCommands(),
		done:     make(chan struct{}),
	}
}

// Register adds a system and binds its Query, View and Singleton fields.
func (s *Scheduler) Register(system System) {
	s.systems = append(s.systems, system)
	s.queries = append(s.queries, s.bind(system))

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	s.systemStats = append(s.systemStats, &systemStatsInternal{
		name:        systemType.Name(),
		minDuration: time.Duration(1<<63 - 1),
	})
}

// bind initializes every exported struct field that knows how to bind to a
// storage, and returns the ones that need executing before each frame.
func (s *Scheduler) bind(system System) []executor {
	value := reflect.ValueOf(system)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	var queries []executor
	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}
		addr := field.Addr().Interface()
		b, ok := addr.(binder)
		if !ok {
			continue
		}
		b.Init(s.storage)
		if q, ok := addr.(executor); ok {
			queries = append(queries, q)
		}
	}
	return queries
}

// Step runs one frame at elapsedMs and flushes queued commands.
func (s *Scheduler) Step(elapsedMs float64) error {
	if s.Closed() {
		return ErrClosed
	}

	s.tick++
	frame := &UpdateFrame{
		Tick:      s.tick,
		ElapsedMs: elapsedMs,
		DeltaMs:   elapsedMs - s.lastElapsed,
		Commands:  s.commands,
		Storage:   s.storage,
	}

	for i, system := range s.systems {
		for _, q := range s.queries[i] {
			q.Execute()
		}

		start := time.Now()
		system.Execute(frame)
		duration := time.Since(start)

		stats := s.systemStats[i]
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration
		stats.minDuration = min(stats.minDuration, duration)
		stats.maxDuration = max(stats.maxDuration, duration)
	}

	s.commands.Flush(s.storage)
	s.lastElapsed = elapsedMs
	return nil
}

// Advance runs one frame deltaMs after the previous one.
func (s *Scheduler) Advance(deltaMs float64) error {
	return s.Step(s.lastElapsed + deltaMs)
}

// Run steps the scheduler at the given interval until the context is
// cancelled or the scheduler is closed. Elapsed time continues from the last
// frame.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	epoch := time.Now()
	base := s.lastElapsed

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case now := <-ticker.C:
			elapsed := base + float64(now.Sub(epoch))/float64(time.Millisecond)
			if err := s.Step(elapsed); err != nil {
				return
			}
		}
	}
}

// Close stops the scheduler. It reports whether this call closed it; later
// calls are no-ops.
func (s *Scheduler) Close() bool {
	closed := false
	s.closeOnce.Do(func() {
		close(s.done)
		closed = true
	})
	return closed
}

// Closed reports whether Close has been called.
func (s *Scheduler) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// ElapsedMs returns the timestamp of the last frame.
func (s *Scheduler) ElapsedMs() float64 {
	return s.lastElapsed
}

// Stats returns statistics about system execution.
func (s *Scheduler) Stats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Ticks:       s.tick,
		ElapsedMs:   s.lastElapsed,
		Systems:     make([]SystemStats, len(s.systemStats)),
	}

	for i, internal := range s.systemStats {
		avg := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avg = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avg,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		stats.TotalExecutions += internal.executionCount
	}

	return stats
}
