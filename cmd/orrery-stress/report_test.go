package main

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/solar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsFinalize(t *testing.T) {
	s := Stats{Samples: []time.Duration{3 * time.Millisecond, time.Millisecond, 5 * time.Millisecond}}
	s.Finalize()
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 5*time.Millisecond, s.Max)
	assert.Equal(t, 3*time.Millisecond, s.Avg)

	var empty Stats
	empty.Finalize()
	assert.Zero(t, empty.Avg)
}

func TestReportGenerate(t *testing.T) {
	report := &Report{
		Duration:   time.Second,
		Config:     "solar",
		Asteroids:  100,
		PicksPerOp: 1,
		Ticks:      42,
		Systems: []ecs.SystemStats{
			{Name: "OrbitSystem", ExecutionCount: 42, AvgDuration: time.Microsecond},
		},
		UpdateTime: Stats{Samples: []time.Duration{time.Millisecond}},
	}
	report.UpdateTime.Finalize()

	var sb strings.Builder
	require.NoError(t, report.Generate(&sb))
	out := sb.String()
	assert.Contains(t, out, "# Orrery Stress Test Report")
	assert.Contains(t, out, "**Total Ticks:** 42")
	assert.Contains(t, out, "| OrbitSystem | 42 | 1µs |")
	assert.Contains(t, out, "**Clicks per Update:** 1")
	assert.NotContains(t, out, "GC Pause")
}

func TestRunLoop(t *testing.T) {
	cfg, err := solar.Preset("world")
	require.NoError(t, err)
	scene, err := solar.New(cfg, solar.WithViewport(64, 64))
	require.NoError(t, err)
	defer scene.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report := &Report{PicksPerOp: 2}
	runLoop(ctx, scene, report, rand.New(rand.NewPCG(1, 2)))

	require.NotEmpty(t, report.UpdateTime.Samples)
	assert.Len(t, report.PickTime.Samples, 2*len(report.UpdateTime.Samples))
	assert.Equal(t, uint64(len(report.UpdateTime.Samples)), scene.Stats().Scheduler.Ticks)
}
