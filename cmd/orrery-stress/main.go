// Command orrery-stress ticks a scene with a large asteroid field for a fixed
// duration and prints a markdown report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/plus3/orrery/solar"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	config := flag.String("config", "solar", "Preset name or path to a YAML scene.")
	asteroids := flag.Int("asteroids", 5000, "Number of asteroids to generate.")
	interval := flag.Duration("interval", 0, "Tick on a ticker at this interval instead of as fast as possible.")
	picks := flag.Int("picks", 1, "Random clicks per update.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	log.Println("Starting orrery stress test...")

	cfg, err := solar.Open(*config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Asteroids.Count = *asteroids
	if cfg.Asteroids.MaxRadius == 0 {
		cfg.Asteroids.MinRadius, cfg.Asteroids.MaxRadius = 5, 10
	}
	if cfg.Asteroids.Spread == 0 {
		cfg.Asteroids.Spread = 1000
	}
	cfg.Asteroids.Pickable = true

	buildStart := time.Now()
	scene, err := solar.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}
	log.Printf("Built %d bodies in %s\n", len(scene.Snapshot().Bodies), time.Since(buildStart))

	report := &Report{
		Duration:       *duration,
		Config:         cfg.Name,
		Asteroids:      *asteroids,
		Interval:       *interval,
		PicksPerOp:     *picks,
		GCPauseMetrics: *gcPauseMetrics,
		BuildTime:      time.Since(buildStart),
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation for %s...\n", *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	if *interval > 0 {
		if err := scene.Run(ctx, *interval); err != nil && ctx.Err() == nil {
			log.Fatalf("Run failed: %v", err)
		}
	} else {
		rng := rand.New(rand.NewPCG(cfg.Seed, 1))
		runLoop(ctx, scene, report, rng)
	}
	report.TotalTime = time.Since(startTime)
	report.UpdateTime.Finalize()
	report.PickTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	stats := scene.Stats()
	report.Ticks = stats.Scheduler.Ticks
	report.Systems = stats.Scheduler.Systems
	report.Archetypes = stats.Storage.ArchetypeCount
	report.Entities = stats.Storage.TotalEntityCount

	if err := scene.Dispose(); err != nil {
		log.Printf("Dispose: %v", err)
	}

	log.Println("Simulation finished.")

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")
}

// runLoop ticks with wall-clock elapsed time and clicks random viewport
// points between ticks.
func runLoop(ctx context.Context, scene *solar.Scene, report *Report, rng *rand.Rand) {
	w, h := scene.Viewport()
	epoch := time.Now()
	for ctx.Err() == nil {
		updateStart := time.Now()
		if err := scene.Tick(float64(time.Since(epoch)) / float64(time.Millisecond)); err != nil {
			log.Printf("Tick: %v", err)
			return
		}
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))

		for range report.PicksPerOp {
			pickStart := time.Now()
			if _, ok := scene.Click(rng.Float64()*float64(w), rng.Float64()*float64(h)); ok {
				report.Hits++
			}
			report.PickTime.Samples = append(report.PickTime.Samples, time.Since(pickStart))
		}
	}
}
