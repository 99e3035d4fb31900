package main

import (
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/orrery/ecs"
)

type Report struct {
	// Configuration
	Duration   time.Duration
	Config     string
	Asteroids  int
	Interval   time.Duration
	PicksPerOp int

	// Results
	BuildTime      time.Duration
	TotalTime      time.Duration
	Ticks          uint64
	Entities       int
	Archetypes     int
	Hits           int
	UpdateTime     Stats
	PickTime       Stats
	Systems        []ecs.SystemStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]
	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

const reportTemplate = `
# Orrery Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Scene:** {{.Config}}
- **Asteroids:** {{.Asteroids}}
{{- if .Interval}}
- **Tick Interval:** {{.Interval}}
{{- else}}
- **Clicks per Update:** {{.PicksPerOp}}
{{- end}}

## Performance Results
- **Build Time:** {{.BuildTime}}
- **Total Ticks:** {{.Ticks}}
- **Total Test Time:** {{.TotalTime}}
- **Entities:** {{.Entities}} in {{.Archetypes}} archetypes
{{- if .UpdateTime.Samples}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
{{- end}}
{{- if .PickTime.Samples}}
- **Click Time:** {{.Hits}} hits of {{len .PickTime.Samples}}
  - **Avg:** {{.PickTime.Avg}}
  - **Min:** {{.PickTime.Min}}
  - **Max:** {{.PickTime.Max}}
{{- end}}

## Systems
| System | Runs | Avg | Min | Max |
|---|---|---|---|---|
{{- range .Systems}}
| {{.Name}} | {{.ExecutionCount}} | {{.AvgDuration}} | {{.MinDuration}} | {{.MaxDuration}} |
{{- end}}

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{end}}`

var reportFuncs = template.FuncMap{
	"bsub": func(a, b uint64) int64 {
		return int64(a) - int64(b)
	},
	"usub": func(a, b uint32) uint32 {
		return a - b
	},
	"ns": func(ns uint64) string {
		return time.Duration(ns).String()
	},
}

func (r *Report) Generate(w io.Writer) error {
	tmpl, err := template.New("report").Funcs(reportFuncs).Parse(reportTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}
