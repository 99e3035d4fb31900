package debugui

import (
	"fmt"
	"strings"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/AllenDang/cimgui-go/implot"
	"github.com/plus3/orrery/solar"
)

// FrameHistory is a ring of recent frame times in milliseconds.
type FrameHistory struct {
	samples []float32
	next    int
	filled  int
}

func NewFrameHistory(frames int) *FrameHistory {
	return &FrameHistory{samples: make([]float32, max(frames, 1))}
}

// Record adds one frame time.
func (h *FrameHistory) Record(ms float32) {
	h.samples[h.next] = ms
	h.next = (h.next + 1) % len(h.samples)
	h.filled = min(h.filled+1, len(h.samples))
}

// Average returns the mean of the recorded frame times, or 0.
func (h *FrameHistory) Average() float32 {
	if h.filled == 0 {
		return 0
	}
	var sum float32
	for _, ms := range h.samples[:h.filled] {
		sum += ms
	}
	return sum / float32(h.filled)
}

// Samples returns the ring in storage order.
func (h *FrameHistory) Samples() []float32 {
	return h.samples
}

// Chronological returns a copy of the ring ordered oldest first.
func (h *FrameHistory) Chronological() []float32 {
	out := make([]float32, len(h.samples))
	n := copy(out, h.samples[h.next:])
	copy(out[n:], h.samples[:h.next])
	return out
}

// FrameTimer measures wall time between calls to Delta.
type FrameTimer struct {
	last time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{last: time.Now()}
}

// Delta returns the time since the previous call.
func (t *FrameTimer) Delta() time.Duration {
	now := time.Now()
	delta := now.Sub(t.last)
	t.last = now
	return delta
}

// StatsWindow shows frame times, per-system timings and storage layout.
type StatsWindow struct {
	scene   *solar.Scene
	frames  int
	history *FrameHistory
	latency map[string]*FrameHistory
	timer   *FrameTimer
}

func NewStatsWindow(scene *solar.Scene, historyFrames int) *StatsWindow {
	return &StatsWindow{
		scene:   scene,
		frames:  historyFrames,
		history: NewFrameHistory(historyFrames),
		latency: make(map[string]*FrameHistory),
		timer:   NewFrameTimer(),
	}
}

// Record samples the frame time and the last duration of every system.
func (w *StatsWindow) Record(stats solar.SceneStats) {
	w.history.Record(float32(w.timer.Delta()) / float32(time.Millisecond))
	for _, system := range stats.Scheduler.Systems {
		h, ok := w.latency[system.Name]
		if !ok {
			h = NewFrameHistory(w.frames)
			w.latency[system.Name] = h
		}
		h.Record(float32(system.LastDuration) / float32(time.Millisecond))
	}
}

// Latency returns the recorded durations of a system, oldest first.
func (w *StatsWindow) Latency(system string) ([]float32, bool) {
	h, ok := w.latency[system]
	if !ok {
		return nil, false
	}
	return h.Chronological(), true
}

func (w *StatsWindow) Render() {
	stats := w.scene.Stats()
	w.Record(stats)

	imgui.SetNextWindowPosV(imgui.NewVec2(10, 420), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(420, 360), imgui.CondOnce)
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Total Entities: %d", stats.Storage.TotalEntityCount))
	imgui.Text(fmt.Sprintf("Archetypes: %d", stats.Storage.ArchetypeCount))
	imgui.Text(fmt.Sprintf("Ticks: %d (%.0f ms)", stats.Scheduler.Ticks, stats.Scheduler.ElapsedMs))

	avg := w.history.Average()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000.0/avg))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	samples := w.history.Samples()
	imgui.PlotLinesFloatPtr("##frametime", &samples[0], int32(len(samples)))

	if imgui.TreeNodeStr("Systems") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("SystemStatsTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("System")
			imgui.TableSetupColumn("Runs")
			imgui.TableSetupColumn("Last")
			imgui.TableSetupColumn("Avg")
			imgui.TableSetupColumn("Max")
			imgui.TableHeadersRow()

			for _, system := range stats.Scheduler.Systems {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(system.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", system.ExecutionCount))
				imgui.TableNextColumn()
				imgui.Text(system.LastDuration.String())
				imgui.TableNextColumn()
				imgui.Text(system.AvgDuration.String())
				imgui.TableNextColumn()
				imgui.Text(system.MaxDuration.String())
			}

			imgui.EndTable()
		}

		if implot.BeginPlotV("System Latency", imgui.NewVec2(-1, 200), 0) {
			implot.SetupAxesV("Frame", "Time (ms)", 0, implot.AxisFlagsAutoFit)
			for _, system := range stats.Scheduler.Systems {
				if samples, ok := w.Latency(system.Name); ok {
					implot.PlotLineFloatPtrInt(system.Name, &samples[0], int32(len(samples)))
				}
			}
			implot.EndPlot()
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Archetype Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("ArchStatsTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Archetype ID")
			imgui.TableSetupColumn("Components")
			imgui.TableSetupColumn("Entity Count")
			imgui.TableHeadersRow()

			for _, arch := range stats.Storage.ArchetypeBreakdown {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("0x%X", arch.ID))
				imgui.TableNextColumn()
				imgui.Text(strings.Join(arch.ComponentTypes, ", "))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", arch.EntityCount))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Singleton Details") {
		for _, singletonType := range stats.Storage.SingletonTypes {
			imgui.BulletText(singletonType)
		}
		imgui.TreePop()
	}

	imgui.End()
}
