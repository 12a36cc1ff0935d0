package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/frameloop/loop"
)

// Target is the part of a Loop or Runner the panel reads and steers.
type Target interface {
	Phase() loop.Phase
	IsRunning() bool
	IsPaused() bool
	Pause()
	Resume()
	Settings() loop.Settings
	TimeScale() float64
	SetTimeScale(scale float64) error
	Accumulator() float64
	Interpolation() float64
	Time() loop.TimeInfo
}

// StatsSource supplies timing statistics, typically a *loop.StatsRecorder.
type StatsSource interface {
	Snapshot() loop.Stats
}

var timeScales = []float64{0, 0.25, 0.5, 1, 2, 4}

// LoopPanel renders the state of one loop: phase, flags, clocks, settings,
// frame statistics and a frame-time graph, with pause and time-scale
// controls.
type LoopPanel struct {
	target  Target
	stats   StatsSource
	history []float32
}

// NewLoopPanel creates a panel for target. stats may be nil.
func NewLoopPanel(target Target, stats StatsSource) *LoopPanel {
	return &LoopPanel{target: target, stats: stats}
}

// Render draws the panel. Call it between the backend's BeginFrame and
// EndFrame, for example from a System item.
func (p *LoopPanel) Render() {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(320, 420), imgui.CondOnce)

	if !imgui.BeginV("Frame Loop", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	p.renderState()
	imgui.Separator()
	p.renderControls()

	if imgui.TreeNodeStr("Settings") {
		s := p.target.Settings()
		imgui.BulletText(fmt.Sprintf("Target rate: %.1f Hz", s.TargetFrameRate))
		imgui.BulletText(fmt.Sprintf("Fixed step: %.4f s", s.FixedTimeStep))
		imgui.BulletText(fmt.Sprintf("Max delta: %.3f s", s.MaxAllowedDeltaTime))
		imgui.BulletText(fmt.Sprintf("Fixed stepping: %t", s.UseFixedTimeStep))
		imgui.TreePop()
	}

	if p.stats != nil {
		imgui.Separator()
		p.renderStats(p.stats.Snapshot())
	}

	imgui.End()
}

func (p *LoopPanel) renderState() {
	state, color := "STOPPED", imgui.NewVec4(0.6, 0.6, 0.6, 1.0)
	switch {
	case p.target.IsPaused():
		state, color = "PAUSED", imgui.NewVec4(1.0, 0.8, 0.0, 1.0)
	case p.target.IsRunning():
		state, color = "RUNNING", imgui.NewVec4(0.0, 1.0, 0.0, 1.0)
	}
	imgui.TextColored(color, state)

	info := p.target.Time()
	imgui.Text(fmt.Sprintf("Phase: %s", p.target.Phase()))
	imgui.Text(fmt.Sprintf("Accumulator: %.5f s", p.target.Accumulator()))
	imgui.ProgressBarV(float32(p.target.Interpolation()), imgui.NewVec2(-1, 0),
		fmt.Sprintf("alpha %.2f", p.target.Interpolation()))
	imgui.Text(fmt.Sprintf("Frames: %d  Fixed steps: %d", info.FrameCount, info.FixedStepCount))
	imgui.Text(fmt.Sprintf("Time: %.2f s  Fixed: %.2f s", info.Time, info.FixedTime))
	imgui.Text(fmt.Sprintf("Realtime: %s", info.Realtime.Truncate(time.Millisecond)))
}

func (p *LoopPanel) renderControls() {
	if p.target.IsPaused() {
		if imgui.Button("Resume") {
			p.target.Resume()
		}
	} else if imgui.Button("Pause") {
		p.target.Pause()
	}

	imgui.Text(fmt.Sprintf("Time scale: %.2fx", p.target.TimeScale()))
	for i, scale := range timeScales {
		if i > 0 {
			imgui.SameLine()
		}
		if imgui.Button(fmt.Sprintf("%gx", scale)) {
			_ = p.target.SetTimeScale(scale)
		}
	}
}

func (p *LoopPanel) renderStats(stats loop.Stats) {
	frame := stats.Frame
	imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", millis(frame.AvgDuration), fps(frame.AvgDuration)))
	imgui.Text(fmt.Sprintf("Min/Max: %.2f / %.2f ms", millis(frame.MinDuration), millis(frame.MaxDuration)))
	imgui.Text(fmt.Sprintf("Avg Fixed Step: %.3f ms over %d steps", millis(stats.FixedStep.AvgDuration), stats.FixedStep.Count))

	p.history = historyMillis(p.history, stats.History)
	if len(p.history) == 0 {
		return
	}
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &p.history[0], int32(len(p.history)))
}

// historyMillis converts frame durations to milliseconds, reusing dst.
func historyMillis(dst []float32, history []time.Duration) []float32 {
	dst = dst[:0]
	for _, d := range history {
		dst = append(dst, millis(d))
	}
	return dst
}

func millis(d time.Duration) float32 {
	return float32(d.Seconds() * 1000)
}

func fps(avg time.Duration) float64 {
	if avg <= 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}
