package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/plus3/frameloop/loop"
)

var reportTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)

type Report struct {
	// Configuration
	Duration   time.Duration
	Groups     int
	Systems    int
	Iterations int
	Settings   loop.Settings

	// Results
	Frames         int
	FixedSteps     uint64
	SimulatedTime  float64
	TotalTime      time.Duration
	Stats          loop.Stats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

// AchievedFPS is the executed frame rate over the whole run.
func (r *Report) AchievedFPS() float64 {
	if r.TotalTime <= 0 {
		return 0
	}
	return float64(r.Frames) / r.TotalTime.Seconds()
}

// Graph plots the recorded frame times in milliseconds.
func (r *Report) Graph() string {
	if len(r.Stats.History) < 2 {
		return "(not enough frames to plot)"
	}
	data := make([]float64, len(r.Stats.History))
	for i, d := range r.Stats.History {
		data[i] = d.Seconds() * 1000
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("frame time (ms)"),
	)
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
## Configuration
- **Run Duration:** {{.Duration}}
- **Groups:** {{.Groups}}
- **Systems:** {{.Systems}} ({{.Iterations}} iterations per update)
- **Target Rate:** {{printf "%.1f" .Settings.TargetFrameRate}} Hz
- **Fixed Step:** {{printf "%.5f" .Settings.FixedTimeStep}} s (enabled: {{.Settings.UseFixedTimeStep}})
- **Max Delta:** {{.Settings.MaxAllowedDeltaTime}} s

## Results
- **Frames:** {{.Frames}} ({{printf "%.1f" .AchievedFPS}} FPS)
- **Fixed Steps:** {{.FixedSteps}} ({{printf "%.2f" .SimulatedTime}} s simulated)
- **Total Time:** {{.TotalTime}}
- **Frame Time:**
  - **Avg:** {{.Stats.Frame.AvgDuration}}
  - **Min:** {{.Stats.Frame.MinDuration}}
  - **Max:** {{.Stats.Frame.MaxDuration}}
- **Update Pass (per fixed step):**
  - **Avg:** {{.Stats.FixedStep.AvgDuration}}
  - **Max:** {{.Stats.FixedStep.MaxDuration}}

{{.Graph}}

## Memory Usage
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} MB (start) -> {{mb .MemStatsEnd.HeapAlloc}} MB (end)
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} MB (start) -> {{mb .MemStatsEnd.TotalAlloc}} MB (end)
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{end}}`

	fm := template.FuncMap{
		"mb": func(v uint64) string {
			return fmt.Sprintf("%.2f", float64(v)/1024/1024)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, reportTitleStyle.Render("# Frame Loop Stress Report")); err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}
