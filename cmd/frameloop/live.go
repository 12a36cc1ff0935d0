package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/plus3/frameloop/loop"
	"github.com/spf13/cobra"
)

const (
	liveTrackWidth = 60
	liveFrameRate  = 60
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	trackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

func newLiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "pump a loop from a terminal UI and watch it step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			settings, err := cfg.LoopSettings()
			if err != nil {
				return err
			}

			// The UI owns the terminal, so logs are discarded.
			adapter, ball, err := newDemoAdapter(cfg.Groups, settings, nil)
			if err != nil {
				return err
			}
			l, err := adapter.Loop()
			if err != nil {
				return err
			}
			if err := l.SetTimeScale(cfg.Settings.TimeScale); err != nil {
				return err
			}
			if err := adapter.Start(); err != nil {
				return err
			}
			defer adapter.Close()

			_, err = tea.NewProgram(newLiveModel(adapter, l, ball), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// newDemoAdapter declares groups, registers the ping-pong demo system in the
// Default group (or the first declared group) and initializes the adapter.
func newDemoAdapter(groups []loop.GroupConfig, settings loop.Settings, logger *slog.Logger) (*loop.Adapter, *pingPong, error) {
	opts := []loop.Option{loop.WithSettings(settings)}
	if logger != nil {
		opts = append(opts, loop.WithLogger(logger))
	}

	adapter, err := loop.NewAdapter(nil, groups, opts...)
	if err != nil {
		return nil, nil, err
	}
	registry, err := adapter.CreateRegistry()
	if err != nil {
		return nil, nil, err
	}

	ball := newPingPong(0, 1, 2)
	if err := registry.Register(ball, loop.InGroup(demoGroup(registry.Topology()))); err != nil {
		return nil, nil, err
	}
	if err := adapter.Initialize(registry); err != nil {
		return nil, nil, err
	}
	return adapter, ball, nil
}

func demoGroup(topology *loop.Topology) string {
	if _, ok := topology.Lookup(loop.DefaultGroup); ok {
		return loop.DefaultGroup
	}
	if groups := topology.Groups(); len(groups) > 0 {
		return groups[0].Name
	}
	return loop.DefaultGroup
}

type liveTickMsg time.Time

func liveTick() tea.Cmd {
	return tea.Tick(time.Second/liveFrameRate, func(t time.Time) tea.Msg { return liveTickMsg(t) })
}

type liveModel struct {
	adapter   *loop.Adapter
	loop      *loop.Loop
	ball      *pingPong
	lastFrame time.Time
	err       error
}

func newLiveModel(adapter *loop.Adapter, l *loop.Loop, ball *pingPong) liveModel {
	return liveModel{adapter: adapter, loop: l, ball: ball}
}

func (m liveModel) Init() tea.Cmd { return liveTick() }

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case liveTickMsg:
		now := time.Time(msg)
		dt := 0.0
		if !m.lastFrame.IsZero() {
			dt = now.Sub(m.lastFrame).Seconds()
		}
		m.lastFrame = now

		if err := m.adapter.Tick(dt); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, liveTick()
	}
	return m, nil
}

func (m liveModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.adapter.IsPaused() {
			_ = m.adapter.Resume()
		} else {
			_ = m.adapter.Pause()
		}
	case "s":
		// advance exactly one fixed step while paused
		if m.adapter.IsPaused() {
			_ = m.adapter.Resume()
			if err := m.adapter.Tick(m.loop.Settings().FixedTimeStep); err != nil {
				m.err = err
			}
			_ = m.adapter.Pause()
		}
	case "+", "=":
		_ = m.loop.SetTimeScale(min(m.loop.TimeScale()*2, 8))
	case "-":
		_ = m.loop.SetTimeScale(m.loop.TimeScale() / 2)
	case "0":
		_ = m.loop.SetTimeScale(1)
	case "f":
		settings := m.loop.Settings()
		settings.UseFixedTimeStep = !settings.UseFixedTimeStep
		_ = m.adapter.UpdateSettings(settings)
	}
	return m, nil
}

func (m liveModel) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("frameloop live"))
	b.WriteString("\n")

	if m.adapter.IsPaused() {
		b.WriteString(pausedStyle.Render("PAUSED"))
	} else {
		b.WriteString(runStyle.Render("RUNNING"))
	}
	b.WriteString("\n\n")

	info := m.loop.Time()
	settings := m.loop.Settings()
	rows := [][2]string{
		{"phase", m.adapter.Phase().String()},
		{"accumulator", fmt.Sprintf("%.5f s", m.loop.Accumulator())},
		{"interpolation", fmt.Sprintf("%.3f %s", m.loop.Interpolation(), bar(m.loop.Interpolation(), 20))},
		{"time scale", fmt.Sprintf("%.3gx", m.loop.TimeScale())},
		{"fixed step", fmt.Sprintf("%.4f s (enabled: %t)", settings.FixedTimeStep, settings.UseFixedTimeStep)},
		{"frames", fmt.Sprintf("%d", info.FrameCount)},
		{"fixed steps", fmt.Sprintf("%d", info.FixedStepCount)},
		{"simulated", fmt.Sprintf("%.2f s", info.FixedTime)},
		{"bounces", fmt.Sprintf("%d", m.ball.bounces)},
	}
	for _, row := range rows {
		b.WriteString(labelStyle.Render(row[0]))
		b.WriteString(valueStyle.Render(row[1]))
		b.WriteString("\n")
	}

	b.WriteString(trackStyle.Render(track(m.ball.Value(), liveTrackWidth)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(pausedStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("space pause/resume · s step · +/- time scale · 0 reset scale · f toggle fixed step · q quit"))
	return b.String()
}

// bar renders a fraction in [0, 1] as a fixed-width progress bar.
func bar(fraction float64, width int) string {
	filled := int(fraction*float64(width) + 0.5)
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

// track draws a marker at position value in [0, 1] on a line of width cells.
func track(value float32, width int) string {
	pos := int(value*float32(width-1) + 0.5)
	pos = max(0, min(pos, width-1))
	return "|" + strings.Repeat(" ", pos) + "●" + strings.Repeat(" ", width-1-pos) + "|"
}
