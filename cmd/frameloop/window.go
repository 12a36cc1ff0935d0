package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/plus3/frameloop/loop"
	"github.com/plus3/frameloop/loop/debugui"
	debugui_ebiten "github.com/plus3/frameloop/loop/debugui/ebiten"
	"github.com/plus3/frameloop/loop/ebitenhost"
	"github.com/spf13/cobra"
)

const (
	screenWidth  = 1280
	screenHeight = 720
	debugGroup   = "Debug"
	ballSize     = 32
)

var _ ebitenhost.Overlay = (*debugui_ebiten.Overlay)(nil)

func newWindowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "window",
		Short: "host a loop in an Ebiten window with a Dear ImGui inspector",
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

			overlay := debugui_ebiten.NewOverlay("frameloop", screenWidth, screenHeight)
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

			ui := debugui.NewSystem()
			topology, err := loop.NewTopology(withDebugGroup(cfg.Groups)...)
			if err != nil {
				return err
			}
			registry := loop.NewRegistry(topology)
			ball := newPingPong(0, 1, 2)
			if err := registry.Register(ball, loop.InGroup(demoGroup(topology))); err != nil {
				return err
			}
			if err := registry.Register(ui, loop.InGroup(debugGroup)); err != nil {
				return err
			}
			groups, err := registry.Build()
			if err != nil {
				return err
			}

			stats := loop.NewStatsRecorder(240)
			l, err := loop.New(groups,
				loop.WithSettings(settings),
				loop.WithInstrumentation(stats),
				loop.WithLogger(loggerFor(cfg)),
			)
			if err != nil {
				return err
			}
			if err := l.SetTimeScale(cfg.Settings.TimeScale); err != nil {
				return err
			}
			ui.Add(debugui.NewLoopPanel(l, stats).Render)

			game := ebitenhost.New(l,
				ebitenhost.WithOverlay(overlay),
				ebitenhost.WithDraw(drawBall(ball)),
				ebitenhost.WithQuitKeys(ebiten.KeyEscape, ebiten.KeyQ),
			)
			return game.Run()
		},
	}
}

// withDebugGroup appends a Debug group after every declared group unless
// one is already declared.
func withDebugGroup(groups []loop.GroupConfig) []loop.GroupConfig {
	last := 0
	for _, g := range groups {
		if g.Name == debugGroup {
			return groups
		}
		last = max(last, g.Order)
	}
	out := append([]loop.GroupConfig(nil), groups...)
	return append(out, loop.GroupConfig{Name: debugGroup, Order: last + 1})
}

func drawBall(ball *pingPong) ebitenhost.DrawFunc {
	sprite := ebiten.NewImage(ballSize, ballSize)
	sprite.Fill(color.RGBA{R: 255, G: 179, B: 186, A: 255})

	return func(screen *ebiten.Image, alpha float64) {
		screen.Fill(color.RGBA{R: 24, G: 24, B: 32, A: 255})

		bounds := screen.Bounds()
		travel := float64(bounds.Dx() - ballSize)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(ball.Value())*travel, float64(bounds.Dy()-ballSize)/2)
		screen.DrawImage(sprite, op)

		ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS: %.1f  FPS: %.1f  alpha: %.2f", ebiten.ActualTPS(), ebiten.ActualFPS(), alpha))
	}
}
