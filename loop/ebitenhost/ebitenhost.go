// Package ebitenhost runs a loop inside an Ebiten game. Ebiten calls Update
// at a fixed tick rate, and every Update becomes one Loop.Tick with a delta
// of 1/TPS seconds.
package ebitenhost

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
)

// Loop is the part of *loop.Loop the host drives.
type Loop interface {
	Start() error
	Stop() error
	Tick(deltaTime float64) error
	IsRunning() bool
	Interpolation() float64
}

// Overlay is drawn on top of the scene. BeginFrame and EndFrame bracket
// every Tick so systems may submit UI while the frame runs.
type Overlay interface {
	BeginFrame()
	EndFrame()
	Draw(screen *ebiten.Image)
	Resize(width, height int)
}

// DrawFunc renders the scene. alpha is the loop's interpolation factor.
type DrawFunc func(screen *ebiten.Image, alpha float64)

type Option func(*Game)

// WithDraw sets the scene renderer.
func WithDraw(draw DrawFunc) Option {
	return func(g *Game) { g.draw = draw }
}

// WithOverlay installs an overlay, typically a Dear ImGui backend.
func WithOverlay(overlay Overlay) Option {
	return func(g *Game) { g.overlay = overlay }
}

// WithScreenSize fixes the logical screen size. By default the screen
// follows the window.
func WithScreenSize(width, height int) Option {
	return func(g *Game) { g.width, g.height = width, height }
}

// WithQuitKeys ends the game when any of keys is held.
func WithQuitKeys(keys ...ebiten.Key) Option {
	return func(g *Game) { g.quitKeys = keys }
}

// Game implements ebiten.Game on top of a Loop.
type Game struct {
	loop     Loop
	draw     DrawFunc
	overlay  Overlay
	width    int
	height   int
	quitKeys []ebiten.Key
	tps      func() int
}

// New creates a game that drives l.
func New(l Loop, opts ...Option) *Game {
	g := &Game{loop: l, tps: ebiten.TPS}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Update ticks the loop once. It returns ebiten.Termination once the loop
// has been stopped or a quit key is held, and the loop's error if a system
// failed.
func (g *Game) Update() error {
	if !g.loop.IsRunning() {
		return ebiten.Termination
	}
	for _, key := range g.quitKeys {
		if ebiten.IsKeyPressed(key) {
			return ebiten.Termination
		}
	}

	if g.overlay != nil {
		g.overlay.BeginFrame()
		defer g.overlay.EndFrame()
	}
	return g.loop.Tick(g.deltaTime())
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.draw != nil {
		g.draw(screen, g.loop.Interpolation())
	}
	if g.overlay != nil {
		g.overlay.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.overlay != nil {
		g.overlay.Resize(outsideWidth, outsideHeight)
	}
	if g.width > 0 && g.height > 0 {
		return g.width, g.height
	}
	return outsideWidth, outsideHeight
}

// Run starts the loop, blocks in ebiten.RunGame and stops the loop when the
// window closes.
func (g *Game) Run() error {
	if err := g.loop.Start(); err != nil {
		return err
	}
	runErr := ebiten.RunGame(g)
	return errors.Join(runErr, g.loop.Stop())
}

func (g *Game) deltaTime() float64 {
	tps := g.tps()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	return 1 / float64(tps)
}
