// Package ebiten provides the Dear ImGui overlay for loops hosted by Ebiten.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
)

// Overlay wraps the Ebiten-specific Dear ImGui backend. It satisfies
// ebitenhost.Overlay, so a Game brackets every Tick with BeginFrame and
// EndFrame and draws the UI on top of the scene.
type Overlay struct {
	backend *ebitenbackend.EbitenBackend
}

// NewOverlay creates the backend and its window. imgui.ini persistence is
// disabled.
func NewOverlay(title string, width, height int) *Overlay {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &Overlay{backend: backend}
}

func (o *Overlay) BeginFrame() { o.backend.BeginFrame() }

func (o *Overlay) EndFrame() { o.backend.EndFrame() }

func (o *Overlay) Draw(screen *ebiten.Image) { o.backend.Draw(screen) }

func (o *Overlay) Resize(width, height int) { o.backend.Layout(width, height) }
