// Package window runs the visualizer in a desktop window.
package window

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/olivier-w/ringscope/internal/audio"
	"github.com/olivier-w/ringscope/internal/session"
	"github.com/olivier-w/ringscope/internal/ui"
	"github.com/olivier-w/ringscope/internal/visualizer"
)

// keySource reports keyboard state for one tick.
type keySource interface {
	JustPressed(k ebiten.Key) bool
	Pressed(k ebiten.Key) bool
}

type ebitenKeys struct{}

func (ebitenKeys) JustPressed(k ebiten.Key) bool { return inpututil.IsKeyJustPressed(k) }
func (ebitenKeys) Pressed(k ebiten.Key) bool     { return ebiten.IsKeyPressed(k) }

// Game is the ebiten front-end. It shares the session and transport
// contracts of the terminal UI.
type Game struct {
	transport ui.Transport
	ctl       ui.Controller
	surface   *Surface
	sched     *Scheduler
	keys      keySource
	title     string

	sliders  [audio.NumBands]ui.Slider
	selected audio.Band
	started  bool
	atEnd    ui.EndAction
	err      error
}

// NewGame creates a game; sched and surface must be the ones the
// controller's render loop was built with.
func NewGame(t ui.Transport, ctl ui.Controller, sched *Scheduler, surface *Surface, title string, cutoffs audio.Cutoffs) *Game {
	return &Game{
		transport: t,
		ctl:       ctl,
		surface:   surface,
		sched:     sched,
		keys:      ebitenKeys{},
		title:     title,
		sliders:   ui.NewSliders(cutoffs),
	}
}

// Run opens the window and blocks until it is closed.
func (g *Game) Run() error {
	ebiten.SetWindowSize(int(visualizer.CanvasSize), int(visualizer.CanvasSize))
	ebiten.SetWindowTitle(g.title + " — ringscope")
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil {
		return err
	}
	return g.err
}

func (g *Game) Update() error {
	if !g.started {
		g.started = true
		for _, s := range g.sliders {
			if err := g.ctl.Handle(session.ParameterChanged{Band: s.Band, Value: s.Value}); err != nil {
				return g.fail(err)
			}
		}
		if err := g.ctl.Handle(session.PlaybackStarted{}); err != nil {
			return g.fail(err)
		}
	}

	select {
	case <-g.transport.Done():
		if g.atEnd != ui.EndLoop {
			g.transport.Close()
			return ebiten.Termination
		}
		if err := g.transport.Restart(); err != nil {
			return g.fail(err)
		}
	default:
	}

	return g.handleKeys()
}

func (g *Game) handleKeys() error {
	k := g.keys
	switch {
	case k.JustPressed(ebiten.KeyQ), k.JustPressed(ebiten.KeyEscape):
		g.transport.Close()
		return ebiten.Termination
	case k.JustPressed(ebiten.KeySpace):
		g.transport.TogglePause()
		if !g.transport.Paused() {
			if err := g.ctl.Handle(session.PlaybackStarted{}); err != nil {
				return g.fail(err)
			}
		}
	case k.JustPressed(ebiten.KeyArrowLeft):
		g.transport.Seek(-5 * time.Second)
	case k.JustPressed(ebiten.KeyArrowRight):
		g.transport.Seek(5 * time.Second)
	case k.JustPressed(ebiten.KeyEqual), k.JustPressed(ebiten.KeyNumpadAdd):
		g.ctl.AdjustVolume(0.05)
	case k.JustPressed(ebiten.KeyMinus), k.JustPressed(ebiten.KeyNumpadSubtract):
		g.ctl.AdjustVolume(-0.05)
	case k.JustPressed(ebiten.KeyTab):
		step := 1
		if k.Pressed(ebiten.KeyShift) {
			step = audio.NumBands - 1
		}
		g.selected = audio.Band((int(g.selected) + step) % audio.NumBands)
	case k.JustPressed(ebiten.KeyArrowUp):
		return g.nudge(1)
	case k.JustPressed(ebiten.KeyArrowDown):
		return g.nudge(-1)
	case k.JustPressed(ebiten.KeyT):
		g.ctl.SetTrails(!g.ctl.Trails())
	case k.JustPressed(ebiten.KeyR):
		g.atEnd = g.atEnd.Toggle()
	}
	return nil
}

func (g *Game) nudge(n int) error {
	s := g.sliders[g.selected].Nudge(n)
	g.sliders[g.selected] = s
	if err := g.ctl.Handle(session.ParameterChanged{Band: s.Band, Value: s.Value}); err != nil {
		return g.fail(err)
	}
	return nil
}

func (g *Game) fail(err error) error {
	g.err = err
	g.transport.Close()
	return ebiten.Termination
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.sched.RunPending()
	screen.DrawImage(g.surface.Image(), nil)

	y := 8
	for _, s := range g.sliders {
		marker := " "
		if s.Band == g.selected {
			marker = ">"
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s %-6s %s", marker, s.Band, s.Label()), 8, y)
		y += 16
	}
	status := "playing"
	if g.transport.Paused() {
		status = "paused"
	}
	if badge := g.atEnd.Badge(); badge != "" {
		status += "  " + badge
	}
	ebitenutil.DebugPrintAt(screen, status, 8, int(visualizer.CanvasSize)-24)
}

func (g *Game) Layout(outsideW, outsideH int) (int, int) {
	return int(visualizer.CanvasSize), int(visualizer.CanvasSize)
}
