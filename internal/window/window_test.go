package window

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/olivier-w/ringscope/internal/audio"
	"github.com/olivier-w/ringscope/internal/session"
	"github.com/olivier-w/ringscope/internal/visualizer"
)

type fakeKeys map[ebiten.Key]bool

func (k fakeKeys) JustPressed(key ebiten.Key) bool { return k[key] }
func (k fakeKeys) Pressed(key ebiten.Key) bool     { return k[key] }

type fakeTransport struct {
	paused   bool
	closed   bool
	restarts int
	seeks    []time.Duration
	done     chan struct{}
}

func (f *fakeTransport) TogglePause()               { f.paused = !f.paused }
func (f *fakeTransport) Paused() bool               { return f.paused }
func (f *fakeTransport) Position() time.Duration    { return 0 }
func (f *fakeTransport) Duration() time.Duration    { return time.Minute }
func (f *fakeTransport) Done() <-chan struct{}      { return f.done }
func (f *fakeTransport) Close()                     { f.closed = true }
func (f *fakeTransport) Seek(d time.Duration) error { f.seeks = append(f.seeks, d); return nil }
func (f *fakeTransport) Restart() error {
	f.restarts++
	f.done = make(chan struct{})
	return nil
}

type fakeController struct {
	events []session.Event
	err    error
	trails bool
	volume float64
}

func (c *fakeController) Handle(ev session.Event) error {
	c.events = append(c.events, ev)
	return c.err
}
func (c *fakeController) AdjustVolume(d float64)   { c.volume += d }
func (c *fakeController) Volume() float64          { return c.volume }
func (c *fakeController) Level(audio.Band) float64 { return 0 }
func (c *fakeController) Trails() bool             { return c.trails }
func (c *fakeController) SetTrails(on bool)        { c.trails = on }

func newTestGame() (*Game, *fakeTransport, *fakeController) {
	tr := &fakeTransport{done: make(chan struct{})}
	ctl := &fakeController{trails: true}
	g := NewGame(tr, ctl, NewScheduler(), nil, "Song", session.DefaultCutoffs)
	g.keys = fakeKeys{}
	return g, tr, ctl
}

func press(g *Game, keys ...ebiten.Key) error {
	k := fakeKeys{}
	for _, key := range keys {
		k[key] = true
	}
	g.keys = k
	err := g.Update()
	g.keys = fakeKeys{}
	return err
}

func TestFirstUpdateStartsPlayback(t *testing.T) {
	g, _, ctl := newTestGame()
	if err := g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(ctl.events) != 4 {
		t.Fatalf("expected 3 cutoffs and one start, got %v", ctl.events)
	}
	if ctl.events[3] != (session.PlaybackStarted{}) {
		t.Fatalf("last event = %#v", ctl.events[3])
	}
}

func TestStartFailureTerminates(t *testing.T) {
	g, tr, ctl := newTestGame()
	ctl.err = errors.New("no device")
	if err := g.Update(); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("expected termination, got %v", err)
	}
	if !errors.Is(g.err, ctl.err) || !tr.closed {
		t.Fatal("expected error kept and transport closed")
	}
}

func TestKeysDriveSession(t *testing.T) {
	g, tr, ctl := newTestGame()
	g.Update()
	ctl.events = nil

	press(g, ebiten.KeyTab)
	press(g, ebiten.KeyArrowUp)
	if len(ctl.events) != 1 || ctl.events[0] != (session.ParameterChanged{Band: audio.Mid, Value: 1050}) {
		t.Fatalf("unexpected events %v", ctl.events)
	}

	press(g, ebiten.KeyTab, ebiten.KeyShift)
	press(g, ebiten.KeyArrowDown)
	if last := ctl.events[len(ctl.events)-1]; last != (session.ParameterChanged{Band: audio.Bass, Value: 140}) {
		t.Fatalf("unexpected event %#v", last)
	}

	press(g, ebiten.KeyArrowRight)
	if len(tr.seeks) != 1 || tr.seeks[0] != 5*time.Second {
		t.Fatalf("unexpected seeks %v", tr.seeks)
	}

	press(g, ebiten.KeyT)
	if ctl.trails {
		t.Fatal("expected trails toggled off")
	}

	press(g, ebiten.KeySpace)
	press(g, ebiten.KeySpace)
	if last := ctl.events[len(ctl.events)-1]; last != (session.PlaybackStarted{}) {
		t.Fatalf("expected PlaybackStarted on resume, got %#v", last)
	}
}

func TestQuitKey(t *testing.T) {
	g, tr, _ := newTestGame()
	if err := press(g, ebiten.KeyEscape); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("expected termination, got %v", err)
	}
	if !tr.closed {
		t.Fatal("expected transport closed")
	}
}

func TestPlaybackEndLoopsOrTerminates(t *testing.T) {
	g, tr, _ := newTestGame()
	press(g, ebiten.KeyR)
	close(tr.done)
	if err := g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tr.restarts != 1 {
		t.Fatalf("expected restart, got %d", tr.restarts)
	}

	press(g, ebiten.KeyR)
	close(tr.done)
	if err := g.Update(); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("expected termination, got %v", err)
	}
}

func TestSchedulerRunsEachFrameOnce(t *testing.T) {
	s := NewScheduler()
	ran := 0
	var again func()
	again = func() {
		ran++
		s.RequestFrame(again)
	}
	s.RequestFrame(again)
	dropped := s.RequestFrame(func() { ran += 100 })
	s.CancelFrame(dropped)

	if n := s.RunPending(); n != 1 || ran != 1 {
		t.Fatalf("first run: n=%d ran=%d", n, ran)
	}
	if n := s.RunPending(); n != 1 || ran != 2 {
		t.Fatalf("second run: n=%d ran=%d", n, ran)
	}
}

func TestPremultiply(t *testing.T) {
	got := premultiply(color.RGBA{R: 100, G: 200, B: 50, A: 255}, 0.5)
	want := color.RGBA{R: 50, G: 100, B: 25, A: 127}
	if got != want {
		t.Fatalf("premultiply = %+v, want %+v", got, want)
	}
	if got := premultiply(color.RGBA{R: 10, A: 255}, 2); got.A != 255 || got.R != 10 {
		t.Fatalf("alpha should clamp to 1, got %+v", got)
	}
}

func TestSurfaceFillCoversCanvasWithPremultipliedColour(t *testing.T) {
	type call struct {
		x, y, w, h float32
		clr        color.Color
		aa         bool
	}
	var calls []call
	orig := fillRect
	fillRect = func(_ *ebiten.Image, x, y, w, h float32, clr color.Color, aa bool) {
		calls = append(calls, call{x, y, w, h, clr, aa})
	}
	defer func() { fillRect = orig }()

	s := &Surface{}
	s.Fill(visualizer.Background, visualizer.BackgroundAlpha)

	if len(calls) != 1 {
		t.Fatalf("expected one fill, got %d", len(calls))
	}
	c := calls[0]
	if c.x != 0 || c.y != 0 || c.w != visualizer.CanvasSize || c.h != visualizer.CanvasSize || c.aa {
		t.Fatalf("unexpected fill rect %+v", c)
	}
	if c.clr != premultiply(visualizer.Background, visualizer.BackgroundAlpha) {
		t.Fatalf("fill colour = %v", c.clr)
	}
}
