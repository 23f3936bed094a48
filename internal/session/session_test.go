package session

import (
	"bytes"
	"errors"
	"image/color"
	"io"
	"testing"

	"github.com/olivier-w/ringscope/internal/audio"
	"github.com/olivier-w/ringscope/internal/visualizer"
)

type fakeOutput struct {
	playing bool
	volume  float64
}

func (o *fakeOutput) Play()               { o.playing = true }
func (o *fakeOutput) Pause()              { o.playing = false }
func (o *fakeOutput) Volume() float64     { return o.volume }
func (o *fakeOutput) SetVolume(v float64) { o.volume = v }

type fakeDevice struct {
	outputs   []*fakeOutput
	readers   []io.Reader
	resumes   int
	resumeErr error
}

func (d *fakeDevice) NewOutput(r io.Reader) audio.Output {
	out := &fakeOutput{volume: 1}
	d.outputs = append(d.outputs, out)
	d.readers = append(d.readers, r)
	return out
}
func (d *fakeDevice) Suspend() error { return nil }
func (d *fakeDevice) Resume() error {
	d.resumes++
	return d.resumeErr
}

type fakeMedia struct {
	claims int
}

func (m *fakeMedia) SampleRate() int   { return 44100 }
func (m *fakeMedia) ChannelCount() int { return 2 }
func (m *fakeMedia) Claim() (io.Reader, error) {
	m.claims++
	if m.claims > 1 {
		return nil, errors.New("already claimed")
	}
	return bytes.NewReader(make([]byte, 4096)), nil
}

type manualScheduler struct {
	next    visualizer.FrameHandle
	pending map[visualizer.FrameHandle]func()
}

func (s *manualScheduler) RequestFrame(fn func()) visualizer.FrameHandle {
	if s.pending == nil {
		s.pending = make(map[visualizer.FrameHandle]func())
	}
	s.next++
	s.pending[s.next] = fn
	return s.next
}

func (s *manualScheduler) CancelFrame(h visualizer.FrameHandle) { delete(s.pending, h) }

type nopSurface struct{}

func (nopSurface) Size() (float64, float64)                                 { return 600, 600 }
func (nopSurface) Clear()                                                   {}
func (nopSurface) Fill(color.RGBA, float64)                                 {}
func (nopSurface) StrokeClosedPath([]visualizer.Point, color.RGBA, float64) {}

type harness struct {
	s      *Session
	dev    *fakeDevice
	media  *fakeMedia
	sched  *manualScheduler
	opened int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{dev: &fakeDevice{}, media: &fakeMedia{}, sched: &manualScheduler{}}
	h.s = New(DefaultConfig(), Deps{
		OpenDevice: func(f audio.Format) (audio.Device, error) {
			h.opened++
			if f.SampleRate != 44100 || f.Channels != 2 {
				t.Fatalf("device opened with %+v", f)
			}
			return h.dev, nil
		},
		Surface:   nopSurface{},
		Scheduler: h.sched,
	})
	return h
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cutoffs != (audio.Cutoffs{Bass: 150, Mid: 1000, Treble: 5000}) {
		t.Fatalf("unexpected cutoffs %+v", cfg.Cutoffs)
	}
	if cfg.Analyzer != audio.DefaultAnalyzerSpec || cfg.Trails {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestEnsureGraphWithoutSource(t *testing.T) {
	h := newHarness(t)
	if err := h.s.EnsureGraph(); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
	if h.opened != 0 {
		t.Fatal("device opened without a source")
	}
}

func TestPlaybackWithoutSourceIsNoop(t *testing.T) {
	h := newHarness(t)
	if err := h.s.Handle(PlaybackStarted{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.s.State() != nil || len(h.sched.pending) != 0 {
		t.Fatal("expected nothing built")
	}
}

func TestEnsureGraphIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.s.Handle(SourceReady{Media: h.media})

	for range 3 {
		if err := h.s.EnsureGraph(); err != nil {
			t.Fatalf("EnsureGraph: %v", err)
		}
	}
	if h.opened != 1 || h.media.claims != 1 || len(h.dev.outputs) != 1 {
		t.Fatalf("expected one device/claim/output, got %d/%d/%d",
			h.opened, h.media.claims, len(h.dev.outputs))
	}
	st := h.s.State()
	if st.Graph.TapCount() != audio.NumBands {
		t.Fatalf("expected %d taps, got %d", audio.NumBands, st.Graph.TapCount())
	}
	if st.Clock.State() != audio.ClockSuspended {
		t.Fatal("clock should stay suspended until playback")
	}
}

func TestParametersBeforeGraphAreApplied(t *testing.T) {
	h := newHarness(t)
	h.s.Handle(SourceReady{Media: h.media})
	h.s.Handle(ParameterChanged{Band: audio.Bass, Value: 90})
	h.s.Handle(ParameterChanged{Band: audio.Treble, Value: 8000})
	h.s.Handle(ParameterChanged{Band: audio.Treble, Value: 9000})

	if err := h.s.EnsureGraph(); err != nil {
		t.Fatalf("EnsureGraph: %v", err)
	}
	g := h.s.State().Graph
	if got := g.Chain(audio.Bass).Filter.Frequency(); got != 90 {
		t.Fatalf("bass = %v, want 90", got)
	}
	if got := g.Chain(audio.Mid).Filter.Frequency(); got != 1000 {
		t.Fatalf("mid = %v, want 1000", got)
	}
	if got := g.Chain(audio.Treble).Filter.Frequency(); got != 9000 {
		t.Fatalf("treble = %v, want the latest value 9000", got)
	}
}

func TestParametersAfterGraphAreApplied(t *testing.T) {
	h := newHarness(t)
	h.s.Handle(SourceReady{Media: h.media})
	h.s.Handle(PlaybackStarted{})
	h.s.Handle(ParameterChanged{Band: audio.Mid, Value: 2500})

	c := h.s.State().Graph.Chain(audio.Mid)
	if c.Filter.Frequency() != 2500 || c.Filter.Q() != 1.1 {
		t.Fatalf("mid filter = %v Hz, Q %v", c.Filter.Frequency(), c.Filter.Q())
	}
}

func TestInvalidParameters(t *testing.T) {
	h := newHarness(t)
	if err := h.s.Handle(ParameterChanged{Band: audio.Band(9), Value: 100}); err == nil {
		t.Fatal("expected error for unknown band")
	}
	before := h.s.Cutoffs()
	h.s.SetCutoff(audio.Bass, 1/zero())
	if h.s.Cutoffs() != before {
		t.Fatal("infinite cutoff should be dropped")
	}
}

func zero() float64 { return 0 }

func TestPlayTwiceRunsOneLoop(t *testing.T) {
	h := newHarness(t)
	h.s.Handle(SourceReady{Media: h.media})
	h.s.Handle(PlaybackStarted{})
	first := h.s.State().Loop.Handle()
	h.s.Handle(PlaybackStarted{})

	if len(h.sched.pending) != 1 {
		t.Fatalf("expected a single pending frame, got %d", len(h.sched.pending))
	}
	if got := h.s.State().Loop.Handle(); got != first {
		t.Fatalf("handle changed from %d to %d", first, got)
	}
	if h.dev.resumes != 1 {
		t.Fatalf("expected one resume, got %d", h.dev.resumes)
	}
	if h.s.State().Clock.State() != audio.ClockRunning {
		t.Fatal("expected running clock")
	}
}

func TestResumeFailureStillStartsLoop(t *testing.T) {
	h := newHarness(t)
	h.dev.resumeErr = errors.New("blocked")
	h.s.Handle(SourceReady{Media: h.media})

	if err := h.s.StartVisualizer(); err != nil {
		t.Fatalf("resume failure should not be fatal: %v", err)
	}
	if !h.s.State().Loop.Running() {
		t.Fatal("expected render loop to run")
	}
}

func TestBuildErrorsPropagate(t *testing.T) {
	boom := errors.New("no device")
	s := New(DefaultConfig(), Deps{
		OpenDevice: func(audio.Format) (audio.Device, error) { return nil, boom },
		Surface:    nopSurface{},
		Scheduler:  &manualScheduler{},
	})
	s.SetSource(&fakeMedia{})
	if err := s.StartVisualizer(); !errors.Is(err, boom) {
		t.Fatalf("expected device error, got %v", err)
	}
	if s.State() != nil {
		t.Fatal("failed build left state behind")
	}
}

func TestStopCancelsFrame(t *testing.T) {
	h := newHarness(t)
	h.s.Stop()
	h.s.Handle(SourceReady{Media: h.media})
	h.s.Handle(PlaybackStarted{})
	h.s.Stop()
	if len(h.sched.pending) != 0 || h.s.State().Loop.Running() {
		t.Fatal("expected render loop stopped")
	}
	h.s.Handle(PlaybackStarted{})
	if len(h.sched.pending) != 1 {
		t.Fatal("expected loop to restart")
	}
}

func TestVolumeRememberedBeforeGraph(t *testing.T) {
	h := newHarness(t)
	h.s.AdjustVolume(-0.25)
	h.s.AdjustVolume(-2)
	h.s.AdjustVolume(0.4)
	if v := h.s.Volume(); v < 0.399 || v > 0.401 {
		t.Fatalf("volume = %v, want 0.4", v)
	}
	h.s.Handle(SourceReady{Media: h.media})
	h.s.EnsureGraph()
	if v := h.dev.outputs[0].volume; v < 0.399 || v > 0.401 {
		t.Fatalf("output volume = %v, want 0.4", v)
	}
	h.s.AdjustVolume(1)
	if h.dev.outputs[0].volume != 1 {
		t.Fatal("expected volume capped at 1")
	}
}

func TestTrailsToggle(t *testing.T) {
	h := newHarness(t)
	h.s.SetTrails(true)
	h.s.Handle(SourceReady{Media: h.media})
	h.s.EnsureGraph()
	if !h.s.State().Loop.Trails() {
		t.Fatal("loop should inherit trails on")
	}
	h.s.SetTrails(false)
	if h.s.State().Loop.Trails() || h.s.Trails() {
		t.Fatal("expected trails off")
	}
}

func TestLevelBeforeAndAfterGraph(t *testing.T) {
	h := newHarness(t)
	if h.s.Level(audio.Bass) != 0 {
		t.Fatal("expected zero level without graph")
	}
	h.s.Handle(SourceReady{Media: h.media})
	h.s.EnsureGraph()
	io.ReadAll(h.dev.readers[0])
	for _, b := range audio.Bands {
		if l := h.s.Level(b); l < 0 || l > 1 {
			t.Fatalf("%s level %v outside [0, 1]", b, l)
		}
	}
}

func TestSourceFixedOnceBuilt(t *testing.T) {
	h := newHarness(t)
	h.s.Handle(SourceReady{Media: h.media})
	h.s.EnsureGraph()
	other := &fakeMedia{}
	h.s.Handle(SourceReady{Media: other})
	h.s.EnsureGraph()
	if other.claims != 0 {
		t.Fatal("second source should never be claimed")
	}
}
