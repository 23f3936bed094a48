// Package session owns the audio graph and render loop for one media
// source and turns front-end events into operations on them.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/olivier-w/ringscope/internal/audio"
	"github.com/olivier-w/ringscope/internal/visualizer"
)

var (
	// ErrNoSource is returned when the graph is needed before any
	// SourceReady event.
	ErrNoSource = errors.New("no media source")

	errNoSurface = errors.New("no render surface or scheduler")
)

// OpenDeviceFunc opens the audio device for a PCM format.
type OpenDeviceFunc func(audio.Format) (audio.Device, error)

// Deps are the platform pieces a session draws and plays through.
type Deps struct {
	// OpenDevice defaults to audio.OpenDevice.
	OpenDevice OpenDeviceFunc
	Surface    visualizer.Surface
	Scheduler  visualizer.Scheduler
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// GraphState is everything built on first playback. It is never torn down.
type GraphState struct {
	Clock *audio.Clock
	Graph *audio.Graph
	Loop  *visualizer.RenderLoop
}

// ParameterController pushes cutoffs into a graph's filters.
type ParameterController struct {
	graph *audio.Graph
}

// Apply sets each band filter to its frequency in c. It does nothing
// before the graph exists.
func (p ParameterController) Apply(c audio.Cutoffs) {
	if p.graph == nil {
		return
	}
	p.graph.Apply(c)
}

// Session is the playback orchestrator for a single media source.
type Session struct {
	deps Deps
	log  *slog.Logger

	mu         sync.Mutex
	analyzer   audio.AnalyzerSpec
	media      audio.Media
	cutoffs    audio.Cutoffs
	trails     bool
	volume     float64
	state      *GraphState
	controller ParameterController
	levels     [audio.NumBands][]byte
}

// New creates a session with no source and no graph.
func New(cfg Config, deps Deps) *Session {
	if deps.OpenDevice == nil {
		deps.OpenDevice = audio.OpenDevice
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Session{
		deps:     deps,
		log:      log,
		analyzer: cfg.Analyzer,
		cutoffs:  cfg.Cutoffs,
		trails:   cfg.Trails,
		volume:   1,
	}
}

// Handle dispatches ev.
func (s *Session) Handle(ev Event) error {
	switch ev := ev.(type) {
	case SourceReady:
		s.SetSource(ev.Media)
		return nil
	case ParameterChanged:
		return s.SetCutoff(ev.Band, ev.Value)
	case PlaybackStarted:
		return s.StartVisualizer()
	default:
		return fmt.Errorf("unknown event %T", ev)
	}
}

// SetSource binds m as the session's media. Once the graph is built the
// source is fixed and later calls are ignored.
func (s *Session) SetSource(m audio.Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		s.log.Warn("ignoring new source, graph already bound")
		return
	}
	s.media = m
}

// SetCutoff records hz for band b and applies it if the graph exists.
// Non-finite values are dropped.
func (s *Session) SetCutoff(b audio.Band, hz float64) error {
	if !b.Valid() {
		return fmt.Errorf("unknown band %d", int(b))
	}
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = s.cutoffs.With(b, hz)
	s.controller.Apply(s.cutoffs)
	s.log.Debug("cutoff changed", "band", b, "hz", hz)
	return nil
}

// Cutoffs returns the latest frequency of every band.
func (s *Session) Cutoffs() audio.Cutoffs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cutoffs
}

// State returns the graph state, or nil before first playback.
func (s *Session) State() *GraphState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EnsureGraph builds the graph on first use and applies the current
// cutoffs. Later calls only re-apply cutoffs.
func (s *Session) EnsureGraph() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureGraphLocked()
}

func (s *Session) ensureGraphLocked() error {
	if s.state == nil {
		if s.media == nil {
			return ErrNoSource
		}
		state, err := s.buildLocked()
		if err != nil {
			return err
		}
		s.state = state
		s.controller = ParameterController{graph: state.Graph}
	}
	s.controller.Apply(s.cutoffs)
	return nil
}

func (s *Session) buildLocked() (*GraphState, error) {
	if s.deps.Surface == nil || s.deps.Scheduler == nil {
		return nil, errNoSurface
	}
	format := audio.MediaFormat(s.media)
	dev, err := s.deps.OpenDevice(format)
	if err != nil {
		return nil, err
	}
	clock, err := audio.NewClock(dev)
	if err != nil {
		return nil, err
	}
	graph, err := audio.NewGraph(clock, s.media, s.cutoffs, s.analyzer)
	if err != nil {
		return nil, fmt.Errorf("building audio graph: %w", err)
	}
	graph.SetVolume(s.volume)

	var sources [audio.NumBands]visualizer.TimeDomainReader
	for _, b := range audio.Bands {
		sources[b] = graph.Analyzer(b)
		s.levels[b] = make([]byte, graph.Analyzer(b).FrequencyBins())
	}
	loop := visualizer.NewRenderLoop(s.deps.Scheduler, s.deps.Surface, sources)
	loop.SetTrails(s.trails)

	s.log.Debug("audio graph built",
		"rate", format.SampleRate, "channels", format.Channels,
		"resolution", s.analyzer.Resolution, "clock", clock.State())
	return &GraphState{Clock: clock, Graph: graph, Loop: loop}, nil
}

// StartVisualizer makes sure the graph exists, resumes the clock and
// starts the render loop if it is not already running. Without a source
// it does nothing.
func (s *Session) StartVisualizer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.media == nil {
		s.log.Debug("playback started without a source")
		return nil
	}
	if err := s.ensureGraphLocked(); err != nil {
		return err
	}

	clock := s.state.Clock
	if clock.State() == audio.ClockSuspended {
		if err := clock.Resume(); err != nil {
			s.log.Warn("audio clock did not resume", "err", err)
		} else {
			s.log.Debug("audio clock running")
		}
	}
	if !s.state.Loop.Running() {
		h := s.state.Loop.Start()
		s.log.Debug("render loop started", "frame", uint64(h))
	}
	return nil
}

// Stop cancels the render loop's next frame. Audio keeps playing.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return
	}
	s.state.Loop.Stop()
}

// Trails reports whether frames fade instead of being wiped.
func (s *Session) Trails() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trails
}

// SetTrails toggles frame trails.
func (s *Session) SetTrails(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trails = on
	if s.state != nil {
		s.state.Loop.SetTrails(on)
	}
}

// Volume returns the output volume in [0, 1].
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// AdjustVolume changes the output volume by delta, clamped to [0, 1].
func (s *Session) AdjustVolume(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = math.Max(0, math.Min(1, s.volume+delta))
	if s.state != nil {
		s.state.Graph.SetVolume(s.volume)
	}
}

// Level returns the peak of band b's frequency read in [0, 1], or 0
// before the graph exists.
func (s *Session) Level(b audio.Band) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || !b.Valid() {
		return 0
	}
	buf := s.levels[b]
	n := s.state.Graph.Analyzer(b).ReadFrequency(buf)
	var peak byte
	for _, v := range buf[:n] {
		peak = max(peak, v)
	}
	return float64(peak) / 255
}
