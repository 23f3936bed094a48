package visualizer

import (
	"sync"

	"github.com/olivier-w/ringscope/internal/audio"
)

// RenderLoop draws a frame per scheduler callback and requests exactly one
// more each time, until stopped.
type RenderLoop struct {
	sched   Scheduler
	surface Surface
	sources [audio.NumBands]TimeDomainReader
	styles  [audio.NumBands]BandStyle

	mu      sync.Mutex
	running bool
	handle  FrameHandle
	trails  bool
	frames  int
	bufs    [audio.NumBands][]byte
	points  []Point
}

// NewRenderLoop creates a stopped loop drawing sources onto surface.
// Trails start disabled.
func NewRenderLoop(sched Scheduler, surface Surface, sources [audio.NumBands]TimeDomainReader) *RenderLoop {
	l := &RenderLoop{
		sched:   sched,
		surface: surface,
		sources: sources,
		styles:  DefaultStyles(),
	}
	for b, src := range sources {
		l.bufs[b] = make([]byte, src.Resolution())
	}
	return l
}

// Start draws a frame and schedules the next one. A running loop is left
// alone and its pending handle returned.
func (l *RenderLoop) Start() FrameHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return l.handle
	}
	l.running = true
	l.frameLocked()
	return l.handle
}

// Stop cancels the pending frame.
func (l *RenderLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.sched.CancelFrame(l.handle)
	l.running = false
	l.handle = 0
}

// Running reports whether a frame is scheduled.
func (l *RenderLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Handle returns the pending frame handle, or zero when stopped.
func (l *RenderLoop) Handle() FrameHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

// Frames returns the number of frames drawn.
func (l *RenderLoop) Frames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Trails reports whether previous frames fade out instead of being wiped.
func (l *RenderLoop) Trails() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.trails
}

// SetTrails takes effect on the next frame.
func (l *RenderLoop) SetTrails(on bool) {
	l.mu.Lock()
	l.trails = on
	l.mu.Unlock()
}

func (l *RenderLoop) tick() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.frameLocked()
}

func (l *RenderLoop) frameLocked() {
	l.draw()
	l.frames++
	l.handle = l.sched.RequestFrame(l.tick)
}

func (l *RenderLoop) draw() {
	if !l.trails {
		l.surface.Clear()
	}
	l.surface.Fill(Background, BackgroundAlpha)

	for _, b := range audio.Bands {
		buf := l.bufs[b]
		n := l.sources[b].ReadTimeDomain(buf)
		l.points = DrawBand(l.surface, buf[:n], l.styles[b], DrawStrengths[b], l.points)
	}
}
