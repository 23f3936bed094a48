package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/ringscope/internal/visualizer"
)

type frameMsg struct {
	id visualizer.FrameHandle
}

// FrameScheduler turns frame requests into bubbletea ticks. Requests are
// queued as commands and handed to the program by the next Update; the
// callback runs inside Update when its tick arrives.
type FrameScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	next    visualizer.FrameHandle
	pending map[visualizer.FrameHandle]func()
	queued  []tea.Cmd
}

// NewFrameScheduler ticks at fps frames per second.
func NewFrameScheduler(fps int) *FrameScheduler {
	if fps < 1 {
		fps = 60
	}
	return &FrameScheduler{
		interval: time.Second / time.Duration(fps),
		pending:  make(map[visualizer.FrameHandle]func()),
	}
}

// Interval returns the delay between frames.
func (s *FrameScheduler) Interval() time.Duration { return s.interval }

func (s *FrameScheduler) RequestFrame(fn func()) visualizer.FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.pending[id] = fn
	s.queued = append(s.queued, tea.Tick(s.interval, func(time.Time) tea.Msg {
		return frameMsg{id: id}
	}))
	return id
}

func (s *FrameScheduler) CancelFrame(h visualizer.FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, h)
}

// Pending returns the number of callbacks waiting for their tick.
func (s *FrameScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Cmd drains the queued ticks.
func (s *FrameScheduler) Cmd() tea.Cmd {
	s.mu.Lock()
	queued := s.queued
	s.queued = nil
	s.mu.Unlock()
	switch len(queued) {
	case 0:
		return nil
	case 1:
		return queued[0]
	default:
		return tea.Batch(queued...)
	}
}

// run invokes the callback for id. Cancelled or already-run frames are
// dropped and run reports false.
func (s *FrameScheduler) run(id visualizer.FrameHandle) bool {
	s.mu.Lock()
	fn, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	fn()
	return true
}
