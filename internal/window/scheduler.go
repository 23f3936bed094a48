package window

import (
	"sync"

	"github.com/olivier-w/ringscope/internal/visualizer"
)

// Scheduler runs frame callbacks from the game's Draw.
type Scheduler struct {
	mu      sync.Mutex
	next    visualizer.FrameHandle
	pending map[visualizer.FrameHandle]func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[visualizer.FrameHandle]func())}
}

func (s *Scheduler) RequestFrame(fn func()) visualizer.FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending[s.next] = fn
	return s.next
}

func (s *Scheduler) CancelFrame(h visualizer.FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, h)
}

// RunPending invokes every callback requested before the call and returns
// how many ran. Callbacks requested while running wait for the next call.
func (s *Scheduler) RunPending() int {
	s.mu.Lock()
	fns := s.pending
	s.pending = make(map[visualizer.FrameHandle]func())
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
