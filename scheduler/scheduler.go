// Package scheduler coalesces requests to redraw a chart into at most one
// paint per display refresh.
package scheduler

// FrameHook is a per-refresh callback source. While started it arranges for
// Scheduler.Tick to be called once per display refresh.
type FrameHook interface {
	Start()
	Stop()
}

// Work is the chart side of a frame.
type Work interface {
	// Decelerating reports whether an inertial scroll is in progress.
	Decelerating() bool
	// Decelerate advances the inertial scroll by dt seconds.
	Decelerate(dt float64)
	// Paint performs one full paint pass.
	Paint()
	// Dragging reports whether a pan or pinch gesture is in progress.
	Dragging() bool
}

// Scheduler tracks whether a paint is pending and whether the frame hook is
// running.
type Scheduler struct {
	hook    FrameHook
	pending bool
	running bool
}

// New returns a scheduler driving hook. A nil hook is allowed for callers
// that tick manually.
func New(hook FrameHook) *Scheduler {
	return &Scheduler{hook: hook}
}

// Schedule requests a paint on the next tick.
func (s *Scheduler) Schedule() {
	s.pending = true
	s.start()
}

// Pending reports whether a paint has been requested since the last one.
func (s *Scheduler) Pending() bool { return s.pending }

// Running reports whether the frame hook is active.
func (s *Scheduler) Running() bool { return s.running }

func (s *Scheduler) start() {
	if s.running {
		return
	}
	s.running = true
	if s.hook != nil {
		s.hook.Start()
	}
}

func (s *Scheduler) stop() {
	if !s.running {
		return
	}
	s.running = false
	if s.hook != nil {
		s.hook.Stop()
	}
}

// Tick runs one frame. It reports whether another tick is wanted; when it is
// not, the hook has been stopped.
func (s *Scheduler) Tick(dt float64, w Work) bool {
	more := false
	if w.Decelerating() {
		w.Decelerate(dt)
		s.pending = true
		more = true
	}
	if s.pending {
		s.pending = false
		w.Paint()
		if w.Dragging() {
			more = true
		}
	}
	if more {
		s.start()
		return true
	}
	s.stop()
	return false
}
