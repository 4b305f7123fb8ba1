package drag

import "github.com/flowgrid/flowgrid/internal/geometry"

// autoPanTask is a self-rescheduling animation-frame task. The owning
// session holds the only handle and stops it exactly once per gesture,
// either on pointer-up or on detach. All task state is guarded by the
// session mutex: start, stop, and the end-of-frame reschedule all run
// under it.
type autoPanTask struct {
	sched  FrameScheduler
	tick   func()
	cancel func()
	active bool
}

func newAutoPanTask(sched FrameScheduler, tick func()) *autoPanTask {
	return &autoPanTask{sched: sched, tick: tick}
}

func (t *autoPanTask) start() {
	if t.active {
		return
	}
	t.active = true
	t.cancel = t.sched.Request(t.tick)
}

// reschedule requests the next frame. Called at the end of each tick
// while the task is still active.
func (t *autoPanTask) reschedule() {
	if !t.active {
		return
	}
	t.cancel = t.sched.Request(t.tick)
}

func (t *autoPanTask) stop() {
	if !t.active {
		return
	}
	t.active = false
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// panVelocity returns the per-frame pan distance for one axis. Inside the
// margins it is zero; past a margin it grows linearly with the overshoot,
// reaching speed at the container edge. The sign pans the canvas away
// from the edge the pointer is crowding.
func panVelocity(pos, size, margin, speed float64) float64 {
	if margin <= 0 {
		return 0
	}
	if pos < margin {
		return speed * geometry.Clamp((margin-pos)/margin, 0, 1)
	}
	if pos > size-margin {
		return -speed * geometry.Clamp((pos-(size-margin))/margin, 0, 1)
	}
	return 0
}

// autoPanTick runs once per animation frame while dragging: it pans the
// viewport when the pointer is near a container edge and, only if the pan
// took effect, re-applies the drag at the world position shifted by the
// pan so the nodes stay under the pointer while the canvas scrolls.
func (s *Session) autoPanTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached || s.state != StateDragging || s.autoPan == nil {
		return
	}
	defer s.autoPan.reschedule()

	rect := s.store.ContainerRect()
	delta := geometry.XYPosition{
		X: panVelocity(s.lastScreen.X, rect.Width, s.opts.AutoPan.Margin, s.opts.AutoPan.Speed),
		Y: panVelocity(s.lastScreen.Y, rect.Height, s.opts.AutoPan.Margin, s.opts.AutoPan.Speed),
	}
	if delta == (geometry.XYPosition{}) {
		return
	}

	if !s.store.PanBy(delta) {
		return
	}

	zoom := s.store.Transform().Zoom
	adjusted := geometry.XYPosition{
		X: s.lastWorld.X - delta.X/zoom,
		Y: s.lastWorld.Y - delta.Y/zoom,
	}
	s.updateDrag(adjusted, s.lastEvent)
}
