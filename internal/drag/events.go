package drag

import (
	"time"

	"github.com/flowgrid/flowgrid/internal/geometry"
	"github.com/flowgrid/flowgrid/internal/graph"
)

// Kind discriminates drag lifecycle events.
type Kind int

const (
	// KindStart fires once when a gesture crosses the drag threshold.
	KindStart Kind = iota
	// KindProgress fires on every pointer move that actually changed at
	// least one node position.
	KindProgress
	// KindStop fires once on pointer release after a drag.
	KindStop
	// KindClick fires instead of any drag event when the pointer is
	// released while still within the drag threshold.
	KindClick
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindProgress:
		return "progress"
	case KindStop:
		return "stop"
	case KindClick:
		return "click"
	default:
		return "unknown"
	}
}

// PointerEvent is the host pointer input delivered to a session. Position
// is in screen coordinates relative to the viewport container, the same
// frame the viewport transform maps world space into.
type PointerEvent struct {
	Position geometry.XYPosition
	Button   int
	Touches  int
	// NoDragRegion marks a gesture that started on a designated no-drag
	// region of the node.
	NoDragRegion bool
	// OnHandle marks a gesture that started on the node's drag handle.
	OnHandle bool
}

// Event is a drag lifecycle notification. Node is the gesture's primary
// node, Nodes the full set being moved. For a given gesture events are
// delivered in the order start, zero or more progress, stop; position
// writes are visible to the store before the event fires.
type Event struct {
	Kind    Kind
	Pointer PointerEvent
	Node    *graph.Node
	Nodes   []*graph.Node
}

// Handler receives drag lifecycle events.
type Handler interface {
	HandleDragEvent(Event)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(Event)

func (f HandlerFunc) HandleDragEvent(ev Event) { f(ev) }

// FrameScheduler schedules a callback for the next animation frame and
// returns a cancel func. The auto-pan task reschedules itself through it
// every frame until canceled.
type FrameScheduler interface {
	Request(fn func()) (cancel func())
}

// TickerScheduler is the default FrameScheduler, pacing frames with
// timers at a fixed interval.
type TickerScheduler struct {
	Interval time.Duration
}

// DefaultFrameInterval approximates a 60fps animation frame.
const DefaultFrameInterval = 16 * time.Millisecond

func (s TickerScheduler) Request(fn func()) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	t := time.AfterFunc(interval, fn)
	return func() { t.Stop() }
}
