package drag

import (
	"math"
	"sync"

	"github.com/flowgrid/flowgrid/internal/geometry"
	"github.com/flowgrid/flowgrid/internal/graph"
)

// State is the per-gesture phase of a session.
type State int

const (
	StateIdle State = iota
	StatePending
	StateDragging
)

// Store is the reactive store a session reads from and writes into. The
// session mutates node positions and dragging flags through it; the store
// owns the data and delivers it to renderers.
type Store interface {
	Nodes() []*graph.Node
	FindNode(id string) *graph.Node
	Transform() geometry.Transform
	ContainerRect() geometry.Rect
	// PanBy shifts the viewport and reports whether it actually moved.
	PanBy(delta geometry.XYPosition) bool
	AddSelectedNodes(ids []string)
	RemoveSelectedNodes(ids []string)
	// UpdateNodePositions writes the items' resolved positions back into
	// the graph, marking or clearing the nodes' dragging flag.
	UpdateNodePositions(items []*Item, dragging bool)
}

// AutoPanOptions configures edge-of-viewport panning during a drag.
type AutoPanOptions struct {
	Enabled bool
	// Margin is the distance from the container edge, in screen pixels,
	// within which panning kicks in.
	Margin float64
	// Speed is the maximum pan distance per frame, reached when the
	// pointer sits on the container edge.
	Speed float64
}

// Options configures a drag session.
type Options struct {
	// Threshold is the Euclidean distance the pointer must travel before
	// a pending gesture becomes a drag. Zero starts the drag on
	// pointer-down; releasing within the threshold is a click.
	Threshold float64
	SnapToGrid bool
	SnapGrid   [2]float64
	// SelectNodesOnDrag makes an unselected node the sole selection when
	// its drag starts. When false, dragging an unselected node clears
	// the existing selection instead.
	SelectNodesOnDrag bool
	// RequireHandle excludes gestures that do not start on the node's
	// drag handle.
	RequireHandle bool
	AutoPan       AutoPanOptions
	// Scheduler paces the auto-pan loop; nil uses a TickerScheduler at
	// DefaultFrameInterval.
	Scheduler FrameScheduler
}

// Session drives the drag interaction for one node: Idle -> Pending ->
// Dragging -> back to Idle, with the auto-pan task running concurrently
// while dragging. A session is reusable across gestures but supports only
// one at a time.
type Session struct {
	mu      sync.Mutex
	store   Store
	opts    Options
	handler Handler
	nodeID  string

	state      State
	detached   bool
	startWorld geometry.XYPosition
	lastWorld  geometry.XYPosition
	lastScreen geometry.XYPosition
	lastEvent  PointerEvent
	items      []*Item
	autoPan    *autoPanTask
}

// NewSession attaches a drag session to the node with the given id.
func NewSession(store Store, nodeID string, opts Options, handler Handler) *Session {
	if opts.Scheduler == nil {
		opts.Scheduler = TickerScheduler{Interval: DefaultFrameInterval}
	}
	return &Session{
		store:   store,
		opts:    opts,
		handler: handler,
		nodeID:  nodeID,
	}
}

// State returns the session's current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PointerDown begins a pending gesture. Non-primary buttons, ambiguous
// multi-touch, gestures on a no-drag region, and (when a handle is
// configured) gestures off the handle are silently ignored.
func (s *Session) PointerDown(ev PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached || s.state != StateIdle {
		return
	}
	if ev.Button != 0 || ev.Touches > 1 || ev.NoDragRegion {
		return
	}
	if s.opts.RequireHandle && !ev.OnHandle {
		return
	}

	node := s.store.FindNode(s.nodeID)
	if node == nil || !node.Draggable {
		return
	}

	s.state = StatePending
	s.startWorld = s.pointerWorld(ev)
	s.lastScreen = ev.Position
	s.lastEvent = ev

	if s.opts.Threshold == 0 {
		s.startDrag(ev, node)
	}
}

// PointerMove advances a gesture. A pending gesture becomes a drag once
// the pointer travels past the threshold; a dragging gesture recomputes
// every item's position, writing back and notifying only when something
// actually moved.
func (s *Session) PointerMove(ev PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached || s.state == StateIdle {
		return
	}

	pointer := s.pointerWorld(ev)
	s.lastScreen = ev.Position
	s.lastEvent = ev

	if s.state == StatePending {
		dx := pointer.X - s.startWorld.X
		dy := pointer.Y - s.startWorld.Y
		if math.Hypot(dx, dy) <= s.opts.Threshold {
			return
		}
		node := s.store.FindNode(s.nodeID)
		if node == nil {
			s.state = StateIdle
			return
		}
		s.startDrag(ev, node)
	}

	s.updateDrag(pointer, ev)
}

// PointerUp ends a gesture. A gesture still pending resolves as a click;
// a drag commits its final positions, cancels auto-pan, clears the
// dragging flags, and fires the stop event.
func (s *Session) PointerUp(ev PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return
	}

	switch s.state {
	case StatePending:
		s.state = StateIdle
		node := s.store.FindNode(s.nodeID)
		s.emit(Event{Kind: KindClick, Pointer: ev, Node: node})

	case StateDragging:
		s.stopAutoPan()
		s.store.UpdateNodePositions(s.items, false)
		s.emit(Event{Kind: KindStop, Pointer: ev, Node: s.primary(), Nodes: s.itemNodes()})
		s.items = nil
		s.state = StateIdle
	}
}

// Detach disables the session: any in-flight auto-pan task is canceled
// and no callback fires afterwards. A gesture still dragging commits its
// last positions silently so no node stays marked dragging. Used when
// the node leaves the document or dragging is switched off.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopAutoPan()
	if s.state == StateDragging {
		s.store.UpdateNodePositions(s.items, false)
	}
	s.items = nil
	s.state = StateIdle
	s.detached = true
}

// startDrag transitions Pending -> Dragging: applies the selection side
// effect, captures the drag item set once, fires the start event, and
// arms the auto-pan loop. Caller holds the lock.
func (s *Session) startDrag(ev PointerEvent, node *graph.Node) {
	s.state = StateDragging

	if node.Selectable {
		if s.opts.SelectNodesOnDrag && !node.Selected {
			s.store.RemoveSelectedNodes(s.selectedIDs())
			s.store.AddSelectedNodes([]string{node.ID})
		} else if !s.opts.SelectNodesOnDrag && !node.Selected {
			s.store.RemoveSelectedNodes(s.selectedIDs())
		}
	}

	s.items = collectItems(s.store, node, s.startWorld)
	s.lastWorld = s.startWorld
	s.emit(Event{Kind: KindStart, Pointer: ev, Node: node, Nodes: s.itemNodes()})

	if s.opts.AutoPan.Enabled {
		s.autoPan = newAutoPanTask(s.opts.Scheduler, s.autoPanTick)
		s.autoPan.start()
	}
}

// updateDrag recomputes all item positions for one pointer step. All
// items are resolved before any write or callback, so observers never see
// a half-updated set. A step where every item stayed put (already clamped
// at a boundary) is a no-op: no write, no event.
func (s *Session) updateDrag(pointer geometry.XYPosition, ev PointerEvent) {
	s.lastWorld = pointer

	changed := false
	for _, it := range s.items {
		if it.update(pointer, s.opts.SnapToGrid, s.opts.SnapGrid) {
			changed = true
		}
	}
	if !changed {
		return
	}

	s.store.UpdateNodePositions(s.items, true)
	s.emit(Event{Kind: KindProgress, Pointer: ev, Node: s.primary(), Nodes: s.itemNodes()})
}

func (s *Session) pointerWorld(ev PointerEvent) geometry.XYPosition {
	return geometry.ScreenToWorld(ev.Position, s.store.Transform(), s.opts.SnapToGrid, s.opts.SnapGrid)
}

func (s *Session) selectedIDs() []string {
	var ids []string
	for _, n := range s.store.Nodes() {
		if n.Selected {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func (s *Session) primary() *graph.Node {
	for _, it := range s.items {
		if it.Node.ID == s.nodeID {
			return it.Node
		}
	}
	return s.store.FindNode(s.nodeID)
}

func (s *Session) itemNodes() []*graph.Node {
	nodes := make([]*graph.Node, len(s.items))
	for i, it := range s.items {
		nodes[i] = it.Node
	}
	return nodes
}

func (s *Session) emit(ev Event) {
	if s.handler != nil {
		s.handler.HandleDragEvent(ev)
	}
}

func (s *Session) stopAutoPan() {
	if s.autoPan != nil {
		s.autoPan.stop()
		s.autoPan = nil
	}
}
