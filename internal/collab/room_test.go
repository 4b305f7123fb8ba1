package collab_test

import (
	"sync"
	"testing"

	"github.com/flowgrid/flowgrid/internal/collab"
	"github.com/flowgrid/flowgrid/internal/drag"
	"github.com/flowgrid/flowgrid/internal/geometry"
	"github.com/flowgrid/flowgrid/internal/graph"
	"github.com/flowgrid/flowgrid/internal/store"
)

func newRoom(t *testing.T) *collab.RoomState {
	t.Helper()
	st := store.New(store.DefaultSettings())
	st.SetElements([]graph.NodeSpec{
		{ID: "a", Position: geometry.XYPosition{X: 0, Y: 0}, Width: 50, Height: 50},
		{ID: "b", Position: geometry.XYPosition{X: 100, Y: 0}, Width: 50, Height: 50},
	}, []graph.EdgeSpec{
		{Source: "a", Target: "b"},
	})
	return collab.NewRoomState(st)
}

func TestApplyOperationNodeAdd(t *testing.T) {
	rs := newRoom(t)

	seq, err := rs.ApplyOperation(collab.Operation{
		Type: collab.OpNodeAdd,
		Node: &graph.NodeSpec{ID: "c", Position: geometry.XYPosition{X: 20, Y: 20}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if seq != 1 {
		t.Errorf("serverSeq = %d, want 1", seq)
	}
	if rs.Store().FindNode("c") == nil {
		t.Error("added node not found")
	}
	if !rs.Dirty() {
		t.Error("room should be dirty after an applied operation")
	}
}

func TestApplyOperationNodeMove(t *testing.T) {
	rs := newRoom(t)

	pos := geometry.XYPosition{X: 30, Y: 40}
	if _, err := rs.ApplyOperation(collab.Operation{
		Type:     collab.OpNodeMove,
		NodeID:   "a",
		Position: &pos,
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := rs.Store().FindNode("a").Position; got != pos {
		t.Errorf("position = %+v, want %+v", got, pos)
	}

	if _, err := rs.ApplyOperation(collab.Operation{
		Type:     collab.OpNodeMove,
		NodeID:   "ghost",
		Position: &pos,
	}); err == nil {
		t.Error("moving an unknown node should be rejected")
	}
}

func TestApplyOperationNodeRemoveCascades(t *testing.T) {
	rs := newRoom(t)

	if _, err := rs.ApplyOperation(collab.Operation{
		Type:   collab.OpNodeRemove,
		NodeID: "a",
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if rs.Store().FindNode("a") != nil {
		t.Error("node a should be removed")
	}
	if len(rs.Store().Edges()) != 0 {
		t.Error("edge incident to a should be removed")
	}
}

func TestApplyOperationEdgeLifecycle(t *testing.T) {
	rs := newRoom(t)

	if _, err := rs.ApplyOperation(collab.Operation{
		Type: collab.OpEdgeAdd,
		Edge: &graph.EdgeSpec{Source: "b", Target: "a"},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(rs.Store().Edges()) != 2 {
		t.Fatalf("edges = %d, want 2", len(rs.Store().Edges()))
	}

	if _, err := rs.ApplyOperation(collab.Operation{
		Type:       collab.OpEdgeUpdate,
		EdgeID:     "edge-b-a",
		Connection: &graph.Connection{Source: "a", Target: "b", SourceHandle: "alt"},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	found := false
	for _, e := range rs.Store().Edges() {
		if e.ID == "edge-aalt-b" {
			found = true
		}
	}
	if !found {
		t.Error("updated edge should carry the freshly derived id")
	}

	if _, err := rs.ApplyOperation(collab.Operation{
		Type:   collab.OpEdgeRemove,
		EdgeID: "edge-aalt-b",
	}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(rs.Store().Edges()) != 1 {
		t.Errorf("edges = %d, want 1 after removal", len(rs.Store().Edges()))
	}
}

func TestApplyOperationReparent(t *testing.T) {
	rs := newRoom(t)

	if _, err := rs.ApplyOperation(collab.Operation{
		Type:     collab.OpNodeReparent,
		NodeID:   "b",
		ParentID: "a",
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	b := rs.Store().FindNode("b")
	if b.ParentID != "a" {
		t.Errorf("parent = %q, want a", b.ParentID)
	}
	if (b.PositionAbsolute != geometry.XYPosition{X: 100, Y: 0}) {
		t.Errorf("absolute = %+v, want preserved (100, 0)", b.PositionAbsolute)
	}
}

func TestApplyOperationViewportAndSelection(t *testing.T) {
	rs := newRoom(t)

	tr := geometry.Transform{X: 10, Y: 20, Zoom: 1.5}
	if _, err := rs.ApplyOperation(collab.Operation{
		Type:      collab.OpViewportSet,
		Transform: &tr,
	}); err != nil {
		t.Fatalf("viewport: %v", err)
	}
	if got := rs.Store().Transform(); got != tr {
		t.Errorf("transform = %+v, want %+v", got, tr)
	}

	if _, err := rs.ApplyOperation(collab.Operation{
		Type:      collab.OpSelectionSet,
		Selection: []string{"b"},
	}); err != nil {
		t.Fatalf("selection: %v", err)
	}
	sel := rs.Store().SelectedNodes()
	if len(sel) != 1 || sel[0].ID != "b" {
		t.Errorf("selection = %v, want [b]", sel)
	}

	// A later selection replaces the earlier one.
	if _, err := rs.ApplyOperation(collab.Operation{
		Type:      collab.OpSelectionSet,
		Selection: []string{"a"},
	}); err != nil {
		t.Fatalf("selection: %v", err)
	}
	sel = rs.Store().SelectedNodes()
	if len(sel) != 1 || sel[0].ID != "a" {
		t.Errorf("selection = %v, want [a]", sel)
	}
}

func TestApplyOperationUnknownType(t *testing.T) {
	rs := newRoom(t)

	if _, err := rs.ApplyOperation(collab.Operation{Type: "node.teleport"}); err == nil {
		t.Error("unknown operation type should be rejected")
	}
	if rs.ServerSeq() != 0 {
		t.Error("rejected operation must not advance the sequence")
	}
	if rs.Dirty() {
		t.Error("rejected operation must not dirty the room")
	}
}

func TestMarkSavedClearsDirty(t *testing.T) {
	rs := newRoom(t)
	pos := geometry.XYPosition{X: 1, Y: 1}
	rs.ApplyOperation(collab.Operation{Type: collab.OpNodeMove, NodeID: "a", Position: &pos})

	rs.MarkSaved()
	if rs.Dirty() {
		t.Error("MarkSaved should clear the dirty flag")
	}
}

type dragRecorder struct {
	mu    sync.Mutex
	kinds []drag.Kind
}

func (r *dragRecorder) HandleDragEvent(ev drag.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, ev.Kind)
}

func TestPointerGestureMovesNode(t *testing.T) {
	rs := newRoom(t)
	rec := &dragRecorder{}

	p := func(x, y float64) collab.PointerPayload {
		return collab.PointerPayload{NodeID: "a", Position: geometry.XYPosition{X: x, Y: y}}
	}

	rs.PointerDown("client-1", p(0, 0), drag.Options{}, rec)
	rs.PointerMove("client-1", p(25, 10))
	rs.PointerUp("client-1", p(25, 10))

	a := rs.Store().FindNode("a")
	if (a.Position != geometry.XYPosition{X: 25, Y: 10}) {
		t.Errorf("position = %+v, want (25, 10)", a.Position)
	}
	if a.Dragging {
		t.Error("dragging flag should clear after pointer-up")
	}
	if !rs.Dirty() {
		t.Error("a finished gesture should dirty the room")
	}

	want := []drag.Kind{drag.KindStart, drag.KindProgress, drag.KindStop}
	if len(rec.kinds) != len(want) {
		t.Fatalf("events = %v, want %v", rec.kinds, want)
	}
	for i := range want {
		if rec.kinds[i] != want[i] {
			t.Fatalf("events = %v, want %v", rec.kinds, want)
		}
	}
}

func TestDetachClientCancelsGesture(t *testing.T) {
	rs := newRoom(t)
	rec := &dragRecorder{}

	rs.PointerDown("client-1", collab.PointerPayload{NodeID: "a"}, drag.Options{}, rec)
	rs.DetachClient("client-1")

	before := len(rec.kinds)
	rs.PointerMove("client-1", collab.PointerPayload{NodeID: "a", Position: geometry.XYPosition{X: 50, Y: 0}})
	rs.PointerUp("client-1", collab.PointerPayload{NodeID: "a"})

	if len(rec.kinds) != before {
		t.Errorf("events after detach: %v", rec.kinds[before:])
	}
	a := rs.Store().FindNode("a")
	if (a.Position != geometry.XYPosition{}) {
		t.Errorf("node moved after detach: %+v", a.Position)
	}
}
