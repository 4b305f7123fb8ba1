package collab

import (
	"fmt"
	"sync"
	"time"

	"github.com/flowgrid/flowgrid/internal/drag"
	"github.com/flowgrid/flowgrid/internal/graph"
	"github.com/flowgrid/flowgrid/internal/store"
)

// RoomState holds the authoritative document state for one diagram room:
// the element store, the operation log, and one drag session per client
// currently holding a gesture.
type RoomState struct {
	mu        sync.Mutex
	store     *store.Store
	serverSeq int64
	opLog     []Operation
	dirty     bool

	sessions map[string]*drag.Session // clientID -> active drag session
}

// NewRoomState wraps a populated store.
func NewRoomState(st *store.Store) *RoomState {
	return &RoomState{
		store:    st,
		sessions: make(map[string]*drag.Session),
	}
}

// Store exposes the underlying element store.
func (rs *RoomState) Store() *store.Store {
	return rs.store
}

// ServerSeq returns the last applied sequence number.
func (rs *RoomState) ServerSeq() int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.serverSeq
}

// Dirty reports whether the room has unsaved changes.
func (rs *RoomState) Dirty() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.dirty
}

// MarkSaved clears the dirty flag after a successful save.
func (rs *RoomState) MarkSaved() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.dirty = false
}

// ApplyOperation applies an operation to the store and returns the new
// server sequence.
func (rs *RoomState) ApplyOperation(op Operation) (int64, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if err := rs.applyOperationLocked(op); err != nil {
		return 0, err
	}

	rs.serverSeq++
	rs.opLog = append(rs.opLog, op)
	rs.dirty = true
	return rs.serverSeq, nil
}

func (rs *RoomState) applyOperationLocked(op Operation) error {
	switch op.Type {
	case OpNodeAdd:
		if op.Node == nil {
			return fmt.Errorf("node.add without node")
		}
		rs.store.AddNode(*op.Node)
		return nil

	case OpNodeMove:
		if op.Position == nil {
			return fmt.Errorf("node.move without position")
		}
		if rs.store.FindNode(op.NodeID) == nil {
			return fmt.Errorf("node not found: %s", op.NodeID)
		}
		rs.store.SetNodePosition(op.NodeID, *op.Position)
		return nil

	case OpNodeRemove, OpEdgeRemove:
		ids := op.ElementIDs
		if op.NodeID != "" {
			ids = append(ids, op.NodeID)
		}
		if op.EdgeID != "" {
			ids = append(ids, op.EdgeID)
		}
		rs.store.RemoveElements(ids)
		return nil

	case OpNodeReparent:
		if rs.store.FindNode(op.NodeID) == nil {
			return fmt.Errorf("node not found: %s", op.NodeID)
		}
		rs.store.ReparentNode(op.NodeID, op.ParentID)
		return nil

	case OpNodeDimensions:
		if rs.store.FindNode(op.NodeID) == nil {
			return fmt.Errorf("node not found: %s", op.NodeID)
		}
		rs.store.SetNodeDimensions(op.NodeID, op.Width, op.Height)
		return nil

	case OpEdgeAdd:
		if op.Edge == nil {
			return fmt.Errorf("edge.add without edge")
		}
		rs.store.AddEdge(graphEdgeFromSpec(op.Edge))
		return nil

	case OpEdgeUpdate:
		if op.Connection == nil {
			return fmt.Errorf("edge.update without connection")
		}
		old := rs.findEdge(op.EdgeID)
		if old == nil {
			return fmt.Errorf("edge not found: %s", op.EdgeID)
		}
		rs.store.UpdateEdge(old, *op.Connection)
		return nil

	case OpViewportSet:
		if op.Transform == nil {
			return fmt.Errorf("viewport.set without transform")
		}
		rs.store.SetTransform(*op.Transform)
		return nil

	case OpSelectionSet:
		current := rs.store.SelectedNodes()
		ids := make([]string, len(current))
		for i, n := range current {
			ids[i] = n.ID
		}
		rs.store.RemoveSelectedNodes(ids)
		rs.store.AddSelectedNodes(op.Selection)
		return nil

	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func (rs *RoomState) findEdge(id string) *graph.Edge {
	for _, e := range rs.store.Edges() {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func graphEdgeFromSpec(spec *graph.EdgeSpec) *graph.Edge {
	return graph.ParseEdge(*spec)
}

// PointerDown routes a pointer-down to the client's drag session,
// creating one for the target node. The handler receives the session's
// lifecycle events for broadcasting.
func (rs *RoomState) PointerDown(clientID string, p PointerPayload, opts drag.Options, handler drag.Handler) {
	rs.mu.Lock()
	if old, ok := rs.sessions[clientID]; ok {
		old.Detach()
	}
	session := drag.NewSession(rs.store, p.NodeID, opts, handler)
	rs.sessions[clientID] = session
	rs.mu.Unlock()

	session.PointerDown(pointerEvent(p))
}

// PointerMove routes a pointer-move to the client's session, if any.
func (rs *RoomState) PointerMove(clientID string, p PointerPayload) {
	rs.mu.Lock()
	session := rs.sessions[clientID]
	rs.mu.Unlock()
	if session != nil {
		session.PointerMove(pointerEvent(p))
	}
}

// PointerUp ends the client's gesture. Position writes the gesture made
// count as document changes.
func (rs *RoomState) PointerUp(clientID string, p PointerPayload) {
	rs.mu.Lock()
	session := rs.sessions[clientID]
	delete(rs.sessions, clientID)
	rs.mu.Unlock()
	if session != nil {
		session.PointerUp(pointerEvent(p))
		rs.mu.Lock()
		rs.dirty = true
		rs.mu.Unlock()
	}
}

// DetachClient cancels any gesture the leaving client still holds; its
// auto-pan task stops and no further events fire.
func (rs *RoomState) DetachClient(clientID string) {
	rs.mu.Lock()
	session := rs.sessions[clientID]
	delete(rs.sessions, clientID)
	rs.mu.Unlock()
	if session != nil {
		session.Detach()
	}
}

func pointerEvent(p PointerPayload) drag.PointerEvent {
	return drag.PointerEvent{
		Position:     p.Position,
		Button:       p.Button,
		Touches:      p.Touches,
		NoDragRegion: p.NoDragRegion,
		OnHandle:     p.OnHandle,
	}
}

// GetServerTimestamp returns the current server timestamp in millis.
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
