package collab

import (
	"encoding/json"

	"github.com/flowgrid/flowgrid/internal/geometry"
	"github.com/flowgrid/flowgrid/internal/graph"
)

type Message struct {
	Type      string          `json:"type"`
	DiagramID string          `json:"diagramId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync = "doc.sync"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"

	// Pointer input driving the server-side drag engine
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"

	// Drag lifecycle broadcasts
	TypeDragStart    = "drag.start"
	TypeDragProgress = "drag.progress"
	TypeDragStop     = "drag.stop"
	TypeNodeClick    = "node.click"
)

type PresencePayload struct {
	UserID      string               `json:"userId,omitempty"`
	Cursor      *geometry.XYPosition `json:"cursor,omitempty"`
	Selection   []string             `json:"selection,omitempty"`
	DisplayName string               `json:"displayName,omitempty"`
	// DraggingNode names the node the client's gesture is moving, if any.
	DraggingNode string `json:"draggingNode,omitempty"`
}

// PresenceStatePayload is keyed by client id.
type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

// --- Operations ---

// Operation is a single document mutation applied to a room's store.
const (
	OpNodeAdd        = "node.add"
	OpNodeMove       = "node.move"
	OpNodeRemove     = "node.remove"
	OpNodeReparent   = "node.reparent"
	OpNodeDimensions = "node.dimensions"
	OpEdgeAdd        = "edge.add"
	OpEdgeUpdate     = "edge.update"
	OpEdgeRemove     = "edge.remove"
	OpViewportSet    = "viewport.set"
	OpSelectionSet   = "selection.set"
)

type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`

	// For node.* operations
	NodeID   string               `json:"nodeId,omitempty"`
	Node     *graph.NodeSpec      `json:"node,omitempty"`
	Position *geometry.XYPosition `json:"position,omitempty"`
	ParentID string               `json:"parentId,omitempty"`
	Width    float64              `json:"width,omitempty"`
	Height   float64              `json:"height,omitempty"`

	// For edge.* operations
	EdgeID     string            `json:"edgeId,omitempty"`
	Edge       *graph.EdgeSpec   `json:"edge,omitempty"`
	Connection *graph.Connection `json:"connection,omitempty"`

	// For node.remove / edge.remove
	ElementIDs []string `json:"elementIds,omitempty"`

	// For viewport.set
	Transform *geometry.Transform `json:"transform,omitempty"`

	// For selection.set
	Selection []string `json:"selection,omitempty"`
}

type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

// --- Pointer input ---

// PointerPayload carries one pointer event for the server-side drag
// engine. Position is in screen coordinates relative to the viewport
// container.
type PointerPayload struct {
	NodeID       string              `json:"nodeId,omitempty"`
	Position     geometry.XYPosition `json:"position"`
	Button       int                 `json:"button"`
	Touches      int                 `json:"touches"`
	NoDragRegion bool                `json:"noDragRegion,omitempty"`
	OnHandle     bool                `json:"onHandle,omitempty"`
}

// --- Drag broadcasts ---

// NodePosition is one moved node inside a drag broadcast.
type NodePosition struct {
	NodeID   string              `json:"nodeId"`
	Position geometry.XYPosition `json:"position"`
	Absolute geometry.XYPosition `json:"absolute"`
}

type DragPayload struct {
	NodeID string         `json:"nodeId"`
	Nodes  []NodePosition `json:"nodes,omitempty"`
}

// DocSyncPayload carries the full document for a freshly joined client.
type DocSyncPayload struct {
	Document  json.RawMessage `json:"document"`
	ServerSeq int64           `json:"serverSeq"`
}
