package graph

import (
	"encoding/json"

	"github.com/flowgrid/flowgrid/internal/geometry"
)

// DefaultNodeType is assigned to nodes and edges parsed without an
// explicit type.
const DefaultNodeType = "default"

// Element is either a *Node or an *Edge in a diagram's element collection.
type Element interface {
	ElementID() string
}

// Extent bounds a node's movement. Either Parent is set, meaning "clamp to
// the owning parent's bounds", or Box holds an absolute world-space box.
// The zero Extent means unbounded.
type Extent struct {
	Parent bool
	Box    geometry.Box
}

// Unbounded reports whether the extent imposes no bound at all.
func (e Extent) Unbounded() bool {
	return !e.Parent && e.Box == (geometry.Box{})
}

// Handle describes a connection point on a node, measured relative to the
// node's origin. Handle bounds are filled in by the renderer after layout;
// a freshly parsed node carries empty slices.
type Handle struct {
	ID       string              `json:"id,omitempty"`
	Position geometry.XYPosition `json:"position"`
	Width    float64             `json:"width"`
	Height   float64             `json:"height"`
}

// HandleBounds groups a node's source and target handles.
type HandleBounds struct {
	Source []Handle `json:"source"`
	Target []Handle `json:"target"`
}

// Node is a positioned, sizeable diagram element, optionally nested under
// a parent node. Position is local: relative to the parent's absolute
// position, or to the world origin when ParentID is empty.
// PositionAbsolute and Z are computed by the resolver; Width and Height
// stay zero until the renderer reports the first measurement.
type Node struct {
	ID               string
	Type             string
	Position         geometry.XYPosition
	PositionAbsolute geometry.XYPosition
	Z                int
	ZIndex           int
	Width            float64
	Height           float64
	ParentID         string
	IsParent         bool
	Selected         bool
	Dragging         bool
	Draggable        bool
	Selectable       bool
	Extent           Extent
	HandleBounds     HandleBounds
	Data             json.RawMessage
}

func (n *Node) ElementID() string { return n.ID }

// Measured reports whether the node has known dimensions. Geometry queries
// that need an area treat unmeasured nodes conservatively (see NodesInsideRect).
func (n *Node) Measured() bool {
	return n.Width > 0 && n.Height > 0
}

// Rect returns the node's bounding rect at its absolute position.
// An unmeasured node yields a zero-size rect at its position.
func (n *Node) Rect() geometry.Rect {
	return geometry.Rect{
		X:      n.PositionAbsolute.X,
		Y:      n.PositionAbsolute.Y,
		Width:  n.Width,
		Height: n.Height,
	}
}

// Edge is a directed connection between two nodes, referenced by id only.
// Deleting either endpoint removes the edge (see RemoveElements).
type Edge struct {
	ID           string
	Type         string
	Source       string
	Target       string
	SourceHandle string
	TargetHandle string
	Label        string
	Data         json.RawMessage
}

func (e *Edge) ElementID() string { return e.ID }

// Connection is an edge-to-be: the endpoints of a requested connection,
// lacking a stable id.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// IsNode reports whether the element is a node.
func IsNode(el Element) bool {
	_, ok := el.(*Node)
	return ok
}

// IsEdge reports whether the element is an edge.
func IsEdge(el Element) bool {
	_, ok := el.(*Edge)
	return ok
}

// Nodes filters the collection down to its nodes, preserving order.
func Nodes(elements []Element) []*Node {
	var nodes []*Node
	for _, el := range elements {
		if n, ok := el.(*Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Edges filters the collection down to its edges, preserving order.
func Edges(elements []Element) []*Edge {
	var edges []*Edge
	for _, el := range elements {
		if e, ok := el.(*Edge); ok {
			edges = append(edges, e)
		}
	}
	return edges
}

// FindNode returns the node with the given id, or nil.
func FindNode(elements []Element, id string) *Node {
	for _, el := range elements {
		if n, ok := el.(*Node); ok && n.ID == id {
			return n
		}
	}
	return nil
}
