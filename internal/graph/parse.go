package graph

import (
	"encoding/json"
	"fmt"

	"github.com/flowgrid/flowgrid/internal/geometry"
)

// ID is a string identifier that also accepts JSON numbers, so documents
// produced with numeric ids parse into the canonical string form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}
	return fmt.Errorf("invalid id: %s", data)
}

func (id ID) String() string { return string(id) }

// ExtentSpec accepts either the string "parent" or a corner pair
// [[minX,minY],[maxX,maxY]].
type ExtentSpec struct {
	Extent Extent
}

func (e *ExtentSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "parent" {
			return fmt.Errorf("invalid extent %q", s)
		}
		e.Extent = Extent{Parent: true}
		return nil
	}
	var corners [2][2]float64
	if err := json.Unmarshal(data, &corners); err != nil {
		return fmt.Errorf("invalid extent: %w", err)
	}
	e.Extent = Extent{Box: geometry.Box{
		X:  corners[0][0],
		Y:  corners[0][1],
		X2: corners[1][0],
		Y2: corners[1][1],
	}}
	return nil
}

func (e ExtentSpec) MarshalJSON() ([]byte, error) {
	if e.Extent.Parent {
		return json.Marshal("parent")
	}
	b := e.Extent.Box
	return json.Marshal([2][2]float64{{b.X, b.Y}, {b.X2, b.Y2}})
}

// NodeSpec is the JSON-facing node shape exchanged with stores and
// renderers. Optional flags are pointers so that absence is
// distinguishable from an explicit false.
type NodeSpec struct {
	ID         ID                  `json:"id"`
	Type       string              `json:"type,omitempty"`
	Position   geometry.XYPosition `json:"position"`
	ZIndex     int                 `json:"zIndex,omitempty"`
	Width      float64             `json:"width,omitempty"`
	Height     float64             `json:"height,omitempty"`
	Parent     ID                  `json:"parent,omitempty"`
	Children   []ID                `json:"children,omitempty"`
	Selected   bool                `json:"selected,omitempty"`
	Draggable  *bool               `json:"draggable,omitempty"`
	Selectable *bool               `json:"selectable,omitempty"`
	Extent     *ExtentSpec         `json:"extent,omitempty"`
	Data       json.RawMessage     `json:"data,omitempty"`
}

// EdgeSpec is the JSON-facing edge shape.
type EdgeSpec struct {
	ID           ID              `json:"id"`
	Type         string          `json:"type,omitempty"`
	Source       ID              `json:"source"`
	Target       ID              `json:"target"`
	SourceHandle string          `json:"sourceHandle,omitempty"`
	TargetHandle string          `json:"targetHandle,omitempty"`
	Label        string          `json:"label,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// ParseNode normalizes a node spec into a graph node: the id becomes a
// canonical string, an unset type defaults, handle bounds start empty,
// and the initial position is clamped into the global node extent.
// Dimensions carry over when the spec has them; otherwise they stay zero
// until the first measurement arrives.
func ParseNode(spec NodeSpec, nodeExtent Extent) *Node {
	pos := spec.Position
	if !nodeExtent.Unbounded() && !nodeExtent.Parent {
		pos = geometry.ClampPosition(pos, nodeExtent.Box)
	}

	nodeType := spec.Type
	if nodeType == "" {
		nodeType = DefaultNodeType
	}

	n := &Node{
		ID:               spec.ID.String(),
		Type:             nodeType,
		Position:         pos,
		PositionAbsolute: pos,
		ZIndex:           spec.ZIndex,
		Z:                spec.ZIndex,
		Width:            spec.Width,
		Height:           spec.Height,
		ParentID:         spec.Parent.String(),
		IsParent:         len(spec.Children) > 0,
		Selected:         spec.Selected,
		Draggable:        spec.Draggable == nil || *spec.Draggable,
		Selectable:       spec.Selectable == nil || *spec.Selectable,
		HandleBounds:     HandleBounds{Source: []Handle{}, Target: []Handle{}},
		Data:             spec.Data,
	}
	if spec.Extent != nil {
		n.Extent = spec.Extent.Extent
	}
	return n
}

// ParseEdge normalizes an edge spec into a graph edge. A missing id is
// derived from the endpoints; a missing type defaults.
func ParseEdge(spec EdgeSpec) *Edge {
	e := &Edge{
		ID:           spec.ID.String(),
		Type:         spec.Type,
		Source:       spec.Source.String(),
		Target:       spec.Target.String(),
		SourceHandle: spec.SourceHandle,
		TargetHandle: spec.TargetHandle,
		Label:        spec.Label,
		Data:         spec.Data,
	}
	if e.ID == "" {
		e.ID = EdgeID(Connection{
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}
	if e.Type == "" {
		e.Type = DefaultNodeType
	}
	return e
}

// NodeToSpec converts a node back to its JSON-facing shape.
func NodeToSpec(n *Node) NodeSpec {
	spec := NodeSpec{
		ID:       ID(n.ID),
		Type:     n.Type,
		Position: n.Position,
		ZIndex:   n.ZIndex,
		Width:    n.Width,
		Height:   n.Height,
		Parent:   ID(n.ParentID),
		Selected: n.Selected,
		Data:     n.Data,
	}
	if !n.Draggable {
		f := false
		spec.Draggable = &f
	}
	if !n.Selectable {
		f := false
		spec.Selectable = &f
	}
	if !n.Extent.Unbounded() {
		spec.Extent = &ExtentSpec{Extent: n.Extent}
	}
	return spec
}

// EdgeToSpec converts an edge back to its JSON-facing shape.
func EdgeToSpec(e *Edge) EdgeSpec {
	return EdgeSpec{
		ID:           ID(e.ID),
		Type:         e.Type,
		Source:       ID(e.Source),
		Target:       ID(e.Target),
		SourceHandle: e.SourceHandle,
		TargetHandle: e.TargetHandle,
		Label:        e.Label,
		Data:         e.Data,
	}
}
