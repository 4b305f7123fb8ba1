// Package store holds the mutable editor state one diagram room works
// on: the element collection, the viewport transform, and the interaction
// settings. It satisfies the drag engine's Store interface and is the
// single writer for node positions and selection flags.
package store

import (
	"log/slog"
	"sync"

	"github.com/flowgrid/flowgrid/internal/drag"
	"github.com/flowgrid/flowgrid/internal/geometry"
	"github.com/flowgrid/flowgrid/internal/graph"
)

// Settings are the editor defaults a store is created with.
type Settings struct {
	MinZoom           float64    `yaml:"minZoom"`
	MaxZoom           float64    `yaml:"maxZoom"`
	SnapToGrid        bool       `yaml:"snapToGrid"`
	SnapGrid          [2]float64 `yaml:"snapGrid"`
	DragThreshold     float64    `yaml:"dragThreshold"`
	SelectNodesOnDrag bool       `yaml:"selectNodesOnDrag"`
	AutoPanMargin     float64    `yaml:"autoPanMargin"`
	AutoPanSpeed      float64    `yaml:"autoPanSpeed"`
	FitViewPadding    float64    `yaml:"fitViewPadding"`
}

// DefaultSettings mirror the values a fresh editor starts with.
func DefaultSettings() Settings {
	return Settings{
		MinZoom:           0.5,
		MaxZoom:           2,
		SnapGrid:          [2]float64{15, 15},
		SelectNodesOnDrag: true,
		AutoPanMargin:     20,
		AutoPanSpeed:      15,
		FitViewPadding:    0.1,
	}
}

// Store is the authoritative in-memory state for one diagram.
type Store struct {
	mu        sync.RWMutex
	elements  []graph.Element
	transform geometry.Transform
	settings  Settings
	container geometry.Rect
	// translateExtent bounds the viewport translation; the zero value
	// means unbounded.
	translateExtent graph.Extent
	// nodeExtent bounds node positions globally; applied at parse time.
	nodeExtent graph.Extent
}

// New creates an empty store with the given settings.
func New(settings Settings) *Store {
	if settings.MaxZoom <= 0 {
		settings = DefaultSettings()
	}
	return &Store{
		settings:  settings,
		transform: geometry.Transform{Zoom: 1},
	}
}

// Settings returns the store's editor settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetElements replaces the element collection with the parsed and
// normalized specs, then resolves every node's absolute position.
func (s *Store) SetElements(nodes []graph.NodeSpec, edges []graph.EdgeSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.elements = make([]graph.Element, 0, len(nodes)+len(edges))
	for _, spec := range nodes {
		s.elements = append(s.elements, graph.ParseNode(spec, s.nodeExtent))
	}
	for _, spec := range edges {
		s.elements = append(s.elements, graph.ParseEdge(spec))
	}
	s.resolvePositions()
}

// Elements returns a snapshot of the element collection. The slice is a
// copy; the elements themselves are shared and owned by the store.
func (s *Store) Elements() []graph.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]graph.Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// Nodes returns the node subset of the collection.
func (s *Store) Nodes() []*graph.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.Nodes(s.elements)
}

// Edges returns the edge subset of the collection.
func (s *Store) Edges() []*graph.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.Edges(s.elements)
}

// FindNode returns the node with the given id, or nil.
func (s *Store) FindNode(id string) *graph.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.FindNode(s.elements, id)
}

// AddNode parses and appends a node, then re-resolves positions.
func (s *Store) AddNode(spec graph.NodeSpec) *graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := graph.ParseNode(spec, s.nodeExtent)
	s.elements = append(s.elements, n)
	s.resolvePositions()
	return n
}

// AddEdge runs the graph algebra's AddEdge over the collection.
func (s *Store) AddEdge(edge *graph.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements = graph.AddEdge(edge, s.elements)
}

// UpdateEdge retargets an existing edge to a new connection.
func (s *Store) UpdateEdge(oldEdge *graph.Edge, conn graph.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements = graph.UpdateEdge(oldEdge, conn, s.elements)
}

// RemoveElements removes the elements with the given ids, cascading to
// incident edges and nested children. Unknown ids are ignored.
func (s *Store) RemoveElements(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toRemove []graph.Element
	for _, el := range s.elements {
		for _, id := range ids {
			if el.ElementID() == id {
				toRemove = append(toRemove, el)
			}
		}
	}
	s.elements = graph.RemoveElements(toRemove, s.elements)
}

// ReparentNode moves a node under a new parent (empty id for top level),
// preserving its absolute position by rebasing the local one.
func (s *Store) ReparentNode(nodeID, parentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := graph.FindNode(s.elements, nodeID)
	if n == nil {
		slog.Warn("can't reparent, node not found", "node", nodeID)
		return
	}

	local := n.PositionAbsolute
	if parentID != "" {
		parent := graph.FindNode(s.elements, parentID)
		if parent == nil {
			slog.Warn("can't reparent, parent not found", "node", nodeID, "parent", parentID)
			return
		}
		local = n.PositionAbsolute.Sub(parent.PositionAbsolute)
		parent.IsParent = true
	}

	n.ParentID = parentID
	n.Position = local
	s.resolvePositions()
}

// SetNodePosition sets a node's local position directly and re-resolves.
func (s *Store) SetNodePosition(nodeID string, pos geometry.XYPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := graph.FindNode(s.elements, nodeID)
	if n == nil {
		slog.Warn("can't move, node not found", "node", nodeID)
		return
	}
	n.Position = pos
	s.resolvePositions()
}

// SetNodeDimensions records a node's measured size, unlocking the
// geometry queries that need an area.
func (s *Store) SetNodeDimensions(nodeID string, width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := graph.FindNode(s.elements, nodeID)
	if n == nil {
		return
	}
	n.Width = width
	n.Height = height
}

// UpdateNodePositions writes drag item positions back into the graph.
// Part of the drag.Store interface; positions are visible to any event
// handler fired immediately afterwards.
func (s *Store) UpdateNodePositions(items []*drag.Item, dragging bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		it.Node.Position = it.Position
		it.Node.PositionAbsolute = it.Absolute
		it.Node.Dragging = dragging
	}
	// Children of moved parents pick up the new ancestor positions.
	s.resolvePositions()
}

// AddSelectedNodes sets the selection flag on the given nodes.
func (s *Store) AddSelectedNodes(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSelected(ids, true)
}

// RemoveSelectedNodes clears the selection flag on the given nodes.
func (s *Store) RemoveSelectedNodes(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSelected(ids, false)
}

func (s *Store) setSelected(ids []string, selected bool) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, n := range graph.Nodes(s.elements) {
		if want[n.ID] {
			n.Selected = selected
		}
	}
}

// SelectedNodes returns the currently selected nodes.
func (s *Store) SelectedNodes() []*graph.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*graph.Node
	for _, n := range graph.Nodes(s.elements) {
		if n.Selected {
			out = append(out, n)
		}
	}
	return out
}

// Transform returns the current viewport transform.
func (s *Store) Transform() geometry.Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transform
}

// SetTransform replaces the viewport transform, clamping zoom into the
// configured range.
func (s *Store) SetTransform(t geometry.Transform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Zoom = geometry.Clamp(t.Zoom, s.settings.MinZoom, s.settings.MaxZoom)
	s.transform = t
}

// PanBy shifts the viewport translation by delta, clamped to the
// translate extent, and reports whether the viewport actually moved. The
// drag engine relies on the return value to skip position re-application
// when panning is pinned at a boundary.
func (s *Store) PanBy(delta geometry.XYPosition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := geometry.XYPosition{X: s.transform.X + delta.X, Y: s.transform.Y + delta.Y}
	if !s.translateExtent.Unbounded() && !s.translateExtent.Parent {
		next = geometry.ClampPosition(next, s.translateExtent.Box)
	}
	if next.X == s.transform.X && next.Y == s.transform.Y {
		return false
	}
	s.transform.X = next.X
	s.transform.Y = next.Y
	return true
}

// SetTranslateExtent bounds future viewport translation.
func (s *Store) SetTranslateExtent(extent graph.Extent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.translateExtent = extent
}

// SetNodeExtent bounds node positions parsed from now on.
func (s *Store) SetNodeExtent(extent graph.Extent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeExtent = extent
}

// ContainerRect returns the viewport container's bounding rect as last
// reported by the host.
func (s *Store) ContainerRect() geometry.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.container
}

// SetContainerRect records the viewport container's bounding rect.
func (s *Store) SetContainerRect(r geometry.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.container = r
}

// FitView computes and applies the transform that fits all nodes into
// the container, honoring the configured zoom range and padding.
func (s *Store) FitView() geometry.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := graph.Nodes(s.elements)
	if len(nodes) == 0 || s.container.Width <= 0 || s.container.Height <= 0 {
		return s.transform
	}

	bounds := graph.BoundingRect(nodes)
	s.transform = geometry.FitViewTransform(
		bounds,
		s.container.Width, s.container.Height,
		s.settings.MinZoom, s.settings.MaxZoom,
		s.settings.FitViewPadding,
		geometry.XYPosition{},
	)
	return s.transform
}

// NodesInsideRect runs the selection-box query against the current
// transform.
func (s *Store) NodesInsideRect(rect geometry.Rect, partial bool) []*graph.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.NodesInsideRect(graph.Nodes(s.elements), rect, s.transform, partial)
}

// resolvePositions recomputes every node's absolute position and stacking
// index. Cyclic parent chains are reported and the node falls back to its
// local position. Caller holds the write lock.
func (s *Store) resolvePositions() {
	find := func(id string) *graph.Node { return graph.FindNode(s.elements, id) }

	for _, n := range graph.Nodes(s.elements) {
		if n.ParentID != "" {
			if parent := find(n.ParentID); parent != nil {
				parent.IsParent = true
			}
		}
	}

	for _, n := range graph.Nodes(s.elements) {
		abs, err := graph.ResolveAbsolute(n, find)
		if err != nil {
			slog.Warn("position resolution failed", "node", n.ID, "error", err)
			n.PositionAbsolute = n.Position
			n.Z = n.ZIndex
			continue
		}
		n.PositionAbsolute = abs.Position
		n.Z = abs.Z
	}
}
