package drag

import (
	"github.com/flowgrid/flowgrid/internal/geometry"
	"github.com/flowgrid/flowgrid/internal/graph"
)

// Item pairs a node being moved with its fixed offset from the pointer.
// Items exist only for the lifetime of one gesture.
type Item struct {
	Node *graph.Node
	// Distance is the world-space offset from the initial pointer
	// position to the node's absolute position. It stays constant for
	// the whole gesture so the node keeps its grip point under the
	// pointer.
	Distance geometry.XYPosition
	// Parent is resolved once at gesture start; nil for top-level nodes.
	Parent *graph.Node

	// Position and Absolute hold the item's most recently computed local
	// and world positions. They are updated together for all items of a
	// gesture before any callback fires.
	Position geometry.XYPosition
	Absolute geometry.XYPosition
}

// collectItems builds the set of nodes one gesture moves: the primary
// node itself plus every selected draggable top-level node. A selected
// node under a selected ancestor is excluded since it already moves with
// that ancestor.
func collectItems(store Store, primary *graph.Node, pointer geometry.XYPosition) []*Item {
	var items []*Item
	for _, n := range store.Nodes() {
		if n.ID != primary.ID {
			if !n.Selected || !n.Draggable {
				continue
			}
			if n.ParentID != "" && graph.IsAncestorSelected(n, store.FindNode) {
				continue
			}
		}

		item := &Item{
			Node:     n,
			Distance: pointer.Sub(n.PositionAbsolute),
			Position: n.Position,
			Absolute: n.PositionAbsolute,
		}
		if n.ParentID != "" {
			item.Parent = store.FindNode(n.ParentID)
		}
		items = append(items, item)
	}
	return items
}

// update derives the item's candidate position from the pointer, snaps it
// if requested, and clamps it to the item's movement bounds. It reports
// whether the resolved local position differs from the node's current one.
func (it *Item) update(pointer geometry.XYPosition, snap bool, snapGrid [2]float64) bool {
	next := pointer.Sub(it.Distance)
	if snap {
		next = geometry.SnapPosition(next, snapGrid)
	}
	next = it.clamp(next)

	local := next
	if it.Parent != nil {
		local = next.Sub(it.Parent.PositionAbsolute)
	}

	it.Absolute = next
	it.Position = local
	return local != it.Node.Position
}

// clamp bounds the candidate absolute position: to the node's own
// movement extent when one is set, otherwise to the parent's current
// bounds when the node is nested. The node's dimensions shrink the
// allowed range so the whole box stays inside.
func (it *Item) clamp(pos geometry.XYPosition) geometry.XYPosition {
	n := it.Node

	var bounds geometry.Box
	if !n.Extent.Unbounded() && !n.Extent.Parent {
		bounds = n.Extent.Box
	} else if it.Parent != nil && it.Parent.Measured() {
		bounds = geometry.RectToBox(it.Parent.Rect())
	} else {
		return pos
	}

	bounds.X2 -= n.Width
	bounds.Y2 -= n.Height
	return geometry.ClampPosition(pos, bounds)
}
