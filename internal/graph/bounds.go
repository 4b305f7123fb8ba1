package graph

import "github.com/flowgrid/flowgrid/internal/geometry"

// BoundingRect returns the axis-aligned bounding rect of the nodes'
// absolute boxes. Unmeasured nodes contribute a zero-size box at their
// position. Folding starts from the union identity, so an empty slice
// yields a degenerate rect.
func BoundingRect(nodes []*Node) geometry.Rect {
	box := geometry.EmptyBox()
	for _, n := range nodes {
		box = geometry.BoxUnion(box, geometry.RectToBox(n.Rect()))
	}
	return geometry.BoxToRect(box)
}

// NodesInsideRect returns the selectable nodes inside a screen-space query
// rect. The rect is converted to world space through the transform before
// testing. A node whose dimensions are not yet measured, or that is
// currently being dragged, always counts as inside: excluding it would
// make selection flicker before the first layout pass. With partial true
// any positive overlap qualifies; otherwise the node must be fully
// contained.
func NodesInsideRect(nodes []*Node, rect geometry.Rect, t geometry.Transform, partial bool) []*Node {
	worldRect := geometry.ScreenRectToWorld(rect, t)

	var inside []*Node
	for _, n := range nodes {
		if !n.Selectable {
			continue
		}
		if !n.Measured() || n.Dragging {
			inside = append(inside, n)
			continue
		}

		overlap := geometry.OverlapArea(worldRect, n.Rect())
		area := n.Width * n.Height
		if (partial && overlap > 0) || overlap >= area {
			inside = append(inside, n)
		}
	}
	return inside
}
