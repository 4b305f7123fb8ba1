package graph

import (
	"errors"

	"github.com/flowgrid/flowgrid/internal/geometry"
)

// ErrCyclicParent is returned when a node's parent chain loops back on
// itself. The chain is a forest only by convention; nothing stops a
// caller from wiring a cycle, so resolution guards against it instead of
// recursing forever.
var ErrCyclicParent = errors.New("cyclic parent chain")

// AbsolutePosition is a node's resolved world position and stacking index.
type AbsolutePosition struct {
	Position geometry.XYPosition
	Z        int
}

// Lookup resolves a node id to a node, or nil. The store's FindNode
// satisfies it.
type Lookup func(id string) *Node

// ResolveAbsolute computes a node's absolute position and stacking index
// from its ancestor chain: each level adds the parent's absolute position,
// and the stacking index is raised to one above the parent's unless the
// node's own declared index is already higher. Children therefore never
// render below their parent.
//
// The result is valid only until the node or any ancestor moves; callers
// recompute after every structural change.
func ResolveAbsolute(node *Node, find Lookup) (AbsolutePosition, error) {
	return resolveAbsolute(node, find, map[string]bool{})
}

func resolveAbsolute(node *Node, find Lookup, visited map[string]bool) (AbsolutePosition, error) {
	if visited[node.ID] {
		return AbsolutePosition{}, ErrCyclicParent
	}
	visited[node.ID] = true

	if node.ParentID == "" {
		return AbsolutePosition{Position: node.Position, Z: node.ZIndex}, nil
	}

	parent := find(node.ParentID)
	if parent == nil {
		// Dangling parent reference: treat the node as top-level.
		return AbsolutePosition{Position: node.Position, Z: node.ZIndex}, nil
	}

	parentAbs, err := resolveAbsolute(parent, find, visited)
	if err != nil {
		return AbsolutePosition{}, err
	}

	z := parentAbs.Z + 1
	if node.ZIndex > z {
		z = node.ZIndex
	}

	return AbsolutePosition{
		Position: geometry.XYPosition{
			X: parentAbs.Position.X + node.Position.X,
			Y: parentAbs.Position.Y + node.Position.Y,
		},
		Z: z,
	}, nil
}

// IsAncestorSelected walks the parent chain and reports whether any
// ancestor carries the selection flag. A cyclic chain terminates the walk
// with false.
func IsAncestorSelected(node *Node, find Lookup) bool {
	visited := map[string]bool{node.ID: true}
	for node.ParentID != "" {
		parent := find(node.ParentID)
		if parent == nil || visited[parent.ID] {
			return false
		}
		if parent.Selected {
			return true
		}
		visited[parent.ID] = true
		node = parent
	}
	return false
}
