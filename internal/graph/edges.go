package graph

import (
	"fmt"
	"log/slog"
)

// EdgeID derives a deterministic edge id from a connection's endpoints.
// Two edges with the same endpoint/handle tuple describe the same
// connection regardless of any explicitly assigned id.
func EdgeID(c Connection) string {
	return fmt.Sprintf("edge-%s%s-%s%s", c.Source, c.SourceHandle, c.Target, c.TargetHandle)
}

// ConnectionExists reports whether an edge with the same source, target
// and handle pair is already present. A handle absent on both sides
// counts as equal.
func ConnectionExists(c Connection, elements []Element) bool {
	for _, el := range elements {
		e, ok := el.(*Edge)
		if !ok {
			continue
		}
		if e.Source == c.Source && e.Target == c.Target &&
			e.SourceHandle == c.SourceHandle && e.TargetHandle == c.TargetHandle {
			return true
		}
	}
	return false
}

// AddEdge appends an edge for the given template to the collection. The
// template may carry an explicit id; otherwise one is derived from the
// endpoints. A connection missing an endpoint is reported and the
// collection returned unchanged. A duplicate connection is an idempotent
// no-op, not an error.
func AddEdge(edge *Edge, elements []Element) []Element {
	if edge.Source == "" || edge.Target == "" {
		slog.Warn("can't create edge, source or target is missing", "source", edge.Source, "target", edge.Target)
		return elements
	}

	conn := Connection{
		Source:       edge.Source,
		Target:       edge.Target,
		SourceHandle: edge.SourceHandle,
		TargetHandle: edge.TargetHandle,
	}
	if ConnectionExists(conn, elements) {
		return elements
	}

	added := *edge
	if added.ID == "" {
		added.ID = EdgeID(conn)
	}
	if added.Type == "" {
		added.Type = DefaultNodeType
	}

	out := make([]Element, len(elements), len(elements)+1)
	copy(out, elements)
	return append(out, &added)
}

// UpdateEdge retargets an existing edge to a new connection. The returned
// collection holds exactly one edge for the connection: the old edge is
// removed and a replacement appended that keeps the old edge's
// non-endpoint fields under a freshly derived id. An incomplete
// connection or an unknown old edge id is reported and the collection
// returned unchanged.
func UpdateEdge(oldEdge *Edge, conn Connection, elements []Element) []Element {
	if conn.Source == "" || conn.Target == "" {
		slog.Warn("can't update edge, source or target is missing", "edge", oldEdge.ID)
		return elements
	}

	found := false
	out := make([]Element, 0, len(elements))
	for _, el := range elements {
		if e, ok := el.(*Edge); ok && e.ID == oldEdge.ID {
			found = true
			continue
		}
		out = append(out, el)
	}
	if !found {
		slog.Warn("can't update edge, edge not found", "edge", oldEdge.ID)
		return elements
	}

	updated := *oldEdge
	updated.ID = EdgeID(conn)
	updated.Source = conn.Source
	updated.Target = conn.Target
	updated.SourceHandle = conn.SourceHandle
	updated.TargetHandle = conn.TargetHandle

	return append(out, &updated)
}

// Outgoers returns the nodes reachable from node via one outgoing edge.
func Outgoers(node *Node, elements []Element) []*Node {
	targets := make(map[string]bool)
	for _, e := range Edges(elements) {
		if e.Source == node.ID {
			targets[e.Target] = true
		}
	}

	var out []*Node
	for _, n := range Nodes(elements) {
		if targets[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// Incomers returns the nodes that reach node via one incoming edge.
func Incomers(node *Node, elements []Element) []*Node {
	sources := make(map[string]bool)
	for _, e := range Edges(elements) {
		if e.Target == node.ID {
			sources[e.Source] = true
		}
	}

	var out []*Node
	for _, n := range Nodes(elements) {
		if sources[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

// ConnectedEdges returns the edges touching any of the given nodes.
func ConnectedEdges(nodes []*Node, edges []*Edge) []*Edge {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}

	var out []*Edge
	for _, e := range edges {
		if ids[e.Source] || ids[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// RemoveElements returns the collection without the given elements.
// Removing a node cascades: every edge whose source or target is a
// removed node goes with it, and so do the node's transitive children
// (a surviving child would hold a parent reference the resolver could
// never satisfy). Surviving elements are not mutated.
func RemoveElements(toRemove []Element, elements []Element) []Element {
	removeIDs := make(map[string]bool, len(toRemove))
	for _, el := range toRemove {
		removeIDs[el.ElementID()] = true
	}

	// Expand to transitive children of removed nodes.
	for {
		grew := false
		for _, n := range Nodes(elements) {
			if n.ParentID != "" && removeIDs[n.ParentID] && !removeIDs[n.ID] {
				removeIDs[n.ID] = true
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	out := make([]Element, 0, len(elements))
	for _, el := range elements {
		if removeIDs[el.ElementID()] {
			continue
		}
		if e, ok := el.(*Edge); ok && (removeIDs[e.Source] || removeIDs[e.Target]) {
			continue
		}
		out = append(out, el)
	}
	return out
}
