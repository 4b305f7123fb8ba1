package graph_test

import (
	"errors"
	"testing"

	"github.com/flowgrid/flowgrid/internal/geometry"
	"github.com/flowgrid/flowgrid/internal/graph"
)

func lookupOf(nodes ...*graph.Node) graph.Lookup {
	byID := make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return func(id string) *graph.Node { return byID[id] }
}

func TestResolveAbsoluteTopLevel(t *testing.T) {
	n := &graph.Node{ID: "a", Position: geometry.XYPosition{X: 7, Y: 9}, ZIndex: 2}

	abs, err := graph.ResolveAbsolute(n, lookupOf(n))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if abs.Position != n.Position {
		t.Errorf("position = %+v, want local %+v", abs.Position, n.Position)
	}
	if abs.Z != 2 {
		t.Errorf("z = %d, want declared 2", abs.Z)
	}
}

func TestResolveAbsoluteNested(t *testing.T) {
	parent := &graph.Node{ID: "p", Position: geometry.XYPosition{X: 5, Y: 5}}
	child := &graph.Node{ID: "c", ParentID: "p", Position: geometry.XYPosition{X: 10, Y: 10}}
	grandchild := &graph.Node{ID: "g", ParentID: "c", Position: geometry.XYPosition{X: 1, Y: 2}}
	find := lookupOf(parent, child, grandchild)

	abs, err := graph.ResolveAbsolute(child, find)
	if err != nil {
		t.Fatalf("resolve child: %v", err)
	}
	if (abs.Position != geometry.XYPosition{X: 15, Y: 15}) {
		t.Errorf("child absolute = %+v, want (15, 15)", abs.Position)
	}

	abs, err = graph.ResolveAbsolute(grandchild, find)
	if err != nil {
		t.Fatalf("resolve grandchild: %v", err)
	}
	if (abs.Position != geometry.XYPosition{X: 16, Y: 17}) {
		t.Errorf("grandchild absolute = %+v, want (16, 17)", abs.Position)
	}
}

func TestResolveAbsoluteStacking(t *testing.T) {
	parent := &graph.Node{ID: "p", ZIndex: 3}
	low := &graph.Node{ID: "low", ParentID: "p", ZIndex: 1}
	high := &graph.Node{ID: "high", ParentID: "p", ZIndex: 10}
	find := lookupOf(parent, low, high)

	abs, _ := graph.ResolveAbsolute(low, find)
	if abs.Z != 4 {
		t.Errorf("low z = %d, want raised above parent to 4", abs.Z)
	}

	abs, _ = graph.ResolveAbsolute(high, find)
	if abs.Z != 10 {
		t.Errorf("high z = %d, want own declared 10", abs.Z)
	}
}

func TestResolveAbsoluteCycle(t *testing.T) {
	a := &graph.Node{ID: "a", ParentID: "b"}
	b := &graph.Node{ID: "b", ParentID: "a"}

	_, err := graph.ResolveAbsolute(a, lookupOf(a, b))
	if !errors.Is(err, graph.ErrCyclicParent) {
		t.Errorf("err = %v, want ErrCyclicParent", err)
	}

	self := &graph.Node{ID: "s", ParentID: "s"}
	_, err = graph.ResolveAbsolute(self, lookupOf(self))
	if !errors.Is(err, graph.ErrCyclicParent) {
		t.Errorf("self-parent err = %v, want ErrCyclicParent", err)
	}
}

func TestResolveAbsoluteDanglingParent(t *testing.T) {
	n := &graph.Node{ID: "a", ParentID: "ghost", Position: geometry.XYPosition{X: 3, Y: 4}}

	abs, err := graph.ResolveAbsolute(n, lookupOf(n))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if abs.Position != n.Position {
		t.Errorf("dangling parent: absolute = %+v, want local %+v", abs.Position, n.Position)
	}
}

func TestIsAncestorSelected(t *testing.T) {
	grandparent := &graph.Node{ID: "gp", Selected: true}
	parent := &graph.Node{ID: "p", ParentID: "gp"}
	child := &graph.Node{ID: "c", ParentID: "p"}
	find := lookupOf(grandparent, parent, child)

	if !graph.IsAncestorSelected(child, find) {
		t.Error("selection on a grandparent should count")
	}
	if graph.IsAncestorSelected(grandparent, find) {
		t.Error("a node's own selection is not an ancestor selection")
	}
}

func TestIsAncestorSelectedCycleTerminates(t *testing.T) {
	a := &graph.Node{ID: "a", ParentID: "b"}
	b := &graph.Node{ID: "b", ParentID: "a"}

	if graph.IsAncestorSelected(a, lookupOf(a, b)) {
		t.Error("cyclic chain should resolve to false")
	}
}
