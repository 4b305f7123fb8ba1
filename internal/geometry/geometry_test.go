package geometry_test

import (
	"testing"

	"github.com/flowgrid/flowgrid/internal/geometry"
)

func TestEmptyBoxIsUnionIdentity(t *testing.T) {
	boxes := []geometry.Box{
		{X: 0, Y: 0, X2: 10, Y2: 10},
		{X: -50, Y: -20, X2: -10, Y2: 5},
		{X: 3, Y: 3, X2: 3, Y2: 3},
	}
	for _, b := range boxes {
		if got := geometry.BoxUnion(geometry.EmptyBox(), b); got != b {
			t.Errorf("BoxUnion(EmptyBox, %+v) = %+v, want unchanged", b, got)
		}
		if got := geometry.BoxUnion(b, geometry.EmptyBox()); got != b {
			t.Errorf("BoxUnion(%+v, EmptyBox) = %+v, want unchanged", b, got)
		}
	}
}

func TestBoxUnionContainsBoth(t *testing.T) {
	a := geometry.Box{X: 0, Y: 0, X2: 10, Y2: 10}
	b := geometry.Box{X: 5, Y: -5, X2: 20, Y2: 8}

	got := geometry.BoxUnion(a, b)
	want := geometry.Box{X: 0, Y: -5, X2: 20, Y2: 10}
	if got != want {
		t.Errorf("BoxUnion = %+v, want %+v", got, want)
	}
	if geometry.BoxUnion(b, a) != got {
		t.Error("BoxUnion should be commutative")
	}
}

func TestRectBoxRoundTrip(t *testing.T) {
	r := geometry.Rect{X: 3, Y: -4, Width: 17, Height: 9}
	if got := geometry.BoxToRect(geometry.RectToBox(r)); got != r {
		t.Errorf("round trip = %+v, want %+v", got, r)
	}
}

func TestBoundsOfRects(t *testing.T) {
	a := geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := geometry.Rect{X: 20, Y: 20, Width: 5, Height: 5}

	got := geometry.BoundsOfRects(a, b)
	want := geometry.Rect{X: 0, Y: 0, Width: 25, Height: 25}
	if got != want {
		t.Errorf("BoundsOfRects = %+v, want %+v", got, want)
	}
}

func TestOverlapArea(t *testing.T) {
	tests := []struct {
		name string
		a, b geometry.Rect
		want float64
	}{
		{
			name: "half overlap",
			a:    geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10},
			b:    geometry.Rect{X: 5, Y: 0, Width: 10, Height: 10},
			want: 50,
		},
		{
			name: "contained",
			a:    geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10},
			b:    geometry.Rect{X: 2, Y: 2, Width: 4, Height: 4},
			want: 16,
		},
		{
			name: "disjoint",
			a:    geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10},
			b:    geometry.Rect{X: 20, Y: 20, Width: 10, Height: 10},
			want: 0,
		},
		{
			name: "touching edges",
			a:    geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10},
			b:    geometry.Rect{X: 10, Y: 0, Width: 10, Height: 10},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := geometry.OverlapArea(tt.a, tt.b); got != tt.want {
				t.Errorf("OverlapArea = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampPosition(t *testing.T) {
	extent := geometry.Box{X: 0, Y: 0, X2: 100, Y2: 100}

	tests := []struct {
		pos, want geometry.XYPosition
	}{
		{geometry.XYPosition{X: 50, Y: 50}, geometry.XYPosition{X: 50, Y: 50}},
		{geometry.XYPosition{X: -10, Y: 50}, geometry.XYPosition{X: 0, Y: 50}},
		{geometry.XYPosition{X: 150, Y: 200}, geometry.XYPosition{X: 100, Y: 100}},
	}
	for _, tt := range tests {
		if got := geometry.ClampPosition(tt.pos, extent); got != tt.want {
			t.Errorf("ClampPosition(%+v) = %+v, want %+v", tt.pos, got, tt.want)
		}
	}
}

func TestSnapPosition(t *testing.T) {
	grid := [2]float64{15, 15}

	tests := []struct {
		pos, want geometry.XYPosition
	}{
		{geometry.XYPosition{X: 0, Y: 0}, geometry.XYPosition{X: 0, Y: 0}},
		{geometry.XYPosition{X: 7, Y: 8}, geometry.XYPosition{X: 0, Y: 15}},
		{geometry.XYPosition{X: 22, Y: -8}, geometry.XYPosition{X: 15, Y: -15}},
	}
	for _, tt := range tests {
		if got := geometry.SnapPosition(tt.pos, grid); got != tt.want {
			t.Errorf("SnapPosition(%+v) = %+v, want %+v", tt.pos, got, tt.want)
		}
	}
}

func TestSnapPositionZeroGridLeavesPosition(t *testing.T) {
	pos := geometry.XYPosition{X: 7.3, Y: -2.1}
	if got := geometry.SnapPosition(pos, [2]float64{}); got != pos {
		t.Errorf("SnapPosition with zero grid = %+v, want %+v", got, pos)
	}
}
