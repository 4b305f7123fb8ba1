package geometry_test

import (
	"math"
	"testing"

	"github.com/flowgrid/flowgrid/internal/geometry"
)

func TestWorldScreenRoundTrip(t *testing.T) {
	tr := geometry.Transform{X: 120, Y: -40, Zoom: 1.5}
	world := geometry.XYPosition{X: 33, Y: -7}

	screen := geometry.WorldToScreen(world, tr)
	back := geometry.ScreenToWorld(screen, tr, false, [2]float64{})

	if math.Abs(back.X-world.X) > 1e-9 || math.Abs(back.Y-world.Y) > 1e-9 {
		t.Errorf("round trip = %+v, want %+v", back, world)
	}
}

func TestScreenToWorldAppliesZoomBeforeSnap(t *testing.T) {
	// At zoom 2 a screen position of (100, 100) is world (45, 45) under
	// translate (10, 10); snapping happens on the world value.
	tr := geometry.Transform{X: 10, Y: 10, Zoom: 2}
	got := geometry.ScreenToWorld(geometry.XYPosition{X: 100, Y: 100}, tr, true, [2]float64{10, 10})

	want := geometry.XYPosition{X: 50, Y: 50}
	if got != want {
		t.Errorf("ScreenToWorld = %+v, want %+v", got, want)
	}
}

func TestScreenRectToWorld(t *testing.T) {
	tr := geometry.Transform{X: 100, Y: 50, Zoom: 2}
	got := geometry.ScreenRectToWorld(geometry.Rect{X: 100, Y: 50, Width: 200, Height: 100}, tr)

	want := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 50}
	if got != want {
		t.Errorf("ScreenRectToWorld = %+v, want %+v", got, want)
	}
}

func TestFitViewTransformCentersBounds(t *testing.T) {
	bounds := geometry.Rect{X: 0, Y: 0, Width: 200, Height: 100}
	got := geometry.FitViewTransform(bounds, 400, 300, 0.1, 4, 0, geometry.XYPosition{})

	// Width is the limiting axis: 400/200 = 2 against 300/100 = 3.
	if got.Zoom != 2 {
		t.Errorf("zoom = %v, want 2", got.Zoom)
	}

	// The bounds center (100, 50) must land on the viewport center.
	center := geometry.WorldToScreen(geometry.XYPosition{X: 100, Y: 50}, got)
	if center.X != 200 || center.Y != 150 {
		t.Errorf("bounds center maps to %+v, want (200, 150)", center)
	}
}

func TestFitViewTransformClampsZoom(t *testing.T) {
	// Small content in a large viewport wants zoom ~9; the max wins.
	bounds := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}
	got := geometry.FitViewTransform(bounds, 1000, 1000, 0.1, 2, 0.1, geometry.XYPosition{})

	if got.Zoom != 2 {
		t.Errorf("zoom = %v, want clamped to 2", got.Zoom)
	}
	if got.X != 400 || got.Y != 400 {
		t.Errorf("translate = (%v, %v), want (400, 400)", got.X, got.Y)
	}
}

func TestFitViewTransformAppliesPadding(t *testing.T) {
	bounds := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}
	got := geometry.FitViewTransform(bounds, 110, 110, 0.01, 10, 0.1, geometry.XYPosition{})

	// 110 / (100 * 1.1) = 1.
	if math.Abs(got.Zoom-1) > 1e-9 {
		t.Errorf("zoom = %v, want 1", got.Zoom)
	}
}

func TestFitViewTransformOffset(t *testing.T) {
	bounds := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}
	base := geometry.FitViewTransform(bounds, 500, 500, 0.1, 4, 0, geometry.XYPosition{})
	shifted := geometry.FitViewTransform(bounds, 500, 500, 0.1, 4, 0, geometry.XYPosition{X: 30, Y: -10})

	if shifted.X-base.X != 30 || shifted.Y-base.Y != -10 {
		t.Errorf("offset shift = (%v, %v), want (30, -10)", shifted.X-base.X, shifted.Y-base.Y)
	}
}
