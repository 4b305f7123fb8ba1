package geometry

// Transform is the affine map between world and screen coordinates:
// screen = world*Zoom + translate. Zoom must be positive.
type Transform struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// WorldToScreen projects a world-space position onto the screen.
func WorldToScreen(pos XYPosition, t Transform) XYPosition {
	return XYPosition{
		X: pos.X*t.Zoom + t.X,
		Y: pos.Y*t.Zoom + t.Y,
	}
}

// ScreenToWorld is the inverse projection. If snap is true the result is
// rounded to the grid after the inverse transform, so snapping happens in
// world space regardless of zoom.
func ScreenToWorld(pos XYPosition, t Transform, snap bool, snapGrid [2]float64) XYPosition {
	world := XYPosition{
		X: (pos.X - t.X) / t.Zoom,
		Y: (pos.Y - t.Y) / t.Zoom,
	}
	if snap {
		return SnapPosition(world, snapGrid)
	}
	return world
}

// ScreenRectToWorld converts a screen-space rect to world space.
func ScreenRectToWorld(r Rect, t Transform) Rect {
	origin := ScreenToWorld(XYPosition{X: r.X, Y: r.Y}, t, false, [2]float64{})
	return Rect{
		X:      origin.X,
		Y:      origin.Y,
		Width:  r.Width / t.Zoom,
		Height: r.Height / t.Zoom,
	}
}

// FitViewTransform computes the transform that fits bounds into a viewport
// of the given size. The bounds are inflated by the padding fraction, the
// resulting zoom is clamped to [minZoom, maxZoom], and the bounds' center
// maps to the viewport center shifted by the pixel offset.
func FitViewTransform(bounds Rect, width, height, minZoom, maxZoom, padding float64, offset XYPosition) Transform {
	xZoom := width / (bounds.Width * (1 + padding))
	yZoom := height / (bounds.Height * (1 + padding))
	zoom := Clamp(min(xZoom, yZoom), minZoom, maxZoom)

	center := bounds.Center()
	return Transform{
		X:    width/2 - center.X*zoom + offset.X,
		Y:    height/2 - center.Y*zoom + offset.Y,
		Zoom: zoom,
	}
}
