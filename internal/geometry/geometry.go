package geometry

import "math"

// XYPosition is a 2D coordinate. Whether it is expressed in world space,
// screen space, or relative to a parent node depends on the call site;
// functions in this package name the frame they expect.
type XYPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q componentwise.
func (p XYPosition) Add(q XYPosition) XYPosition {
	return XYPosition{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q componentwise.
func (p XYPosition) Sub(q XYPosition) XYPosition {
	return XYPosition{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is an axis-aligned rectangle in origin+size form.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box is an axis-aligned rectangle in corner form. Union and intersection
// are simpler to express on Box than on Rect.
type Box struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// EmptyBox is the identity element of BoxUnion: unioning it with any box
// yields that box unchanged.
func EmptyBox() Box {
	return Box{
		X:  math.Inf(1),
		Y:  math.Inf(1),
		X2: math.Inf(-1),
		Y2: math.Inf(-1),
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() XYPosition {
	return XYPosition{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// RectToBox converts a rect to corner form.
func RectToBox(r Rect) Box {
	return Box{X: r.X, Y: r.Y, X2: r.X + r.Width, Y2: r.Y + r.Height}
}

// BoxToRect converts a box back to origin+size form.
func BoxToRect(b Box) Rect {
	return Rect{X: b.X, Y: b.Y, Width: b.X2 - b.X, Height: b.Y2 - b.Y}
}

// BoxUnion returns the smallest box containing both inputs.
func BoxUnion(a, b Box) Box {
	return Box{
		X:  math.Min(a.X, b.X),
		Y:  math.Min(a.Y, b.Y),
		X2: math.Max(a.X2, b.X2),
		Y2: math.Max(a.Y2, b.Y2),
	}
}

// BoundsOfRects returns the union of two rects.
func BoundsOfRects(a, b Rect) Rect {
	return BoxToRect(BoxUnion(RectToBox(a), RectToBox(b)))
}

// OverlapArea returns the area of the intersection of two rects,
// or zero if they do not overlap.
func OverlapArea(a, b Rect) float64 {
	xOverlap := math.Max(0, math.Min(a.X+a.Width, b.X+b.Width)-math.Max(a.X, b.X))
	yOverlap := math.Max(0, math.Min(a.Y+a.Height, b.Y+b.Height)-math.Max(a.Y, b.Y))
	return xOverlap * yOverlap
}

// Clamp bounds v to [min, max].
func Clamp(v, min, max float64) float64 {
	return math.Min(math.Max(v, min), max)
}

// ClampPosition bounds a position to the extent box.
func ClampPosition(pos XYPosition, extent Box) XYPosition {
	return XYPosition{
		X: Clamp(pos.X, extent.X, extent.X2),
		Y: Clamp(pos.Y, extent.Y, extent.Y2),
	}
}

// SnapPosition rounds each axis of pos to the nearest multiple of the
// corresponding grid spacing. Non-positive spacings leave the axis alone.
func SnapPosition(pos XYPosition, grid [2]float64) XYPosition {
	snapped := pos
	if grid[0] > 0 {
		snapped.X = grid[0] * math.Round(pos.X/grid[0])
	}
	if grid[1] > 0 {
		snapped.Y = grid[1] * math.Round(pos.Y/grid[1])
	}
	return snapped
}
