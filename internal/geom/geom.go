// Package geom holds the pure point and box math used by the editor:
// hit-testing, normalisation, clamping and projection. Coordinates are
// canvas pixels with y increasing down the screen.
package geom

import "math"

// Default minimum committed box size, in canvas pixels.
const (
	DefaultMinWidth  = 10.0
	DefaultMinHeight = 10.0
)

// Point is a canvas-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned rectangle with X,Y at the top-left corner.
// Width and Height may be negative while a gesture is in progress.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Corner identifies a box corner handle.
type Corner int

const (
	NoCorner Corner = iota
	TopLeft
	TopRight
	BottomLeft
	BottomRight
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "topLeft"
	case TopRight:
		return "topRight"
	case BottomLeft:
		return "bottomLeft"
	case BottomRight:
		return "bottomRight"
	default:
		return "none"
	}
}

// Side identifies a box edge handle.
type Side int

const (
	NoSide Side = iota
	Top
	Bottom
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Lerp blends p towards q by alpha.
func (p Point) Lerp(q Point, alpha float64) Point {
	return Point{
		X: p.X + alpha*(q.X-p.X),
		Y: p.Y + alpha*(q.Y-p.Y),
	}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Center returns the center point of the box.
func (b Box) Center() Point {
	return Point{b.X + b.Width/2, b.Y + b.Height/2}
}

// Corners returns the corner positions in hit-test order.
func (b Box) Corners() [4]Point {
	return [4]Point{
		{b.X, b.Y},
		{b.Right(), b.Y},
		{b.X, b.Bottom()},
		{b.Right(), b.Bottom()},
	}
}

var cornerOrder = [4]Corner{TopLeft, TopRight, BottomLeft, BottomRight}

// HitCorner reports which corner of box lies within a cornerSize square
// centered on (x, y). Corners are tested topLeft, topRight, bottomLeft,
// bottomRight and the first match wins.
func HitCorner(x, y float64, box Box, cornerSize float64) Corner {
	half := cornerSize / 2
	for i, c := range box.Corners() {
		if math.Abs(x-c.X) <= half && math.Abs(y-c.Y) <= half {
			return cornerOrder[i]
		}
	}
	return NoCorner
}

// HitSide reports which edge of box lies within sideThreshold of (x, y)
// while (x, y) is also within the perpendicular span of that edge.
func HitSide(x, y float64, box Box, sideThreshold float64) Side {
	n := Normalize(box, 0, 0)
	inX := x >= n.X && x <= n.Right()
	inY := y >= n.Y && y <= n.Bottom()
	switch {
	case inX && math.Abs(y-n.Y) <= sideThreshold:
		return Top
	case inX && math.Abs(y-n.Bottom()) <= sideThreshold:
		return Bottom
	case inY && math.Abs(x-n.X) <= sideThreshold:
		return Left
	case inY && math.Abs(x-n.Right()) <= sideThreshold:
		return Right
	}
	return NoSide
}

// HitInterior reports strict containment of (x, y) in box.
func HitInterior(x, y float64, box Box) bool {
	n := Normalize(box, 0, 0)
	return x > n.X && x < n.Right() && y > n.Y && y < n.Bottom()
}

// Normalize flips a box with negative width or height so that both become
// positive while covering the same rectangle, then raises width and height
// to at least minWidth and minHeight.
func Normalize(box Box, minWidth, minHeight float64) Box {
	if box.Width < 0 {
		box.X += box.Width
		box.Width = -box.Width
	}
	if box.Height < 0 {
		box.Y += box.Height
		box.Height = -box.Height
	}
	box.Width = max(box.Width, minWidth)
	box.Height = max(box.Height, minHeight)
	return box
}

// BelowMinimum reports whether the box, once flipped, is smaller than the
// minimum in either dimension.
func BelowMinimum(box Box, minWidth, minHeight float64) bool {
	return math.Abs(box.Width) < minWidth || math.Abs(box.Height) < minHeight
}

// ClampToCanvas translates box so it lies inside [0,width]x[0,height].
// Size is never altered; a box larger than the canvas is pinned to the origin.
func ClampToCanvas(box Box, width, height float64) Box {
	if box.Right() > width {
		box.X = width - box.Width
	}
	if box.Bottom() > height {
		box.Y = height - box.Height
	}
	box.X = max(box.X, 0)
	box.Y = max(box.Y, 0)
	return box
}

// ProjectPointOnSegment returns the point on the closed segment [a,b]
// nearest to p.
func ProjectPointOnSegment(p, a, b Point) Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	switch {
	case t < 0:
		return a
	case t > 1:
		return b
	}
	return Point{a.X + t*dx, a.Y + t*dy}
}
