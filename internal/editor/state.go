package editor

import "github.com/osu-uwrt/data-collection-webapp/internal/geom"

// State is the single edit state of a session. Exactly one of the concrete
// types below is active at any time.
type State interface {
	Name() string
	isState()
}

// Idle: no gesture in progress.
type Idle struct{}

// Creating: a new box at Index is being stretched from Anchor.
type Creating struct {
	Index  int
	Anchor geom.Point
}

// DraggingCorner resizes the box at Index by one corner; Fixed is the
// opposite corner.
type DraggingCorner struct {
	Index  int
	Corner geom.Corner
	Fixed  geom.Point
}

// DraggingSide resizes the box at Index by one edge. Fixed is the coordinate
// of the opposite edge.
type DraggingSide struct {
	Index int
	Side  geom.Side
	Fixed float64
}

// DraggingWhole translates the box at Index. Last is the previous pointer
// position.
type DraggingWhole struct {
	Index int
	Last  geom.Point
}

// MovingPolygonVertex drags one vertex of a polygon.
type MovingPolygonVertex struct {
	Polygon int
	Vertex  int
}

// DrawingPolygon accumulates the points of a polygon that is not yet closed.
type DrawingPolygon struct {
	Points geom.Ring
}

func (Idle) Name() string                { return "idle" }
func (Creating) Name() string            { return "creating" }
func (DraggingCorner) Name() string      { return "dragging-corner" }
func (DraggingSide) Name() string        { return "dragging-side" }
func (DraggingWhole) Name() string       { return "dragging-whole" }
func (MovingPolygonVertex) Name() string { return "moving-polygon-vertex" }
func (DrawingPolygon) Name() string      { return "drawing-polygon" }

func (Idle) isState()                {}
func (Creating) isState()            {}
func (DraggingCorner) isState()      {}
func (DraggingSide) isState()        {}
func (DraggingWhole) isState()       {}
func (MovingPolygonVertex) isState() {}
func (DrawingPolygon) isState()      {}

// target returns the shape index a gesture holds, if any.
func target(s State) (int, bool) {
	switch st := s.(type) {
	case Creating:
		return st.Index, true
	case DraggingCorner:
		return st.Index, true
	case DraggingSide:
		return st.Index, true
	case DraggingWhole:
		return st.Index, true
	case MovingPolygonVertex:
		return st.Polygon, true
	}
	return -1, false
}

func oppositeCorner(b geom.Box, c geom.Corner) geom.Point {
	switch c {
	case geom.TopLeft:
		return geom.Point{X: b.Right(), Y: b.Bottom()}
	case geom.TopRight:
		return geom.Point{X: b.X, Y: b.Bottom()}
	case geom.BottomLeft:
		return geom.Point{X: b.Right(), Y: b.Y}
	default:
		return geom.Point{X: b.X, Y: b.Y}
	}
}

func oppositeSide(b geom.Box, s geom.Side) float64 {
	switch s {
	case geom.Top:
		return b.Bottom()
	case geom.Bottom:
		return b.Y
	case geom.Left:
		return b.Right()
	default:
		return b.X
	}
}

func cornerCursor(c geom.Corner) Cursor {
	if c == geom.TopLeft || c == geom.BottomRight {
		return CursorNWSE
	}
	return CursorNESW
}

func sideCursor(s geom.Side) Cursor {
	if s == geom.Top || s == geom.Bottom {
		return CursorNS
	}
	return CursorEW
}
