package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

func polygonSession(t *testing.T) *Session {
	t.Helper()
	s := newSession(t, DefaultOptions())
	s.SetTool(ToolPolygon)
	return s
}

func click(s *Session, x, y float64) {
	s.PointerDown(down(x, y))
	s.PointerUp(down(x, y))
}

func drawingPoints(t *testing.T, s *Session) geom.Ring {
	t.Helper()
	st, ok := s.State().(DrawingPolygon)
	require.True(t, ok, "not drawing: %s", s.State().Name())
	return st.Points
}

func TestControlTogglesDrawing(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	assert.IsType(t, DrawingPolygon{}, s.State())
	assert.Equal(t, CursorCrosshair, s.Cursor())
	s.KeyDown("Control")
	assert.IsType(t, Idle{}, s.State())

	s.SetTool(ToolBox)
	s.KeyDown("Control")
	assert.IsType(t, Idle{}, s.State())
}

func TestDrawAndClosePolygon(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	click(s, 100, 100)
	click(s, 200, 100)
	click(s, 200, 200)
	assert.Len(t, drawingPoints(t, s), 3)

	click(s, 102, 101)
	assert.IsType(t, Idle{}, s.State())
	require.Equal(t, 1, s.Set().Polygons.Len(0))
	shape, _ := s.Set().Polygons.Shape(0, 0)
	assert.Equal(t, geom.Ring{{X: 100, Y: 100}, {X: 200, Y: 100}, {X: 200, Y: 200}}, shape.Points)
	assert.Equal(t, 0, s.Selection())
	assert.Empty(t, s.TakeNotices())
}

func TestCloseNeedsThreePoints(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	click(s, 100, 100)
	click(s, 200, 100)
	click(s, 101, 101)

	assert.Len(t, drawingPoints(t, s), 3)
	assert.Equal(t, 0, s.Set().Polygons.Len(0))
}

func TestSecondaryClickUndoesLastPoint(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	click(s, 100, 100)
	click(s, 200, 100)
	s.PointerDown(PointerEvent{X: 150, Y: 150, Button: ButtonSecondary})

	assert.Equal(t, geom.Ring{{X: 100, Y: 100}}, drawingPoints(t, s))
	s.PointerDown(PointerEvent{X: 150, Y: 150, Button: ButtonSecondary})
	s.PointerDown(PointerEvent{X: 150, Y: 150, Button: ButtonSecondary})
	assert.Empty(t, drawingPoints(t, s))
}

func TestFreehandAddsSpacedPoints(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	click(s, 100, 100)

	held := func(x, y float64) PointerEvent {
		return PointerEvent{X: x, Y: y, Held: true, Mods: Modifiers{Shift: true}}
	}
	s.PointerMove(held(110, 100))
	s.PointerMove(held(120, 100))
	s.PointerMove(PointerEvent{X: 160, Y: 100, Held: true})
	s.PointerMove(held(140, 100))

	assert.Equal(t, geom.Ring{{X: 100, Y: 100}, {X: 120, Y: 100}, {X: 140, Y: 100}}, drawingPoints(t, s))
}

func TestShiftHoverAddsNoPoints(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	click(s, 100, 100)

	s.PointerMove(shiftDown(130, 100))
	s.PointerMove(shiftDown(160, 100))

	assert.Equal(t, geom.Ring{{X: 100, Y: 100}}, drawingPoints(t, s))
}

func TestSelfIntersectingPolygonIsCorrected(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	click(s, 100, 100)
	click(s, 200, 200)
	click(s, 200, 100)
	click(s, 100, 200)
	click(s, 101, 101)

	assert.Equal(t, 2, s.Set().Polygons.Len(0))
	notices := s.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeWarning, notices[0].Level)
	assert.Contains(t, notices[0].Message, "auto-corrected")
}

func TestMovePolygonVertex(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	click(s, 100, 100)
	click(s, 200, 100)
	click(s, 200, 200)
	click(s, 100, 101)

	s.PointerDown(down(200, 103))
	require.Equal(t, MovingPolygonVertex{Polygon: 0, Vertex: 1}, s.State())
	s.PointerMove(down(220, 120))
	s.PointerUp(down(220, 120))

	assert.IsType(t, Idle{}, s.State())
	shape, _ := s.Set().Polygons.Shape(0, 0)
	assert.Equal(t, geom.Point{X: 220, Y: 120}, shape.Points[1])
}

func TestSelectPolygonByContainment(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	click(s, 100, 100)
	click(s, 200, 100)
	click(s, 200, 200)
	click(s, 100, 101)
	s.Select(-1)

	click(s, 180, 150)
	assert.Equal(t, 0, s.Selection())
	assert.IsType(t, Idle{}, s.State())

	click(s, 110, 190)
	assert.Equal(t, -1, s.Selection())
}

func TestDeletePolygonUsesActiveLayer(t *testing.T) {
	s := polygonSession(t)
	s.KeyDown("Control")
	click(s, 100, 100)
	click(s, 200, 100)
	click(s, 200, 200)
	click(s, 100, 101)

	s.SetTool(ToolBox)
	drawBox(s, 10, 10, 40, 40)
	s.SetTool(ToolPolygon)
	s.Select(0)
	s.KeyDown("Backspace")

	assert.Equal(t, 0, s.Set().Polygons.Len(0))
	assert.Equal(t, 1, s.Set().Boxes.Len(0))
}
