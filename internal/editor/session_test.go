package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

func down(x, y float64) PointerEvent { return PointerEvent{X: x, Y: y} }

func shiftDown(x, y float64) PointerEvent {
	return PointerEvent{X: x, Y: y, Mods: Modifiers{Shift: true}}
}

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s := NewSession(annotation.NewSet(), opts, nil)
	t.Cleanup(s.Close)
	return s
}

// drawBox creates a box by shift-dragging from (x0,y0) to (x1,y1).
func drawBox(s *Session, x0, y0, x1, y1 float64) {
	s.PointerDown(shiftDown(x0, y0))
	s.PointerMove(down(x1, y1))
	s.PointerUp(down(x1, y1))
}

func boxAt(t *testing.T, s *Session, idx int) geom.Box {
	t.Helper()
	shape, ok := s.Set().Boxes.Shape(s.Frame(), idx)
	require.True(t, ok, "no box at %d", idx)
	return shape.Box
}

func TestCreateBox(t *testing.T) {
	s := newSession(t, DefaultOptions())
	s.PointerDown(shiftDown(50, 50))
	assert.IsType(t, Creating{}, s.State())

	s.PointerMove(down(80, 70))
	assert.Equal(t, geom.Box{X: 50, Y: 50, Width: 30, Height: 20}, boxAt(t, s, 0))

	s.PointerUp(down(80, 70))
	assert.IsType(t, Idle{}, s.State())
	assert.Equal(t, 0, s.Selection())
	assert.Equal(t, geom.Box{X: 50, Y: 50, Width: 30, Height: 20}, boxAt(t, s, 0))
}

func TestCreateBoxBackwardsFlips(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 80, 70, 50, 50)
	assert.Equal(t, geom.Box{X: 50, Y: 50, Width: 30, Height: 20}, boxAt(t, s, 0))
}

func TestUndersizedCreationDiscarded(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 100, 100, 104, 103)

	assert.Equal(t, 0, s.Set().Boxes.Len(0))
	assert.Equal(t, -1, s.Selection())
	assert.IsType(t, Idle{}, s.State())
}

func TestCreateUsesLastClassAndFlag(t *testing.T) {
	s := newSession(t, DefaultOptions())
	require.NoError(t, s.SetClass("class2"))
	require.NoError(t, s.SetInterpolate(true))
	drawBox(s, 10, 10, 40, 40)

	shape, _ := s.Selected()
	assert.Equal(t, "class2", shape.Class)
	assert.True(t, shape.Interpolate)
	require.NotNil(t, shape.InterpolationNumber)
	assert.Equal(t, 1, *shape.InterpolationNumber)
}

func TestCornerDragEndToEnd(t *testing.T) {
	opts := DefaultOptions()
	opts.MinWidth, opts.MinHeight = 5, 5
	s := newSession(t, opts)
	drawBox(s, 50, 50, 60, 60)
	require.Equal(t, geom.Box{X: 50, Y: 50, Width: 10, Height: 10}, boxAt(t, s, 0))

	s.PointerDown(down(60, 60))
	st, ok := s.State().(DraggingCorner)
	require.True(t, ok)
	assert.Equal(t, geom.BottomRight, st.Corner)

	s.PointerMove(down(80, 55))
	s.PointerUp(down(80, 55))
	assert.Equal(t, geom.Box{X: 50, Y: 50, Width: 30, Height: 5}, boxAt(t, s, 0))
}

func TestCornerDragPastOppositeCornerFlips(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 50, 50, 60, 60)

	s.PointerDown(down(60, 60))
	s.PointerMove(down(40, 30))
	s.PointerUp(down(40, 30))
	assert.Equal(t, geom.Box{X: 40, Y: 30, Width: 10, Height: 20}, boxAt(t, s, 0))
}

func TestSideDragKeepsOppositeSide(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 50, 50, 80, 70)

	s.PointerDown(down(80, 60))
	st, ok := s.State().(DraggingSide)
	require.True(t, ok)
	assert.Equal(t, geom.Right, st.Side)

	s.PointerMove(down(100, 65))
	s.PointerUp(down(100, 65))
	assert.Equal(t, geom.Box{X: 50, Y: 50, Width: 50, Height: 20}, boxAt(t, s, 0))

	s.PointerDown(down(70, 50))
	s.PointerMove(down(70, 40))
	s.PointerUp(down(70, 40))
	assert.Equal(t, geom.Box{X: 50, Y: 40, Width: 50, Height: 30}, boxAt(t, s, 0))
}

func TestWholeDragUsesIncrementalDelta(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 50, 50, 80, 70)

	s.PointerDown(down(60, 60))
	assert.IsType(t, DraggingWhole{}, s.State())
	s.PointerMove(down(70, 65))
	s.PointerMove(down(75, 70))
	s.PointerUp(down(75, 70))
	assert.Equal(t, geom.Box{X: 65, Y: 60, Width: 30, Height: 20}, boxAt(t, s, 0))
}

func TestCommitClampsToCanvas(t *testing.T) {
	opts := DefaultOptions()
	opts.CanvasWidth, opts.CanvasHeight = 100, 100
	s := newSession(t, opts)
	drawBox(s, 50, 50, 80, 70)

	s.PointerDown(down(60, 60))
	s.PointerMove(down(100, 100))
	s.PointerUp(down(100, 100))
	assert.Equal(t, geom.Box{X: 70, Y: 80, Width: 30, Height: 20}, boxAt(t, s, 0))
}

func TestIdleMoveOnlyHintsCursor(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 50, 50, 80, 70)
	before := s.Set().Boxes.Shapes(0)

	s.PointerMove(down(60, 60))
	assert.Equal(t, CursorMove, s.Cursor())
	s.PointerMove(down(80, 70))
	assert.Equal(t, CursorNWSE, s.Cursor())
	s.PointerMove(down(65, 50))
	assert.Equal(t, CursorNS, s.Cursor())
	s.PointerMove(down(300, 300))
	assert.Equal(t, CursorDefault, s.Cursor())

	assert.Equal(t, before, s.Set().Boxes.Shapes(0))
}

func TestClickOnEmptySpaceDeselects(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 50, 50, 80, 70)
	require.Equal(t, 0, s.Selection())

	s.PointerDown(down(300, 300))
	assert.Equal(t, -1, s.Selection())
	assert.IsType(t, Idle{}, s.State())
}

func TestHiddenBoxesAreNotHit(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 50, 50, 80, 70)
	s.KeyDown("v")
	shape, _ := s.Set().Boxes.Shape(0, 0)
	require.False(t, shape.Visible)

	s.PointerDown(down(60, 60))
	assert.IsType(t, Idle{}, s.State())
	assert.Equal(t, -1, s.Selection())
}

func TestTopmostBoxWins(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 60, 60, 90, 90)
	drawBox(s, 50, 50, 100, 100)

	s.PointerDown(down(75, 75))
	st, ok := s.State().(DraggingWhole)
	require.True(t, ok)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, geom.Box{X: 50, Y: 50, Width: 50, Height: 50}, boxAt(t, s, st.Index))
}

func TestConcurrentDeleteAbortsDrag(t *testing.T) {
	set := annotation.NewSet()
	a := NewSession(set, DefaultOptions(), nil)
	b := NewSession(set, DefaultOptions(), nil)
	defer a.Close()
	defer b.Close()

	drawBox(a, 200, 200, 240, 240)
	drawBox(a, 50, 50, 80, 70)

	// a grabs the older box, now at index 1.
	a.PointerDown(down(220, 220))
	require.Equal(t, DraggingWhole{Index: 1, Last: geom.Point{X: 220, Y: 220}}, a.State())

	b.Select(0)
	require.NoError(t, b.DeleteSelected())

	assert.IsType(t, Idle{}, a.State())
	assert.Equal(t, -1, a.Selection())

	a.PointerMove(down(300, 300))
	a.PointerUp(down(300, 300))
	assert.Equal(t, geom.Box{X: 200, Y: 200, Width: 40, Height: 40}, boxAt(t, a, 0))
}

func TestStaleIndexGuardWithoutObserver(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 50, 50, 80, 70)
	s.PointerDown(down(60, 60))

	// Force a stale target as if the notification were missed.
	s.state = DraggingWhole{Index: 4, Last: geom.Point{X: 60, Y: 60}}
	s.PointerMove(down(90, 90))
	assert.IsType(t, Idle{}, s.State())
	assert.Equal(t, geom.Box{X: 50, Y: 50, Width: 30, Height: 20}, boxAt(t, s, 0))
}

func TestFrameChangeClearsSelection(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 50, 50, 80, 70)
	require.Equal(t, 0, s.Selection())

	s.KeyDown("ArrowRight")
	assert.Equal(t, 1, s.Frame())
	assert.Equal(t, -1, s.Selection())
	assert.Equal(t, 0, s.Set().Boxes.Len(1))

	s.KeyDown("ArrowLeft")
	s.KeyDown("ArrowLeft")
	assert.Equal(t, 0, s.Frame())
}

func TestFrameStepIsBounded(t *testing.T) {
	s := newSession(t, DefaultOptions())
	s.SetTotalFrames(3)
	for i := 0; i < 5; i++ {
		s.StepFrame(1)
	}
	assert.Equal(t, 2, s.Frame())
}

func TestCarryOverCopiesIntoEmptyFrame(t *testing.T) {
	s := newSession(t, DefaultOptions())
	s.SetCarryOver(true)
	drawBox(s, 50, 50, 80, 70)

	s.KeyDown("ArrowRight")
	require.Equal(t, 1, s.Set().Boxes.Len(1))
	assert.Equal(t, geom.Box{X: 50, Y: 50, Width: 30, Height: 20}, boxAt(t, s, 0))

	drawBox(s, 200, 200, 240, 240)
	s.KeyDown("ArrowLeft")
	assert.Equal(t, 1, s.Set().Boxes.Len(0))
}

func TestDeleteKeyRenumbers(t *testing.T) {
	s := newSession(t, DefaultOptions())
	require.NoError(t, s.SetInterpolate(true))
	drawBox(s, 10, 10, 40, 40)
	drawBox(s, 100, 100, 140, 140)

	s.Select(1)
	s.KeyDown("Delete")
	require.Equal(t, 1, s.Set().Boxes.Len(0))
	shape, _ := s.Set().Boxes.Shape(0, 0)
	assert.Equal(t, 1, *shape.InterpolationNumber)
	assert.Equal(t, 1, *shape.InterpolationID)
	assert.Equal(t, -1, s.Selection())

	assert.ErrorIs(t, s.DeleteSelected(), ErrNoSelection)
}

func TestMoveSelectedFollowsShape(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 10, 10, 40, 40)
	drawBox(s, 100, 100, 140, 140)

	require.NoError(t, s.MoveSelected(1))
	assert.Equal(t, 1, s.Selection())
	assert.Equal(t, geom.Box{X: 100, Y: 100, Width: 40, Height: 40}, boxAt(t, s, 1))
}

func TestDeleteAll(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 10, 10, 40, 40)
	s.StepFrame(3)
	drawBox(s, 10, 10, 40, 40)

	s.DeleteAll()
	assert.Equal(t, 0, s.Set().Boxes.Len(0))
	assert.Equal(t, 0, s.Set().Boxes.Len(3))
	assert.Equal(t, -1, s.Selection())
}

func TestInterpolateReportsNotices(t *testing.T) {
	s := newSession(t, DefaultOptions())
	require.NoError(t, s.SetInterpolate(true))
	drawBox(s, 0, 0, 10, 10)
	s.SetFrame(10)
	drawBox(s, 100, 0, 110, 10)

	report, err := s.Interpolate()
	require.NoError(t, err)
	assert.Equal(t, 9, report.Synthesized)
	notices := s.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeInfo, notices[0].Level)

	_, err = s.Interpolate()
	assert.Error(t, err)
	notices = s.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
	assert.Contains(t, notices[0].Message, "insufficient keyframes")
	assert.Empty(t, s.TakeNotices())
}
