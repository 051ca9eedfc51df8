package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

func box(class string, x float64) Shape {
	return NewBox(class, geom.Box{X: x, Y: 0, Width: 10, Height: 10})
}

func orders(l *Layer, frame int) []int {
	var out []int
	for _, s := range l.Shapes(frame) {
		out = append(out, s.DisplayOrder)
	}
	return out
}

func xs(l *Layer, frame int) []float64 {
	var out []float64
	for _, s := range l.Shapes(frame) {
		out = append(out, s.Box.X)
	}
	return out
}

func assertPermutation(t *testing.T, l *Layer, frame int) {
	t.Helper()
	seen := make(map[int]bool)
	for _, o := range orders(l, frame) {
		seen[o] = true
	}
	n := l.Len(frame)
	require.Len(t, seen, n)
	for i := 0; i < n; i++ {
		assert.True(t, seen[i], "missing display order %d", i)
	}
}

func TestAddPutsNewestOnTop(t *testing.T) {
	l := NewLayer(KindBox)
	for i := 0; i < 3; i++ {
		idx, err := l.Add(4, box("class1", float64(i)))
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	}
	assert.Equal(t, []float64{2, 1, 0}, xs(l, 4))
	assert.Equal(t, []int{0, 1, 2}, orders(l, 4))
	assert.Equal(t, []int{4}, l.Frames())
}

func TestAddRejectsWrongKind(t *testing.T) {
	l := NewLayer(KindPolygon)
	_, err := l.Add(0, box("class1", 0))
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestRemoveRenumbers(t *testing.T) {
	l := NewLayer(KindBox)
	for i := 0; i < 4; i++ {
		_, _ = l.Add(0, box("class1", float64(i)))
	}
	removed, err := l.Remove(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, removed.Box.X)
	assert.Equal(t, []float64{3, 1, 0}, xs(l, 0))
	assertPermutation(t, l, 0)

	_, err = l.Remove(0, 7)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestReorder(t *testing.T) {
	l := NewLayer(KindBox)
	for i := 0; i < 4; i++ {
		_, _ = l.Add(0, box("class1", float64(i)))
	}
	// Orders: 0->x3, 1->x2, 2->x1, 3->x0.
	require.NoError(t, l.Reorder(0, 0, 2))
	assert.Equal(t, []float64{2, 1, 3, 0}, xs(l, 0))
	assertPermutation(t, l, 0)

	require.NoError(t, l.Reorder(0, 3, 0))
	assert.Equal(t, []float64{0, 2, 1, 3}, xs(l, 0))
	assertPermutation(t, l, 0)

	require.NoError(t, l.Reorder(0, 1, 99))
	assert.Equal(t, []float64{0, 1, 3, 2}, xs(l, 0))

	assert.ErrorIs(t, l.Reorder(0, 9, 0), ErrIndexOutOfRange)
}

func TestUpdateKeepsOrderAndKind(t *testing.T) {
	l := NewLayer(KindBox)
	_, _ = l.Add(0, box("class1", 0))
	_, _ = l.Add(0, box("class1", 5))
	require.NoError(t, l.Update(0, 1, func(s *Shape) {
		s.Class = "class2"
		s.DisplayOrder = 9
		s.Kind = KindPolygon
	}))
	s, ok := l.Shape(0, 1)
	require.True(t, ok)
	assert.Equal(t, "class2", s.Class)
	assert.Equal(t, 1, s.DisplayOrder)
	assert.Equal(t, KindBox, s.Kind)
}

func TestShapesAreCopies(t *testing.T) {
	l := NewLayer(KindPolygon)
	_, _ = l.Add(0, NewPolygon("class1", geom.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}))
	got := l.Shapes(0)
	got[0].Points[0] = geom.Point{X: 99, Y: 99}
	s, _ := l.Shape(0, 0)
	assert.Equal(t, geom.Point{}, s.Points[0])
}

func TestToggleAllVisible(t *testing.T) {
	l := NewLayer(KindBox)
	_, _ = l.Add(0, box("class1", 0))
	_, _ = l.Add(3, box("class1", 0))
	require.NoError(t, l.SetVisible(3, 0, false))

	assert.False(t, l.ToggleAllVisible())
	for _, f := range []int{0, 3} {
		s, _ := l.Shape(f, 0)
		assert.False(t, s.Visible)
	}
	assert.True(t, l.ToggleAllVisible())
	s, _ := l.Shape(3, 0)
	assert.True(t, s.Visible)
}

func TestReplaceSortsByDisplayOrder(t *testing.T) {
	l := NewLayer(KindBox)
	a, b, c := box("class1", 1), box("class1", 2), box("class1", 3)
	a.DisplayOrder, b.DisplayOrder, c.DisplayOrder = 5, 0, 2
	require.NoError(t, l.Replace(2, []Shape{a, b, c}))
	assert.Equal(t, []float64{2, 3, 1}, xs(l, 2))
	assertPermutation(t, l, 2)
}

func TestObserverSeesChanges(t *testing.T) {
	l := NewLayer(KindBox)
	var got []Change
	cancel := l.Observe(func(c Change) { got = append(got, c) })
	_, _ = l.Add(1, box("class1", 0))
	_, _ = l.Add(1, box("class1", 0))
	_, _ = l.Remove(1, 1)
	cancel()
	_, _ = l.Add(1, box("class1", 0))

	require.Len(t, got, 3)
	assert.Equal(t, Change{Kind: KindBox, Frame: 1, Op: ChangeAdd, Index: 0}, got[0])
	assert.Equal(t, Change{Kind: KindBox, Frame: 1, Op: ChangeRemove, Index: 1}, got[2])
}

func TestMarksAndClear(t *testing.T) {
	l := NewLayer(KindBox)
	_, _ = l.Add(8, box("class1", 0))
	flagged := box("class1", 0)
	flagged.Interpolate = true
	_, _ = l.Add(2, flagged)
	require.NoError(t, l.Replace(5, nil))

	assert.Equal(t, []Mark{{Frame: 2, Flagged: true}, {Frame: 8}}, l.Marks())

	l.Clear()
	assert.Empty(t, l.Marks())
	assert.Equal(t, []int{2, 5, 8}, l.Frames())
}

func TestSetCloneIsIndependent(t *testing.T) {
	s := NewSet()
	_, _ = s.Boxes.Add(0, box("class1", 0))
	c := s.Clone()
	_, _ = s.Layer(KindBox).Remove(0, 0)
	assert.Equal(t, 1, c.Boxes.Len(0))
	assert.Equal(t, KindPolygon, c.Layer(KindPolygon).Kind())
}
