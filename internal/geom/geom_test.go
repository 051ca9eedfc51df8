package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(Point{0, 0}, Point{3, 4}))
	assert.Equal(t, 0.0, Distance(Point{2, 2}, Point{2, 2}))
}

func TestHitCorner(t *testing.T) {
	box := Box{X: 10, Y: 10, Width: 100, Height: 50}
	cases := []struct {
		x, y float64
		want Corner
	}{
		{10, 10, TopLeft},
		{113, 8, TopRight},
		{14, 60, BottomLeft},
		{110, 60, BottomRight},
		{60, 35, NoCorner},
		{16, 10, NoCorner},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HitCorner(c.x, c.y, box, 10), "(%v,%v)", c.x, c.y)
	}
}

func TestHitCornerOrderOnTinyBox(t *testing.T) {
	// All four corners fall in the window; the fixed order decides.
	box := Box{X: 0, Y: 0, Width: 2, Height: 2}
	assert.Equal(t, TopLeft, HitCorner(1, 1, box, 10))
}

func TestHitSide(t *testing.T) {
	box := Box{X: 10, Y: 10, Width: 100, Height: 50}
	assert.Equal(t, Top, HitSide(50, 12, box, 5))
	assert.Equal(t, Bottom, HitSide(50, 58, box, 5))
	assert.Equal(t, Left, HitSide(8, 30, box, 5))
	assert.Equal(t, Right, HitSide(113, 30, box, 5))
	assert.Equal(t, NoSide, HitSide(50, 30, box, 5))
	// Within distance of the top edge line but outside its span.
	assert.Equal(t, NoSide, HitSide(130, 10, box, 5))
}

func TestHitInteriorIsStrict(t *testing.T) {
	box := Box{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, HitInterior(5, 5, box))
	assert.False(t, HitInterior(0, 5, box))
	assert.False(t, HitInterior(10, 10, box))
	assert.True(t, HitInterior(5, 5, Box{X: 10, Y: 10, Width: -10, Height: -10}))
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Box
		want Box
	}{
		{"positive", Box{50, 50, 30, 20}, Box{50, 50, 30, 20}},
		{"negative width", Box{50, 50, -30, 20}, Box{20, 50, 30, 20}},
		{"negative both", Box{50, 50, -30, -20}, Box{20, 30, 30, 20}},
		{"below minimum", Box{0, 0, 3, 4}, Box{0, 0, 10, 10}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Normalize(c.in, DefaultMinWidth, DefaultMinHeight)
			assert.Equal(t, c.want, got)
			assert.GreaterOrEqual(t, got.Width, DefaultMinWidth)
			assert.GreaterOrEqual(t, got.Height, DefaultMinHeight)
		})
	}
}

func TestNormalizeCoversSameRectangle(t *testing.T) {
	in := Box{X: 100, Y: 80, Width: -40, Height: -25}
	got := Normalize(in, 0, 0)
	assert.Equal(t, 60.0, got.X)
	assert.Equal(t, 55.0, got.Y)
	assert.Equal(t, in.X, got.Right())
	assert.Equal(t, in.Y, got.Bottom())
}

func TestClampToCanvas(t *testing.T) {
	cases := []Box{
		{X: -5, Y: -5, Width: 20, Height: 20},
		{X: 95, Y: 90, Width: 20, Height: 20},
		{X: 40, Y: 40, Width: 20, Height: 20},
		{X: 200, Y: -300, Width: 100, Height: 100},
	}
	for _, in := range cases {
		got := ClampToCanvas(in, 100, 100)
		assert.Equal(t, in.Width, got.Width)
		assert.Equal(t, in.Height, got.Height)
		assert.GreaterOrEqual(t, got.X, 0.0)
		assert.GreaterOrEqual(t, got.Y, 0.0)
		assert.LessOrEqual(t, got.Right(), 100.0)
		assert.LessOrEqual(t, got.Bottom(), 100.0)
	}
}

func TestClampOversizedKeepsSize(t *testing.T) {
	got := ClampToCanvas(Box{X: 30, Y: 30, Width: 150, Height: 20}, 100, 100)
	assert.Equal(t, Box{X: 0, Y: 30, Width: 150, Height: 20}, got)
}

func TestProjectPointOnSegment(t *testing.T) {
	a, b := Point{0, 0}, Point{10, 0}
	assert.Equal(t, Point{5, 0}, ProjectPointOnSegment(Point{5, 7}, a, b))
	assert.Equal(t, a, ProjectPointOnSegment(Point{-4, 3}, a, b))
	assert.Equal(t, b, ProjectPointOnSegment(Point{14, -3}, a, b))
	assert.Equal(t, a, ProjectPointOnSegment(Point{3, 3}, a, a))
}
