package geom

import "math"

// Ring is a closed polygon outline. The closing edge from the last point back
// to the first is implicit.
type Ring []Point

// Edge returns the i-th edge of the ring, wrapping around at the end.
func (r Ring) Edge(i int) (Point, Point) {
	return r[i], r[(i+1)%len(r)]
}

// SignedArea returns the shoelace area; the sign depends on winding.
func (r Ring) SignedArea() float64 {
	var sum float64
	for i := range r {
		a, b := r.Edge(i)
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Area returns the absolute enclosed area.
func (r Ring) Area() float64 {
	return math.Abs(r.SignedArea())
}

// Centroid returns the vertex average, which is where labels are drawn.
func (r Ring) Centroid() Point {
	var c Point
	if len(r) == 0 {
		return c
	}
	n := float64(len(r))
	for _, p := range r {
		c.X += p.X / n
		c.Y += p.Y / n
	}
	return c
}

// Bounds returns the axis-aligned bounding box of the ring.
func (r Ring) Bounds() Box {
	if len(r) == 0 {
		return Box{}
	}
	minX, minY := r[0].X, r[0].Y
	maxX, maxY := minX, minY
	for _, p := range r[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains reports whether p lies strictly inside the ring using the
// even-odd ray casting rule.
func (r Ring) Contains(p Point) bool {
	inside := false
	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {
		a, b := r[i], r[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// OnBoundary reports whether p lies on one of the ring's edges within eps.
func (r Ring) OnBoundary(p Point, eps float64) bool {
	for i := range r {
		a, b := r.Edge(i)
		if Distance(p, ProjectPointOnSegment(p, a, b)) <= eps {
			return true
		}
	}
	return false
}

// NearestEdge returns the projection of p onto the closest edge of the ring
// and the index of that edge's first vertex.
func (r Ring) NearestEdge(p Point) (Point, int) {
	best, bestIdx := Point{}, -1
	bestDist := math.Inf(1)
	for i := range r {
		a, b := r.Edge(i)
		q := ProjectPointOnSegment(p, a, b)
		if d := Distance(p, q); d < bestDist {
			best, bestIdx, bestDist = q, i, d
		}
	}
	return best, bestIdx
}

// Equal reports whether two rings have identical vertices in the same order.
func (r Ring) Equal(o Ring) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the ring.
func (r Ring) Clone() Ring {
	if r == nil {
		return nil
	}
	out := make(Ring, len(r))
	copy(out, r)
	return out
}
