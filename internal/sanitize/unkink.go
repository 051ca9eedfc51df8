// Package sanitize repairs free-hand polygon rings that cross themselves.
//
// A ring is split at every self-crossing into simple loops, the loops are
// ordered by area, and any loop lying inside a larger surviving loop is
// dropped: a nested loop from a single stroke is a drawing slip, not a hole.
package sanitize

import (
	"math"
	"sort"

	"github.com/bmharper/flatbush-go"

	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

// eps merges intersection parameters and boundary tests that differ only by
// floating point noise.
const eps = 1e-9

// Result is the outcome of sanitising one ring.
type Result struct {
	// Polygons are simple rings with at least three vertices, largest first.
	Polygons []geom.Ring
	// Corrected is true when the output differs from the input ring.
	Corrected bool
}

// Polygon decomposes ring into maximal non-nested simple loops.
func Polygon(ring geom.Ring) Result {
	clean := dedupe(ring)
	if len(clean) < 3 {
		return Result{Corrected: len(ring) > 0}
	}

	loops := splitLoops(insertCrossings(clean))

	sort.SliceStable(loops, func(i, j int) bool {
		return loops[i].Area() > loops[j].Area()
	})

	var kept []geom.Ring
	for _, loop := range loops {
		nested := false
		for _, outer := range kept {
			if within(loop, outer) {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, loop)
		}
	}

	return Result{
		Polygons:  kept,
		Corrected: len(kept) != 1 || !kept[0].Equal(ring),
	}
}

// crossing is a point on edge i at parameter t along it.
type crossing struct {
	t float64
	p geom.Point
}

// insertCrossings returns the ring walk with every self-intersection point
// spliced into both edges that meet there.
func insertCrossings(ring geom.Ring) geom.Ring {
	n := len(ring)
	index := flatbush.NewFlatbush[float64]()
	index.Reserve(n)
	for i := 0; i < n; i++ {
		a, b := ring.Edge(i)
		index.Add(min(a.X, b.X), min(a.Y, b.Y), max(a.X, b.X), max(a.Y, b.Y))
	}
	index.Finish()

	splits := make([][]crossing, n)
	var candidates []int
	for i := 0; i < n; i++ {
		a, b := ring.Edge(i)
		candidates = index.SearchFast(min(a.X, b.X)-eps, min(a.Y, b.Y)-eps, max(a.X, b.X)+eps, max(a.Y, b.Y)+eps, candidates[:0])
		for _, j := range candidates {
			if j <= i || adjacent(i, j, n) {
				continue
			}
			c, d := ring.Edge(j)
			t, u, ok := segmentIntersection(a, b, c, d)
			if !ok {
				continue
			}
			p := a.Lerp(b, t)
			splits[i] = append(splits[i], crossing{t: t, p: p})
			splits[j] = append(splits[j], crossing{t: u, p: p})
		}
	}

	out := make(geom.Ring, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ring[i])
		s := splits[i]
		sort.Slice(s, func(x, y int) bool { return s[x].t < s[y].t })
		for _, c := range s {
			out = append(out, c.p)
		}
	}
	return dedupe(out)
}

// splitLoops cuts the walk into loops that never cross. Every point the walk
// visits more than once is a junction; there each arriving strand is linked to
// a leaving strand so that no two links cross. At a plain crossing that means
// leaving along the other strand.
func splitLoops(walk geom.Ring) []geom.Ring {
	n := len(walk)
	// next[k] is the edge taken after edge k, which runs walk[k] -> walk[k+1].
	next := make([]int, n)
	for k := range next {
		next[k] = (k + 1) % n
	}

	visits := make(map[geom.Point][]int)
	for k, p := range walk {
		visits[p] = append(visits[p], k)
	}
	for p, at := range visits {
		if len(at) > 1 {
			linkStrands(walk, p, at, next)
		}
	}

	var loops []geom.Ring
	used := make([]bool, n)
	for start := range walk {
		var loop geom.Ring
		for k := start; !used[k]; k = next[k] {
			used[k] = true
			loop = append(loop, walk[k])
		}
		loops = appendLoop(loops, loop)
	}
	return loops
}

// strandEnd is a strand touching a junction at walk position at, pointing
// away from it at angle. in marks the strand the walk arrives on.
type strandEnd struct {
	angle float64
	in    bool
	at    int
}

// linkStrands pairs the strands arriving at junction p with those leaving it.
// Ends are swept in angular order and matched like brackets, which keeps the
// pairs from crossing each other.
func linkStrands(walk geom.Ring, p geom.Point, at []int, next []int) {
	n := len(walk)
	ends := make([]strandEnd, 0, 2*len(at))
	for _, j := range at {
		prev, succ := walk[(j+n-1)%n], walk[(j+1)%n]
		ends = append(ends,
			strandEnd{angle: math.Atan2(prev.Y-p.Y, prev.X-p.X), in: true, at: j},
			strandEnd{angle: math.Atan2(succ.Y-p.Y, succ.X-p.X), at: j},
		)
	}
	sort.Slice(ends, func(a, b int) bool {
		if ends[a].angle != ends[b].angle {
			return ends[a].angle < ends[b].angle
		}
		return ends[a].in && !ends[b].in
	})

	// Two sweeps close brackets that wrap past angle -pi.
	var open []int
	queued := make([]bool, len(ends))
	done := make([]bool, len(ends))
	for sweep := 0; sweep < 2; sweep++ {
		for i, e := range ends {
			switch {
			case done[i]:
			case e.in:
				if !queued[i] {
					queued[i] = true
					open = append(open, i)
				}
			case len(open) > 0:
				in := open[len(open)-1]
				open = open[:len(open)-1]
				done[in], done[i] = true, true
				next[(ends[in].at+n-1)%n] = e.at
			}
		}
	}
}

func appendLoop(loops []geom.Ring, loop geom.Ring) []geom.Ring {
	if len(loop) < 3 || loop.Area() <= eps {
		return loops
	}
	return append(loops, loop)
}

// within reports whether inner lies inside or on the boundary of outer. Loops
// from one ring only touch at shared vertices, so checking vertices and edge
// midpoints is enough.
func within(inner, outer geom.Ring) bool {
	allOnBoundary := true
	check := func(p geom.Point) bool {
		if outer.OnBoundary(p, eps) {
			return true
		}
		allOnBoundary = false
		return outer.Contains(p)
	}
	for i := range inner {
		a, b := inner.Edge(i)
		if !check(a) || !check(a.Lerp(b, 0.5)) {
			return false
		}
	}
	return !allOnBoundary || inner.Area() <= outer.Area()
}

func adjacent(i, j, n int) bool {
	return j == i+1 || (i == 0 && j == n-1)
}

// segmentIntersection returns the parameters along ab and cd of their single
// intersection point. Parallel and collinear segments report no intersection.
func segmentIntersection(a, b, c, d geom.Point) (t, u float64, ok bool) {
	r := b.Sub(a)
	s := d.Sub(c)
	denom := cross(r, s)
	if math.Abs(denom) < eps {
		return 0, 0, false
	}
	qp := c.Sub(a)
	t = cross(qp, s) / denom
	u = cross(qp, r) / denom
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return 0, 0, false
	}
	return clamp01(t), clamp01(u), true
}

func cross(p, q geom.Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// dedupe drops consecutive duplicate points, including a closing point equal
// to the first.
func dedupe(ring geom.Ring) geom.Ring {
	out := make(geom.Ring, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	return out
}
