package interpolate

import (
	"sort"

	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

type candidate struct {
	i, j int
	d    float64
}

// greedyPairs matches vertices of a and b by ascending distance, skipping any
// vertex already used on either side. match[i] is the index in b paired with
// a[i], or -1.
func greedyPairs(a, b geom.Ring) (match []int, usedB []bool) {
	cands := make([]candidate, 0, len(a)*len(b))
	for i, p := range a {
		for j, q := range b {
			cands = append(cands, candidate{i: i, j: j, d: geom.Distance(p, q)})
		}
	}
	sort.SliceStable(cands, func(x, y int) bool { return cands[x].d < cands[y].d })

	match = make([]int, len(a))
	for i := range match {
		match[i] = -1
	}
	usedB = make([]bool, len(b))
	for _, c := range cands {
		if match[c.i] >= 0 || usedB[c.j] {
			continue
		}
		match[c.i] = c.j
		usedB[c.j] = true
	}
	return match, usedB
}

// insertOrphans adds to target one vertex per orphan, at the projection of the
// orphan onto target's nearest edge.
func insertOrphans(target geom.Ring, orphans []geom.Point) geom.Ring {
	for _, p := range orphans {
		q, edge := target.NearestEdge(p)
		at := edge + 1
		target = append(target, geom.Point{})
		copy(target[at+1:], target[at:])
		target[at] = q
	}
	return target
}

// PairPoints returns equal-length vertex lists from and to such that from[k]
// should morph into to[k]. Vertices of the larger polygon left over by greedy
// nearest-distance pairing are projected onto the nearest edge of the other
// polygon. The inputs are not modified; synthetic vertices exist only in the
// returned lists.
func PairPoints(start, end geom.Ring) (from, to geom.Ring) {
	a, b := start.Clone(), end.Clone()
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}

	match, usedB := greedyPairs(a, b)
	var orphansA, orphansB []geom.Point
	for i, j := range match {
		if j < 0 {
			orphansA = append(orphansA, a[i])
		}
	}
	for j, used := range usedB {
		if !used {
			orphansB = append(orphansB, b[j])
		}
	}
	if len(orphansA) > 0 || len(orphansB) > 0 {
		b = insertOrphans(b, orphansA)
		a = insertOrphans(a, orphansB)
		match, _ = greedyPairs(a, b)
	}

	from = make(geom.Ring, len(a))
	to = make(geom.Ring, len(a))
	for i, j := range match {
		from[i] = a[i]
		to[i] = b[j]
	}
	return from, to
}
