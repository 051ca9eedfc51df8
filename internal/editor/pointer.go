package editor

import (
	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
	"github.com/osu-uwrt/data-collection-webapp/internal/interpolate"
	"github.com/osu-uwrt/data-collection-webapp/internal/sanitize"
)

// freehandSpacing scales VertexThreshold into the minimum distance between
// points added by a modifier-held pointer move.
const freehandSpacing = 1.5

// boxHit is the first handle under the pointer, searched top to bottom.
type boxHit struct {
	index    int
	corner   geom.Corner
	side     geom.Side
	interior bool
}

func (s *Session) hitBox(p geom.Point) (boxHit, bool) {
	for i, shape := range s.set.Boxes.Shapes(s.frame) {
		if !shape.Visible {
			continue
		}
		if c := geom.HitCorner(p.X, p.Y, shape.Box, s.opts.CornerSize); c != geom.NoCorner {
			return boxHit{index: i, corner: c}, true
		}
		if sd := geom.HitSide(p.X, p.Y, shape.Box, s.opts.SideThreshold); sd != geom.NoSide {
			return boxHit{index: i, side: sd}, true
		}
		if geom.HitInterior(p.X, p.Y, shape.Box) {
			return boxHit{index: i, interior: true}, true
		}
	}
	return boxHit{}, false
}

func (s *Session) hitVertex(p geom.Point) (poly, vertex int, ok bool) {
	for i, shape := range s.set.Polygons.Shapes(s.frame) {
		if !shape.Visible {
			continue
		}
		for j, q := range shape.Points {
			if geom.Distance(p, q) <= s.opts.VertexThreshold {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

func (s *Session) hitPolygon(p geom.Point) (int, bool) {
	for i, shape := range s.set.Polygons.Shapes(s.frame) {
		if shape.Visible && shape.Points.Contains(p) {
			return i, true
		}
	}
	return -1, false
}

// live reports whether the gesture's target index still exists; if not the
// gesture is abandoned without touching the store.
func (s *Session) live() bool {
	idx, busy := target(s.state)
	if !busy {
		return true
	}
	if idx < 0 || idx >= s.layer().Len(s.frame) {
		s.state = Idle{}
		s.cursor = CursorDefault
		return false
	}
	return true
}

// PointerDown starts a gesture.
func (s *Session) PointerDown(e PointerEvent) {
	if s.tool == ToolPolygon {
		s.polygonDown(e)
		return
	}
	if _, idle := s.state.(Idle); !idle || e.Button != ButtonPrimary {
		return
	}
	p := e.point()

	hit, ok := s.hitBox(p)
	if !ok {
		if e.Mods.Shift {
			s.startBox(p)
			return
		}
		s.selected = -1
		return
	}

	shape, _ := s.set.Boxes.Shape(s.frame, hit.index)
	s.selected = hit.index
	switch {
	case hit.corner != geom.NoCorner:
		s.state = DraggingCorner{Index: hit.index, Corner: hit.corner, Fixed: oppositeCorner(shape.Box, hit.corner)}
		s.cursor = cornerCursor(hit.corner)
	case hit.side != geom.NoSide:
		s.state = DraggingSide{Index: hit.index, Side: hit.side, Fixed: oppositeSide(shape.Box, hit.side)}
		s.cursor = sideCursor(hit.side)
	default:
		s.state = DraggingWhole{Index: hit.index, Last: p}
		s.cursor = CursorMove
	}
}

func (s *Session) startBox(p geom.Point) {
	shape := annotation.NewBox(s.class, geom.Box{X: p.X, Y: p.Y})
	shape.Interpolate = s.interpolate
	idx, err := s.set.Boxes.Add(s.frame, shape)
	if err != nil {
		return
	}
	if shape.Interpolate {
		interpolate.RecomputeFrame(s.set.Boxes, s.frame)
	}
	s.selected = idx
	s.state = Creating{Index: idx, Anchor: p}
	s.cursor = CursorCrosshair
}

// PointerMove advances the active gesture, or updates the cursor hint when
// idle.
func (s *Session) PointerMove(e PointerEvent) {
	if s.tool == ToolPolygon {
		s.polygonMove(e)
		return
	}
	if !s.live() {
		return
	}
	p := e.point()
	layer := s.set.Boxes

	switch st := s.state.(type) {
	case Idle:
		s.cursor = CursorDefault
		if hit, ok := s.hitBox(p); ok {
			switch {
			case hit.corner != geom.NoCorner:
				s.cursor = cornerCursor(hit.corner)
			case hit.side != geom.NoSide:
				s.cursor = sideCursor(hit.side)
			default:
				s.cursor = CursorMove
			}
		}
	case Creating:
		_ = layer.Update(s.frame, st.Index, func(sh *annotation.Shape) {
			sh.Box = geom.Box{X: st.Anchor.X, Y: st.Anchor.Y, Width: p.X - st.Anchor.X, Height: p.Y - st.Anchor.Y}
		})
	case DraggingCorner:
		_ = layer.Update(s.frame, st.Index, func(sh *annotation.Shape) {
			sh.Box = geom.Box{X: st.Fixed.X, Y: st.Fixed.Y, Width: p.X - st.Fixed.X, Height: p.Y - st.Fixed.Y}
		})
	case DraggingSide:
		_ = layer.Update(s.frame, st.Index, func(sh *annotation.Shape) {
			b := &sh.Box
			switch st.Side {
			case geom.Top:
				b.Y, b.Height = p.Y, st.Fixed-p.Y
			case geom.Bottom:
				b.Y, b.Height = st.Fixed, p.Y-st.Fixed
			case geom.Left:
				b.X, b.Width = p.X, st.Fixed-p.X
			case geom.Right:
				b.X, b.Width = st.Fixed, p.X-st.Fixed
			}
		})
	case DraggingWhole:
		d := p.Sub(st.Last)
		_ = layer.Update(s.frame, st.Index, func(sh *annotation.Shape) {
			sh.Box.X += d.X
			sh.Box.Y += d.Y
		})
		st.Last = p
		s.state = st
	}
}

// PointerUp commits the active gesture and returns to Idle.
func (s *Session) PointerUp(e PointerEvent) {
	if s.tool == ToolPolygon {
		s.polygonUp(e)
		return
	}
	if !s.live() {
		return
	}
	idx, busy := target(s.state)
	if !busy {
		return
	}
	_, creating := s.state.(Creating)
	s.state = Idle{}
	s.cursor = CursorDefault

	layer := s.set.Boxes
	shape, _ := layer.Shape(s.frame, idx)
	if creating && geom.BelowMinimum(shape.Box, s.opts.MinWidth, s.opts.MinHeight) {
		_, _ = interpolate.RemoveShape(layer, s.frame, idx)
		s.selected = -1
		return
	}
	_ = layer.Update(s.frame, idx, func(sh *annotation.Shape) {
		b := geom.Normalize(sh.Box, s.opts.MinWidth, s.opts.MinHeight)
		sh.Box = geom.ClampToCanvas(b, s.opts.CanvasWidth, s.opts.CanvasHeight)
	})
}

// --- Polygons ---

func (s *Session) polygonDown(e PointerEvent) {
	p := e.point()

	if st, drawing := s.state.(DrawingPolygon); drawing {
		if e.Button == ButtonSecondary {
			if n := len(st.Points); n > 0 {
				st.Points = st.Points[:n-1]
			}
			s.state = st
			return
		}
		if len(st.Points) >= 3 && geom.Distance(p, st.Points[0]) <= s.opts.VertexThreshold {
			s.closePolygon(st.Points)
			return
		}
		st.Points = append(st.Points, p)
		s.state = st
		return
	}

	if _, idle := s.state.(Idle); !idle || e.Button != ButtonPrimary {
		return
	}
	if poly, vertex, ok := s.hitVertex(p); ok {
		s.selected = poly
		s.state = MovingPolygonVertex{Polygon: poly, Vertex: vertex}
		s.cursor = CursorPointer
		return
	}
	if poly, ok := s.hitPolygon(p); ok {
		s.selected = poly
		return
	}
	s.selected = -1
}

func (s *Session) polygonMove(e PointerEvent) {
	if !s.live() {
		return
	}
	p := e.point()

	switch st := s.state.(type) {
	case DrawingPolygon:
		n := len(st.Points)
		if e.Held && e.Mods.Shift && n > 0 && geom.Distance(p, st.Points[n-1]) > freehandSpacing*s.opts.VertexThreshold {
			st.Points = append(st.Points, p)
			s.state = st
		}
	case MovingPolygonVertex:
		_ = s.set.Polygons.Update(s.frame, st.Polygon, func(sh *annotation.Shape) {
			if st.Vertex < len(sh.Points) {
				sh.Points[st.Vertex] = p
			}
		})
	case Idle:
		s.cursor = CursorDefault
		if _, _, ok := s.hitVertex(p); ok {
			s.cursor = CursorPointer
		} else if _, ok := s.hitPolygon(p); ok {
			s.cursor = CursorMove
		}
	}
}

func (s *Session) polygonUp(PointerEvent) {
	if !s.live() {
		return
	}
	if _, moving := s.state.(MovingPolygonVertex); moving {
		s.state = Idle{}
		s.cursor = CursorDefault
	}
}

// closePolygon sanitises the drawn ring and adds the resulting loops. Drawing
// mode ends either way.
func (s *Session) closePolygon(points geom.Ring) {
	s.state = Idle{}
	s.cursor = CursorDefault

	res := sanitize.Polygon(points)
	if len(res.Polygons) == 0 {
		return
	}
	layer := s.set.Polygons
	// Add smallest first so the largest loop ends up on top.
	for i := len(res.Polygons) - 1; i >= 0; i-- {
		shape := annotation.NewPolygon(s.class, res.Polygons[i])
		shape.Interpolate = s.interpolate
		if _, err := layer.Add(s.frame, shape); err != nil {
			return
		}
	}
	if s.interpolate {
		interpolate.RecomputeFrame(layer, s.frame)
	}
	s.selected = 0
	if res.Corrected {
		s.notify(NoticeWarning, "polygon was auto-corrected into %d simple polygon(s)", len(res.Polygons))
	}
}
