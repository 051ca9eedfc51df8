package interpolate

import (
	"sync/atomic"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

// Report summarises a completed interpolation pass.
type Report struct {
	Kind        annotation.Kind `json:"kind"`
	Keyframes   []int           `json:"keyframes"`
	Synthesized int             `json:"synthesized"`
}

// Engine runs interpolation passes. A pass is never re-entered: a Run that
// starts while another is in progress fails with ErrAlreadyRunning.
type Engine struct {
	running atomic.Bool
}

// New creates an Engine.
func New() *Engine {
	return &Engine{}
}

// Run validates layer and, if it passes, fills every frame strictly between
// consecutive flagged frames with blended shapes, then clears the flags and
// bookkeeping of every originally flagged shape. On any validation error the
// layer is left untouched.
func (e *Engine) Run(layer *annotation.Layer) (Report, error) {
	if !e.running.CompareAndSwap(false, true) {
		return Report{}, ErrAlreadyRunning
	}
	defer e.running.Store(false)

	if err := Validate(layer); err != nil {
		return Report{}, err
	}

	keyframes := FlaggedFrames(layer)
	report := Report{Kind: layer.Kind(), Keyframes: keyframes}

	for k := 0; k+1 < len(keyframes); k++ {
		report.Synthesized += fill(layer, keyframes[k], keyframes[k+1])
	}

	for _, f := range keyframes {
		layer.Mutate(f, func(shapes []annotation.Shape) {
			for i := range shapes {
				shapes[i].ClearInterpolation()
			}
		})
	}
	return report, nil
}

// track is one flagged shape and its partner on the next keyframe, with
// polygon vertices already paired.
type track struct {
	start, end annotation.Shape
	from, to   geom.Ring
}

func fill(layer *annotation.Layer, start, end int) int {
	if end-start < 2 {
		return 0
	}

	ends := make(map[int]annotation.Shape)
	for _, s := range layer.Shapes(end) {
		if s.Interpolate && s.InterpolationID != nil {
			ends[*s.InterpolationID] = s
		}
	}

	var tracks []track
	for _, s := range layer.Shapes(start) {
		if !s.Interpolate || s.InterpolationID == nil {
			continue
		}
		partner, ok := ends[*s.InterpolationID]
		if !ok {
			continue
		}
		t := track{start: s, end: partner}
		if s.Kind == annotation.KindPolygon {
			t.from, t.to = PairPoints(s.Points, partner.Points)
		}
		tracks = append(tracks, t)
	}
	if len(tracks) == 0 {
		return 0
	}

	count := 0
	span := float64(end - start)
	for j := start + 1; j < end; j++ {
		alpha := float64(j-start) / span
		shapes := layer.Shapes(j)
		base := len(shapes)
		for n, t := range tracks {
			s := blend(t, alpha)
			s.DisplayOrder = base + n
			shapes = append(shapes, s)
		}
		if err := layer.Replace(j, shapes); err == nil {
			count += len(tracks)
		}
	}
	return count
}

// blend builds the shape at alpha between the track's endpoints. Non-geometric
// fields come from the start shape; the result is never flagged.
func blend(t track, alpha float64) annotation.Shape {
	out := t.start.Clone()
	out.ClearInterpolation()

	switch out.Kind {
	case annotation.KindBox:
		a, b := t.start.Box, t.end.Box
		out.Box = geom.Box{
			X:      lerp(a.X, b.X, alpha),
			Y:      lerp(a.Y, b.Y, alpha),
			Width:  lerp(a.Width, b.Width, alpha),
			Height: lerp(a.Height, b.Height, alpha),
		}
	case annotation.KindPolygon:
		points := make(geom.Ring, len(t.from))
		for i := range t.from {
			points[i] = t.from[i].Lerp(t.to[i], alpha)
		}
		out.Points = points
	}
	return out
}

func lerp(a, b, alpha float64) float64 {
	return a + (b-a)*alpha
}
