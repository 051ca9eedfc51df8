// Package codec converts annotation layers to and from their persisted JSON
// form, which is independent of video resolution and display scale.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

var (
	ErrBadFrame     = errors.New("frame key is not a non-negative integer")
	ErrBadVideoSize = errors.New("video dimensions must be positive")
	ErrUnknownKind  = errors.New("unknown shape kind")
	ErrShortPolygon = errors.New("polygon needs at least 3 points")
)

// DisplayScale returns the factor that fits a video into a maxWidth x
// maxHeight canvas without enlarging it.
func DisplayScale(videoWidth, videoHeight, maxWidth, maxHeight float64) float64 {
	return min(maxWidth/videoWidth, maxHeight/videoHeight, 1)
}

// Transform maps between canvas pixels and normalised video coordinates for
// one video at one display scale.
type Transform struct {
	toNorm   geom.Matrix2D
	fromNorm geom.Matrix2D
}

// NewTransform builds the mapping for a videoWidth x videoHeight video shown
// at scale.
func NewTransform(videoWidth, videoHeight, scale float64) (Transform, error) {
	if videoWidth <= 0 || videoHeight <= 0 || scale <= 0 {
		return Transform{}, fmt.Errorf("video %gx%g at scale %g: %w", videoWidth, videoHeight, scale, ErrBadVideoSize)
	}
	toNorm := geom.Scale(1/(scale*videoWidth), 1/(scale*videoHeight))
	return Transform{toNorm: toNorm, fromNorm: toNorm.Invert()}, nil
}

// Identity is the transform for layers already in normalised coordinates.
func Identity() Transform {
	return Transform{toNorm: geom.Identity(), fromNorm: geom.Identity()}
}

// PersistedBox is a box as stored: X and Y are the normalised centre, Width
// and Height are fractions of the video size.
type PersistedBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	annotation.Meta
}

// PersistedPolygon is a polygon with normalised points.
type PersistedPolygon struct {
	Points []geom.Point `json:"points"`
	annotation.Meta
}

// BoxesFile is the persisted form of a box layer.
type BoxesFile struct {
	Boxes map[string][]PersistedBox `json:"boxes"`
}

// PolygonsFile is the persisted form of a polygon layer.
type PolygonsFile struct {
	Polygons map[string][]PersistedPolygon `json:"polygons"`
}

// EncodeBoxes converts a box layer into its persisted form.
func EncodeBoxes(layer *annotation.Layer, t Transform) BoxesFile {
	out := BoxesFile{Boxes: make(map[string][]PersistedBox)}
	for _, frame := range layer.Frames() {
		shapes := layer.Shapes(frame)
		boxes := make([]PersistedBox, 0, len(shapes))
		for _, s := range shapes {
			b := geom.Normalize(s.Box, 0, 0)
			c := t.toNorm.Apply(b.Center())
			size := t.toNorm.ApplyVector(geom.Point{X: b.Width, Y: b.Height})
			boxes = append(boxes, PersistedBox{X: c.X, Y: c.Y, Width: size.X, Height: size.Y, Meta: s.Meta})
		}
		out.Boxes[strconv.Itoa(frame)] = boxes
	}
	return out
}

// DecodeBoxes rebuilds a box layer from its persisted form.
func DecodeBoxes(f BoxesFile, t Transform) (*annotation.Layer, error) {
	layer := annotation.NewLayer(annotation.KindBox)
	for key, boxes := range f.Boxes {
		frame, err := parseFrame(key)
		if err != nil {
			return nil, err
		}
		shapes := make([]annotation.Shape, 0, len(boxes))
		for _, pb := range boxes {
			size := t.fromNorm.ApplyVector(geom.Point{X: pb.Width, Y: pb.Height})
			c := t.fromNorm.Apply(geom.Point{X: pb.X, Y: pb.Y})
			shapes = append(shapes, annotation.Shape{
				Meta: pb.Meta,
				Kind: annotation.KindBox,
				Box:  geom.Box{X: c.X - size.X/2, Y: c.Y - size.Y/2, Width: size.X, Height: size.Y},
			})
		}
		if err := layer.Replace(frame, shapes); err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	return layer, nil
}

// EncodePolygons converts a polygon layer into its persisted form.
func EncodePolygons(layer *annotation.Layer, t Transform) PolygonsFile {
	out := PolygonsFile{Polygons: make(map[string][]PersistedPolygon)}
	for _, frame := range layer.Frames() {
		shapes := layer.Shapes(frame)
		polys := make([]PersistedPolygon, 0, len(shapes))
		for _, s := range shapes {
			points := make([]geom.Point, len(s.Points))
			for i, p := range s.Points {
				points[i] = t.toNorm.Apply(p)
			}
			polys = append(polys, PersistedPolygon{Points: points, Meta: s.Meta})
		}
		out.Polygons[strconv.Itoa(frame)] = polys
	}
	return out
}

// DecodePolygons rebuilds a polygon layer from its persisted form.
func DecodePolygons(f PolygonsFile, t Transform) (*annotation.Layer, error) {
	layer := annotation.NewLayer(annotation.KindPolygon)
	for key, polys := range f.Polygons {
		frame, err := parseFrame(key)
		if err != nil {
			return nil, err
		}
		shapes := make([]annotation.Shape, 0, len(polys))
		for _, pp := range polys {
			if len(pp.Points) < 3 {
				return nil, fmt.Errorf("frame %d: %w", frame, ErrShortPolygon)
			}
			points := make(geom.Ring, len(pp.Points))
			for i, p := range pp.Points {
				points[i] = t.fromNorm.Apply(p)
			}
			shapes = append(shapes, annotation.Shape{Meta: pp.Meta, Kind: annotation.KindPolygon, Points: points})
		}
		if err := layer.Replace(frame, shapes); err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	return layer, nil
}

// Marshal encodes a layer of either kind to JSON.
func Marshal(layer *annotation.Layer, t Transform) ([]byte, error) {
	switch layer.Kind() {
	case annotation.KindBox:
		return json.Marshal(EncodeBoxes(layer, t))
	case annotation.KindPolygon:
		return json.Marshal(EncodePolygons(layer, t))
	}
	return nil, fmt.Errorf("marshal %q: %w", layer.Kind(), ErrUnknownKind)
}

// Unmarshal decodes JSON produced by Marshal into a layer of kind.
func Unmarshal(kind annotation.Kind, data []byte, t Transform) (*annotation.Layer, error) {
	switch kind {
	case annotation.KindBox:
		var f BoxesFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode boxes: %w", err)
		}
		return DecodeBoxes(f, t)
	case annotation.KindPolygon:
		var f PolygonsFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode polygons: %w", err)
		}
		return DecodePolygons(f, t)
	}
	return nil, fmt.Errorf("unmarshal %q: %w", kind, ErrUnknownKind)
}

// ParseKind maps a URL or file name segment to a shape kind. Both singular
// and plural forms are accepted.
func ParseKind(s string) (annotation.Kind, error) {
	switch s {
	case "box", "boxes":
		return annotation.KindBox, nil
	case "polygon", "polygons":
		return annotation.KindPolygon, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
}

// FileName is the conventional file name of a persisted layer.
func FileName(kind annotation.Kind) string {
	if kind == annotation.KindPolygon {
		return "polygons.json"
	}
	return "boxes.json"
}

func parseFrame(key string) (int, error) {
	frame, err := strconv.Atoi(key)
	if err != nil || frame < 0 {
		return 0, fmt.Errorf("%q: %w", key, ErrBadFrame)
	}
	return frame, nil
}

// sortedFrames returns the integer frame keys of m ascending, skipping keys
// that are not frames.
func sortedFrames[T any](m map[string]T) []int {
	frames := make([]int, 0, len(m))
	for k := range m {
		if f, err := parseFrame(k); err == nil {
			frames = append(frames, f)
		}
	}
	sort.Ints(frames)
	return frames
}
