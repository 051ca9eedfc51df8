// Package annotation is the authoritative per-frame store of box and polygon
// annotations for one video.
package annotation

import (
	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

// Kind discriminates the Shape variant.
type Kind string

const (
	KindBox     Kind = "box"
	KindPolygon Kind = "polygon"
)

// DefaultClass is assigned to shapes before the operator picks a label.
const DefaultClass = "class1"

// ClassStyle is the presentation of one label class. The class table is owned
// by the surrounding application and only read here.
type ClassStyle struct {
	StrokeColor string `json:"strokeColor"`
	FillColor   string `json:"fillColor,omitempty"`
}

// Classes maps a label string to its style.
type Classes map[string]ClassStyle

// DefaultClasses returns the stock class palette.
func DefaultClasses() Classes {
	return Classes{
		"class1": {StrokeColor: "red", FillColor: "rgba(255, 0, 0, 0.25)"},
		"class2": {StrokeColor: "limegreen", FillColor: "rgba(50, 205, 50, 0.25)"},
		"class3": {StrokeColor: "yellow", FillColor: "rgba(255, 255, 0, 0.25)"},
		"class4": {StrokeColor: "yellow", FillColor: "rgba(255, 255, 0, 0.25)"},
	}
}

// Stroke returns the stroke color for class, falling back to white.
func (c Classes) Stroke(class string) string {
	if s, ok := c[class]; ok && s.StrokeColor != "" {
		return s.StrokeColor
	}
	return "white"
}

// Meta is the envelope shared by every shape kind: label, interpolation
// bookkeeping, draw order and visibility.
type Meta struct {
	Class               string `json:"class"`
	Interpolate         bool   `json:"interpolate"`
	InterpolationNumber *int   `json:"interpolationNumber"`
	InterpolationID     *int   `json:"interpolationID"`
	DisplayOrder        int    `json:"displayOrder"`
	Visible             bool   `json:"visible"`
}

// Shape is either a Box or a Polygon. Box is meaningful only for KindBox and
// Points only for KindPolygon.
type Shape struct {
	Meta
	Kind   Kind
	Box    geom.Box
	Points geom.Ring
}

// NewBox returns a visible, unflagged box shape.
func NewBox(class string, b geom.Box) Shape {
	return Shape{
		Meta: Meta{Class: class, Visible: true},
		Kind: KindBox,
		Box:  b,
	}
}

// NewPolygon returns a visible, unflagged polygon shape.
func NewPolygon(class string, points geom.Ring) Shape {
	return Shape{
		Meta:   Meta{Class: class, Visible: true},
		Kind:   KindPolygon,
		Points: points,
	}
}

// Flagged reports whether the shape takes part in the next interpolation.
func (s Shape) Flagged() bool {
	return s.Interpolate
}

// ClearInterpolation drops the flag and its bookkeeping.
func (s *Shape) ClearInterpolation() {
	s.Interpolate = false
	s.InterpolationNumber = nil
	s.InterpolationID = nil
}

// Clone returns a deep copy.
func (s Shape) Clone() Shape {
	out := s
	out.Points = s.Points.Clone()
	out.InterpolationNumber = clonePtr(s.InterpolationNumber)
	out.InterpolationID = clonePtr(s.InterpolationID)
	return out
}

// Bounds returns the shape's axis-aligned extent.
func (s Shape) Bounds() geom.Box {
	if s.Kind == KindPolygon {
		return s.Points.Bounds()
	}
	return geom.Normalize(s.Box, 0, 0)
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IntPtr is a convenience for building bookkeeping values.
func IntPtr(v int) *int {
	return &v
}

func cloneShapes(in []Shape) []Shape {
	if in == nil {
		return nil
	}
	out := make([]Shape, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
