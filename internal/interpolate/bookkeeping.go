// Package interpolate synthesises shapes on the frames between flagged
// keyframes and keeps the per-frame interpolation bookkeeping consistent.
package interpolate

import (
	"fmt"
	"sort"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
)

// Recompute reassigns InterpolationNumber and InterpolationID for one frame's
// shapes in place. Flagged shapes are ordered by class, then (for boxes) by
// their previous number, then by draw order. Numbers restart at 1 per class;
// IDs run 1..k across all flagged shapes. Unflagged shapes get neither.
func Recompute(kind annotation.Kind, shapes []annotation.Shape) {
	var flagged []int
	for i := range shapes {
		if shapes[i].Interpolate {
			flagged = append(flagged, i)
			continue
		}
		shapes[i].InterpolationNumber = nil
		shapes[i].InterpolationID = nil
	}

	sort.SliceStable(flagged, func(x, y int) bool {
		a, b := shapes[flagged[x]], shapes[flagged[y]]
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		if kind == annotation.KindBox {
			return numberLess(a.InterpolationNumber, b.InterpolationNumber)
		}
		return false
	})

	ordinal := 0
	prevClass := ""
	for id, i := range flagged {
		if id == 0 || shapes[i].Class != prevClass {
			ordinal = 0
			prevClass = shapes[i].Class
		}
		ordinal++
		shapes[i].InterpolationNumber = annotation.IntPtr(ordinal)
		shapes[i].InterpolationID = annotation.IntPtr(id + 1)
	}
}

// numberLess orders set numbers ascending with unset numbers last.
func numberLess(a, b *int) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

// RecomputeFrame applies Recompute to a frame of layer.
func RecomputeFrame(layer *annotation.Layer, frame int) {
	layer.Mutate(frame, func(shapes []annotation.Shape) {
		Recompute(layer.Kind(), shapes)
	})
}

// SetFlag sets the interpolate flag of one shape and recomputes the frame.
func SetFlag(layer *annotation.Layer, frame, index int, on bool) error {
	if err := layer.Update(frame, index, func(s *annotation.Shape) {
		s.Interpolate = on
	}); err != nil {
		return fmt.Errorf("set interpolate flag: %w", err)
	}
	RecomputeFrame(layer, frame)
	return nil
}

// SetClass relabels one shape. Class grouping drives the ordinals, so the
// frame is recomputed.
func SetClass(layer *annotation.Layer, frame, index int, class string) error {
	if err := layer.Update(frame, index, func(s *annotation.Shape) {
		s.Class = class
	}); err != nil {
		return fmt.Errorf("set class: %w", err)
	}
	RecomputeFrame(layer, frame)
	return nil
}

// RemoveShape deletes one shape and recomputes the frame.
func RemoveShape(layer *annotation.Layer, frame, index int) (annotation.Shape, error) {
	removed, err := layer.Remove(frame, index)
	if err != nil {
		return annotation.Shape{}, fmt.Errorf("remove shape: %w", err)
	}
	RecomputeFrame(layer, frame)
	return removed, nil
}
