package annotation

// Set is the Frame Annotation Set of one video: two parallel layers, one per
// shape kind.
type Set struct {
	Boxes    *Layer
	Polygons *Layer
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{
		Boxes:    NewLayer(KindBox),
		Polygons: NewLayer(KindPolygon),
	}
}

// Layer returns the layer holding kind.
func (s *Set) Layer(kind Kind) *Layer {
	if kind == KindPolygon {
		return s.Polygons
	}
	return s.Boxes
}

// Clone returns a deep copy suitable for handing to a persistence layer.
func (s *Set) Clone() *Set {
	return &Set{
		Boxes:    s.Boxes.Clone(),
		Polygons: s.Polygons.Clone(),
	}
}
