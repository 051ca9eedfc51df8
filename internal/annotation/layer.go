package annotation

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrIndexOutOfRange = errors.New("shape index out of range")
	ErrKindMismatch    = errors.New("shape kind does not match layer")
)

// ChangeOp names a structural or field mutation of a frame.
type ChangeOp int

const (
	ChangeAdd ChangeOp = iota
	ChangeUpdate
	ChangeRemove
	ChangeReorder
	ChangeReplace
	ChangeClear
)

func (op ChangeOp) String() string {
	switch op {
	case ChangeAdd:
		return "add"
	case ChangeUpdate:
		return "update"
	case ChangeRemove:
		return "remove"
	case ChangeReorder:
		return "reorder"
	case ChangeReplace:
		return "replace"
	case ChangeClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Structural reports whether indices into the frame may have moved.
func (op ChangeOp) Structural() bool {
	return op != ChangeUpdate
}

// Change describes one mutation. Index is the affected position for add,
// update and remove, and -1 otherwise. Frame is -1 for ChangeClear.
type Change struct {
	Kind  Kind
	Frame int
	Op    ChangeOp
	Index int
}

// Observer is notified after every mutation of a layer.
type Observer func(Change)

// Mark summarises one annotated frame for the timeline.
type Mark struct {
	Frame   int  `json:"frame"`
	Flagged bool `json:"interpolate"`
}

// Layer holds the shapes of one kind, keyed by frame. Within a frame, slice
// position equals DisplayOrder: index 0 is the topmost, newest shape.
type Layer struct {
	kind       Kind
	frames     map[int][]Shape
	allVisible bool

	observers map[int]Observer
	nextObs   int
}

// NewLayer creates an empty layer for kind.
func NewLayer(kind Kind) *Layer {
	return &Layer{
		kind:       kind,
		frames:     make(map[int][]Shape),
		allVisible: true,
		observers:  make(map[int]Observer),
	}
}

// Kind returns the shape kind stored in this layer.
func (l *Layer) Kind() Kind { return l.kind }

// Observe registers fn for change notifications and returns a function that
// unregisters it.
func (l *Layer) Observe(fn Observer) (cancel func()) {
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	return func() { delete(l.observers, id) }
}

func (l *Layer) notify(frame int, op ChangeOp, index int) {
	c := Change{Kind: l.kind, Frame: frame, Op: op, Index: index}
	for _, fn := range l.observers {
		fn(c)
	}
}

// Frames returns the indices of frames that exist, ascending.
func (l *Layer) Frames() []int {
	frames := make([]int, 0, len(l.frames))
	for f := range l.frames {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}

// Len returns the number of shapes on frame.
func (l *Layer) Len(frame int) int {
	return len(l.frames[frame])
}

// Shape returns a copy of the shape at index.
func (l *Layer) Shape(frame, index int) (Shape, bool) {
	shapes := l.frames[frame]
	if index < 0 || index >= len(shapes) {
		return Shape{}, false
	}
	return shapes[index].Clone(), true
}

// Shapes returns a deep copy of the frame's shapes in display order.
func (l *Layer) Shapes(frame int) []Shape {
	return cloneShapes(l.frames[frame])
}

// Add inserts shape on top of frame with DisplayOrder 0; every other shape
// moves down one place. The frame is created on first use.
func (l *Layer) Add(frame int, shape Shape) (int, error) {
	if shape.Kind != l.kind {
		return -1, fmt.Errorf("add %s to %s layer: %w", shape.Kind, l.kind, ErrKindMismatch)
	}
	shapes := l.frames[frame]
	shapes = append(shapes, Shape{})
	copy(shapes[1:], shapes)
	shapes[0] = shape.Clone()
	l.frames[frame] = renumber(shapes)
	l.notify(frame, ChangeAdd, 0)
	return 0, nil
}

// Update applies patch to the shape at index. The patch may not change the
// shape's kind or draw order.
func (l *Layer) Update(frame, index int, patch func(*Shape)) error {
	shapes := l.frames[frame]
	if index < 0 || index >= len(shapes) {
		return fmt.Errorf("update frame %d index %d: %w", frame, index, ErrIndexOutOfRange)
	}
	s := &shapes[index]
	kind, order := s.Kind, s.DisplayOrder
	patch(s)
	s.Kind, s.DisplayOrder = kind, order
	l.notify(frame, ChangeUpdate, index)
	return nil
}

// Remove splices out the shape at index and renumbers the frame.
func (l *Layer) Remove(frame, index int) (Shape, error) {
	shapes := l.frames[frame]
	if index < 0 || index >= len(shapes) {
		return Shape{}, fmt.Errorf("remove frame %d index %d: %w", frame, index, ErrIndexOutOfRange)
	}
	removed := shapes[index]
	shapes = append(shapes[:index], shapes[index+1:]...)
	l.frames[frame] = renumber(shapes)
	l.notify(frame, ChangeRemove, index)
	return removed, nil
}

// Reorder moves the shape at display order from so that it ends at display
// order to, then renumbers 0..n-1.
func (l *Layer) Reorder(frame, from, to int) error {
	shapes := l.frames[frame]
	if from < 0 || from >= len(shapes) {
		return fmt.Errorf("reorder frame %d from %d: %w", frame, from, ErrIndexOutOfRange)
	}
	to = min(max(to, 0), len(shapes)-1)
	if from == to {
		return nil
	}
	moved := shapes[from]
	shapes = append(shapes[:from], shapes[from+1:]...)
	shapes = append(shapes, Shape{})
	copy(shapes[to+1:], shapes[to:])
	shapes[to] = moved
	l.frames[frame] = renumber(shapes)
	l.notify(frame, ChangeReorder, -1)
	return nil
}

// SetVisible shows or hides one shape.
func (l *Layer) SetVisible(frame, index int, visible bool) error {
	return l.Update(frame, index, func(s *Shape) { s.Visible = visible })
}

// ToggleAllVisible flips the layer-wide visibility state and applies it to
// every shape on every frame. It returns the new state.
func (l *Layer) ToggleAllVisible() bool {
	l.allVisible = !l.allVisible
	for frame, shapes := range l.frames {
		for i := range shapes {
			shapes[i].Visible = l.allVisible
		}
		l.notify(frame, ChangeUpdate, -1)
	}
	return l.allVisible
}

// Replace installs shapes as the frame's full contents. Shapes are ordered by
// their DisplayOrder (ties keep slice order) and renumbered.
func (l *Layer) Replace(frame int, shapes []Shape) error {
	for _, s := range shapes {
		if s.Kind != l.kind {
			return fmt.Errorf("replace frame %d: %w", frame, ErrKindMismatch)
		}
	}
	next := cloneShapes(shapes)
	if next == nil {
		next = []Shape{}
	}
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].DisplayOrder < next[j].DisplayOrder
	})
	l.frames[frame] = renumber(next)
	l.notify(frame, ChangeReplace, -1)
	return nil
}

// Mutate hands the frame's live shapes to fn for field edits such as
// interpolation bookkeeping. fn must not reslice. Kinds and draw order are
// restored afterwards.
func (l *Layer) Mutate(frame int, fn func(shapes []Shape)) {
	shapes, ok := l.frames[frame]
	if !ok {
		return
	}
	fn(shapes)
	for i := range shapes {
		shapes[i].Kind = l.kind
		shapes[i].DisplayOrder = i
	}
	l.notify(frame, ChangeUpdate, -1)
}

// Clear empties every frame. Frames themselves are kept.
func (l *Layer) Clear() {
	for frame := range l.frames {
		l.frames[frame] = []Shape{}
	}
	l.notify(-1, ChangeClear, -1)
}

// Marks lists frames that carry at least one shape.
func (l *Layer) Marks() []Mark {
	var marks []Mark
	for _, frame := range l.Frames() {
		shapes := l.frames[frame]
		if len(shapes) == 0 {
			continue
		}
		m := Mark{Frame: frame}
		for _, s := range shapes {
			if s.Interpolate {
				m.Flagged = true
				break
			}
		}
		marks = append(marks, m)
	}
	return marks
}

// Clone returns a deep copy without observers.
func (l *Layer) Clone() *Layer {
	out := NewLayer(l.kind)
	out.allVisible = l.allVisible
	for frame, shapes := range l.frames {
		out.frames[frame] = cloneShapes(shapes)
	}
	return out
}

func renumber(shapes []Shape) []Shape {
	for i := range shapes {
		shapes[i].DisplayOrder = i
	}
	return shapes
}
