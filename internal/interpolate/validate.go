package interpolate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
)

var (
	ErrInsufficientKeyframes   = errors.New("insufficient keyframes")
	ErrInconsistentComposition = errors.New("inconsistent flagged-shape composition")
	ErrAlreadyRunning          = errors.New("interpolation already running")
)

// ValidationError reports why a layer cannot be interpolated. It unwraps to
// ErrInsufficientKeyframes or ErrInconsistentComposition.
type ValidationError struct {
	Err  error
	Kind annotation.Kind

	// Frames lists the flagged frames found, ascending.
	Frames []int

	// For composition failures: the first flagged frame and the frame that
	// disagrees with it, with their flagged-shape counts.
	RefFrame, Frame int
	RefCount, Count int
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrInsufficientKeyframes) {
		return fmt.Sprintf("%s: need at least 2 frames with flagged %s shapes, found %d", e.Err, e.Kind, len(e.Frames))
	}
	if e.Count != e.RefCount {
		return fmt.Sprintf("%s: frame %d has %d flagged %s shapes but frame %d has %d",
			e.Err, e.Frame, e.Count, e.Kind, e.RefFrame, e.RefCount)
	}
	return fmt.Sprintf("%s: flagged %s shapes on frame %d do not match classes or numbering on frame %d (%d shapes each)",
		e.Err, e.Kind, e.Frame, e.RefFrame, e.Count)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// signature is the correspondence key of a flagged shape.
type signature struct {
	class  string
	number int
	id     int
}

func (s signature) String() string {
	return fmt.Sprintf("%s#%d/%d", s.class, s.number, s.id)
}

func signatures(shapes []annotation.Shape) []signature {
	var sigs []signature
	for _, s := range shapes {
		if !s.Interpolate {
			continue
		}
		sigs = append(sigs, signature{class: s.Class, number: deref(s.InterpolationNumber), id: deref(s.InterpolationID)})
	}
	sort.Slice(sigs, func(i, j int) bool {
		return sigs[i].String() < sigs[j].String()
	})
	return sigs
}

func sameSignatures(a, b []signature) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// FlaggedFrames lists frames of layer holding at least one flagged shape.
func FlaggedFrames(layer *annotation.Layer) []int {
	var frames []int
	for _, f := range layer.Frames() {
		for _, s := range layer.Shapes(f) {
			if s.Interpolate {
				frames = append(frames, f)
				break
			}
		}
	}
	return frames
}

// Validate checks that layer has at least two flagged frames and that every
// flagged frame carries the same multiset of flagged-shape signatures.
func Validate(layer *annotation.Layer) error {
	frames := FlaggedFrames(layer)
	if len(frames) < 2 {
		return &ValidationError{Err: ErrInsufficientKeyframes, Kind: layer.Kind(), Frames: frames}
	}

	ref := signatures(layer.Shapes(frames[0]))
	for _, f := range frames[1:] {
		sigs := signatures(layer.Shapes(f))
		if !sameSignatures(ref, sigs) {
			return &ValidationError{
				Err:      ErrInconsistentComposition,
				Kind:     layer.Kind(),
				Frames:   frames,
				RefFrame: frames[0],
				Frame:    f,
				RefCount: len(ref),
				Count:    len(sigs),
			}
		}
	}
	return nil
}
