package editor

import (
	"errors"
	"fmt"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/interpolate"
)

// ErrNoSelection is returned by operations that act on the selected shape
// when nothing is selected.
var ErrNoSelection = errors.New("no shape selected")

// Session is the interactive editing state of one canvas over a shared
// annotation set. It holds only indices into the set, never shapes, and
// drops them whenever the set changes underneath it.
//
// A Session is not safe for concurrent use. Callers sharing a Set between
// sessions must serialise all calls on all of them.
type Session struct {
	set     *annotation.Set
	opts    Options
	classes annotation.Classes
	engine  *interpolate.Engine

	tool        Tool
	frame       int
	totalFrames int

	state    State
	selected int
	cursor   Cursor

	class       string
	interpolate bool
	carryOver   bool
	showLabels  bool

	notices []Notice
	cancel  []func()
}

// NewSession creates a session editing set at frame 0 with the box tool.
func NewSession(set *annotation.Set, opts Options, classes annotation.Classes) *Session {
	if classes == nil {
		classes = annotation.DefaultClasses()
	}
	s := &Session{
		set:        set,
		opts:       opts,
		classes:    classes,
		engine:     interpolate.New(),
		state:      Idle{},
		selected:   -1,
		cursor:     CursorDefault,
		class:      annotation.DefaultClass,
		showLabels: true,
	}
	s.cancel = append(s.cancel,
		set.Boxes.Observe(s.onChange),
		set.Polygons.Observe(s.onChange),
	)
	return s
}

// Close detaches the session from its set.
func (s *Session) Close() {
	for _, c := range s.cancel {
		c()
	}
	s.cancel = nil
}

// onChange drops selection and aborts any gesture when the active frame's
// sequence is spliced by anyone, this session included.
func (s *Session) onChange(c annotation.Change) {
	if c.Kind != s.kind() || !c.Op.Structural() {
		return
	}
	if c.Frame != s.frame && c.Op != annotation.ChangeClear {
		return
	}
	s.selected = -1
	if _, busy := target(s.state); busy {
		s.state = Idle{}
	}
}

func (s *Session) kind() annotation.Kind {
	if s.tool == ToolPolygon {
		return annotation.KindPolygon
	}
	return annotation.KindBox
}

func (s *Session) layer() *annotation.Layer {
	return s.set.Layer(s.kind())
}

func (s *Session) notify(level NoticeLevel, format string, args ...any) {
	s.notices = append(s.notices, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// --- Queries ---

func (s *Session) State() State         { return s.state }
func (s *Session) Tool() Tool           { return s.tool }
func (s *Session) Frame() int           { return s.frame }
func (s *Session) TotalFrames() int     { return s.totalFrames }
func (s *Session) Cursor() Cursor       { return s.cursor }
func (s *Session) Options() Options     { return s.opts }
func (s *Session) Set() *annotation.Set { return s.set }

// Selection returns the selected index on the current frame, or -1.
func (s *Session) Selection() int { return s.selected }

// Selected returns a copy of the selected shape.
func (s *Session) Selected() (annotation.Shape, bool) {
	if s.selected < 0 {
		return annotation.Shape{}, false
	}
	return s.layer().Shape(s.frame, s.selected)
}

// TakeNotices returns and clears pending operator notices.
func (s *Session) TakeNotices() []Notice {
	n := s.notices
	s.notices = nil
	return n
}

// --- Settings ---

// SetTotalFrames bounds frame stepping. Zero means unbounded.
func (s *Session) SetTotalFrames(n int) {
	s.totalFrames = max(n, 0)
	if s.totalFrames > 0 && s.frame >= s.totalFrames {
		s.SetFrame(s.totalFrames - 1)
	}
}

// SetCanvasSize sets the clamping bounds for committed boxes.
func (s *Session) SetCanvasSize(width, height float64) {
	s.opts.CanvasWidth = width
	s.opts.CanvasHeight = height
}

func (s *Session) SetCarryOver(on bool)  { s.carryOver = on }
func (s *Session) SetShowLabels(on bool) { s.showLabels = on }

// SetTool switches the edited shape kind. Any gesture in progress is dropped.
func (s *Session) SetTool(t Tool) {
	if t == s.tool {
		return
	}
	s.tool = t
	s.reset()
}

func (s *Session) reset() {
	s.state = Idle{}
	s.selected = -1
	s.cursor = CursorDefault
}

// SetFrame moves to frame, clearing selection. With carry-over enabled an
// empty destination receives a copy of the current frame's shapes.
func (s *Session) SetFrame(frame int) {
	frame = max(frame, 0)
	if s.totalFrames > 0 {
		frame = min(frame, s.totalFrames-1)
	}
	if frame == s.frame {
		return
	}
	from := s.frame
	s.frame = frame
	s.reset()

	layer := s.layer()
	if s.carryOver && layer.Len(frame) == 0 && layer.Len(from) > 0 {
		_ = layer.Replace(frame, layer.Shapes(from))
	}
}

// StepFrame moves delta frames forward or back.
func (s *Session) StepFrame(delta int) {
	s.SetFrame(s.frame + delta)
}

// Select makes index the selection; -1 clears it.
func (s *Session) Select(index int) {
	if index < 0 || index >= s.layer().Len(s.frame) {
		s.selected = -1
		return
	}
	s.selected = index
}

// --- Shape operations ---

// DeleteSelected removes the selected shape and renumbers the frame's
// interpolation bookkeeping.
func (s *Session) DeleteSelected() error {
	if s.selected < 0 {
		return ErrNoSelection
	}
	if _, err := interpolate.RemoveShape(s.layer(), s.frame, s.selected); err != nil {
		s.selected = -1
		return err
	}
	s.selected = -1
	return nil
}

// DeleteAll empties every frame of the active layer.
func (s *Session) DeleteAll() {
	s.layer().Clear()
	s.reset()
}

// ToggleSelectedVisible flips visibility of the selected shape.
func (s *Session) ToggleSelectedVisible() error {
	shape, ok := s.Selected()
	if !ok {
		return ErrNoSelection
	}
	return s.layer().SetVisible(s.frame, s.selected, !shape.Visible)
}

// ToggleAllVisible flips the active layer's global visibility.
func (s *Session) ToggleAllVisible() bool {
	return s.layer().ToggleAllVisible()
}

// SetClass sets the class for new shapes and relabels the selection, if any.
func (s *Session) SetClass(class string) error {
	s.class = class
	if s.selected < 0 {
		return nil
	}
	return interpolate.SetClass(s.layer(), s.frame, s.selected, class)
}

// SetInterpolate sets the flag for new shapes and for the selection, if any.
func (s *Session) SetInterpolate(on bool) error {
	s.interpolate = on
	if s.selected < 0 {
		return nil
	}
	return interpolate.SetFlag(s.layer(), s.frame, s.selected, on)
}

// MoveSelected changes the draw order of the selected shape. The selection
// follows it.
func (s *Session) MoveSelected(to int) error {
	if s.selected < 0 {
		return ErrNoSelection
	}
	layer := s.layer()
	if err := layer.Reorder(s.frame, s.selected, to); err != nil {
		return err
	}
	s.selected = min(max(to, 0), layer.Len(s.frame)-1)
	return nil
}

// Interpolate runs the interpolation engine over the active layer. The
// outcome is also queued as a notice.
func (s *Session) Interpolate() (interpolate.Report, error) {
	report, err := s.engine.Run(s.layer())
	if err != nil {
		s.notify(NoticeError, "%v", err)
		return report, err
	}
	s.notify(NoticeInfo, "interpolated %d %s shapes across keyframes %v", report.Synthesized, report.Kind, report.Keyframes)
	return report, nil
}

// --- Keyboard ---

// KeyDown handles a key press using browser key names.
func (s *Session) KeyDown(key string) {
	switch key {
	case "ArrowRight":
		s.StepFrame(1)
	case "ArrowLeft":
		s.StepFrame(-1)
	case "Delete", "Backspace":
		_ = s.DeleteSelected()
	case "v", "V":
		_ = s.ToggleSelectedVisible()
	case "Control":
		s.toggleDrawing()
	}
}

func (s *Session) toggleDrawing() {
	if s.tool != ToolPolygon {
		return
	}
	switch s.state.(type) {
	case DrawingPolygon:
		s.state = Idle{}
		s.cursor = CursorDefault
	case Idle:
		s.selected = -1
		s.state = DrawingPolygon{}
		s.cursor = CursorCrosshair
	}
}
