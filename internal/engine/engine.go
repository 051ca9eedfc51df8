// Package engine is the string-in, string-out facade the browser build uses
// to run an editing session entirely client side. Every input and output is
// JSON so the syscall/js bridge stays thin.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/codec"
	"github.com/osu-uwrt/data-collection-webapp/internal/editor"
)

var ErrNoVideo = errors.New("no video loaded")

// Engine owns one annotation set and the session editing it.
type Engine struct {
	opts      editor.Options
	set       *annotation.Set
	session   *editor.Session
	transform codec.Transform
	loaded    bool

	// Largest canvas a video is fitted into.
	maxWidth, maxHeight float64
}

// NewEngine creates an engine with an empty set and stock tolerances.
func NewEngine() *Engine {
	opts := editor.DefaultOptions()
	e := &Engine{opts: opts, maxWidth: opts.CanvasWidth, maxHeight: opts.CanvasHeight}
	e.reset(annotation.NewSet(), 0)
	return e
}

// reset swaps in set, keeping the frame and tool of the previous session.
func (e *Engine) reset(set *annotation.Set, totalFrames int) {
	frame, tool := 0, editor.ToolBox
	if e.session != nil {
		frame, tool = e.session.Frame(), e.session.Tool()
		e.session.Close()
	}
	e.set = set
	e.session = editor.NewSession(set, e.opts, nil)
	e.session.SetTotalFrames(totalFrames)
	e.session.SetTool(tool)
	e.session.SetFrame(frame)
}

// --- Commands (frontend → backend) ---

// LoadVideo sizes the canvas for a videoWidth x videoHeight video with
// totalFrames frames and clears all annotations.
func (e *Engine) LoadVideo(videoWidth, videoHeight, totalFrames int) error {
	w, h := float64(videoWidth), float64(videoHeight)
	scale := codec.DisplayScale(w, h, e.maxWidth, e.maxHeight)
	t, err := codec.NewTransform(w, h, scale)
	if err != nil {
		return err
	}
	e.transform = t
	e.loaded = true
	e.opts.CanvasWidth, e.opts.CanvasHeight = w*scale, h*scale
	e.session.Close()
	e.session = nil
	e.reset(annotation.NewSet(), totalFrames)
	return nil
}

// LoadAnnotations replaces one layer with a persisted file.
func (e *Engine) LoadAnnotations(kind, jsonData string) error {
	if !e.loaded {
		return ErrNoVideo
	}
	k, err := codec.ParseKind(kind)
	if err != nil {
		return err
	}
	layer, err := codec.Unmarshal(k, []byte(jsonData), e.transform)
	if err != nil {
		return err
	}
	set := &annotation.Set{Boxes: e.set.Boxes, Polygons: e.set.Polygons}
	if k == annotation.KindBox {
		set.Boxes = layer
	} else {
		set.Polygons = layer
	}
	e.reset(set, e.session.TotalFrames())
	return nil
}

// ExportAnnotations returns one layer as a persisted file.
func (e *Engine) ExportAnnotations(kind string) (string, error) {
	if !e.loaded {
		return "", ErrNoVideo
	}
	k, err := codec.ParseKind(kind)
	if err != nil {
		return "", err
	}
	data, err := codec.Marshal(e.set.Layer(k), e.transform)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (e *Engine) pointer(jsonData string, fn func(editor.PointerEvent)) error {
	var ev editor.PointerEvent
	if err := json.Unmarshal([]byte(jsonData), &ev); err != nil {
		return fmt.Errorf("invalid pointer event: %w", err)
	}
	fn(ev)
	return nil
}

func (e *Engine) PointerDown(jsonData string) error {
	return e.pointer(jsonData, e.session.PointerDown)
}

func (e *Engine) PointerMove(jsonData string) error {
	return e.pointer(jsonData, e.session.PointerMove)
}

func (e *Engine) PointerUp(jsonData string) error {
	return e.pointer(jsonData, e.session.PointerUp)
}

func (e *Engine) KeyDown(key string) { e.session.KeyDown(key) }

// Command runs an editor.Command given as JSON. An interpolate command
// returns its report as JSON; every other command returns "".
func (e *Engine) Command(jsonData string) (string, error) {
	var cmd editor.Command
	if err := json.Unmarshal([]byte(jsonData), &cmd); err != nil {
		return "", fmt.Errorf("invalid command: %w", err)
	}
	report, err := e.session.Apply(cmd)
	if err != nil || report == nil {
		return "", err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// --- Queries (frontend ← backend) ---

// Render returns the current frame's draw commands as JSON.
func (e *Engine) Render() string {
	out, err := editor.DrawCommandsToJSON(e.session.Render())
	if err != nil {
		return "[]"
	}
	return out
}

// GetView returns the session view as JSON.
func (e *Engine) GetView() string {
	return toJSON(e.session.View(), "{}")
}

// TakeNotices returns and clears pending operator notices as JSON.
func (e *Engine) TakeNotices() string {
	notices := e.session.TakeNotices()
	if notices == nil {
		notices = []editor.Notice{}
	}
	return toJSON(notices, "[]")
}

// GetMarks returns the timeline marks of the active layer as JSON.
func (e *Engine) GetMarks() string {
	kind := annotation.KindBox
	if e.session.Tool() == editor.ToolPolygon {
		kind = annotation.KindPolygon
	}
	marks := e.set.Layer(kind).Marks()
	if marks == nil {
		marks = []annotation.Mark{}
	}
	return toJSON(marks, "[]")
}

func (e *Engine) GetCanvasSize() (float64, float64) {
	return e.opts.CanvasWidth, e.opts.CanvasHeight
}

func toJSON(v any, fallback string) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(data)
}
