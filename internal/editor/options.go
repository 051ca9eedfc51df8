// Package editor turns pointer and keyboard events into annotation store
// mutations. One Session exists per canvas.
package editor

import "github.com/osu-uwrt/data-collection-webapp/internal/geom"

// Options are the hit-test tolerances and size limits of a session.
type Options struct {
	MinWidth        float64
	MinHeight       float64
	CornerSize      float64
	SideThreshold   float64
	VertexThreshold float64
	CanvasWidth     float64
	CanvasHeight    float64
}

// DefaultOptions returns the stock tolerances for a 1440x800 canvas.
func DefaultOptions() Options {
	return Options{
		MinWidth:        geom.DefaultMinWidth,
		MinHeight:       geom.DefaultMinHeight,
		CornerSize:      10,
		SideThreshold:   5,
		VertexThreshold: 10,
		CanvasWidth:     1440,
		CanvasHeight:    800,
	}
}

// Tool selects which shape kind the session edits.
type Tool int

const (
	ToolBox Tool = iota
	ToolPolygon
)

func (t Tool) String() string {
	if t == ToolPolygon {
		return "polygon"
	}
	return "box"
}

// Button identifies the pointer button of an event.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Modifiers are the keyboard modifiers held during an event.
type Modifiers struct {
	Shift   bool `json:"shift"`
	Control bool `json:"control"`
}

// PointerEvent is a pointer down, move or up in canvas pixels. Held is set on
// a move while the primary button is pressed.
type PointerEvent struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Button Button    `json:"button"`
	Held   bool      `json:"held"`
	Mods   Modifiers `json:"mods"`
}

func (e PointerEvent) point() geom.Point {
	return geom.Point{X: e.X, Y: e.Y}
}

// Cursor is a CSS cursor name hinted to the host.
type Cursor string

const (
	CursorDefault   Cursor = "default"
	CursorMove      Cursor = "move"
	CursorNWSE      Cursor = "nwse-resize"
	CursorNESW      Cursor = "nesw-resize"
	CursorNS        Cursor = "ns-resize"
	CursorEW        Cursor = "ew-resize"
	CursorCrosshair Cursor = "crosshair"
	CursorPointer   Cursor = "pointer"
)

// NoticeLevel grades an operator-facing message.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is an advisory message for the operator. None of them stop editing.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
