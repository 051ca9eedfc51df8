package editor

import (
	"encoding/json"
	"fmt"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/geom"
)

// PathCommand is a single path segment in Canvas2D form: ["M", x, y],
// ["L", x, y] or ["Z"].
type PathCommand []any

// DrawCommand is one drawing operation for the host canvas. Op is "path",
// "circle" or "label". Index correlates a command with its shape and is -1 for
// overlays. Commands are in painter's order (back to front).
type DrawCommand struct {
	Op          string        `json:"op"`
	Index       int           `json:"index"`
	Path        []PathCommand `json:"path,omitempty"`
	X           float64       `json:"x,omitempty"`
	Y           float64       `json:"y,omitempty"`
	Radius      float64       `json:"radius,omitempty"`
	Text        string        `json:"text,omitempty"`
	Fill        string        `json:"fill,omitempty"`
	Stroke      string        `json:"stroke,omitempty"`
	StrokeWidth float64       `json:"strokeWidth,omitempty"`
	Dash        []float64     `json:"dash,omitempty"`
	Opacity     float64       `json:"opacity,omitempty"`
}

// RenderOptions are the presentation switches of Render. HandleRadius sizes
// the vertex handles of a selected polygon.
type RenderOptions struct {
	Classes      annotation.Classes
	ShowLabels   bool
	HandleRadius float64
}

const (
	strokeWidth         = 2
	selectedStrokeWidth = 3
)

var flaggedDash = []float64{6, 4}

// Render compiles one frame's shapes into draw commands. Hidden shapes are
// skipped. selected is the highlighted index or -1.
func Render(shapes []annotation.Shape, selected int, opts RenderOptions) []DrawCommand {
	var cmds []DrawCommand
	for i := len(shapes) - 1; i >= 0; i-- {
		shape := shapes[i]
		if !shape.Visible {
			continue
		}
		cmds = append(cmds, shapeCommand(i, shape, i == selected, opts.Classes))
		if shape.Kind == annotation.KindPolygon && i == selected {
			for _, p := range shape.Points {
				cmds = append(cmds, DrawCommand{
					Op:     "circle",
					Index:  i,
					X:      p.X,
					Y:      p.Y,
					Radius: opts.HandleRadius,
					Fill:   opts.Classes.Stroke(shape.Class),
				})
			}
		}
		if opts.ShowLabels {
			cmds = append(cmds, labelCommand(i, shape, opts.Classes))
		}
	}
	return cmds
}

func shapeCommand(i int, shape annotation.Shape, selected bool, classes annotation.Classes) DrawCommand {
	cmd := DrawCommand{
		Op:          "path",
		Index:       i,
		Stroke:      classes.Stroke(shape.Class),
		StrokeWidth: strokeWidth,
	}
	if selected {
		cmd.StrokeWidth = selectedStrokeWidth
	}
	if shape.Interpolate {
		cmd.Dash = flaggedDash
	}

	switch shape.Kind {
	case annotation.KindBox:
		b := geom.Normalize(shape.Box, 0, 0)
		cmd.Path = []PathCommand{
			{"M", b.X, b.Y},
			{"L", b.Right(), b.Y},
			{"L", b.Right(), b.Bottom()},
			{"L", b.X, b.Bottom()},
			{"Z"},
		}
	case annotation.KindPolygon:
		cmd.Path = ringPath(shape.Points, true)
		if style, ok := classes[shape.Class]; ok {
			cmd.Fill = style.FillColor
		}
	}
	return cmd
}

func labelCommand(i int, shape annotation.Shape, classes annotation.Classes) DrawCommand {
	text := shape.Class
	if shape.Interpolate && shape.InterpolationNumber != nil {
		text = fmt.Sprintf("%s (%d)", shape.Class, *shape.InterpolationNumber)
	}
	var at geom.Point
	if shape.Kind == annotation.KindPolygon {
		at = shape.Points.Centroid()
	} else {
		b := geom.Normalize(shape.Box, 0, 0)
		at = geom.Point{X: b.X, Y: b.Y}
	}
	return DrawCommand{
		Op:    "label",
		Index: i,
		X:     at.X,
		Y:     at.Y,
		Text:  text,
		Fill:  classes.Stroke(shape.Class),
	}
}

func ringPath(points geom.Ring, closed bool) []PathCommand {
	if len(points) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(points)+1)
	path = append(path, PathCommand{"M", points[0].X, points[0].Y})
	for _, p := range points[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	if closed {
		path = append(path, PathCommand{"Z"})
	}
	return path
}

// Render draws the current frame of the active layer plus any polygon being
// drawn.
func (s *Session) Render() []DrawCommand {
	cmds := Render(s.layer().Shapes(s.frame), s.selected, RenderOptions{
		Classes:      s.classes,
		ShowLabels:   s.showLabels,
		HandleRadius: s.opts.VertexThreshold / 2,
	})

	st, drawing := s.state.(DrawingPolygon)
	if !drawing || len(st.Points) == 0 {
		return cmds
	}
	stroke := s.classes.Stroke(s.class)
	cmds = append(cmds, DrawCommand{
		Op:          "path",
		Index:       -1,
		Path:        ringPath(st.Points, false),
		Stroke:      stroke,
		StrokeWidth: strokeWidth,
	})
	for i, p := range st.Points {
		cmd := DrawCommand{Op: "circle", Index: -1, X: p.X, Y: p.Y, Radius: s.opts.VertexThreshold / 2, Fill: stroke}
		if i == 0 {
			// Closing target.
			cmd.Radius = s.opts.VertexThreshold
			cmd.Fill = ""
			cmd.Stroke = stroke
			cmd.StrokeWidth = strokeWidth
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
