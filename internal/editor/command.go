package editor

import (
	"errors"
	"fmt"

	"github.com/osu-uwrt/data-collection-webapp/internal/interpolate"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command names
const (
	CmdSetFrame         = "setFrame"
	CmdStepFrame        = "stepFrame"
	CmdSelect           = "select"
	CmdDeleteSelected   = "deleteSelected"
	CmdDeleteAll        = "deleteAll"
	CmdToggleVisible    = "toggleVisible"
	CmdToggleAllVisible = "toggleAllVisible"
	CmdSetClass         = "setClass"
	CmdSetInterpolate   = "setInterpolate"
	CmdMoveSelected     = "moveSelected"
	CmdInterpolate      = "interpolate"
	CmdSetTool          = "setTool"
	CmdSetCarryOver     = "setCarryOver"
	CmdSetShowLabels    = "setShowLabels"
)

// Command is a serialisable session operation for hosts that talk JSON.
// Only the fields the named command uses are read.
type Command struct {
	Name string `json:"name"`

	// For setFrame, stepFrame
	Frame int `json:"frame,omitempty"`
	Delta int `json:"delta,omitempty"`

	// For select, moveSelected
	Index int `json:"index,omitempty"`

	// For setClass
	Class string `json:"class,omitempty"`

	// For setInterpolate, setCarryOver, setShowLabels
	On bool `json:"on,omitempty"`

	// For setTool
	Tool string `json:"tool,omitempty"`
}

// Apply runs cmd. The report is non-nil only for a successful interpolate.
func (s *Session) Apply(cmd Command) (*interpolate.Report, error) {
	switch cmd.Name {
	case CmdSetFrame:
		s.SetFrame(cmd.Frame)
	case CmdStepFrame:
		s.StepFrame(cmd.Delta)
	case CmdSelect:
		s.Select(cmd.Index)
	case CmdDeleteSelected:
		return nil, s.DeleteSelected()
	case CmdDeleteAll:
		s.DeleteAll()
	case CmdToggleVisible:
		return nil, s.ToggleSelectedVisible()
	case CmdToggleAllVisible:
		s.ToggleAllVisible()
	case CmdSetClass:
		return nil, s.SetClass(cmd.Class)
	case CmdSetInterpolate:
		return nil, s.SetInterpolate(cmd.On)
	case CmdMoveSelected:
		return nil, s.MoveSelected(cmd.Index)
	case CmdInterpolate:
		report, err := s.Interpolate()
		if err != nil {
			return nil, err
		}
		return &report, nil
	case CmdSetTool:
		switch cmd.Tool {
		case ToolBox.String():
			s.SetTool(ToolBox)
		case ToolPolygon.String():
			s.SetTool(ToolPolygon)
		default:
			return nil, fmt.Errorf("tool %q: %w", cmd.Tool, ErrUnknownCommand)
		}
	case CmdSetCarryOver:
		s.SetCarryOver(cmd.On)
	case CmdSetShowLabels:
		s.SetShowLabels(cmd.On)
	default:
		return nil, fmt.Errorf("%q: %w", cmd.Name, ErrUnknownCommand)
	}
	return nil, nil
}

// View is a snapshot of what a host needs to draw a session.
type View struct {
	Frame       int           `json:"frame"`
	TotalFrames int           `json:"totalFrames"`
	Tool        string        `json:"tool"`
	State       string        `json:"state"`
	Cursor      Cursor        `json:"cursor"`
	Selection   int           `json:"selection"`
	Commands    []DrawCommand `json:"commands"`
}

func (s *Session) View() View {
	return View{
		Frame:       s.frame,
		TotalFrames: s.totalFrames,
		Tool:        s.tool.String(),
		State:       s.state.Name(),
		Cursor:      s.cursor,
		Selection:   s.selected,
		Commands:    s.Render(),
	}
}
