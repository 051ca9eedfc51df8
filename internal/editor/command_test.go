package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
)

func TestApplyCommands(t *testing.T) {
	s := newSession(t, DefaultOptions())
	s.SetTotalFrames(10)

	_, err := s.Apply(Command{Name: CmdSetClass, Class: "class4"})
	require.NoError(t, err)
	drawBox(s, 10, 10, 40, 40)
	drawBox(s, 100, 100, 140, 140)

	_, err = s.Apply(Command{Name: CmdMoveSelected, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Selection())

	_, err = s.Apply(Command{Name: CmdToggleVisible})
	require.NoError(t, err)
	shape, _ := s.Selected()
	assert.False(t, shape.Visible)
	assert.Equal(t, "class4", shape.Class)

	_, err = s.Apply(Command{Name: CmdSetFrame, Frame: 5})
	require.NoError(t, err)
	_, err = s.Apply(Command{Name: CmdStepFrame, Delta: 10})
	require.NoError(t, err)
	assert.Equal(t, 9, s.Frame())

	_, err = s.Apply(Command{Name: CmdSetTool, Tool: "polygon"})
	require.NoError(t, err)
	assert.Equal(t, ToolPolygon, s.Tool())

	_, err = s.Apply(Command{Name: CmdSetTool, Tool: "lasso"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	_, err = s.Apply(Command{Name: "explode"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	_, err = s.Apply(Command{Name: CmdDeleteSelected})
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestApplyInterpolateReturnsReport(t *testing.T) {
	s := newSession(t, DefaultOptions())
	require.NoError(t, s.SetInterpolate(true))
	drawBox(s, 10, 10, 40, 40)
	s.SetFrame(2)
	drawBox(s, 30, 30, 60, 60)

	report, err := s.Apply(Command{Name: CmdInterpolate})
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, annotation.KindBox, report.Kind)
	assert.Equal(t, 1, report.Synthesized)
	s.TakeNotices()

	report, err = s.Apply(Command{Name: CmdDeleteAll})
	require.NoError(t, err)
	assert.Nil(t, report)
	for _, f := range []int{0, 1, 2} {
		assert.Equal(t, 0, s.Set().Boxes.Len(f))
	}
}

func TestView(t *testing.T) {
	s := newSession(t, DefaultOptions())
	drawBox(s, 10, 10, 40, 40)

	v := s.View()
	assert.Equal(t, "box", v.Tool)
	assert.Equal(t, "idle", v.State)
	assert.Equal(t, 0, v.Selection)
	assert.Equal(t, s.Render(), v.Commands)
}
