package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osu-uwrt/data-collection-webapp/internal/editor"
)

func TestSlowClientGetsNewestFrame(t *testing.T) {
	c := NewClient(nil, nil, "u", "U", "gate", "c1")

	for seq := int64(1); seq <= 3; seq++ {
		c.Send(renderMessage(editor.View{Frame: int(seq)}, seq))
	}
	c.Send(errorMessage("boom"))

	require.Len(t, c.frame, 1)
	var m Message
	require.NoError(t, json.Unmarshal(<-c.frame, &m))
	assert.Equal(t, TypeRender, m.Type)
	assert.Equal(t, int64(3), m.Seq)
	assert.Equal(t, int64(2), c.Superseded())

	require.Len(t, c.send, 1, "non-render messages are queued in order")
	require.NoError(t, json.Unmarshal(<-c.send, &m))
	assert.Equal(t, TypeError, m.Type)
}

func TestFullQueueStillTakesFrames(t *testing.T) {
	c := NewClient(nil, nil, "u", "U", "gate", "c1")
	for i := 0; i < sendBuffer+5; i++ {
		c.Send(errorMessage("noise"))
	}
	assert.Len(t, c.send, sendBuffer)

	c.Send(renderMessage(editor.View{Frame: 7}, 9))
	require.Len(t, c.frame, 1)
	var m Message
	require.NoError(t, json.Unmarshal(<-c.frame, &m))
	assert.Equal(t, int64(9), m.Seq)
	assert.Zero(t, c.Superseded())
}
