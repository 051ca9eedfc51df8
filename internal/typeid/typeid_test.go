package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndValidate(t *testing.T) {
	id := NewSessionID()
	assert.True(t, strings.HasPrefix(id, "sess_"))
	assert.NoError(t, Validate(id, PrefixSession))
	assert.Error(t, Validate(id, PrefixRoom))
	assert.Error(t, Validate("not an id", PrefixSession))
	assert.NotEqual(t, NewRoomID(), NewRoomID())
}
