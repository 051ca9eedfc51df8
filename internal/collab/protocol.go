package collab

import (
	"encoding/json"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
)

type Message struct {
	Type     string          `json:"type"`
	VideoID  string          `json:"videoId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Frame       int        `json:"frame"`
	Selection   int        `json:"selection"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Editing input
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"
	TypeKeyDown     = "key.down"
	TypeCommand     = "command" // payload is an editor.Command

	// Editing output
	TypeRender       = "render" // payload is an editor.View
	TypeNotice       = "notice"
	TypeInterpolated = "interpolate.result"
)

// WelcomePayload is the payload for welcome messages
type WelcomePayload struct {
	ClientID     string             `json:"clientId"`
	RoomID       string             `json:"roomId"`
	SessionID    string             `json:"sessionId"`
	TotalFrames  int                `json:"totalFrames"`
	CanvasWidth  float64            `json:"canvasWidth"`
	CanvasHeight float64            `json:"canvasHeight"`
	Classes      annotation.Classes `json:"classes"`
}

// KeyPayload is the payload for key.down messages
type KeyPayload struct {
	Key string `json:"key"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
