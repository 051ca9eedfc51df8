package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/editor"
	"github.com/osu-uwrt/data-collection-webapp/internal/interpolate"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrNoSession      = errors.New("client has no session")
)

// Workspace is what a room edits: the annotation set of one video in canvas
// coordinates plus the frame count and canvas size its sessions need.
type Workspace struct {
	Set          *annotation.Set
	TotalFrames  int
	CanvasWidth  float64
	CanvasHeight float64
}

// Loader fetches the workspace of a video when its first client joins.
type Loader func(videoID string) (*Workspace, error)

// Saver persists a snapshot of a video's set.
type Saver func(videoID string, set *annotation.Set) error

// WorkspaceState holds the authoritative set of a room and one editor
// session per client. All editing goes through its lock, so events from
// different clients are applied one at a time.
type WorkspaceState struct {
	mu        sync.Mutex
	ws        *Workspace
	sessions  map[string]*editor.Session
	serverSeq int64
	dirty     bool
	cancel    []func()
}

// NewWorkspaceState wraps ws and starts tracking changes to its set.
func NewWorkspaceState(ws *Workspace) *WorkspaceState {
	st := &WorkspaceState{
		ws:       ws,
		sessions: make(map[string]*editor.Session),
	}
	markDirty := func(annotation.Change) { st.dirty = true }
	st.cancel = []func(){
		ws.Set.Boxes.Observe(markDirty),
		ws.Set.Polygons.Observe(markDirty),
	}
	return st
}

// Open creates the session of a client.
func (st *WorkspaceState) Open(clientID string, opts editor.Options, classes annotation.Classes) *editor.Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.ws.CanvasWidth > 0 && st.ws.CanvasHeight > 0 {
		opts.CanvasWidth = st.ws.CanvasWidth
		opts.CanvasHeight = st.ws.CanvasHeight
	}
	s := editor.NewSession(st.ws.Set, opts, classes)
	s.SetTotalFrames(st.ws.TotalFrames)
	st.sessions[clientID] = s
	return s
}

// Close drops the session of a client and reports how many remain.
func (st *WorkspaceState) Close(clientID string) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[clientID]; ok {
		s.Close()
		delete(st.sessions, clientID)
	}
	return len(st.sessions)
}

// Release stops change tracking. The state must not be used afterwards.
func (st *WorkspaceState) Release() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, c := range st.cancel {
		c()
	}
	st.cancel = nil
}

// TakeSnapshot returns a copy of the set if it changed since the last
// snapshot.
func (st *WorkspaceState) TakeSnapshot() (*annotation.Set, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.dirty {
		return nil, false
	}
	st.dirty = false
	return st.ws.Set.Clone(), true
}

// MarkDirty flags the set for saving again, after a failed save.
func (st *WorkspaceState) MarkDirty() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.dirty = true
}

// Outcome is what applying one message produced.
type Outcome struct {
	Seq     int64
	Notices []editor.Notice
	Report  *interpolate.Report
}

// Apply runs one editing message against the sender's session.
func (st *WorkspaceState) Apply(clientID string, msg *Message) (Outcome, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[clientID]
	if !ok {
		return Outcome{}, ErrNoSession
	}

	var out Outcome
	if err := st.applyLocked(s, msg, &out); err != nil {
		s.TakeNotices()
		return Outcome{}, err
	}
	st.serverSeq++
	out.Seq = st.serverSeq
	out.Notices = s.TakeNotices()
	return out, nil
}

// applyLocked applies the message without locking (caller must hold lock)
func (st *WorkspaceState) applyLocked(s *editor.Session, msg *Message, out *Outcome) error {
	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp:
		var e editor.PointerEvent
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			return fmt.Errorf("invalid pointer payload: %w", err)
		}
		switch msg.Type {
		case TypePointerDown:
			s.PointerDown(e)
		case TypePointerMove:
			s.PointerMove(e)
		default:
			s.PointerUp(e)
		}
		return nil
	case TypeKeyDown:
		var k KeyPayload
		if err := json.Unmarshal(msg.Payload, &k); err != nil {
			return fmt.Errorf("invalid key payload: %w", err)
		}
		s.KeyDown(k.Key)
		return nil
	case TypeCommand:
		var cmd editor.Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			return fmt.Errorf("invalid command payload: %w", err)
		}
		report, err := s.Apply(cmd)
		out.Report = report
		return err
	default:
		return fmt.Errorf("%s: %w", msg.Type, ErrUnknownMessage)
	}
}

// Views renders every session. Keys are client IDs.
func (st *WorkspaceState) Views() map[string]editor.View {
	st.mu.Lock()
	defer st.mu.Unlock()

	views := make(map[string]editor.View, len(st.sessions))
	for id, s := range st.sessions {
		views[id] = s.View()
	}
	return views
}

// View renders one client's session.
func (st *WorkspaceState) View(clientID string) (editor.View, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[clientID]
	if !ok {
		return editor.View{}, false
	}
	return s.View(), true
}
