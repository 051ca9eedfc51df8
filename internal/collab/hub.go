package collab

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/editor"
	"github.com/osu-uwrt/data-collection-webapp/internal/typeid"
)

const autosaveInterval = 30 * time.Second

var ErrHubStopped = errors.New("hub stopped")

type Room struct {
	id       string
	videoID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *WorkspaceState
}

func NewRoom(videoID string, ws *Workspace) *Room {
	return &Room{
		id:       typeid.NewRoomID(),
		videoID:  videoID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    NewWorkspaceState(ws),
	}
}

// Hub owns one room per video being edited. The first client of a video
// loads its workspace; the last one to leave saves it.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // videoID -> room
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	// live holds a video from before its room loads until its final save,
	// and is read without mu so a loader may take its own locks.
	live sync.Map

	load    Loader
	save    Saver
	opts    editor.Options
	classes annotation.Classes
}

func NewHub(load Loader, save Saver, opts editor.Options) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		load:       load,
		save:       save,
		opts:       opts,
		classes:    annotation.DefaultClasses(),
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(autosaveInterval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.saveAll()
		case <-h.stop:
			h.saveAll()
			return
		}
	}
}

// Stop saves every changed room and ends Run. It is safe to call more
// than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Live reports whether a video has a room, counting one that is still
// loading or making its final save.
func (h *Hub) Live(videoID string) bool {
	_, ok := h.live.Load(videoID)
	return ok
}

// Flush saves a live room now if it has unsaved changes.
func (h *Hub) Flush(videoID string) error {
	h.mu.RLock()
	room, ok := h.rooms[videoID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return h.saveRoom(room)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.VideoID]
	if !ok {
		h.live.Store(client.VideoID, struct{}{})
		ws, err := h.load(client.VideoID)
		if err != nil {
			h.live.Delete(client.VideoID)
			h.mu.Unlock()
			slog.Error("load workspace", "error", err, "video", client.VideoID)
			client.Send(errorMessage("could not load annotations"))
			close(client.send)
			return
		}
		room = NewRoom(client.VideoID, ws)
		h.rooms[client.VideoID] = room
		slog.Info("room opened", "room", room.id, "video", client.VideoID)
	}
	room.state.Open(client.ClientID, h.opts, h.classes)
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	room.presence.Update(client.ClientID, &PresencePayload{Selection: -1, DisplayName: client.DisplayName})

	welcome, _ := json.Marshal(WelcomePayload{
		ClientID:     client.ClientID,
		RoomID:       room.id,
		SessionID:    typeid.NewSessionID(),
		TotalFrames:  room.state.ws.TotalFrames,
		CanvasWidth:  room.state.ws.CanvasWidth,
		CanvasHeight: room.state.ws.CanvasHeight,
		Classes:      h.classes,
	})
	client.Send(&Message{Type: TypeWelcome, VideoID: client.VideoID, Payload: welcome})

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}
	if v, ok := room.state.View(client.ClientID); ok {
		client.Send(renderMessage(v, 0))
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:     TypePresenceJoin,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload:  joinPayload,
	}
	h.broadcastToRoom(client.VideoID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "video", client.VideoID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.VideoID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, member := room.clients[client.ClientID]; !member {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.ClientID)
	remaining := room.state.Close(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.VideoID)
	}
	h.mu.Unlock()

	if empty {
		if err := h.saveRoom(room); err != nil {
			slog.Error("save on close", "error", err, "video", client.VideoID)
		}
		room.state.Release()
		h.live.Delete(client.VideoID)
		slog.Info("room closed", "room", room.id, "video", client.VideoID)
		return
	}

	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:     TypePresenceLeave,
		UserID:   client.UserID,
		ClientID: client.ClientID,
		Payload:  leavePayload,
	}
	h.broadcastToRoom(client.VideoID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "video", client.VideoID, "remaining", remaining)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		h.handleEdit(sender, msg)
	}
}

// roomOf returns the room c belongs to. A client whose workspace failed to
// load has none.
func (h *Hub) roomOf(c *Client) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[c.VideoID]
	if !ok || room.clients[c.ClientID] != c {
		return nil, false
	}
	return room, true
}

func (h *Hub) handleEdit(sender *Client, msg *Message) {
	room, ok := h.roomOf(sender)
	if !ok {
		return
	}

	out, err := room.state.Apply(sender.ClientID, msg)
	if err != nil {
		slog.Debug("edit rejected", "error", err, "type", msg.Type, "user", sender.UserID)
		sender.Send(errorMessage(err.Error()))
	}
	for _, n := range out.Notices {
		payload, _ := json.Marshal(n)
		sender.Send(&Message{Type: TypeNotice, Payload: payload})
	}
	if out.Report != nil {
		payload, _ := json.Marshal(out.Report)
		h.broadcastToRoom(sender.VideoID, &Message{Type: TypeInterpolated, UserID: sender.UserID, Seq: out.Seq, Payload: payload}, "")
	}

	views := room.state.Views()
	if v, ok := views[sender.ClientID]; ok {
		room.presence.Update(sender.ClientID, &PresencePayload{
			Frame:       v.Frame,
			Selection:   v.Selection,
			DisplayName: sender.DisplayName,
		})
	}

	// Edits by one client can invalidate what every other client sees.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range room.clients {
		if v, ok := views[id]; ok {
			c.Send(renderMessage(v, out.Seq))
		}
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.roomOf(sender)
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:     TypePresenceUpdate,
		UserID:   sender.UserID,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}
	h.broadcastToRoom(sender.VideoID, outMsg, sender.ClientID)
}

// broadcastToRoom sends under the read lock so removeClient cannot close a
// send channel mid-broadcast.
func (h *Hub) broadcastToRoom(videoID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[videoID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

func (h *Hub) saveRoom(room *Room) error {
	set, changed := room.state.TakeSnapshot()
	if !changed {
		return nil
	}
	if err := h.save(room.videoID, set); err != nil {
		room.state.MarkDirty()
		return err
	}
	slog.Info("annotations saved", "video", room.videoID)
	return nil
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		if err := h.saveRoom(r); err != nil {
			slog.Error("autosave", "error", err, "video", r.videoID)
		}
	}
}

func renderMessage(v editor.View, seq int64) *Message {
	payload, _ := json.Marshal(v)
	return &Message{Type: TypeRender, Seq: seq, Payload: payload}
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: payload}
}
