package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client is one browser canvas connected to a video's room.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	UserID      string
	DisplayName string
	VideoID     string
	ClientID    string

	// frame holds the newest render not yet written. Renders are full
	// snapshots, so a newer one replaces whatever is waiting here.
	frame      chan []byte
	superseded atomic.Int64
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, videoID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		frame:       make(chan []byte, 1),
		UserID:      userID,
		DisplayName: displayName,
		VideoID:     videoID,
		ClientID:    clientID,
	}
}

// ReadPump feeds incoming messages to the hub until the connection closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "user", c.UserID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			continue
		}

		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.VideoID = c.VideoID

		c.hub.handleMessage(c, &msg)
	}
}

// WritePump writes queued messages and the newest render frame, and keeps the
// connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		// Queued messages go first so a frame never overtakes the welcome or
		// the notices sent before it.
		select {
		case message, ok := <-c.send:
			if !ok || !c.write(ctx, message) {
				return
			}
			continue
		default:
		}

		select {
		case message, ok := <-c.send:
			if !ok || !c.write(ctx, message) {
				return
			}

		case message := <-c.frame:
			if !c.write(ctx, message) {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, message []byte) bool {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	err := c.conn.Write(writeCtx, websocket.MessageText, message)
	cancel()
	if err != nil {
		slog.Debug("write error", "error", err, "user", c.UserID)
		return false
	}
	return true
}

// Send queues msg without blocking. A render replaces any render the writer
// has not reached yet; other messages are dropped when the queue is full.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	if msg.Type == TypeRender {
		c.queueFrame(data)
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("client send queue full, dropping message", "user", c.UserID, "type", msg.Type)
	}
}

func (c *Client) queueFrame(data []byte) {
	for {
		select {
		case c.frame <- data:
			return
		default:
		}
		select {
		case <-c.frame:
			c.superseded.Add(1)
		default:
		}
	}
}

// Superseded reports how many render frames were replaced before being written.
func (c *Client) Superseded() int64 {
	return c.superseded.Load()
}
