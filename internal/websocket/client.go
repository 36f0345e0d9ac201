package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	ws "github.com/gorilla/websocket"

	"NovaTalkAPI/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 20 // base64 attachments ride on these frames
)

// Client is one authenticated connection. Handlers for its inbound
// events run to completion in arrival order; concurrent connections
// from the same user are independent clients sharing rooms.
type Client struct {
	Hub    *Hub
	Conn   *ws.Conn
	Send   chan []byte
	UserID int
	User   *model.UserDTO

	// rooms is this connection's subscription set, guarded by Hub.mu.
	rooms map[string]bool

	// closed is set once the hub has dropped this connection, guarded
	// by Hub.mu. No room may accept the client after that.
	closed bool
}

func NewClient(hub *Hub, conn *ws.Conn, user *model.UserDTO) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: user.ID,
		User:   user,
		rooms:  make(map[string]bool),
	}
}

// SendEvent queues an event for this connection only.
func (c *Client) SendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "event", event.Type)
		return
	}
	select {
	case c.Send <- data:
	default:
		go func() { c.Hub.Unregister <- c }()
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				slog.Warn("Unexpected websocket close", "error", err, "userID", c.UserID)
			}
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.ack(frame.Ref, map[string]interface{}{"ok": false, "error": "Malformed frame"})
			continue
		}

		c.dispatch(frame)
	}
}

func (c *Client) dispatch(frame InboundFrame) {
	handler, ok := c.Hub.handler(frame.Event)
	if !ok {
		c.ack(frame.Ref, map[string]interface{}{"ok": false, "error": "Unsupported event"})
		return
	}

	result := handler(context.Background(), c, frame.Data)
	if result != nil {
		c.ack(frame.Ref, result)
	}
}

func (c *Client) ack(ref string, payload interface{}) {
	c.SendEvent(Event{
		Type:    EventResult,
		Ref:     ref,
		Payload: payload,
	})
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(ws.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
