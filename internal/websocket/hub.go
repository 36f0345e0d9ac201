package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceNotifier is told when a user's first connection arrives and
// when their last connection goes away.
type PresenceNotifier interface {
	UserOnline(userID int)
	UserOffline(userID int)
}

// EventHandler processes one inbound event for a session and returns
// the ack payload sent back to that connection.
type EventHandler func(ctx context.Context, c *Client, data json.RawMessage) interface{}

// Hub owns every connection and the explicit room-subscription sets
// that mirror database membership. Rooms are plain names: one private
// user room per account plus one room per chat.
type Hub struct {
	clients     map[*Client]bool
	userClients map[int]map[*Client]bool
	rooms       map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client

	handlers map[string]EventHandler
	presence PresenceNotifier

	mu sync.RWMutex
}

func NewHub(presence PresenceNotifier) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[int]map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		handlers:    make(map[string]EventHandler),
		presence:    presence,
	}
}

// SetPresence installs the presence notifier. Called once at
// bootstrap, before Run; the notifier usually depends on services
// that themselves hold the hub.
func (h *Hub) SetPresence(presence PresenceNotifier) {
	h.presence = presence
}

// RegisterHandler binds an inbound event name to its handler. Called
// once at bootstrap, before Run.
func (h *Hub) RegisterHandler(event string, handler EventHandler) {
	h.handlers[event] = handler
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			first := false
			if _, ok := h.userClients[client.UserID]; !ok {
				h.userClients[client.UserID] = make(map[*Client]bool)
				first = true
			}
			h.userClients[client.UserID][client] = true
			h.mu.Unlock()

			if first && h.presence != nil {
				go h.presence.UserOnline(client.UserID)
			}

		case client := <-h.Unregister:
			h.mu.Lock()
			last := false
			if _, ok := h.clients[client]; ok {
				h.dropClientLocked(client)
				client.closed = true
				close(client.Send)

				if userSet, ok := h.userClients[client.UserID]; ok {
					delete(userSet, client)
					if len(userSet) == 0 {
						delete(h.userClients, client.UserID)
						last = true
					}
				}
			}
			h.mu.Unlock()

			if last && h.presence != nil {
				go h.presence.UserOffline(client.UserID)
			}
		}
	}
}

// dropClientLocked removes a client and all of its room subscriptions.
// Callers must hold h.mu.
func (h *Hub) dropClientLocked(client *Client) {
	delete(h.clients, client)
	for room := range client.rooms {
		if set, ok := h.rooms[room]; ok {
			delete(set, client)
			if len(set) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// Subscribe adds one connection to a room. It does not wait for the
// run loop to finish registering the client, so handlers fired right
// after connect can subscribe immediately; only a connection already
// dropped by the hub is refused.
func (h *Hub) Subscribe(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
}

// Unsubscribe removes one connection from a room. Membership rows are
// untouched; this only affects what the connection receives.
func (h *Hub) Unsubscribe(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.rooms[room]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

// SubscribeUser adds every active connection of a user to a room,
// keeping multi-device sessions consistent with new membership.
func (h *Hub) SubscribeUser(userID int, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.userClients[userID]
	if !ok {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	for client := range clients {
		h.rooms[room][client] = true
		client.rooms[room] = true
	}
}

// BroadcastToRoom emits an event to every connection subscribed to the
// room, optionally skipping one connection (typing indicators exclude
// their sender).
func (h *Hub) BroadcastToRoom(room string, event Event, skip *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "event", event.Type)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		if client == skip {
			continue
		}
		h.deliverLocked(client, data)
	}
}

// BroadcastToUser emits an event to every connection of one account.
func (h *Hub) BroadcastToUser(userID int, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err, "event", event.Type)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.userClients[userID] {
		h.deliverLocked(client, data)
	}
}

func (h *Hub) deliverLocked(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		// Slow consumer: drop the connection rather than block the hub.
		go func() { h.Unregister <- client }()
	}
}

// IsUserOnline reports whether the account has at least one active
// connection.
func (h *Hub) IsUserOnline(userID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID]) > 0
}

func (h *Hub) handler(event string) (EventHandler, bool) {
	fn, ok := h.handlers[event]
	return fn, ok
}
