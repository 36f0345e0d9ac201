package websocket

import (
	"encoding/json"
	"fmt"
)

type EventType string

const (
	// Outbound room events.
	EventChatHistory    EventType = "chat:history"
	EventNewMessage     EventType = "new_message"
	EventTyping         EventType = "chat:typing"
	EventMemberUpdate   EventType = "chat:member_update"
	EventContactsUpdate EventType = "contacts:update"
	EventFriendUpdate   EventType = "friend:update"
	EventProfileUpdate  EventType = "profile:update"
	EventAvatarUpdated  EventType = "profile:avatar-updated"

	// EventResult is the direct ack every inbound handler produces for
	// the calling connection.
	EventResult EventType = "result"
)

type Event struct {
	Type    EventType   `json:"type"`
	Ref     string      `json:"ref,omitempty"`
	Payload interface{} `json:"payload"`
	Meta    *EventMeta  `json:"meta,omitempty"`
}

type EventMeta struct {
	Timestamp int64 `json:"timestamp"`
	ChatID    int   `json:"chat_id,omitempty"`
	SenderID  int   `json:"sender_id,omitempty"`
}

// InboundFrame is what clients send: a named event, an optional
// correlation ref echoed back on the ack, and the event payload.
type InboundFrame struct {
	Event string          `json:"event"`
	Ref   string          `json:"ref,omitempty"`
	Data  json.RawMessage `json:"data"`
}

func UserRoom(userID int) string {
	return fmt.Sprintf("user_%d", userID)
}

func ChatRoom(chatID int) string {
	return fmt.Sprintf("chat_%d", chatID)
}
