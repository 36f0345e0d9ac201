package controller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	"NovaTalkAPI/internal/guard"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
	"NovaTalkAPI/internal/service"
	"NovaTalkAPI/internal/websocket"
)

// EventController binds every inbound session event to its service
// call and shapes the ack payloads.
type EventController struct {
	hub       *websocket.Hub
	validator *validator.Validate
	guard     *guard.Guard
	profiles  *service.ProfileService
	chats     *service.ChatService
	groups    *service.GroupService
	messages  *service.MessageService
	friends   *service.FriendService
	contacts  *service.ContactService
}

func NewEventController(
	hub *websocket.Hub,
	v *validator.Validate,
	g *guard.Guard,
	profiles *service.ProfileService,
	chats *service.ChatService,
	groups *service.GroupService,
	messages *service.MessageService,
	friends *service.FriendService,
	contacts *service.ContactService,
) *EventController {
	return &EventController{
		hub:       hub,
		validator: v,
		guard:     g,
		profiles:  profiles,
		chats:     chats,
		groups:    groups,
		messages:  messages,
		friends:   friends,
		contacts:  contacts,
	}
}

// RegisterHandlers installs the full inbound event table. Called once
// at bootstrap, before the hub runs.
func (c *EventController) RegisterHandlers() {
	c.hub.RegisterHandler("initialize", c.handleInitialize)
	c.hub.RegisterHandler("chat:open", c.handleChatOpen)
	c.hub.RegisterHandler("chat:leave", c.handleChatLeave)
	c.hub.RegisterHandler("chat:typing", c.handleTyping)
	c.hub.RegisterHandler("chat:stop_typing", c.handleStopTyping)
	c.hub.RegisterHandler("send_message", c.handleSendMessage)
	c.hub.RegisterHandler("chat:create", c.handleChatCreate)
	c.hub.RegisterHandler("group:invite", c.handleGroupInvite)
	c.hub.RegisterHandler("group:respond", c.handleGroupRespond)
	c.hub.RegisterHandler("contacts:search", c.handleContactsSearch)
	c.hub.RegisterHandler("friend:send_request", c.handleFriendSendRequest)
	c.hub.RegisterHandler("friend:respond", c.handleFriendRespond)
	c.hub.RegisterHandler("friend:cancel", c.handleFriendCancel)
	c.hub.RegisterHandler("friend:remove", c.handleFriendRemove)
	c.hub.RegisterHandler("friend:block", c.handleFriendBlock)
	c.hub.RegisterHandler("friend:unblock", c.handleFriendUnblock)
	c.hub.RegisterHandler("me:update", c.handleMeUpdate)
}

// decode unmarshals and validates one inbound payload.
func (c *EventController) decode(data json.RawMessage, out interface{}) error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return helper.NewBadRequestError("Malformed payload")
		}
	}
	if err := c.validator.Struct(out); err != nil {
		return helper.NewBadRequestError("Invalid payload")
	}
	return nil
}

// fail shapes a service error into the ack payload.
func fail(err error) map[string]interface{} {
	var appErr *helper.AppError
	if !errors.As(err, &appErr) {
		appErr = helper.NewInternalServerError("")
	}
	return map[string]interface{}{
		"ok":    false,
		"error": appErr.Message,
		"code":  appErr.Code,
	}
}

// handleInitialize snapshots the caller's world (profile, chats,
// contacts) and reconciles this connection's room subscriptions with
// current membership.
func (c *EventController) handleInitialize(ctx context.Context, client *websocket.Client, _ json.RawMessage) interface{} {
	user, err := c.profiles.Snapshot(ctx, client.UserID)
	if err != nil {
		return fail(err)
	}

	chats, err := c.chats.Summaries(ctx, client.UserID)
	if err != nil {
		return fail(err)
	}

	contacts, err := c.contacts.Collect(ctx, client.UserID)
	if err != nil {
		return fail(err)
	}

	c.hub.Subscribe(client, websocket.UserRoom(client.UserID))
	for i := range chats {
		c.hub.Subscribe(client, websocket.ChatRoom(chats[i].ID))
	}

	state := model.InitialState{
		User:     user,
		Chats:    chats,
		Contacts: contacts,
		UI: model.UIState{
			PendingCount:        len(contacts.Incoming),
			PendingGroupInvites: len(contacts.GroupInvites.Incoming),
		},
	}
	return map[string]interface{}{"ok": true, "state": state}
}

// handleChatOpen joins this connection to the chat room and pushes the
// full history to it before acking with the summary.
func (c *EventController) handleChatOpen(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.ChatRefRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	isMember, err := c.guard.IsChatMember(ctx, req.ChatID, client.UserID)
	if err != nil {
		return fail(helper.NewInternalServerError(""))
	}
	if !isMember {
		return fail(helper.NewNotFoundError("Chat not found"))
	}

	summary, err := c.chats.SummaryByID(ctx, req.ChatID, client.UserID)
	if err != nil {
		return fail(err)
	}

	history, err := c.chats.History(ctx, req.ChatID)
	if err != nil {
		return fail(err)
	}

	c.hub.Subscribe(client, websocket.ChatRoom(req.ChatID))
	client.SendEvent(websocket.Event{
		Type: websocket.EventChatHistory,
		Payload: map[string]interface{}{
			"chat_id":  req.ChatID,
			"messages": history,
		},
	})

	return map[string]interface{}{"ok": true, "chat": summary}
}

func (c *EventController) handleChatLeave(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.ChatRefRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	c.hub.Unsubscribe(client, websocket.ChatRoom(req.ChatID))
	return map[string]interface{}{"ok": true}
}

func (c *EventController) handleTyping(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.TypingRequest
	if err := c.decode(data, &req); err != nil {
		return nil
	}
	c.messages.Typing(ctx, client.User, client, req.ChatID, true)
	return nil
}

func (c *EventController) handleStopTyping(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.TypingRequest
	if err := c.decode(data, &req); err != nil {
		return nil
	}
	c.messages.Typing(ctx, client.User, client, req.ChatID, false)
	return nil
}

func (c *EventController) handleSendMessage(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.SendMessageRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	dto, err := c.messages.Send(ctx, client.User, req)
	if err != nil {
		return fail(err)
	}
	return map[string]interface{}{"ok": true, "message": dto}
}

// handleChatCreate dispatches on the requested chat type: groups need
// a name, direct chats a target user.
func (c *EventController) handleChatCreate(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.CreateChatRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	if req.Type == "group" || (req.Type == "" && req.Name != "") {
		summary, invites, err := c.groups.Create(ctx, client.User, req.Name, req.Refs())
		if err != nil {
			return fail(err)
		}
		return map[string]interface{}{"ok": true, "chat": summary, "invites": invites}
	}

	summary, err := c.chats.OpenDirect(ctx, client.User, req.UserID, req.Username)
	if err != nil {
		return fail(err)
	}
	c.hub.Subscribe(client, websocket.ChatRoom(summary.ID))
	return map[string]interface{}{"ok": true, "chat": summary}
}

func (c *EventController) handleGroupInvite(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.GroupInviteRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	invites, err := c.groups.Invite(ctx, client.User, req.ChatID, req.Refs())
	if err != nil {
		return fail(err)
	}
	return map[string]interface{}{"ok": true, "invites": invites}
}

func (c *EventController) handleGroupRespond(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.GroupRespondRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	status, summary, err := c.groups.Respond(ctx, client.User, req.InviteID, req.Action)
	if err != nil {
		return fail(err)
	}

	result := map[string]interface{}{"ok": true, "status": status}
	if summary != nil {
		// The fresh member gets the room and its backlog right away.
		c.hub.Subscribe(client, websocket.ChatRoom(summary.ID))
		history, err := c.chats.History(ctx, summary.ID)
		if err == nil {
			client.SendEvent(websocket.Event{
				Type: websocket.EventChatHistory,
				Payload: map[string]interface{}{
					"chat_id":  summary.ID,
					"messages": history,
				},
			})
		}
		result["chat"] = summary
	}
	return result
}

func (c *EventController) handleContactsSearch(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.SearchRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	results, err := c.contacts.Search(ctx, client.UserID, req.Query)
	if err != nil {
		return fail(err)
	}
	return map[string]interface{}{"ok": true, "results": results}
}

func (c *EventController) handleFriendSendRequest(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.FriendSendRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	result, err := c.friends.SendRequest(ctx, client.User, req)
	if err != nil {
		return fail(err)
	}
	return result
}

func (c *EventController) handleFriendRespond(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.FriendRespondRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	status, err := c.friends.Respond(ctx, client.User, req)
	if err != nil {
		return fail(err)
	}
	return map[string]interface{}{"ok": true, "status": status}
}

func (c *EventController) handleFriendCancel(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.FriendCancelRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	if err := c.friends.Cancel(ctx, client.User, req.RequestID); err != nil {
		return fail(err)
	}
	return map[string]interface{}{"ok": true}
}

func (c *EventController) handleFriendRemove(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.FriendRemoveRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	if err := c.friends.Remove(ctx, client.User, req.FriendID); err != nil {
		return fail(err)
	}
	return map[string]interface{}{"ok": true}
}

func (c *EventController) handleFriendBlock(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.BlockRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	if err := c.friends.Block(ctx, client.User, req.UserID); err != nil {
		return fail(err)
	}
	return map[string]interface{}{"ok": true}
}

func (c *EventController) handleFriendUnblock(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.BlockRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	if err := c.friends.Unblock(ctx, client.User, req.UserID); err != nil {
		return fail(err)
	}
	return map[string]interface{}{"ok": true}
}

func (c *EventController) handleMeUpdate(ctx context.Context, client *websocket.Client, data json.RawMessage) interface{} {
	var req model.UpdateProfileRequest
	if err := c.decode(data, &req); err != nil {
		return fail(err)
	}

	user, err := c.profiles.UpdateMe(ctx, client.User, req)
	if err != nil {
		return fail(err)
	}
	return map[string]interface{}{"ok": true, "user": user}
}
