package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"NovaTalkAPI/internal/entity"
	"NovaTalkAPI/internal/guard"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
	"NovaTalkAPI/internal/websocket"
)

// MessageService owns the send pipeline: permission checks, attachment
// persistence, the message transaction, and the room broadcast.
type MessageService struct {
	db    *gorm.DB
	guard *guard.Guard
	store BlobStore
	hub   *websocket.Hub
}

func NewMessageService(db *gorm.DB, g *guard.Guard, store BlobStore, hub *websocket.Hub) *MessageService {
	return &MessageService{
		db:    db,
		guard: g,
		store: store,
		hub:   hub,
	}
}

type storedAttachment struct {
	filename string
	mimetype string
}

// storeAttachments decodes and uploads every attachment before any
// database write. On the first failure it deletes what it already
// stored and returns the error untouched.
func (s *MessageService) storeAttachments(ctx context.Context, payloads []model.AttachmentPayload) ([]storedAttachment, error) {
	stored := make([]storedAttachment, 0, len(payloads))
	for _, payload := range payloads {
		data, err := helper.DecodeBase64Payload(payload.Data, "Attachment")
		if err != nil {
			s.deleteStored(ctx, stored)
			return nil, err
		}

		name := helper.NormalizeAttachmentName(payload.Name, "upload.png")
		if !helper.IsAllowedImageName(name) {
			s.deleteStored(ctx, stored)
			return nil, helper.NewBadRequestError("Unsupported attachment type.")
		}

		filename := helper.GenerateUniqueFileName(name)
		mimetype := payload.Mimetype
		if mimetype == "" {
			mimetype = "application/octet-stream"
		}

		if err := s.store.Store(ctx, "messages/"+filename, mimetype, data); err != nil {
			slog.Error("Failed to store attachment", "error", err, "filename", filename)
			s.deleteStored(ctx, stored)
			return nil, helper.NewInternalServerError("Failed to store attachment.")
		}
		stored = append(stored, storedAttachment{filename: filename, mimetype: mimetype})
	}
	return stored, nil
}

func (s *MessageService) deleteStored(ctx context.Context, stored []storedAttachment) {
	for _, att := range stored {
		if err := s.store.Delete(ctx, "messages/"+att.filename); err != nil {
			slog.Error("Failed to delete orphaned attachment", "error", err, "filename", att.filename)
		}
	}
}

// Send validates the sender may post to the chat, persists message and
// attachment rows in one transaction, broadcasts the message to the
// chat room, and returns the DTO for the sender's ack. The client_ref
// is echoed only on the ack, never on the broadcast.
func (s *MessageService) Send(ctx context.Context, sender *model.UserDTO, req model.SendMessageRequest) (model.MessageDTO, error) {
	var chat entity.Chat
	err := s.db.WithContext(ctx).
		Preload("Members").
		First(&chat, req.ChatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.MessageDTO{}, helper.NewNotFoundError("Chat not found")
		}
		slog.Error("Failed to load chat", "error", err, "chatID", req.ChatID)
		return model.MessageDTO{}, helper.NewInternalServerError("")
	}

	isMember := false
	otherIDs := make([]int, 0, len(chat.Members))
	for i := range chat.Members {
		if chat.Members[i].UserID == sender.ID {
			isMember = true
		} else {
			otherIDs = append(otherIDs, chat.Members[i].UserID)
		}
	}
	if !isMember {
		return model.MessageDTO{}, helper.NewNotFoundError("Chat not found")
	}

	if !chat.IsGroup && len(otherIDs) > 0 {
		mutual, err := s.guard.MutualFriends(ctx, sender.ID, otherIDs[0])
		if err != nil {
			slog.Error("Failed to check friendship", "error", err)
			return model.MessageDTO{}, helper.NewInternalServerError("")
		}
		if !mutual {
			return model.MessageDTO{}, helper.NewForbiddenError("You must be friends before you can chat.")
		}
	}

	body := strings.TrimSpace(req.Body)
	if body == "" && len(req.Attachments) == 0 {
		return model.MessageDTO{}, helper.NewBadRequestError("Message cannot be empty.")
	}

	// A block by any other member silences the sender, groups included.
	blocked, err := s.guard.IsBlockedByAny(ctx, sender.ID, otherIDs)
	if err != nil {
		slog.Error("Failed to check block status", "error", err)
		return model.MessageDTO{}, helper.NewInternalServerError("")
	}
	if blocked {
		return model.MessageDTO{}, helper.NewForbiddenError("You cannot send messages to this chat right now.")
	}

	stored, err := s.storeAttachments(ctx, req.Attachments)
	if err != nil {
		return model.MessageDTO{}, err
	}

	message := entity.Message{ChatID: chat.ID, SenderID: sender.ID}
	if body != "" {
		message.Body = &body
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		for _, att := range stored {
			row := entity.MessageAttachment{
				MessageID: message.ID,
				Filename:  att.filename,
				Mimetype:  att.mimetype,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to persist message", "error", err, "chatID", chat.ID)
		s.deleteStored(ctx, stored)
		return model.MessageDTO{}, helper.NewInternalServerError("Failed to send message.")
	}

	var full entity.Message
	err = s.db.WithContext(ctx).
		Preload("Sender.Avatar").Preload("Sender").
		Preload("Attachments").
		First(&full, message.ID).Error
	if err != nil {
		slog.Error("Failed to reload message", "error", err, "messageID", message.ID)
		return model.MessageDTO{}, helper.NewInternalServerError("")
	}

	dto := messageDTO(&full, s.store)

	s.hub.BroadcastToRoom(websocket.ChatRoom(chat.ID), websocket.Event{
		Type:    websocket.EventNewMessage,
		Payload: dto,
		Meta: &websocket.EventMeta{
			Timestamp: time.Now().UTC().UnixMilli(),
			ChatID:    chat.ID,
			SenderID:  sender.ID,
		},
	}, nil)

	dto.ClientRef = req.ClientRef
	return dto, nil
}

// Typing relays a typing indicator to everyone else in the chat room.
// Non-members are ignored silently; the indicator never reaches the
// typist's own sessions.
func (s *MessageService) Typing(ctx context.Context, user *model.UserDTO, client *websocket.Client, chatID int, typing bool) {
	isMember, err := s.guard.IsChatMember(ctx, chatID, user.ID)
	if err != nil {
		slog.Error("Failed to check chat membership", "error", err, "chatID", chatID)
		return
	}
	if !isMember {
		return
	}

	s.hub.BroadcastToRoom(websocket.ChatRoom(chatID), websocket.Event{
		Type: websocket.EventTyping,
		Payload: map[string]interface{}{
			"chat_id":      chatID,
			"user_id":      user.ID,
			"display_name": user.DisplayName,
			"typing":       typing,
		},
		Meta: &websocket.EventMeta{
			Timestamp: time.Now().UTC().UnixMilli(),
			ChatID:    chatID,
			SenderID:  user.ID,
		},
	}, client)
}
