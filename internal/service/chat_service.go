package service

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"NovaTalkAPI/internal/entity"
	"NovaTalkAPI/internal/guard"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
	"NovaTalkAPI/internal/websocket"
)

// ChatService owns direct chats and the chat summary/history reads the
// session layer serves.
type ChatService struct {
	db    *gorm.DB
	guard *guard.Guard
	store BlobStore
	hub   *websocket.Hub
}

func NewChatService(db *gorm.DB, g *guard.Guard, store BlobStore, hub *websocket.Hub) *ChatService {
	return &ChatService{
		db:    db,
		guard: g,
		store: store,
		hub:   hub,
	}
}

func (s *ChatService) loadChat(ctx context.Context, chatID int) (*entity.Chat, error) {
	var chat entity.Chat
	err := s.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC, id ASC") }).
		Preload("Members.User.Avatar").Preload("Members.User").
		Preload("Creator.Avatar").Preload("Creator").
		First(&chat, chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewNotFoundError("Chat not found")
		}
		slog.Error("Failed to load chat", "error", err, "chatID", chatID)
		return nil, helper.NewInternalServerError("")
	}
	return &chat, nil
}

func (s *ChatService) chatPartner(chat *entity.Chat, userID int) *entity.User {
	if chat.IsGroup {
		return nil
	}
	for i := range chat.Members {
		if chat.Members[i].UserID != userID {
			return &chat.Members[i].User
		}
	}
	return nil
}

// Summary serializes one chat from the given user's perspective:
// direct chats surface the partner and whether messaging is currently
// allowed (mutual friendship re-checked, membership alone is not
// enough).
func (s *ChatService) Summary(ctx context.Context, chat *entity.Chat, userID int) (model.ChatSummary, error) {
	members := make([]model.MemberDTO, 0, len(chat.Members))
	for i := range chat.Members {
		members = append(members, memberDTO(&chat.Members[i], s.store))
	}

	partner := s.chatPartner(chat, userID)

	name := chat.Name
	if !chat.IsGroup || name == "" {
		if partner != nil {
			name = partner.DisplayName
		} else {
			name = "Conversation"
		}
	}

	var latest entity.Message
	var lastMessage *model.MessageDTO
	err := s.db.WithContext(ctx).
		Preload("Sender.Avatar").Preload("Sender").
		Preload("Attachments").
		Where("chat_id = ?", chat.ID).
		Order("created_at DESC, id DESC").
		First(&latest).Error
	updatedAt := helper.ToUTCISO(chat.CreatedAt)
	if err == nil {
		dto := messageDTO(&latest, s.store)
		lastMessage = &dto
		updatedAt = dto.CreatedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("Failed to load latest message", "error", err, "chatID", chat.ID)
		return model.ChatSummary{}, helper.NewInternalServerError("")
	}

	canMessage := chat.IsGroup
	if partner != nil {
		mutual, err := s.guard.MutualFriends(ctx, userID, partner.ID)
		if err != nil {
			slog.Error("Failed to check friendship for chat summary", "error", err)
			return model.ChatSummary{}, helper.NewInternalServerError("")
		}
		canMessage = mutual
	}

	summary := model.ChatSummary{
		ID:          chat.ID,
		IsGroup:     chat.IsGroup,
		Name:        name,
		CreatedAt:   helper.ToUTCISO(chat.CreatedAt),
		UpdatedAt:   updatedAt,
		Members:     members,
		LastMessage: lastMessage,
		CanMessage:  canMessage,
	}
	if partner != nil {
		u := publicUser(partner, s.store)
		summary.Partner = &u
	}
	if chat.Creator != nil {
		u := publicUser(chat.Creator, s.store)
		summary.Creator = &u
	}
	return summary, nil
}

func (s *ChatService) SummaryByID(ctx context.Context, chatID, userID int) (model.ChatSummary, error) {
	chat, err := s.loadChat(ctx, chatID)
	if err != nil {
		return model.ChatSummary{}, err
	}
	return s.Summary(ctx, chat, userID)
}

// Summaries lists every chat the user is currently a member of, newest
// chat first.
func (s *ChatService) Summaries(ctx context.Context, userID int) ([]model.ChatSummary, error) {
	var chatIDs []int
	err := s.db.WithContext(ctx).Model(&entity.ChatMember{}).
		Where("user_id = ?", userID).
		Pluck("chat_id", &chatIDs).Error
	if err != nil {
		slog.Error("Failed to list chat memberships", "error", err, "userID", userID)
		return nil, helper.NewInternalServerError("")
	}

	summaries := make([]model.ChatSummary, 0, len(chatIDs))
	if len(chatIDs) == 0 {
		return summaries, nil
	}

	var chats []entity.Chat
	err = s.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC, id ASC") }).
		Preload("Members.User.Avatar").Preload("Members.User").
		Preload("Creator.Avatar").Preload("Creator").
		Where("id IN ?", chatIDs).
		Order("created_at DESC").
		Find(&chats).Error
	if err != nil {
		slog.Error("Failed to load chats", "error", err, "userID", userID)
		return nil, helper.NewInternalServerError("")
	}

	for i := range chats {
		summary, err := s.Summary(ctx, &chats[i], userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// History returns the full ordered message list for one chat.
func (s *ChatService) History(ctx context.Context, chatID int) ([]model.MessageDTO, error) {
	var messages []entity.Message
	err := s.db.WithContext(ctx).
		Preload("Sender.Avatar").Preload("Sender").
		Preload("Attachments").
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		slog.Error("Failed to load chat history", "error", err, "chatID", chatID)
		return nil, helper.NewInternalServerError("")
	}

	dtos := make([]model.MessageDTO, 0, len(messages))
	for i := range messages {
		dtos = append(dtos, messageDTO(&messages[i], s.store))
	}
	return dtos, nil
}

// OpenDirect opens the direct chat with the target user, creating it
// when it does not exist yet. Creation requires mutual friendship and
// is idempotent per unordered pair; the initiator's sessions join the
// chat room immediately, the partner's sessions join lazily.
func (s *ChatService) OpenDirect(ctx context.Context, user *model.UserDTO, targetID int, username string) (model.ChatSummary, error) {
	var target entity.User
	query := s.db.WithContext(ctx)
	var err error
	switch {
	case targetID > 0:
		err = query.First(&target, targetID).Error
	case username != "":
		err = query.Where("username = ?", helper.NormalizeUsername(username)).First(&target).Error
	default:
		err = gorm.ErrRecordNotFound
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ChatSummary{}, helper.NewNotFoundError("User not found")
		}
		slog.Error("Failed to look up chat target", "error", err)
		return model.ChatSummary{}, helper.NewInternalServerError("")
	}

	if target.ID == user.ID {
		return model.ChatSummary{}, helper.NewBadRequestError("You cannot start a chat with yourself.")
	}

	mutual, err := s.guard.MutualFriends(ctx, user.ID, target.ID)
	if err != nil {
		slog.Error("Failed to check friendship", "error", err)
		return model.ChatSummary{}, helper.NewInternalServerError("")
	}
	if !mutual {
		return model.ChatSummary{}, helper.NewForbiddenError("You need to be friends before messaging.")
	}

	existingID, err := s.findDirectChatID(ctx, user.ID, target.ID)
	if err != nil {
		return model.ChatSummary{}, err
	}
	if existingID != 0 {
		summary, err := s.SummaryByID(ctx, existingID, user.ID)
		if err != nil {
			return model.ChatSummary{}, err
		}
		s.hub.SubscribeUser(user.ID, websocket.ChatRoom(existingID))
		return summary, nil
	}

	chat := entity.Chat{IsGroup: false}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
		if err := tx.Create(&entity.ChatMember{ChatID: chat.ID, UserID: user.ID, IsAdmin: true}).Error; err != nil {
			return err
		}
		return tx.Create(&entity.ChatMember{ChatID: chat.ID, UserID: target.ID}).Error
	})
	if err != nil {
		slog.Error("Failed to create direct chat", "error", err)
		return model.ChatSummary{}, helper.NewInternalServerError("")
	}

	s.hub.SubscribeUser(user.ID, websocket.ChatRoom(chat.ID))

	return s.SummaryByID(ctx, chat.ID, user.ID)
}

// findDirectChatID locates the direct chat whose member set is exactly
// the unordered pair, or 0 when none exists.
func (s *ChatService) findDirectChatID(ctx context.Context, userID, otherID int) (int, error) {
	var chatIDs []int
	err := s.db.WithContext(ctx).Model(&entity.Chat{}).
		Joins("JOIN chat_members m1 ON m1.chat_id = chats.id AND m1.user_id = ?", userID).
		Joins("JOIN chat_members m2 ON m2.chat_id = chats.id AND m2.user_id = ?", otherID).
		Where("chats.is_group = ?", false).
		Pluck("chats.id", &chatIDs).Error
	if err != nil {
		slog.Error("Failed to look up direct chat", "error", err)
		return 0, helper.NewInternalServerError("")
	}
	if len(chatIDs) == 0 {
		return 0, nil
	}
	return chatIDs[0], nil
}
