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

// GroupService owns group chat creation and the invite lifecycle.
type GroupService struct {
	db       *gorm.DB
	guard    *guard.Guard
	store    BlobStore
	hub      *websocket.Hub
	chats    *ChatService
	contacts *ContactService
}

func NewGroupService(db *gorm.DB, g *guard.Guard, store BlobStore, hub *websocket.Hub, chats *ChatService, contacts *ContactService) *GroupService {
	return &GroupService{
		db:       db,
		guard:    g,
		store:    store,
		hub:      hub,
		chats:    chats,
		contacts: contacts,
	}
}

// resolveInvitees maps typed invitee references to users, dropping
// unresolvable ones silently and de-duplicating by resolved ID.
func (s *GroupService) resolveInvitees(ctx context.Context, refs []model.InviteeRef) []entity.User {
	var resolved []entity.User
	seen := make(map[int]bool)
	for _, ref := range refs {
		var user entity.User
		var err error
		switch {
		case ref.ID > 0:
			err = s.db.WithContext(ctx).First(&user, ref.ID).Error
		case ref.Username != "":
			err = s.db.WithContext(ctx).
				Where("username = ?", helper.NormalizeUsername(ref.Username)).
				First(&user).Error
		default:
			continue
		}
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				slog.Error("Failed to resolve invitee", "error", err)
			}
			continue
		}
		if seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		resolved = append(resolved, user)
	}
	return resolved
}

// createInvites inserts a pending invite per candidate, skipping the
// inviter, existing members, and duplicate pending invites. Runs
// inside the caller's transaction.
func (s *GroupService) createInvites(tx *gorm.DB, chatID, inviterID int, invitees []entity.User) ([]entity.GroupInvite, error) {
	var created []entity.GroupInvite
	for i := range invitees {
		invitee := invitees[i]
		if invitee.ID == inviterID {
			continue
		}

		var memberCount int64
		if err := tx.Model(&entity.ChatMember{}).
			Where("chat_id = ? AND user_id = ?", chatID, invitee.ID).
			Count(&memberCount).Error; err != nil {
			return nil, err
		}
		if memberCount > 0 {
			continue
		}

		var pendingCount int64
		if err := tx.Model(&entity.GroupInvite{}).
			Where("chat_id = ? AND invitee_id = ? AND status = ?", chatID, invitee.ID, entity.RequestStatusPending).
			Count(&pendingCount).Error; err != nil {
			return nil, err
		}
		if pendingCount > 0 {
			continue
		}

		invite := entity.GroupInvite{
			ChatID:    chatID,
			InviterID: inviterID,
			InviteeID: invitee.ID,
			Status:    entity.RequestStatusPending,
		}
		if err := tx.Create(&invite).Error; err != nil {
			return nil, err
		}
		created = append(created, invite)
	}
	return created, nil
}

func (s *GroupService) inviteDTOs(ctx context.Context, invites []entity.GroupInvite) []model.GroupInviteDTO {
	dtos := make([]model.GroupInviteDTO, 0, len(invites))
	for i := range invites {
		var full entity.GroupInvite
		err := s.db.WithContext(ctx).
			Preload("Chat").
			Preload("Inviter.Avatar").Preload("Inviter").
			Preload("Invitee.Avatar").Preload("Invitee").
			First(&full, invites[i].ID).Error
		if err != nil {
			slog.Error("Failed to reload invite", "error", err, "inviteID", invites[i].ID)
			continue
		}
		dtos = append(dtos, inviteDTO(&full, s.store))
	}
	return dtos
}

// Create builds a group chat: the chat row, an admin membership for
// the creator, and a pending invite per resolved invitee, all in one
// transaction.
func (s *GroupService) Create(ctx context.Context, creator *model.UserDTO, name string, refs []model.InviteeRef) (model.ChatSummary, []model.GroupInviteDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ChatSummary{}, nil, helper.NewBadRequestError("Group name is required")
	}

	invitees := s.resolveInvitees(ctx, refs)

	creatorID := creator.ID
	chat := entity.Chat{Name: name, IsGroup: true, CreatorID: &creatorID}
	var created []entity.GroupInvite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
		if err := tx.Create(&entity.ChatMember{ChatID: chat.ID, UserID: creator.ID, IsAdmin: true}).Error; err != nil {
			return err
		}
		var err error
		created, err = s.createInvites(tx, chat.ID, creator.ID, invitees)
		return err
	})
	if err != nil {
		slog.Error("Failed to create group chat", "error", err)
		return model.ChatSummary{}, nil, helper.NewInternalServerError("Failed to create group.")
	}

	s.hub.SubscribeUser(creator.ID, websocket.ChatRoom(chat.ID))

	summary, err := s.chats.SummaryByID(ctx, chat.ID, creator.ID)
	if err != nil {
		return model.ChatSummary{}, nil, err
	}

	s.contacts.BroadcastContacts(ctx, creator.ID)
	for i := range created {
		s.contacts.BroadcastContacts(ctx, created[i].InviteeID)
	}

	return summary, s.inviteDTOs(ctx, created), nil
}

// Invite adds pending invites to an existing group; admin only.
func (s *GroupService) Invite(ctx context.Context, inviter *model.UserDTO, chatID int, refs []model.InviteeRef) ([]model.GroupInviteDTO, error) {
	var chat entity.Chat
	err := s.db.WithContext(ctx).Where("id = ? AND is_group = ?", chatID, true).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewNotFoundError("Group chat not found")
		}
		slog.Error("Failed to load group chat", "error", err, "chatID", chatID)
		return nil, helper.NewInternalServerError("")
	}

	isAdmin, err := s.guard.IsChatAdmin(ctx, chat.ID, inviter.ID)
	if err != nil {
		slog.Error("Failed to check admin rights", "error", err)
		return nil, helper.NewInternalServerError("")
	}
	if !isAdmin {
		return nil, helper.NewForbiddenError("Only group admins can invite members.")
	}

	invitees := s.resolveInvitees(ctx, refs)
	if len(invitees) == 0 {
		return nil, helper.NewBadRequestError("No invitees specified.")
	}

	var created []entity.GroupInvite
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = s.createInvites(tx, chat.ID, inviter.ID, invitees)
		if err != nil {
			return err
		}
		if len(created) == 0 {
			return helper.NewConflictError("No new invitations were created.")
		}
		return nil
	})
	if err != nil {
		var appErr *helper.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		slog.Error("Failed to invite group members", "error", err)
		return nil, helper.NewInternalServerError("Unable to send invites.")
	}

	s.contacts.BroadcastContacts(ctx, inviter.ID)
	for i := range created {
		s.contacts.BroadcastContacts(ctx, created[i].InviteeID)
	}

	return s.inviteDTOs(ctx, created), nil
}

// Respond settles a pending invite addressed to the caller. Accepting
// inserts the membership (idempotent when already a member), joins the
// invitee's sessions to the chat room, and broadcasts the refreshed
// member list; both transitions are terminal.
func (s *GroupService) Respond(ctx context.Context, invitee *model.UserDTO, inviteID int, action string) (string, *model.ChatSummary, error) {
	if action != "accept" && action != "decline" {
		return "", nil, helper.NewBadRequestError("Invalid invitation response.")
	}

	var invite entity.GroupInvite
	err := s.db.WithContext(ctx).
		Where("id = ? AND invitee_id = ? AND status = ?", inviteID, invitee.ID, entity.RequestStatusPending).
		First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, helper.NewNotFoundError("Invitation not found.")
		}
		slog.Error("Failed to load group invite", "error", err, "inviteID", inviteID)
		return "", nil, helper.NewInternalServerError("")
	}

	var chat entity.Chat
	if err := s.db.WithContext(ctx).First(&chat, invite.ChatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, helper.NewNotFoundError("Group chat missing.")
		}
		slog.Error("Failed to load group chat", "error", err, "chatID", invite.ChatID)
		return "", nil, helper.NewInternalServerError("")
	}

	now := time.Now().UTC()

	if action == "decline" {
		// Guard on the pending status so a concurrent response cannot
		// settle the same invite twice.
		result := s.db.WithContext(ctx).Model(&entity.GroupInvite{}).
			Where("id = ? AND status = ?", invite.ID, entity.RequestStatusPending).
			Updates(map[string]interface{}{"status": entity.RequestStatusDeclined, "responded_at": now})
		if result.Error != nil {
			slog.Error("Failed to decline group invite", "error", result.Error)
			return "", nil, helper.NewInternalServerError("Unable to decline invite.")
		}
		if result.RowsAffected == 0 {
			return "", nil, helper.NewNotFoundError("Invitation not found.")
		}

		s.contacts.BroadcastContacts(ctx, invitee.ID)
		s.contacts.BroadcastContacts(ctx, invite.InviterID)
		return "declined", nil, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.GroupInvite{}).
			Where("id = ? AND status = ?", invite.ID, entity.RequestStatusPending).
			Updates(map[string]interface{}{"status": entity.RequestStatusAccepted, "responded_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return helper.NewNotFoundError("Invitation not found.")
		}

		var memberCount int64
		if err := tx.Model(&entity.ChatMember{}).
			Where("chat_id = ? AND user_id = ?", chat.ID, invitee.ID).
			Count(&memberCount).Error; err != nil {
			return err
		}
		if memberCount == 0 {
			return tx.Create(&entity.ChatMember{ChatID: chat.ID, UserID: invitee.ID}).Error
		}
		return nil
	})
	if err != nil {
		var appErr *helper.AppError
		if errors.As(err, &appErr) {
			return "", nil, appErr
		}
		slog.Error("Failed to accept group invite", "error", err)
		return "", nil, helper.NewInternalServerError("Unable to join group.")
	}

	s.hub.SubscribeUser(invitee.ID, websocket.ChatRoom(chat.ID))

	summary, err := s.chats.SummaryByID(ctx, chat.ID, invitee.ID)
	if err != nil {
		return "", nil, err
	}

	s.hub.BroadcastToRoom(websocket.ChatRoom(chat.ID), websocket.Event{
		Type: websocket.EventMemberUpdate,
		Payload: map[string]interface{}{
			"chat_id": chat.ID,
			"members": summary.Members,
		},
		Meta: &websocket.EventMeta{Timestamp: now.UnixMilli(), ChatID: chat.ID, SenderID: invitee.ID},
	}, nil)

	s.contacts.BroadcastContacts(ctx, invitee.ID)
	s.contacts.BroadcastContacts(ctx, invite.InviterID)

	return "accepted", &summary, nil
}
