package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"NovaTalkAPI/internal/entity"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
	"NovaTalkAPI/internal/websocket"
)

// ContactService builds the contacts view (friends, pending friend
// requests, pending group invites) and pushes refreshes of it to user
// rooms.
type ContactService struct {
	db    *gorm.DB
	store BlobStore
	hub   *websocket.Hub
}

func NewContactService(db *gorm.DB, store BlobStore, hub *websocket.Hub) *ContactService {
	return &ContactService{
		db:    db,
		store: store,
		hub:   hub,
	}
}

func (s *ContactService) Collect(ctx context.Context, userID int) (model.ContactsPayload, error) {
	payload := model.ContactsPayload{
		Friends:  []model.FriendDTO{},
		Incoming: []model.FriendRequestDTO{},
		Outgoing: []model.FriendRequestDTO{},
		GroupInvites: model.GroupInvitesPayload{
			Incoming: []model.GroupInviteDTO{},
			Outgoing: []model.GroupInviteDTO{},
		},
	}

	var friendships []entity.Friendship
	err := s.db.WithContext(ctx).
		Preload("Friend.Avatar").Preload("Friend").
		Where("user_id = ?", userID).
		Find(&friendships).Error
	if err != nil {
		return payload, err
	}
	for i := range friendships {
		payload.Friends = append(payload.Friends, model.FriendDTO{
			ID:    friendships[i].ID,
			User:  publicUser(&friendships[i].Friend, s.store),
			Since: helper.ToUTCISO(friendships[i].CreatedAt),
		})
	}

	var incoming []entity.FriendRequest
	err = s.db.WithContext(ctx).
		Preload("Sender.Avatar").Preload("Sender").
		Where("receiver_id = ? AND status = ?", userID, entity.RequestStatusPending).
		Find(&incoming).Error
	if err != nil {
		return payload, err
	}
	for i := range incoming {
		payload.Incoming = append(payload.Incoming, model.FriendRequestDTO{
			ID:        incoming[i].ID,
			User:      publicUser(&incoming[i].Sender, s.store),
			CreatedAt: helper.ToUTCISO(incoming[i].CreatedAt),
			Status:    incoming[i].Status,
		})
	}

	var outgoing []entity.FriendRequest
	err = s.db.WithContext(ctx).
		Preload("Receiver.Avatar").Preload("Receiver").
		Where("sender_id = ? AND status = ?", userID, entity.RequestStatusPending).
		Find(&outgoing).Error
	if err != nil {
		return payload, err
	}
	for i := range outgoing {
		payload.Outgoing = append(payload.Outgoing, model.FriendRequestDTO{
			ID:        outgoing[i].ID,
			User:      publicUser(&outgoing[i].Receiver, s.store),
			CreatedAt: helper.ToUTCISO(outgoing[i].CreatedAt),
			Status:    outgoing[i].Status,
		})
	}

	invitesIn, err := s.pendingInvites(ctx, "invitee_id", userID)
	if err != nil {
		return payload, err
	}
	payload.GroupInvites.Incoming = invitesIn

	invitesOut, err := s.pendingInvites(ctx, "inviter_id", userID)
	if err != nil {
		return payload, err
	}
	payload.GroupInvites.Outgoing = invitesOut

	return payload, nil
}

func (s *ContactService) pendingInvites(ctx context.Context, column string, userID int) ([]model.GroupInviteDTO, error) {
	var invites []entity.GroupInvite
	err := s.db.WithContext(ctx).
		Preload("Chat").
		Preload("Inviter.Avatar").Preload("Inviter").
		Preload("Invitee.Avatar").Preload("Invitee").
		Where(column+" = ? AND status = ?", userID, entity.RequestStatusPending).
		Find(&invites).Error
	if err != nil {
		return nil, err
	}

	dtos := make([]model.GroupInviteDTO, 0, len(invites))
	for i := range invites {
		dtos = append(dtos, inviteDTO(&invites[i], s.store))
	}
	return dtos, nil
}

// BroadcastContacts pushes a full contacts refresh to every active
// session of the user. Called after any social-graph mutation.
func (s *ContactService) BroadcastContacts(ctx context.Context, userID int) {
	contacts, err := s.Collect(ctx, userID)
	if err != nil {
		slog.Error("Failed to collect contacts for broadcast", "error", err, "userID", userID)
		return
	}

	update := model.ContactsUpdate{
		Contacts:            contacts,
		PendingCount:        len(contacts.Incoming),
		PendingGroupInvites: len(contacts.GroupInvites.Incoming),
	}
	update.PendingTotal = update.PendingCount + update.PendingGroupInvites

	s.hub.BroadcastToUser(userID, websocket.Event{
		Type:    websocket.EventContactsUpdate,
		Payload: update,
		Meta:    &websocket.EventMeta{Timestamp: time.Now().UTC().UnixMilli()},
	})
}

// Search matches usernames and display names case-insensitively,
// excluding the caller, capped at 10 results.
func (s *ContactService) Search(ctx context.Context, userID int, query string) ([]model.PublicUser, error) {
	query = strings.TrimPrefix(strings.TrimSpace(query), "@")
	if query == "" {
		return []model.PublicUser{}, nil
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var users []entity.User
	err := s.db.WithContext(ctx).
		Preload("Avatar").
		Where("(LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?) AND id <> ?", pattern, pattern, userID).
		Limit(10).
		Find(&users).Error
	if err != nil {
		slog.Error("Failed to search users", "error", err, "query", query)
		return nil, helper.NewInternalServerError("")
	}

	results := make([]model.PublicUser, 0, len(users))
	for i := range users {
		results = append(results, publicUser(&users[i], s.store))
	}
	return results, nil
}

// PendingRequestCount counts pending friend requests addressed to the
// user, used for the pending_count hints on friend:update events.
func (s *ContactService) PendingRequestCount(ctx context.Context, userID int) int {
	var count int64
	if err := s.db.WithContext(ctx).Model(&entity.FriendRequest{}).
		Where("receiver_id = ? AND status = ?", userID, entity.RequestStatusPending).
		Count(&count).Error; err != nil {
		slog.Error("Failed to count pending requests", "error", err, "userID", userID)
		return 0
	}
	return int(count)
}
