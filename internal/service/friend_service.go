package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"NovaTalkAPI/internal/entity"
	"NovaTalkAPI/internal/guard"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
	"NovaTalkAPI/internal/websocket"
)

// FriendService owns the friend request lifecycle, friendship
// formation and removal. Invariant across all operations: an
// unordered user pair has at most one live artifact at a time,
// either a single pending request or a mutual friendship.
type FriendService struct {
	db       *gorm.DB
	guard    *guard.Guard
	store    BlobStore
	hub      *websocket.Hub
	contacts *ContactService
}

func NewFriendService(db *gorm.DB, g *guard.Guard, store BlobStore, hub *websocket.Hub, contacts *ContactService) *FriendService {
	return &FriendService{
		db:       db,
		guard:    g,
		store:    store,
		hub:      hub,
		contacts: contacts,
	}
}

func (s *FriendService) findUser(ctx context.Context, userID int, username string) (*entity.User, error) {
	var user entity.User
	query := s.db.WithContext(ctx).Preload("Avatar")
	var err error
	switch {
	case userID > 0:
		err = query.First(&user, userID).Error
	case username != "":
		err = query.Where("username = ?", helper.NormalizeUsername(username)).First(&user).Error
	default:
		return nil, helper.NewNotFoundError("User not found")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewNotFoundError("User not found")
		}
		slog.Error("Failed to look up user", "error", err)
		return nil, helper.NewInternalServerError("")
	}
	return &user, nil
}

func (s *FriendService) SendRequest(ctx context.Context, sender *model.UserDTO, req model.FriendSendRequest) (map[string]interface{}, error) {
	target, err := s.findUser(ctx, req.UserID, req.Username)
	if err != nil {
		return nil, err
	}
	if target.ID == sender.ID {
		return nil, helper.NewBadRequestError("You cannot add yourself.")
	}

	blocked, err := s.guard.IsBlockedBy(ctx, sender.ID, target.ID)
	if err != nil {
		slog.Error("Failed to check block status", "error", err)
		return nil, helper.NewInternalServerError("")
	}
	if blocked {
		return nil, helper.NewForbiddenError("You cannot send a request to this user.")
	}

	var friendCount int64
	err = s.db.WithContext(ctx).Model(&entity.Friendship{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			sender.ID, target.ID, target.ID, sender.ID).
		Count(&friendCount).Error
	if err != nil {
		slog.Error("Failed to check friendship", "error", err)
		return nil, helper.NewInternalServerError("")
	}
	if friendCount > 0 {
		return nil, helper.NewConflictError("You are already friends.")
	}

	var pending entity.FriendRequest
	err = s.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", sender.ID, target.ID, entity.RequestStatusPending).
		First(&pending).Error
	if err == nil {
		return nil, helper.NewConflictError("Request already sent.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("Failed to check existing request", "error", err)
		return nil, helper.NewInternalServerError("")
	}

	err = s.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", target.ID, sender.ID, entity.RequestStatusPending).
		First(&pending).Error
	if err == nil {
		return nil, helper.NewConflictError("This user has already sent you a request.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("Failed to check reverse request", "error", err)
		return nil, helper.NewInternalServerError("")
	}

	request := entity.FriendRequest{
		SenderID:   sender.ID,
		ReceiverID: target.ID,
		Status:     entity.RequestStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with an identical request; same outcome.
			return nil, helper.NewConflictError("Request already sent.")
		}
		slog.Error("Failed to create friend request", "error", err)
		return nil, helper.NewInternalServerError("")
	}

	senderEntity, err := s.findUser(ctx, sender.ID, "")
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToUser(target.ID, websocket.Event{
		Type: websocket.EventFriendUpdate,
		Payload: map[string]interface{}{
			"action":        "request_received",
			"from_user":     publicUser(senderEntity, s.store),
			"pending_count": s.contacts.PendingRequestCount(ctx, target.ID),
		},
		Meta: &websocket.EventMeta{Timestamp: time.Now().UTC().UnixMilli(), SenderID: sender.ID},
	})
	s.contacts.BroadcastContacts(ctx, target.ID)
	s.contacts.BroadcastContacts(ctx, sender.ID)

	return map[string]interface{}{
		"ok": true,
		"request": map[string]interface{}{
			"id":   request.ID,
			"user": publicUser(target, s.store),
		},
	}, nil
}

func (s *FriendService) Respond(ctx context.Context, responder *model.UserDTO, req model.FriendRespondRequest) (string, error) {
	if req.Action != "accept" && req.Action != "decline" {
		return "", helper.NewBadRequestError("Unsupported action")
	}

	var request entity.FriendRequest
	err := s.db.WithContext(ctx).
		Preload("Sender.Avatar").Preload("Sender").
		Where("id = ? AND receiver_id = ? AND status = ?", req.RequestID, responder.ID, entity.RequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", helper.NewNotFoundError("Friend request not found")
		}
		slog.Error("Failed to load friend request", "error", err)
		return "", helper.NewInternalServerError("")
	}

	responderEntity, err := s.findUser(ctx, responder.ID, "")
	if err != nil {
		return "", err
	}

	if req.Action == "accept" {
		// Both directed rows and the request removal commit together;
		// the pair never holds a request and a friendship at once.
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&entity.Friendship{UserID: responder.ID, FriendID: request.SenderID}).Error; err != nil {
				return err
			}
			if err := tx.Create(&entity.Friendship{UserID: request.SenderID, FriendID: responder.ID}).Error; err != nil {
				return err
			}
			return tx.Delete(&entity.FriendRequest{}, request.ID).Error
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return "", helper.NewConflictError("You are already friends.")
			}
			slog.Error("Failed to accept friend request", "error", err)
			return "", helper.NewInternalServerError("")
		}

		s.hub.BroadcastToUser(request.SenderID, websocket.Event{
			Type: websocket.EventFriendUpdate,
			Payload: map[string]interface{}{
				"action":    "request_accepted",
				"from_user": publicUser(responderEntity, s.store),
			},
			Meta: &websocket.EventMeta{Timestamp: time.Now().UTC().UnixMilli(), SenderID: responder.ID},
		})
		s.contacts.BroadcastContacts(ctx, responder.ID)
		s.contacts.BroadcastContacts(ctx, request.SenderID)
		return "accepted", nil
	}

	if err := s.db.WithContext(ctx).Delete(&entity.FriendRequest{}, request.ID).Error; err != nil {
		slog.Error("Failed to decline friend request", "error", err)
		return "", helper.NewInternalServerError("")
	}

	s.hub.BroadcastToUser(request.SenderID, websocket.Event{
		Type: websocket.EventFriendUpdate,
		Payload: map[string]interface{}{
			"action":    "request_declined",
			"from_user": publicUser(responderEntity, s.store),
		},
		Meta: &websocket.EventMeta{Timestamp: time.Now().UTC().UnixMilli(), SenderID: responder.ID},
	})
	s.contacts.BroadcastContacts(ctx, responder.ID)
	s.contacts.BroadcastContacts(ctx, request.SenderID)
	return "declined", nil
}

// Cancel withdraws a still-pending request; only its sender may.
func (s *FriendService) Cancel(ctx context.Context, sender *model.UserDTO, requestID int) error {
	var request entity.FriendRequest
	err := s.db.WithContext(ctx).
		Where("id = ? AND sender_id = ? AND status = ?", requestID, sender.ID, entity.RequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.NewNotFoundError("Pending request not found")
		}
		slog.Error("Failed to load friend request", "error", err)
		return helper.NewInternalServerError("")
	}

	if err := s.db.WithContext(ctx).Delete(&entity.FriendRequest{}, request.ID).Error; err != nil {
		slog.Error("Failed to cancel friend request", "error", err)
		return helper.NewInternalServerError("")
	}

	senderEntity, err := s.findUser(ctx, sender.ID, "")
	if err != nil {
		return err
	}

	s.hub.BroadcastToUser(request.ReceiverID, websocket.Event{
		Type: websocket.EventFriendUpdate,
		Payload: map[string]interface{}{
			"action":        "request_cancelled",
			"from_user":     publicUser(senderEntity, s.store),
			"pending_count": s.contacts.PendingRequestCount(ctx, request.ReceiverID),
		},
		Meta: &websocket.EventMeta{Timestamp: time.Now().UTC().UnixMilli(), SenderID: sender.ID},
	})
	s.contacts.BroadcastContacts(ctx, sender.ID)
	s.contacts.BroadcastContacts(ctx, request.ReceiverID)
	return nil
}

// Block records a block edge against the target. Any pending requests
// between the pair are purged in the same transaction.
func (s *FriendService) Block(ctx context.Context, user *model.UserDTO, targetID int) error {
	target, err := s.findUser(ctx, targetID, "")
	if err != nil {
		return err
	}
	if target.ID == user.ID {
		return helper.NewBadRequestError("You cannot block yourself.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entity.BlockedUser{UserID: user.ID, BlockedUserID: target.ID}).Error; err != nil {
			return err
		}
		return tx.Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			user.ID, target.ID, target.ID, user.ID,
		).Delete(&entity.FriendRequest{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return helper.NewConflictError("User already blocked.")
		}
		slog.Error("Failed to block user", "error", err)
		return helper.NewInternalServerError("")
	}

	s.contacts.BroadcastContacts(ctx, user.ID)
	s.contacts.BroadcastContacts(ctx, target.ID)
	return nil
}

// Unblock removes the caller's block edge against the target.
func (s *FriendService) Unblock(ctx context.Context, user *model.UserDTO, targetID int) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND blocked_user_id = ?", user.ID, targetID).
		Delete(&entity.BlockedUser{})
	if result.Error != nil {
		slog.Error("Failed to unblock user", "error", result.Error)
		return helper.NewInternalServerError("")
	}
	if result.RowsAffected == 0 {
		return helper.NewBadRequestError("User is not blocked.")
	}

	s.contacts.BroadcastContacts(ctx, user.ID)
	return nil
}

// Remove deletes both directed friendship rows and purges any residual
// requests between the pair so it returns to a clean slate.
func (s *FriendService) Remove(ctx context.Context, user *model.UserDTO, friendID int) error {
	friend, err := s.findUser(ctx, friendID, "")
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where(
			"(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			user.ID, friend.ID, friend.ID, user.ID,
		).Delete(&entity.Friendship{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return helper.NewBadRequestError("You are not friends yet.")
		}

		return tx.Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			user.ID, friend.ID, friend.ID, user.ID,
		).Delete(&entity.FriendRequest{}).Error
	})
	if err != nil {
		var appErr *helper.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		slog.Error("Failed to remove friendship", "error", err)
		return helper.NewInternalServerError("")
	}

	userEntity, err := s.findUser(ctx, user.ID, "")
	if err != nil {
		return err
	}

	s.hub.BroadcastToUser(friend.ID, websocket.Event{
		Type: websocket.EventFriendUpdate,
		Payload: map[string]interface{}{
			"action":    "friend_removed",
			"from_user": publicUser(userEntity, s.store),
		},
		Meta: &websocket.EventMeta{Timestamp: time.Now().UTC().UnixMilli(), SenderID: user.ID},
	})
	s.contacts.BroadcastContacts(ctx, friend.ID)
	s.contacts.BroadcastContacts(ctx, user.ID)
	return nil
}
