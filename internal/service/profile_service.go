package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"NovaTalkAPI/internal/entity"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
	"NovaTalkAPI/internal/websocket"
)

// ProfileService owns the caller's own profile: display name, bio,
// display settings, and the avatar lifecycle.
type ProfileService struct {
	db       *gorm.DB
	store    BlobStore
	hub      *websocket.Hub
	contacts *ContactService
}

func NewProfileService(db *gorm.DB, store BlobStore, hub *websocket.Hub, contacts *ContactService) *ProfileService {
	return &ProfileService{
		db:       db,
		store:    store,
		hub:      hub,
		contacts: contacts,
	}
}

func (s *ProfileService) loadUser(ctx context.Context, userID int) (*entity.User, error) {
	var user entity.User
	err := s.db.WithContext(ctx).Preload("Avatar").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewNotFoundError("User not found")
		}
		slog.Error("Failed to load user", "error", err, "userID", userID)
		return nil, helper.NewInternalServerError("")
	}
	return &user, nil
}

// Snapshot returns the owner-facing profile view.
func (s *ProfileService) Snapshot(ctx context.Context, userID int) (model.PrivateUser, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return model.PrivateUser{}, err
	}
	return privateUser(user, s.store), nil
}

// sanitizeTimezoneMode falls back to the system mode on anything
// unrecognized rather than rejecting the update.
func sanitizeTimezoneMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == entity.TimezoneModeCustom {
		return entity.TimezoneModeCustom
	}
	return entity.TimezoneModeSystem
}

// sanitizeTimezoneOffset clamps to the UTC−12:00..UTC+14:00 range and
// snaps to the nearest half hour.
func sanitizeTimezoneOffset(offset float64) int {
	snapped := int(math.Round(offset/float64(entity.TimezoneStep))) * entity.TimezoneStep
	if snapped < entity.MinTimezoneOffset {
		return entity.MinTimezoneOffset
	}
	if snapped > entity.MaxTimezoneOffset {
		return entity.MaxTimezoneOffset
	}
	return snapped
}

func sanitizeDatetimeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if entity.AllowedDatetimeFormats[format] {
		return format
	}
	return entity.DefaultDatetimeFormat
}

// applyAvatar stores the new avatar (or removes the current one) and
// returns the replaced file so the caller can delete it after the
// commit. The new upload is deleted again when the transaction fails.
func (s *ProfileService) applyAvatar(ctx context.Context, tx *gorm.DB, user *entity.User, payload *model.AvatarPayload) (newFile string, oldFile string, err error) {
	if payload.Remove {
		if user.Avatar == nil {
			return "", "", nil
		}
		oldFile = user.Avatar.Filename
		oldID := user.Avatar.ID
		user.AvatarID = nil
		user.Avatar = nil
		if err := tx.Model(&entity.User{}).Where("id = ?", user.ID).Update("avatar_id", nil).Error; err != nil {
			return "", "", err
		}
		if err := tx.Delete(&entity.Avatar{}, oldID).Error; err != nil {
			return "", "", err
		}
		return "", oldFile, nil
	}

	data, err := helper.DecodeBase64Payload(payload.Data, "Avatar")
	if err != nil {
		return "", "", err
	}

	name := helper.NormalizeAttachmentName(payload.Name, "avatar.png")
	if !helper.IsAllowedImageName(name) {
		return "", "", helper.NewBadRequestError("Unsupported avatar type.")
	}

	mimetype := payload.Mimetype
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}

	newFile = helper.GenerateUniqueFileName(name)
	if err := s.store.Store(ctx, "avatars/"+newFile, mimetype, data); err != nil {
		slog.Error("Failed to store avatar", "error", err, "filename", newFile)
		return "", "", helper.NewInternalServerError("Failed to store avatar.")
	}

	avatar := entity.Avatar{Filename: newFile}
	if err := tx.Create(&avatar).Error; err != nil {
		return newFile, "", err
	}
	if err := tx.Model(&entity.User{}).Where("id = ?", user.ID).Update("avatar_id", avatar.ID).Error; err != nil {
		return newFile, "", err
	}

	// The old row goes only after the user points at the new one.
	if user.Avatar != nil {
		oldFile = user.Avatar.Filename
		if err := tx.Delete(&entity.Avatar{}, user.Avatar.ID).Error; err != nil {
			return newFile, "", err
		}
	}

	user.AvatarID = &avatar.ID
	user.Avatar = &avatar
	return newFile, oldFile, nil
}

// UpdateMe applies a profile update for the caller and pushes the
// refreshed profile to the caller's sessions and their friends.
func (s *ProfileService) UpdateMe(ctx context.Context, caller *model.UserDTO, req model.UpdateProfileRequest) (model.PrivateUser, error) {
	user, err := s.loadUser(ctx, caller.ID)
	if err != nil {
		return model.PrivateUser{}, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return model.PrivateUser{}, helper.NewBadRequestError("Display name is required.")
	}

	updates := map[string]interface{}{
		"display_name": displayName,
		"bio":          strings.TrimSpace(req.Bio),
	}
	if req.TimezoneMode != nil {
		updates["timezone_mode"] = sanitizeTimezoneMode(*req.TimezoneMode)
	}
	if req.TimezoneOffset != nil {
		updates["timezone_offset"] = sanitizeTimezoneOffset(*req.TimezoneOffset)
	}
	if req.DatetimeFormat != nil {
		updates["datetime_format"] = sanitizeDatetimeFormat(*req.DatetimeFormat)
	}

	var newFile, oldFile string
	avatarChanged := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.Avatar != nil {
			var err error
			newFile, oldFile, err = s.applyAvatar(ctx, tx, user, req.Avatar)
			if err != nil {
				return err
			}
			avatarChanged = true
		}
		return tx.Model(&entity.User{}).Where("id = ?", user.ID).Updates(updates).Error
	})
	if err != nil {
		if newFile != "" {
			if delErr := s.store.Delete(ctx, "avatars/"+newFile); delErr != nil {
				slog.Error("Failed to delete orphaned avatar", "error", delErr, "filename", newFile)
			}
		}
		var appErr *helper.AppError
		if errors.As(err, &appErr) {
			return model.PrivateUser{}, appErr
		}
		slog.Error("Failed to update profile", "error", err, "userID", user.ID)
		return model.PrivateUser{}, helper.NewInternalServerError("Failed to update profile.")
	}

	// The replaced file goes away only after the new state is durable.
	if oldFile != "" {
		if err := s.store.Delete(ctx, "avatars/"+oldFile); err != nil {
			slog.Error("Failed to delete previous avatar", "error", err, "filename", oldFile)
		}
	}

	fresh, err := s.loadUser(ctx, user.ID)
	if err != nil {
		return model.PrivateUser{}, err
	}

	snapshot := privateUser(fresh, s.store)
	public := snapshot.PublicUser
	now := time.Now().UTC().UnixMilli()

	s.hub.BroadcastToUser(user.ID, websocket.Event{
		Type:    websocket.EventProfileUpdate,
		Payload: snapshot,
		Meta:    &websocket.EventMeta{Timestamp: now, SenderID: user.ID},
	})

	var friendIDs []int
	if err := s.db.WithContext(ctx).Model(&entity.Friendship{}).
		Where("user_id = ?", user.ID).
		Pluck("friend_id", &friendIDs).Error; err != nil {
		slog.Error("Failed to list friends for profile broadcast", "error", err, "userID", user.ID)
	}
	for _, friendID := range friendIDs {
		s.hub.BroadcastToUser(friendID, websocket.Event{
			Type:    websocket.EventProfileUpdate,
			Payload: public,
			Meta:    &websocket.EventMeta{Timestamp: now, SenderID: user.ID},
		})
	}

	if avatarChanged {
		payload := map[string]interface{}{
			"user_id": user.ID,
			"avatar":  public.Avatar,
		}
		s.hub.BroadcastToUser(user.ID, websocket.Event{
			Type:    websocket.EventAvatarUpdated,
			Payload: payload,
			Meta:    &websocket.EventMeta{Timestamp: now, SenderID: user.ID},
		})
		for _, friendID := range friendIDs {
			s.hub.BroadcastToUser(friendID, websocket.Event{
				Type:    websocket.EventAvatarUpdated,
				Payload: payload,
				Meta:    &websocket.EventMeta{Timestamp: now, SenderID: user.ID},
			})
		}
		s.contacts.BroadcastContacts(ctx, user.ID)
		for _, friendID := range friendIDs {
			s.contacts.BroadcastContacts(ctx, friendID)
		}
	}

	return snapshot, nil
}
