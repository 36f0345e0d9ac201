package service

import (
	"context"
	"fmt"

	"NovaTalkAPI/internal/entity"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
)

// BlobStore is the storage boundary the services need: binary blob in,
// stable reference out, delete as compensating action.
type BlobStore interface {
	Store(ctx context.Context, path string, contentType string, data []byte) error
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}

func avatarURL(u *entity.User, store BlobStore) *string {
	if u == nil || u.Avatar == nil {
		return nil
	}
	url := fmt.Sprintf("%s?v=%d", store.PublicURL("avatars/"+u.Avatar.Filename), u.Avatar.CreatedAt.Unix())
	return &url
}

func publicUser(u *entity.User, store BlobStore) model.PublicUser {
	lastSeen := helper.ToUTCISO(u.LastSeen)
	return model.PublicUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Username:    u.Username,
		Avatar:      avatarURL(u, store),
		Bio:         u.Bio,
		Online:      u.Online,
		LastSeen:    &lastSeen,
	}
}

func privateUser(u *entity.User, store BlobStore) model.PrivateUser {
	return model.PrivateUser{
		PublicUser: publicUser(u, store),
		Email:      u.Email,
		Settings: model.SettingsPayload{
			TimezoneMode:   u.TimezoneMode,
			TimezoneOffset: u.TimezoneOffset,
			DatetimeFormat: u.DatetimeFormat,
		},
	}
}

func memberDTO(m *entity.ChatMember, store BlobStore) model.MemberDTO {
	return model.MemberDTO{
		ID:       m.ID,
		User:     publicUser(&m.User, store),
		IsAdmin:  m.IsAdmin,
		JoinedAt: helper.ToUTCISO(m.JoinedAt),
	}
}

func attachmentDTO(a *entity.MessageAttachment, store BlobStore) model.AttachmentDTO {
	return model.AttachmentDTO{
		ID:       a.ID,
		URL:      fmt.Sprintf("%s?v=%d", store.PublicURL("messages/"+a.Filename), a.CreatedAt.Unix()),
		Mimetype: a.Mimetype,
		Filename: a.Filename,
	}
}

// messageDTO expects Sender (with avatar) and Attachments preloaded.
func messageDTO(msg *entity.Message, store BlobStore) model.MessageDTO {
	attachments := make([]model.AttachmentDTO, 0, len(msg.Attachments))
	for i := range msg.Attachments {
		attachments = append(attachments, attachmentDTO(&msg.Attachments[i], store))
	}

	sender := publicUser(&msg.Sender, store)
	return model.MessageDTO{
		ID:          msg.ID,
		ChatID:      msg.ChatID,
		SenderID:    msg.SenderID,
		Body:        msg.Body,
		CreatedAt:   helper.ToUTCISO(msg.CreatedAt),
		Attachments: attachments,
		Sender:      &sender,
	}
}

// inviteDTO expects Chat, Inviter and Invitee preloaded.
func inviteDTO(inv *entity.GroupInvite, store BlobStore) model.GroupInviteDTO {
	var chatName *string
	if inv.Chat.ID != 0 {
		name := inv.Chat.Name
		chatName = &name
	}

	dto := model.GroupInviteDTO{
		ID:        inv.ID,
		ChatID:    inv.ChatID,
		ChatName:  chatName,
		GroupID:   inv.ChatID,
		GroupName: chatName,
		CreatedAt: helper.ToUTCISO(inv.CreatedAt),
		Status:    inv.Status,
	}
	if inv.Inviter.ID != 0 {
		u := publicUser(&inv.Inviter, store)
		dto.Inviter = &u
	}
	if inv.Invitee.ID != 0 {
		u := publicUser(&inv.Invitee, store)
		dto.Invitee = &u
	}
	return dto
}
