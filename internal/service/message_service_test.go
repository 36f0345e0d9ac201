package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NovaTalkAPI/internal/entity"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
)

func openDirectChat(t *testing.T, f *fixture, a, b *model.UserDTO) model.ChatSummary {
	t.Helper()
	f.befriend(t, a, b)
	summary, err := f.chats.OpenDirect(context.Background(), a, b.ID, "")
	require.NoError(t, err)
	return summary
}

func TestSendMessagePersistsAndSerializes(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	chat := openDirectChat(t, f, alice, bob)

	dto, err := f.messages.Send(context.Background(), alice, model.SendMessageRequest{
		ChatID:    chat.ID,
		Body:      "  hello bob  ",
		ClientRef: "ref-1",
	})
	require.NoError(t, err)

	require.NotNil(t, dto.Body)
	assert.Equal(t, "hello bob", *dto.Body)
	assert.Equal(t, alice.ID, dto.SenderID)
	assert.Equal(t, "ref-1", dto.ClientRef)
	require.NotNil(t, dto.Sender)
	assert.Equal(t, "alice", dto.Sender.Username)
}

func TestSendMessageRejectsNonMember(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	eve := f.createUser(t, "eve")
	chat := openDirectChat(t, f, alice, bob)

	_, err := f.messages.Send(context.Background(), eve, model.SendMessageRequest{ChatID: chat.ID, Body: "hi"})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Chat not found", appErr.Message)
}

func TestSendMessageRechecksFriendship(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	chat := openDirectChat(t, f, alice, bob)

	require.NoError(t, f.friends.Remove(context.Background(), alice, bob.ID))

	_, err := f.messages.Send(context.Background(), alice, model.SendMessageRequest{ChatID: chat.ID, Body: "hi"})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "You must be friends before you can chat.", appErr.Message)
}

func TestSendMessageRejectsWhenBlocked(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	chat := openDirectChat(t, f, alice, bob)
	require.NoError(t, f.db.Create(&entity.BlockedUser{UserID: bob.ID, BlockedUserID: alice.ID}).Error)

	_, err := f.messages.Send(context.Background(), alice, model.SendMessageRequest{ChatID: chat.ID, Body: "hi"})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "You cannot send messages to this chat right now.", appErr.Message)
}

func TestSendMessageRejectsWhenBlockedByGroupMember(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	summary, invites, err := f.groups.Create(context.Background(), alice, "club", []model.InviteeRef{{ID: bob.ID}})
	require.NoError(t, err)
	require.Len(t, invites, 1)
	_, _, err = f.groups.Respond(context.Background(), bob, invites[0].ID, "accept")
	require.NoError(t, err)

	require.NoError(t, f.db.Create(&entity.BlockedUser{UserID: bob.ID, BlockedUserID: alice.ID}).Error)

	_, err = f.messages.Send(context.Background(), alice, model.SendMessageRequest{ChatID: summary.ID, Body: "hi"})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "You cannot send messages to this chat right now.", appErr.Message)
}

func TestSendMessageRejectsEmpty(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	chat := openDirectChat(t, f, alice, bob)

	_, err := f.messages.Send(context.Background(), alice, model.SendMessageRequest{ChatID: chat.ID, Body: "   "})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Message cannot be empty.", appErr.Message)
}

func TestSendMessageEmptyCheckedBeforeBlock(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	chat := openDirectChat(t, f, alice, bob)
	require.NoError(t, f.db.Create(&entity.BlockedUser{UserID: bob.ID, BlockedUserID: alice.ID}).Error)

	_, err := f.messages.Send(context.Background(), alice, model.SendMessageRequest{ChatID: chat.ID, Body: ""})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Message cannot be empty.", appErr.Message)
}

func TestSendMessageStoresAttachments(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	chat := openDirectChat(t, f, alice, bob)

	dto, err := f.messages.Send(context.Background(), alice, model.SendMessageRequest{
		ChatID: chat.ID,
		Attachments: []model.AttachmentPayload{
			{Data: "data:image/png;base64,aGVsbG8=", Name: "pic.png", Mimetype: "image/png"},
		},
	})
	require.NoError(t, err)

	require.Len(t, dto.Attachments, 1)
	assert.Equal(t, "image/png", dto.Attachments[0].Mimetype)
	assert.Contains(t, dto.Attachments[0].URL, "messages/")
	assert.Equal(t, 1, f.store.stored())
	assert.Nil(t, dto.Body)
}

func TestSendMessageRejectsBadAttachmentEncoding(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	chat := openDirectChat(t, f, alice, bob)

	_, err := f.messages.Send(context.Background(), alice, model.SendMessageRequest{
		ChatID: chat.ID,
		Attachments: []model.AttachmentPayload{
			{Data: "%%%not-base64%%%", Name: "pic.png"},
		},
	})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Invalid attachment encoding.", appErr.Message)
}

func TestSendMessageCompensatesOnRejectedAttachment(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	chat := openDirectChat(t, f, alice, bob)

	// The first upload lands, the second is rejected; the first must be
	// deleted again and no message row persisted.
	_, err := f.messages.Send(context.Background(), alice, model.SendMessageRequest{
		ChatID: chat.ID,
		Attachments: []model.AttachmentPayload{
			{Data: "aGVsbG8=", Name: "ok.png", Mimetype: "image/png"},
			{Data: "aGVsbG8=", Name: "nope.txt"},
		},
	})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Unsupported attachment type.", appErr.Message)

	var messages int64
	f.db.Model(&entity.Message{}).Count(&messages)
	assert.EqualValues(t, 0, messages)
	assert.Equal(t, 0, f.store.stored())
	assert.Len(t, f.store.deleted, 1)
}

func TestTypingExcludedForNonMembers(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	eve := f.createUser(t, "eve")
	bob := f.createUser(t, "bob")
	chat := openDirectChat(t, f, alice, bob)

	// A non-member typing event is dropped without error.
	f.messages.Typing(context.Background(), eve, nil, chat.ID, true)
	f.messages.Typing(context.Background(), alice, nil, chat.ID, true)
}
