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

func TestGroupCreateRequiresName(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	_, _, err := f.groups.Create(context.Background(), alice, "   ", nil)
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Group name is required", appErr.Message)
}

func TestGroupCreateInvitesResolvedTolerantly(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	eve := f.createUser(t, "eve")

	refs := []model.InviteeRef{
		{ID: bob.ID},
		{Username: "eve"},
		{Username: "ghost"}, // unresolvable, dropped
		{ID: bob.ID},        // duplicate, dropped
		{ID: alice.ID},      // creator, skipped
	}

	summary, invites, err := f.groups.Create(context.Background(), alice, "book club", refs)
	require.NoError(t, err)

	assert.True(t, summary.IsGroup)
	assert.Equal(t, "book club", summary.Name)
	require.Len(t, summary.Members, 1)
	assert.Equal(t, alice.ID, summary.Members[0].User.ID)
	assert.True(t, summary.Members[0].IsAdmin)

	require.Len(t, invites, 2)
	inviteeIDs := []int{invites[0].Invitee.ID, invites[1].Invitee.ID}
	assert.ElementsMatch(t, []int{bob.ID, eve.ID}, inviteeIDs)
}

func TestGroupInviteAdminOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	eve := f.createUser(t, "eve")

	summary, invites, err := f.groups.Create(context.Background(), alice, "club", []model.InviteeRef{{ID: bob.ID}})
	require.NoError(t, err)
	require.Len(t, invites, 1)

	_, _, err = f.groups.Respond(context.Background(), bob, invites[0].ID, "accept")
	require.NoError(t, err)

	_, err = f.groups.Invite(context.Background(), bob, summary.ID, []model.InviteeRef{{ID: eve.ID}})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Only group admins can invite members.", appErr.Message)
}

func TestGroupInviteNoInvitees(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	summary, _, err := f.groups.Create(context.Background(), alice, "club", nil)
	require.NoError(t, err)

	_, err = f.groups.Invite(context.Background(), alice, summary.ID, []model.InviteeRef{{Username: "ghost"}})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "No invitees specified.", appErr.Message)
}

func TestGroupInviteFiltersMembersAndDuplicates(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	summary, _, err := f.groups.Create(context.Background(), alice, "club", []model.InviteeRef{{ID: bob.ID}})
	require.NoError(t, err)

	// Bob already has a pending invite; nothing new to create.
	_, err = f.groups.Invite(context.Background(), alice, summary.ID, []model.InviteeRef{{ID: bob.ID}})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "No new invitations were created.", appErr.Message)
}

func TestGroupRespondAcceptAddsMember(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	created, invites, err := f.groups.Create(context.Background(), alice, "club", []model.InviteeRef{{ID: bob.ID}})
	require.NoError(t, err)
	require.Len(t, invites, 1)

	status, summary, err := f.groups.Respond(context.Background(), bob, invites[0].ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, "accepted", status)
	require.NotNil(t, summary)
	assert.Equal(t, created.ID, summary.ID)
	assert.Len(t, summary.Members, 2)

	var invite entity.GroupInvite
	require.NoError(t, f.db.First(&invite, invites[0].ID).Error)
	assert.Equal(t, entity.RequestStatusAccepted, invite.Status)
	assert.NotNil(t, invite.RespondedAt)
}

func TestGroupRespondDeclineIsTerminal(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	_, invites, err := f.groups.Create(context.Background(), alice, "club", []model.InviteeRef{{ID: bob.ID}})
	require.NoError(t, err)
	require.Len(t, invites, 1)

	status, summary, err := f.groups.Respond(context.Background(), bob, invites[0].ID, "decline")
	require.NoError(t, err)
	assert.Equal(t, "declined", status)
	assert.Nil(t, summary)

	// Settled invites cannot be answered again.
	_, _, err = f.groups.Respond(context.Background(), bob, invites[0].ID, "accept")
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Invitation not found.", appErr.Message)
}

func TestGroupRespondWrongInvitee(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	eve := f.createUser(t, "eve")

	_, invites, err := f.groups.Create(context.Background(), alice, "club", []model.InviteeRef{{ID: bob.ID}})
	require.NoError(t, err)
	require.Len(t, invites, 1)

	_, _, err = f.groups.Respond(context.Background(), eve, invites[0].ID, "accept")
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Invitation not found.", appErr.Message)
}

func TestGroupRespondInvalidAction(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	_, _, err := f.groups.Respond(context.Background(), alice, 1, "maybe")
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Invalid invitation response.", appErr.Message)
}
