package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
)

func strPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }

func TestUpdateMeRequiresDisplayName(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	_, err := f.profiles.UpdateMe(context.Background(), alice, model.UpdateProfileRequest{DisplayName: "  "})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Display name is required.", appErr.Message)
}

func TestUpdateMeSanitizesSettings(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	snapshot, err := f.profiles.UpdateMe(context.Background(), alice, model.UpdateProfileRequest{
		DisplayName:    "Alice",
		Bio:            " hi there ",
		TimezoneMode:   strPtr("CUSTOM"),
		TimezoneOffset: floatPtr(95), // snaps to 90
		DatetimeFormat: strPtr("absolute_24h"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice", snapshot.DisplayName)
	assert.Equal(t, "hi there", snapshot.Bio)
	assert.Equal(t, "custom", snapshot.Settings.TimezoneMode)
	assert.Equal(t, 90, snapshot.Settings.TimezoneOffset)
	assert.Equal(t, "absolute_24h", snapshot.Settings.DatetimeFormat)
}

func TestUpdateMeFallsBackOnInvalidSettings(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	snapshot, err := f.profiles.UpdateMe(context.Background(), alice, model.UpdateProfileRequest{
		DisplayName:    "Alice",
		TimezoneMode:   strPtr("lunar"),
		TimezoneOffset: floatPtr(99999), // clamps to the max
		DatetimeFormat: strPtr("stardate"),
	})
	require.NoError(t, err)

	assert.Equal(t, "system", snapshot.Settings.TimezoneMode)
	assert.Equal(t, 840, snapshot.Settings.TimezoneOffset)
	assert.Equal(t, "relative", snapshot.Settings.DatetimeFormat)
}

func TestUpdateMeStoresAndReplacesAvatar(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	snapshot, err := f.profiles.UpdateMe(context.Background(), alice, model.UpdateProfileRequest{
		DisplayName: "Alice",
		Avatar:      &model.AvatarPayload{Data: "aGVsbG8=", Name: "me.png", Mimetype: "image/png"},
	})
	require.NoError(t, err)
	require.NotNil(t, snapshot.Avatar)
	assert.Contains(t, *snapshot.Avatar, "avatars/")
	assert.Equal(t, 1, f.store.stored())

	// Replacing deletes the previous file after commit.
	snapshot, err = f.profiles.UpdateMe(context.Background(), alice, model.UpdateProfileRequest{
		DisplayName: "Alice",
		Avatar:      &model.AvatarPayload{Data: "aGVsbG8=", Name: "new.png", Mimetype: "image/png"},
	})
	require.NoError(t, err)
	require.NotNil(t, snapshot.Avatar)
	assert.Equal(t, 1, f.store.stored())
	assert.Len(t, f.store.deleted, 1)
}

func TestUpdateMeRemovesAvatar(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	_, err := f.profiles.UpdateMe(context.Background(), alice, model.UpdateProfileRequest{
		DisplayName: "Alice",
		Avatar:      &model.AvatarPayload{Data: "aGVsbG8=", Name: "me.png", Mimetype: "image/png"},
	})
	require.NoError(t, err)

	snapshot, err := f.profiles.UpdateMe(context.Background(), alice, model.UpdateProfileRequest{
		DisplayName: "Alice",
		Avatar:      &model.AvatarPayload{Remove: true},
	})
	require.NoError(t, err)
	assert.Nil(t, snapshot.Avatar)
	assert.Equal(t, 0, f.store.stored())
}

func TestUpdateMeRejectsBadAvatar(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	_, err := f.profiles.UpdateMe(context.Background(), alice, model.UpdateProfileRequest{
		DisplayName: "Alice",
		Avatar:      &model.AvatarPayload{Data: "aGVsbG8=", Name: "script.exe"},
	})
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Unsupported avatar type.", appErr.Message)
	assert.Equal(t, 0, f.store.stored())
}

func TestSnapshotIncludesEmailAndSettings(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	snapshot, err := f.profiles.Snapshot(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", snapshot.Email)
	assert.Equal(t, "system", snapshot.Settings.TimezoneMode)
}
