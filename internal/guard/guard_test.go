package guard

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"NovaTalkAPI/internal/entity"
)

func setup(t *testing.T) (*gorm.DB, *Guard) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, entity.Migrate(db))
	return db, New(db)
}

func createUser(t *testing.T, db *gorm.DB, username string) int {
	t.Helper()
	user := entity.User{DisplayName: username, Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func TestMutualFriendsNeedsBothRows(t *testing.T) {
	db, g := setup(t)
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	mutual, err := g.MutualFriends(context.Background(), a, b)
	require.NoError(t, err)
	assert.False(t, mutual)

	require.NoError(t, db.Create(&entity.Friendship{UserID: a, FriendID: b}).Error)
	mutual, err = g.MutualFriends(context.Background(), a, b)
	require.NoError(t, err)
	assert.False(t, mutual)

	require.NoError(t, db.Create(&entity.Friendship{UserID: b, FriendID: a}).Error)
	mutual, err = g.MutualFriends(context.Background(), a, b)
	require.NoError(t, err)
	assert.True(t, mutual)
}

func TestMutualFriendsWithSelf(t *testing.T) {
	db, g := setup(t)
	a := createUser(t, db, "a")

	mutual, err := g.MutualFriends(context.Background(), a, a)
	require.NoError(t, err)
	assert.True(t, mutual)
}

func TestIsBlockedByIsDirectional(t *testing.T) {
	db, g := setup(t)
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	require.NoError(t, db.Create(&entity.BlockedUser{UserID: b, BlockedUserID: a}).Error)

	blocked, err := g.IsBlockedBy(context.Background(), a, b)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = g.IsBlockedBy(context.Background(), b, a)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestIsBlockedByAnyScansAllBlockers(t *testing.T) {
	db, g := setup(t)
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")
	require.NoError(t, db.Create(&entity.BlockedUser{UserID: c, BlockedUserID: a}).Error)

	blocked, err := g.IsBlockedByAny(context.Background(), a, []int{b, c})
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = g.IsBlockedByAny(context.Background(), a, []int{b})
	require.NoError(t, err)
	assert.False(t, blocked)

	blocked, err = g.IsBlockedByAny(context.Background(), a, nil)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestChatMembershipAndAdmin(t *testing.T) {
	db, g := setup(t)
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	chat := entity.Chat{IsGroup: true, Name: "room"}
	require.NoError(t, db.Create(&chat).Error)
	require.NoError(t, db.Create(&entity.ChatMember{ChatID: chat.ID, UserID: a, IsAdmin: true}).Error)
	require.NoError(t, db.Create(&entity.ChatMember{ChatID: chat.ID, UserID: b}).Error)

	isMember, err := g.IsChatMember(context.Background(), chat.ID, b)
	require.NoError(t, err)
	assert.True(t, isMember)

	isAdmin, err := g.IsChatAdmin(context.Background(), chat.ID, b)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	isAdmin, err = g.IsChatAdmin(context.Background(), chat.ID, a)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}
