package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"NovaTalkAPI/internal/entity"
	"NovaTalkAPI/internal/guard"
	"NovaTalkAPI/internal/model"
	"NovaTalkAPI/internal/websocket"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, entity.Migrate(db))
	return db
}

// fakeStore is an in-memory BlobStore recording every call.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failOn  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Store(_ context.Context, path string, _ string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && path == f.failOn {
		return fmt.Errorf("store failed for %s", path)
	}
	f.objects[path] = data
	return nil
}

func (f *fakeStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, path)
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeStore) PublicURL(path string) string {
	return "https://cdn.test/" + path
}

func (f *fakeStore) stored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fixture struct {
	db       *gorm.DB
	store    *fakeStore
	hub      *websocket.Hub
	guard    *guard.Guard
	contacts *ContactService
	friends  *FriendService
	chats    *ChatService
	groups   *GroupService
	messages *MessageService
	profiles *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := openTestDB(t)
	store := newFakeStore()
	hub := websocket.NewHub(nil)
	g := guard.New(db)

	contacts := NewContactService(db, store, hub)
	chats := NewChatService(db, g, store, hub)

	return &fixture{
		db:       db,
		store:    store,
		hub:      hub,
		guard:    g,
		contacts: contacts,
		friends:  NewFriendService(db, g, store, hub, contacts),
		chats:    chats,
		groups:   NewGroupService(db, g, store, hub, chats, contacts),
		messages: NewMessageService(db, g, store, hub),
		profiles: NewProfileService(db, store, hub, contacts),
	}
}

func (f *fixture) createUser(t *testing.T, username string) *model.UserDTO {
	t.Helper()

	user := entity.User{
		DisplayName:    username,
		Username:       username,
		Email:          username + "@example.com",
		TimezoneMode:   entity.DefaultTimezoneMode,
		DatetimeFormat: entity.DefaultDatetimeFormat,
	}
	require.NoError(t, f.db.Create(&user).Error)

	return &model.UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}

// befriend inserts both directed rows directly.
func (f *fixture) befriend(t *testing.T, a, b *model.UserDTO) {
	t.Helper()
	require.NoError(t, f.db.Create(&entity.Friendship{UserID: a.ID, FriendID: b.ID}).Error)
	require.NoError(t, f.db.Create(&entity.Friendship{UserID: b.ID, FriendID: a.ID}).Error)
}
