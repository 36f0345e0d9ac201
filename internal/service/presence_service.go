package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"NovaTalkAPI/internal/adapter"
	"NovaTalkAPI/internal/entity"
)

const presenceKeyTTL = 90 * time.Second

// PresenceService tracks who is connected. The hub reports first and
// last connections; the service flips the durable online flag, keeps a
// short-lived cache key for cross-process checks, and lets friends know
// through a contacts refresh.
type PresenceService struct {
	db       *gorm.DB
	redis    *adapter.RedisAdapter
	contacts *ContactService
}

func NewPresenceService(db *gorm.DB, redis *adapter.RedisAdapter, contacts *ContactService) *PresenceService {
	return &PresenceService{
		db:       db,
		redis:    redis,
		contacts: contacts,
	}
}

func presenceKey(userID int) string {
	return fmt.Sprintf("online:%d", userID)
}

func (s *PresenceService) setOnline(ctx context.Context, userID int, online bool) {
	updates := map[string]interface{}{
		"online":    online,
		"last_seen": time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		slog.Error("Failed to update presence flag", "error", err, "userID", userID, "online", online)
	}

	if s.redis != nil {
		var err error
		if online {
			err = s.redis.Set(ctx, presenceKey(userID), "1", presenceKeyTTL)
		} else {
			err = s.redis.Del(ctx, presenceKey(userID))
		}
		if err != nil {
			slog.Error("Failed to update presence cache", "error", err, "userID", userID, "online", online)
		}
	}
}

// notifyFriends refreshes the contacts view of everyone who has the
// user in their friend list, so presence dots update live.
func (s *PresenceService) notifyFriends(ctx context.Context, userID int) {
	var friendIDs []int
	err := s.db.WithContext(ctx).Model(&entity.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &friendIDs).Error
	if err != nil {
		slog.Error("Failed to list friends for presence update", "error", err, "userID", userID)
		return
	}
	for _, friendID := range friendIDs {
		s.contacts.BroadcastContacts(ctx, friendID)
	}
}

func (s *PresenceService) UserOnline(userID int) {
	ctx := context.Background()
	s.setOnline(ctx, userID, true)
	s.notifyFriends(ctx, userID)
}

func (s *PresenceService) UserOffline(userID int) {
	ctx := context.Background()
	s.setOnline(ctx, userID, false)
	s.notifyFriends(ctx, userID)
}
