// Package guard holds the pure authorization predicates every
// mutating operation evaluates. Nothing here writes.
package guard

import (
	"context"

	"gorm.io/gorm"

	"NovaTalkAPI/internal/entity"
)

type Guard struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Guard {
	return &Guard{db: db}
}

// MutualFriends reports whether both directed friendship rows exist.
// A user is always mutual friends with themselves.
func (g *Guard) MutualFriends(ctx context.Context, userID, otherID int) (bool, error) {
	if userID == otherID {
		return true, nil
	}

	var count int64
	err := g.db.WithContext(ctx).Model(&entity.Friendship{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, otherID, otherID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 2, nil
}

// IsBlockedBy reports whether blocker has blocked userID.
func (g *Guard) IsBlockedBy(ctx context.Context, userID, blockerID int) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&entity.BlockedUser{}).
		Where("user_id = ? AND blocked_user_id = ?", blockerID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsBlockedByAny reports whether any of the given users has blocked
// userID.
func (g *Guard) IsBlockedByAny(ctx context.Context, userID int, blockerIDs []int) (bool, error) {
	if len(blockerIDs) == 0 {
		return false, nil
	}

	var count int64
	err := g.db.WithContext(ctx).Model(&entity.BlockedUser{}).
		Where("user_id IN ? AND blocked_user_id = ?", blockerIDs, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g *Guard) IsChatMember(ctx context.Context, chatID, userID int) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&entity.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g *Guard) IsChatAdmin(ctx context.Context, chatID, userID int) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&entity.ChatMember{}).
		Where("chat_id = ? AND user_id = ? AND is_admin = ?", chatID, userID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
