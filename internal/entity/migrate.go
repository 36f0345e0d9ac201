package entity

import "gorm.io/gorm"

// Migrate creates the schema in FK dependency order.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Avatar{},
		&User{},
		&Friendship{},
		&FriendRequest{},
		&BlockedUser{},
		&Chat{},
		&ChatMember{},
		&GroupInvite{},
		&Message{},
		&MessageAttachment{},
	)
}
