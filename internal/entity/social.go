package entity

import "time"

const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusDeclined = "declined"
)

// Friendship is a directed edge. A mutual friendship is always two
// rows (A->B and B->A) created and removed together.
type Friendship struct {
	ID        int  `gorm:"primaryKey"`
	UserID    int  `gorm:"not null;uniqueIndex:uniq_friendship"`
	FriendID  int  `gorm:"not null;uniqueIndex:uniq_friendship"`
	User      User `gorm:"foreignKey:UserID"`
	Friend    User `gorm:"foreignKey:FriendID"`
	CreatedAt time.Time
}

func (Friendship) TableName() string { return "friendships" }

type FriendRequest struct {
	ID         int    `gorm:"primaryKey"`
	SenderID   int    `gorm:"not null;uniqueIndex:uniq_friend_request"`
	ReceiverID int    `gorm:"not null;uniqueIndex:uniq_friend_request"`
	Status     string `gorm:"size:20;not null;default:pending"`
	Sender     User   `gorm:"foreignKey:SenderID"`
	Receiver   User   `gorm:"foreignKey:ReceiverID"`
	CreatedAt  time.Time
}

func (FriendRequest) TableName() string { return "friend_requests" }

// BlockedUser suppresses friend requests and messages from the
// blocked party towards the blocker.
type BlockedUser struct {
	ID            int  `gorm:"primaryKey"`
	UserID        int  `gorm:"not null;uniqueIndex:uniq_block"`
	BlockedUserID int  `gorm:"not null;uniqueIndex:uniq_block"`
	User          User `gorm:"foreignKey:UserID"`
	Blocked       User `gorm:"foreignKey:BlockedUserID"`
	CreatedAt     time.Time
}

func (BlockedUser) TableName() string { return "blocked_users" }
