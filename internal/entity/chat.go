package entity

import "time"

type Chat struct {
	ID        int    `gorm:"primaryKey"`
	Name      string `gorm:"size:120"`
	IsGroup   bool   `gorm:"not null;default:false"`
	CreatorID *int
	Creator   *User        `gorm:"foreignKey:CreatorID"`
	Members   []ChatMember `gorm:"constraint:OnDelete:CASCADE"`
	Messages  []Message    `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (Chat) TableName() string { return "chats" }

type ChatMember struct {
	ID       int  `gorm:"primaryKey"`
	ChatID   int  `gorm:"not null;uniqueIndex:uniq_chat_user"`
	UserID   int  `gorm:"not null;uniqueIndex:uniq_chat_user"`
	IsAdmin  bool `gorm:"not null;default:false"`
	User     User      `gorm:"foreignKey:UserID"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMember) TableName() string { return "chat_members" }

type GroupInvite struct {
	ID          int    `gorm:"primaryKey"`
	ChatID      int    `gorm:"not null;uniqueIndex:uniq_group_invite"`
	InviterID   int    `gorm:"not null"`
	InviteeID   int    `gorm:"not null;uniqueIndex:uniq_group_invite"`
	Status      string `gorm:"size:20;not null;default:pending"`
	Chat        Chat   `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
	Inviter     User   `gorm:"foreignKey:InviterID"`
	Invitee     User   `gorm:"foreignKey:InviteeID"`
	CreatedAt   time.Time
	RespondedAt *time.Time
}

func (GroupInvite) TableName() string { return "group_invites" }
