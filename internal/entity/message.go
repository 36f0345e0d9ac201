package entity

import "time"

type Message struct {
	ID          int                 `gorm:"primaryKey"`
	ChatID      int                 `gorm:"not null;index"`
	SenderID    int                 `gorm:"not null"`
	Body        *string             `gorm:"type:text"`
	Sender      User                `gorm:"foreignKey:SenderID"`
	Attachments []MessageAttachment `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"index"`
}

func (Message) TableName() string { return "messages" }

type MessageAttachment struct {
	ID        int    `gorm:"primaryKey"`
	MessageID int    `gorm:"not null;index"`
	Filename  string `gorm:"size:255;not null"`
	Mimetype  string `gorm:"size:120;not null"`
	CreatedAt time.Time
}

func (MessageAttachment) TableName() string { return "message_attachments" }
