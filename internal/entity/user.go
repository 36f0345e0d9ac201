package entity

import (
	"time"

	"gorm.io/gorm"

	"NovaTalkAPI/internal/helper"
)

const (
	TimezoneModeSystem = "system"
	TimezoneModeCustom = "custom"

	DefaultTimezoneMode   = TimezoneModeSystem
	DefaultTimezoneOffset = 0
	DefaultDatetimeFormat = "relative"

	MinTimezoneOffset = -12 * 60
	MaxTimezoneOffset = 14 * 60
	TimezoneStep      = 30
)

var AllowedDatetimeFormats = map[string]bool{
	"relative":     true,
	"absolute_12h": true,
	"absolute_24h": true,
}

type Avatar struct {
	ID        int       `gorm:"primaryKey"`
	Filename  string    `gorm:"size:255;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Avatar) TableName() string { return "avatars" }

type User struct {
	ID             int     `gorm:"primaryKey"`
	DisplayName    string  `gorm:"size:120;not null"`
	Username       string  `gorm:"size:80;uniqueIndex;not null"`
	Email          string  `gorm:"size:255;uniqueIndex;not null"`
	Bio            string  `gorm:"type:text;not null;default:''"`
	AvatarID       *int    `gorm:"index"`
	Avatar         *Avatar `gorm:"foreignKey:AvatarID"`
	Online         bool    `gorm:"not null;default:false"`
	LastSeen       time.Time
	TimezoneMode   string `gorm:"size:20;not null;default:system"`
	TimezoneOffset int    `gorm:"not null;default:0"`
	DatetimeFormat string `gorm:"size:40;not null;default:relative"`
	CreatedAt      time.Time
}

func (User) TableName() string { return "users" }

// BeforeSave keeps identity columns in their canonical lowercase form,
// mirroring what identifier lookups expect.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Username = helper.NormalizeUsername(u.Username)
	u.Email = helper.NormalizeEmail(u.Email)
	return nil
}
