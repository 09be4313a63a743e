package model

import "time"

// TelegramLink is a one-time code a chat hands out so an account can prove
// it controls that chat.
type TelegramLink struct {
	Code      string    `gorm:"primaryKey;size:16"`
	ChatID    int64     `gorm:"uniqueIndex"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}
