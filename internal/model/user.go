package model

import "time"

// User owns categories, to-dos and tags.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `json:"name"`
	Email          string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash   string    `json:"-"`
	TelegramChatID *int64    `gorm:"uniqueIndex" json:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
