package model

import "time"

// Tag is a per-user label shared by categories and to-dos.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_tag_owner_name" json:"user_id"`
	Name      string    `gorm:"uniqueIndex:idx_tag_owner_name;size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
