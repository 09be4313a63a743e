package model

import "time"

// Category groups to-dos and caps how many of them it may hold.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Title     string    `gorm:"size:255" json:"title"`
	MaxToDos  int       `json:"max_to_dos"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tags []Tag `gorm:"-" json:"tags"`
	// RemainingToDos is max_to_dos minus the number of assigned to-dos.
	RemainingToDos int `gorm:"-" json:"remaining_to_dos"`
}

// CategoryTag links a category to a tag; Position keeps submission order.
type CategoryTag struct {
	CategoryID uint `gorm:"primaryKey"`
	TagID      uint `gorm:"primaryKey;index"`
	Position   int
}

func (CategoryTag) TableName() string {
	return "category_tags"
}
