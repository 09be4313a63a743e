package model

import "time"

// ToDo represents a single item in the planner. DueDate is always stored in UTC.
type ToDo struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index" json:"user_id"`
	CategoryID  *uint      `gorm:"index" json:"category_id"`
	Category    *Category  `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Title       string     `gorm:"size:255" json:"title"`
	Description string     `json:"description"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	DueDate     *time.Time `gorm:"index" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Tags []Tag `gorm:"-" json:"tags"`
}

// TableName pins the table name so the join table and raw predicates agree on it.
func (ToDo) TableName() string {
	return "to_dos"
}

// ToDoTag links a to-do to a tag; Position keeps submission order.
type ToDoTag struct {
	ToDoID   uint `gorm:"primaryKey;column:todo_id"`
	TagID    uint `gorm:"primaryKey;index"`
	Position int
}

func (ToDoTag) TableName() string {
	return "todo_tags"
}
