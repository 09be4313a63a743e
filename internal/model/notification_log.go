package model

import "time"

// NotificationKind names one of the scheduled batch jobs.
type NotificationKind string

const (
	NotificationExpired  NotificationKind = "expired"
	NotificationFinished NotificationKind = "finished"
)

// NotificationLog records that a to-do was already reported by a job on a given day.
type NotificationLog struct {
	ID        uint             `gorm:"primaryKey"`
	ToDoID    uint             `gorm:"column:todo_id;uniqueIndex:idx_notification_once"`
	Kind      NotificationKind `gorm:"size:16;uniqueIndex:idx_notification_once"`
	Day       string           `gorm:"size:10;uniqueIndex:idx_notification_once"`
	CreatedAt time.Time
}
