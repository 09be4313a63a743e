package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo-planner/internal/model"
)

// NotificationLogRepository remembers which to-dos a job already reported.
type NotificationLogRepository struct {
	db *gorm.DB
}

func NewNotificationLogRepository(db *gorm.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

// Claim records (kind, day, todoID) and reports whether this call was the
// first to do so.
func (r *NotificationLogRepository) Claim(ctx context.Context, kind model.NotificationKind, day string, todoID uint) (bool, error) {
	entry := model.NotificationLog{ToDoID: todoID, Kind: kind, Day: day}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	if res.Error != nil {
		return false, fmt.Errorf("claim notification: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Release forgets a claim so a later run reports the to-do again.
func (r *NotificationLogRepository) Release(ctx context.Context, kind model.NotificationKind, day string, todoID uint) error {
	err := r.db.WithContext(ctx).
		Where("todo_id = ? AND kind = ? AND day = ?", todoID, kind, day).
		Delete(&model.NotificationLog{}).Error
	if err != nil {
		return fmt.Errorf("release notification: %w", err)
	}
	return nil
}
