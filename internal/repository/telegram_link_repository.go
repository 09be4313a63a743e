package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"todo-planner/internal/model"
)

// TelegramLinkRepository stores pending chat link codes.
type TelegramLinkRepository struct {
	db *gorm.DB
}

func NewTelegramLinkRepository(db *gorm.DB) *TelegramLinkRepository {
	return &TelegramLinkRepository{db: db}
}

// Issue replaces any pending code of the chat with link.
func (r *TelegramLinkRepository) Issue(ctx context.Context, link *model.TelegramLink) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ? OR expires_at <= ?", link.ChatID, time.Now().UTC()).
			Delete(&model.TelegramLink{}).Error; err != nil {
			return fmt.Errorf("drop old link codes: %w", err)
		}
		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("create link code: %w", err)
		}
		return nil
	})
}

// Consume returns the chat of an unexpired code and deletes the code.
// Unknown or expired codes return gorm.ErrRecordNotFound.
func (r *TelegramLinkRepository) Consume(ctx context.Context, code string, now time.Time) (int64, error) {
	var chatID int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link model.TelegramLink
		if err := tx.Where("code = ? AND expires_at > ?", code, now.UTC()).First(&link).Error; err != nil {
			return err
		}
		res := tx.Where("code = ?", code).Delete(&model.TelegramLink{})
		if res.Error != nil {
			return fmt.Errorf("consume link code: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		chatID = link.ChatID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return chatID, nil
}
