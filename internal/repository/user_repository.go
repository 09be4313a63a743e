package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"todo-planner/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user. A taken email surfaces as gorm.ErrDuplicatedKey.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByIDs loads the given users keyed by id.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []uint) (map[uint]model.User, error) {
	out := make(map[uint]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// UpdateTelegramChatID links the chat, or unlinks with nil. A chat already
// linked to another user surfaces as gorm.ErrDuplicatedKey.
func (r *UserRepository) UpdateTelegramChatID(ctx context.Context, user *model.User, chatID *int64) error {
	if err := r.db.WithContext(ctx).Model(user).Update("telegram_chat_id", chatID).Error; err != nil {
		return fmt.Errorf("update telegram chat: %w", err)
	}
	user.TelegramChatID = chatID
	return nil
}

// FindByTelegramChatID finds the user linked to a Telegram chat.
func (r *UserRepository) FindByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_chat_id = ?", chatID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
