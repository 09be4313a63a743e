package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"todo-planner/internal/model"
	"todo-planner/internal/repository"
)

// LinkCodeTTL is how long a Telegram link code stays valid.
const LinkCodeTTL = 10 * time.Minute

// AuthService registers users, issues and checks their tokens and links
// Telegram chats.
type AuthService struct {
	users  *repository.UserRepository
	links  *repository.TelegramLinkRepository
	secret []byte
	ttl    time.Duration
}

func NewAuthService(users *repository.UserRepository, links *repository.TelegramLinkRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, links: links, secret: []byte(secret), ttl: ttl}
}

// Register creates the user and returns a fresh token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string, now time.Time) (*model.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}
	token, err := s.issue(user, now)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string, now time.Time) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issue(user, now)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves the user a token was issued to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidCredentials
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByID(ctx, uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// IssueLinkCode hands out a one-time code for the chat. The code is only
// shown inside that chat, so submitting it proves control of the chat.
func (s *AuthService) IssueLinkCode(ctx context.Context, chatID int64, now time.Time) (string, error) {
	link := &model.TelegramLink{
		Code:      strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]),
		ChatID:    chatID,
		ExpiresAt: now.Add(LinkCodeTTL).UTC(),
	}
	if err := s.links.Issue(ctx, link); err != nil {
		return "", err
	}
	return link.Code, nil
}

// LinkTelegram links the chat that issued code to user; an empty code
// unlinks.
func (s *AuthService) LinkTelegram(ctx context.Context, user *model.User, code string, now time.Time) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return s.users.UpdateTelegramChatID(ctx, user, nil)
	}

	chatID, err := s.links.Consume(ctx, code, now)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		verr := NewValidationError()
		verr.Add("telegram_link_code", msgLinkCodeInvalid)
		return verr
	}
	if err != nil {
		return fmt.Errorf("consume link code: %w", err)
	}

	err = s.users.UpdateTelegramChatID(ctx, user, &chatID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		verr := NewValidationError()
		verr.Add("telegram_chat_id", msgChatLinked)
		return verr
	}
	return err
}

func (s *AuthService) issue(user *model.User, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
