package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/repository"
)

func TestRegisterLoginAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := NewAuthService(f.users, repository.NewTelegramLinkRepository(f.db), "test-secret", time.Hour)

	user, token, err := auth.Register(ctx, "Ana", " Ana@Example.com ", "password123", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	authed, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, _, err = auth.Register(ctx, "Again", "ana@example.com", "password123", time.Now())
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = auth.Login(ctx, "ana@example.com", "wrong", time.Now())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, "nobody@example.com", "password123", time.Now())
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, token, err = auth.Login(ctx, "ANA@example.com", "password123", time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := NewAuthService(f.users, repository.NewTelegramLinkRepository(f.db), "test-secret", time.Hour)
	other := NewAuthService(f.users, repository.NewTelegramLinkRepository(f.db), "other-secret", time.Hour)

	_, token, err := other.Register(ctx, "Ana", "ana@example.com", "password123", time.Now())
	require.NoError(t, err)

	_, err = auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, expired, err := auth.Login(ctx, "ana@example.com", "password123", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLinkTelegramWithCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	auth := NewAuthService(f.users, repository.NewTelegramLinkRepository(f.db), "test-secret", time.Hour)
	user := f.user(t, "a@example.com")

	code, err := auth.IssueLinkCode(ctx, 777, now)
	require.NoError(t, err)
	require.Len(t, code, 10)

	require.NoError(t, auth.LinkTelegram(ctx, user, strings.ToLower(code), now))
	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TelegramChatID)
	assert.Equal(t, int64(777), *stored.TelegramChatID)

	err = auth.LinkTelegram(ctx, user, code, now)
	requireFieldError(t, err, "telegram_link_code", "The telegram link code is invalid or has expired.")

	require.NoError(t, auth.LinkTelegram(ctx, user, "", now))
	stored, err = f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TelegramChatID)
}

func TestLinkCodeExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	auth := NewAuthService(f.users, repository.NewTelegramLinkRepository(f.db), "test-secret", time.Hour)
	user := f.user(t, "a@example.com")

	code, err := auth.IssueLinkCode(ctx, 777, now)
	require.NoError(t, err)

	err = auth.LinkTelegram(ctx, user, code, now.Add(LinkCodeTTL+time.Second))
	requireFieldError(t, err, "telegram_link_code", "")
}

func TestChatLinksToOneAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	auth := NewAuthService(f.users, repository.NewTelegramLinkRepository(f.db), "test-secret", time.Hour)
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")

	code, err := auth.IssueLinkCode(ctx, 4242, now)
	require.NoError(t, err)
	require.NoError(t, auth.LinkTelegram(ctx, owner, code, now))

	code, err = auth.IssueLinkCode(ctx, 4242, now)
	require.NoError(t, err)
	err = auth.LinkTelegram(ctx, other, code, now)
	requireFieldError(t, err, "telegram_chat_id", "This Telegram chat is already linked to another account.")

	linked, err := f.users.FindByTelegramChatID(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, linked.ID)
}
