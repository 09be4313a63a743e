package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"todo-planner/internal/model"
	"todo-planner/internal/repository"
	"todo-planner/internal/service"
	"todo-planner/internal/timezone"
	"todo-planner/pkg/logger"
)

const cbCompletePrefix = "complete:"

// Bot answers chat commands. Accounts are linked through the HTTP API with
// the one-time code /start hands out.
type Bot struct {
	api      *tgbotapi.BotAPI
	send     Sender
	userRepo *repository.UserRepository
	todoSvc  *service.ToDoService
	auth     *service.AuthService
	zone     *timezone.Zone
}

func New(token string, userRepo *repository.UserRepository, todoSvc *service.ToDoService, auth *service.AuthService, zone *timezone.Zone) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Info(context.Background(), "bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:      api,
		send:     api,
		userRepo: userRepo,
		todoSvc:  todoSvc,
		auth:     auth,
		zone:     zone,
	}, nil
}

// API exposes the client so notifications can share it.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	logger.Info(ctx, "start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				logger.Warn(ctx, "handle callback", "error", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				logger.Warn(ctx, "handle message", "error", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "I only understand commands. Try /help.")
	}

	logger.Debug(ctx, "command", "chat_id", msg.Chat.ID, "command", msg.Command())
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "todos":
		return b.handleListToDos(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.linkedUser(ctx, msg.Chat.ID)
	if err != nil {
		return err
	}
	if user != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf(
			"👋 Hi, %s! This chat receives notifications for <b>%s</b>.",
			escape(user.Name), escape(user.Email)))
	}
	code, err := b.auth.IssueLinkCode(ctx, msg.Chat.ID, time.Now())
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, linkInstructions(code))
}

func linkInstructions(code string) string {
	return fmt.Sprintf(
		"👋 Hi! To get notifications here, send this code from your account within %d minutes:\n<code>%s</code>\n\n"+
			"PUT /api/me with {\"telegram_link_code\": \"%s\"}",
		int(service.LinkCodeTTL.Minutes()), code, code)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /start · get a code to link this chat\n" +
		"• /todos · unfinished to-dos\n" +
		"• /done &lt;id&gt; · mark a to-do finished\n" +
		"• /help · this message"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleListToDos(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.requireUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	return b.sendToDoList(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Give the to-do id: /done 12")
	}
	id, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "The to-do id must be a number.")
	}
	user, err := b.requireUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	return b.complete(ctx, msg.Chat.ID, user, uint(id))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		logger.Warn(ctx, "callback ack", "error", err)
	}
	if !strings.HasPrefix(cb.Data, cbCompletePrefix) {
		return nil
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(cb.Data, cbCompletePrefix), 10, 64)
	if err != nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	user, err := b.requireUser(ctx, chatID)
	if err != nil || user == nil {
		return err
	}
	if err := b.complete(ctx, chatID, user, uint(id)); err != nil {
		return err
	}
	return b.sendToDoList(ctx, chatID, user)
}

// complete marks the to-do finished; an already finished one is left alone.
func (b *Bot) complete(ctx context.Context, chatID int64, user *model.User, id uint) error {
	todo, err := b.todoSvc.Get(ctx, user, id)
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrForbidden):
		return b.sendText(chatID, "To-do not found.")
	case err != nil:
		return err
	}
	if !todo.Completed {
		if todo, err = b.todoSvc.Toggle(ctx, user, id); err != nil {
			return err
		}
	}
	return b.sendText(chatID, fmt.Sprintf("✅ «%s» is finished.", escape(normalizeTitle(todo.Title))))
}

func (b *Bot) sendToDoList(ctx context.Context, chatID int64, user *model.User) error {
	open := false
	list, err := b.todoSvc.List(ctx, user, service.ToDoFilterInput{Completed: &open})
	if err != nil {
		return err
	}
	if len(list.ToDos) == 0 {
		return b.sendText(chatID, "Nothing left to do 🎉")
	}

	now := time.Now()
	var builder strings.Builder
	builder.WriteString("📋 <b>Unfinished to-dos</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, todo := range list.ToDos {
		builder.WriteString(formatToDo(todo, b.zone, now))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d · %s", todo.ID, shortTitle(todo.Title, 24)),
				fmt.Sprintf("%s%d", cbCompletePrefix, todo.ID)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.send.Send(msg)
	return err
}

func (b *Bot) linkedUser(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := b.userRepo.FindByTelegramChatID(ctx, chatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find linked user: %w", err)
	}
	return user, nil
}

// requireUser answers unlinked chats itself and returns a nil user for them.
func (b *Bot) requireUser(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := b.linkedUser(ctx, chatID)
	if err != nil || user != nil {
		return user, err
	}
	return nil, b.sendText(chatID, "This chat is not linked yet. Send /start to see how.")
}

func (b *Bot) sendText(chatID int64, text string) error {
	return sendHTML(b.send, chatID, text)
}
