package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-planner/internal/service"
	"todo-planner/internal/timezone"
)

// Sender is the part of the Telegram API used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers notification batches to the owner's linked chat.
type Notifier struct {
	api  Sender
	zone *timezone.Zone
	now  func() time.Time
}

func NewNotifier(api Sender, zone *timezone.Zone) *Notifier {
	return &Notifier{api: api, zone: zone, now: time.Now}
}

// Notify sends n as one HTML message. Owners without a linked chat are skipped.
func (n *Notifier) Notify(ctx context.Context, note service.Notification) error {
	if note.User.TelegramChatID == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	text := formatNotification(note, n.zone, n.now())
	if err := sendHTML(n.api, *note.User.TelegramChatID, text); err != nil {
		return fmt.Errorf("telegram notify user %d: %w", note.User.ID, err)
	}
	return nil
}

func sendHTML(api Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := api.Send(msg)
	return err
}
