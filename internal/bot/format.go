package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
	"todo-planner/internal/timezone"
)

const (
	iconDefault  = "🟢"
	iconDue      = "⏳"
	iconOverdue  = "⚠️"
	iconFinished = "✅"
	noCategory   = "No category"
)

// formatNotification renders one owner's batch as Telegram HTML.
func formatNotification(n service.Notification, zone *timezone.Zone, now time.Time) string {
	var b strings.Builder
	switch n.Kind {
	case model.NotificationExpired:
		b.WriteString("⏰ <b>Due today</b>\n")
		b.WriteString(fmt.Sprintf("🗓 %s · %d unfinished\n\n", n.Day, len(n.ToDos)))
	case model.NotificationFinished:
		b.WriteString("📋 <b>Yesterday's to-dos</b>\n")
		b.WriteString(fmt.Sprintf("🗓 %s · %d in total\n\n", n.Day, len(n.ToDos)))
	default:
		b.WriteString(fmt.Sprintf("🔔 <b>%s</b>\n\n", escape(string(n.Kind))))
	}
	for _, todo := range n.ToDos {
		b.WriteString(formatToDo(todo, zone, now))
	}
	return strings.TrimSpace(b.String())
}

func formatToDo(todo model.ToDo, zone *timezone.Zone, now time.Time) string {
	var b strings.Builder

	icon := iconDefault
	switch {
	case todo.Completed:
		icon = iconFinished
	case todo.DueDate != nil && now.After(*todo.DueDate):
		icon = iconOverdue
	case todo.DueDate != nil && todo.DueDate.Sub(now) <= 48*time.Hour:
		icon = iconDue
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, todo.ID, escape(normalizeTitle(todo.Title))))
	if todo.Category != nil {
		b.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(categoryLabel(todo.Category.Title))))
	}
	b.WriteByte('\n')

	if todo.DueDate != nil {
		due := zone.Format(*todo.DueDate)
		if !todo.Completed && now.After(*todo.DueDate) {
			b.WriteString(fmt.Sprintf("   ⏰ Due %s · <b>overdue</b>\n", due))
		} else {
			b.WriteString(fmt.Sprintf("   ⏰ Due %s\n", due))
		}
	}
	if len(todo.Tags) > 0 {
		names := make([]string, 0, len(todo.Tags))
		for _, tag := range todo.Tags {
			names = append(names, "#"+escape(tag.Name))
		}
		b.WriteString("   🏷️ " + strings.Join(names, " ") + "\n")
	}
	if d := strings.TrimSpace(todo.Description); d != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(d)))
	}
	b.WriteByte('\n')
	return b.String()
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func categoryLabel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return noCategory
	}
	return name
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen-1]) + "…"
}
