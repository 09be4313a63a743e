package service

import (
	"context"
	"fmt"

	"todo-planner/internal/model"
	"todo-planner/pkg/logger"
)

// OptionCache stores per-user filter options between requests.
type OptionCache interface {
	// Remember fills dest from the cache, or from load on a miss.
	Remember(ctx context.Context, key string, dest any, load func(context.Context) (any, error)) error
	Forget(ctx context.Context, keys ...string) error
}

// Option is one selectable filter value.
type Option struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ToDoOptions lists the categories and tags that currently hold to-dos.
type ToDoOptions struct {
	Categories []Option `json:"categories"`
	Tags       []Option `json:"tags"`
}

// CategoryOptions lists the tags that currently label categories.
type CategoryOptions struct {
	Tags []Option `json:"tags"`
}

func toDoOptionsKey(userID uint) string {
	return fmt.Sprintf("filters:todos:%d", userID)
}

func categoryOptionsKey(userID uint) string {
	return fmt.Sprintf("filters:categories:%d", userID)
}

func tagOptions(tags []model.Tag) []Option {
	out := make([]Option, 0, len(tags))
	for _, t := range tags {
		out = append(out, Option{ID: t.ID, Name: t.Name})
	}
	return out
}

func categoryOptions(categories []model.Category) []Option {
	out := make([]Option, 0, len(categories))
	for _, c := range categories {
		out = append(out, Option{ID: c.ID, Name: c.Title})
	}
	return out
}

// forgetOptions drops both option sets of the user; any write can change either.
func forgetOptions(ctx context.Context, cache OptionCache, userID uint) {
	if cache == nil {
		return
	}
	if err := cache.Forget(ctx, toDoOptionsKey(userID), categoryOptionsKey(userID)); err != nil {
		logger.Warn(ctx, "forget filter options", "user_id", userID, "error", err)
	}
}
