package controller

import (
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/timezone"
)

type tagView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type categoryRef struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type toDoView struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Completed   bool         `json:"completed"`
	DueDate     *string      `json:"due_date"`
	CategoryID  *uint        `json:"category_id"`
	Category    *categoryRef `json:"category"`
	Tags        []tagView    `json:"tags"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type categoryView struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	MaxToDos       int       `json:"max_to_dos"`
	RemainingToDos int       `json:"remaining_to_dos"`
	Tags           []tagView `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func tagViews(tags []model.Tag) []tagView {
	out := make([]tagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagView{ID: t.ID, Name: t.Name})
	}
	return out
}

// newToDoView renders due_date as a naive datetime in the display zone.
func newToDoView(todo *model.ToDo, zone *timezone.Zone) toDoView {
	v := toDoView{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		DueDate:     zone.FormatPtr(todo.DueDate),
		CategoryID:  todo.CategoryID,
		Tags:        tagViews(todo.Tags),
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
	if todo.Category != nil {
		v.Category = &categoryRef{ID: todo.Category.ID, Title: todo.Category.Title}
	}
	return v
}

func toDoViews(todos []model.ToDo, zone *timezone.Zone) []toDoView {
	out := make([]toDoView, 0, len(todos))
	for i := range todos {
		out = append(out, newToDoView(&todos[i], zone))
	}
	return out
}

func newCategoryView(c *model.Category) categoryView {
	return categoryView{
		ID:             c.ID,
		Title:          c.Title,
		MaxToDos:       c.MaxToDos,
		RemainingToDos: c.RemainingToDos,
		Tags:           tagViews(c.Tags),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func categoryViews(categories []model.Category) []categoryView {
	out := make([]categoryView, 0, len(categories))
	for i := range categories {
		out = append(out, newCategoryView(&categories[i]))
	}
	return out
}

// categoryRefs is the short form used by to-do forms.
func categoryRefs(categories []model.Category) []categoryRef {
	out := make([]categoryRef, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryRef{ID: c.ID, Title: c.Title})
	}
	return out
}
