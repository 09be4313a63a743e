package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"todo-planner/internal/model"
)

// ToDoFilter narrows a to-do listing. Due bounds are instants: DueFrom is
// inclusive, DueBefore exclusive, and either one excludes undated to-dos.
type ToDoFilter struct {
	CategoryID *uint
	TagID      *uint
	Completed  *bool
	DueFrom    *time.Time
	DueBefore  *time.Time
}

// Empty reports whether no filter is set.
func (f ToDoFilter) Empty() bool {
	return f.CategoryID == nil && f.TagID == nil && f.Completed == nil &&
		f.DueFrom == nil && f.DueBefore == nil
}

func (f ToDoFilter) scope(db *gorm.DB) *gorm.DB {
	if f.TagID != nil {
		db = db.Where("EXISTS (SELECT 1 FROM todo_tags WHERE todo_tags.todo_id = to_dos.id AND todo_tags.tag_id = ?)", *f.TagID)
	}
	if f.CategoryID != nil {
		db = db.Where("to_dos.category_id = ?", *f.CategoryID)
	}
	if f.Completed != nil {
		db = db.Where("to_dos.completed = ?", *f.Completed)
	}
	if f.DueFrom != nil {
		db = db.Where("to_dos.due_date IS NOT NULL AND to_dos.due_date >= ?", f.DueFrom.UTC())
	}
	if f.DueBefore != nil {
		db = db.Where("to_dos.due_date IS NOT NULL AND to_dos.due_date < ?", f.DueBefore.UTC())
	}
	return db
}

// ToDoRepository handles CRUD for to-dos.
type ToDoRepository struct {
	db *gorm.DB
}

func NewToDoRepository(db *gorm.DB) *ToDoRepository {
	return &ToDoRepository{db: db}
}

// Create stores the to-do and its tags in one transaction.
func (r *ToDoRepository) Create(ctx context.Context, todo *model.ToDo, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category").Create(todo).Error; err != nil {
			return fmt.Errorf("create to-do: %w", err)
		}
		tags, err := attachTags(tx, toDoTags, todo.ID, todo.UserID, tagNames)
		if err != nil {
			return err
		}
		todo.Tags = tags
		return nil
	})
}

// Update saves the editable fields and replaces the tag set.
func (r *ToDoRepository) Update(ctx context.Context, todo *model.ToDo, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(todo).Omit("Category").
			Select("title", "description", "due_date", "category_id").
			Updates(todo).Error; err != nil {
			return fmt.Errorf("update to-do: %w", err)
		}
		tags, err := attachTags(tx, toDoTags, todo.ID, todo.UserID, tagNames)
		if err != nil {
			return err
		}
		todo.Tags = tags
		return nil
	})
}

func (r *ToDoRepository) SetCompleted(ctx context.Context, todo *model.ToDo, completed bool) error {
	if err := r.db.WithContext(ctx).Model(todo).Update("completed", completed).Error; err != nil {
		return fmt.Errorf("toggle to-do: %w", err)
	}
	todo.Completed = completed
	return nil
}

// Delete detaches the to-do's tags and removes it.
func (r *ToDoRepository) Delete(ctx context.Context, todo *model.ToDo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := detachTags(tx, toDoTags, todo.ID); err != nil {
			return err
		}
		if err := tx.Delete(&model.ToDo{}, todo.ID).Error; err != nil {
			return fmt.Errorf("delete to-do: %w", err)
		}
		return nil
	})
}

// FindByID loads a to-do with its category and tags, whoever owns it.
func (r *ToDoRepository) FindByID(ctx context.Context, id uint) (*model.ToDo, error) {
	var todo model.ToDo
	if err := r.db.WithContext(ctx).Preload("Category").First(&todo, id).Error; err != nil {
		return nil, err
	}
	todos := []model.ToDo{todo}
	if err := r.withTags(ctx, todos); err != nil {
		return nil, err
	}
	return &todos[0], nil
}

// List returns the user's to-dos matching filter. Filtered results are ordered
// by due date with undated to-dos last; unfiltered ones newest first.
func (r *ToDoRepository) List(ctx context.Context, userID uint, filter ToDoFilter) ([]model.ToDo, error) {
	q := r.db.WithContext(ctx).
		Preload("Category").
		Scopes(OwnedBy(userID), filter.scope)
	if filter.Empty() {
		q = q.Order("to_dos.created_at DESC, to_dos.id DESC")
	} else {
		q = q.Order("to_dos.due_date IS NULL, to_dos.due_date ASC, to_dos.id ASC")
	}

	var todos []model.ToDo
	if err := q.Find(&todos).Error; err != nil {
		return nil, err
	}
	if err := r.withTags(ctx, todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// ListDueBetween returns to-dos of every user due in [from, to), ordered by
// owner and due date. With openOnly, completed to-dos are left out.
func (r *ToDoRepository) ListDueBetween(ctx context.Context, from, to time.Time, openOnly bool) ([]model.ToDo, error) {
	filter := ToDoFilter{DueFrom: &from, DueBefore: &to}
	if openOnly {
		completed := false
		filter.Completed = &completed
	}
	var todos []model.ToDo
	if err := r.db.WithContext(ctx).
		Scopes(filter.scope).
		Order("to_dos.user_id ASC, to_dos.due_date ASC, to_dos.id ASC").
		Find(&todos).Error; err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *ToDoRepository) withTags(ctx context.Context, todos []model.ToDo) error {
	ids := make([]uint, 0, len(todos))
	for _, t := range todos {
		ids = append(ids, t.ID)
	}
	tags, err := loadTags(r.db.WithContext(ctx), toDoTags, ids)
	if err != nil {
		return err
	}
	for i := range todos {
		todos[i].Tags = tags[todos[i].ID]
		if todos[i].Tags == nil {
			todos[i].Tags = []model.Tag{}
		}
	}
	return nil
}
