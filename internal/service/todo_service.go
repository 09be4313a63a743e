package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"todo-planner/internal/model"
	"todo-planner/internal/repository"
	"todo-planner/internal/timezone"
)

// ToDoInput represents data submitted to create or update a to-do.
type ToDoInput struct {
	Title       string
	Description string
	CategoryID  *uint
	// DueDate is a naive datetime in the display zone; empty means none.
	DueDate string
	Tags    []string
}

// ToDoFilterInput is the raw filter as submitted by the client.
type ToDoFilterInput struct {
	CategoryID *uint  `json:"category_id"`
	TagID      *uint  `json:"tag_id"`
	Completed  *bool  `json:"completed"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// ToDoList is a filtered listing together with what can be filtered on.
type ToDoList struct {
	ToDos   []model.ToDo
	Options ToDoOptions
	Filters ToDoFilterInput
}

// ToDoService wraps to-do business logic.
type ToDoService struct {
	todoRepo     *repository.ToDoRepository
	categoryRepo *repository.CategoryRepository
	tagRepo      *repository.TagRepository
	zone         *timezone.Zone
	cache        OptionCache
}

func NewToDoService(
	todoRepo *repository.ToDoRepository,
	categoryRepo *repository.CategoryRepository,
	tagRepo *repository.TagRepository,
	zone *timezone.Zone,
	cache OptionCache,
) *ToDoService {
	return &ToDoService{
		todoRepo:     todoRepo,
		categoryRepo: categoryRepo,
		tagRepo:      tagRepo,
		zone:         zone,
		cache:        cache,
	}
}

func (s *ToDoService) Zone() *timezone.Zone {
	return s.zone
}

// List returns the user's to-dos matching every given filter.
func (s *ToDoService) List(ctx context.Context, user *model.User, in ToDoFilterInput) (*ToDoList, error) {
	filter, err := s.resolveFilter(ctx, user, in)
	if err != nil {
		return nil, err
	}
	todos, err := s.todoRepo.List(ctx, user.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list to-dos: %w", err)
	}
	options, err := s.Options(ctx, user)
	if err != nil {
		return nil, err
	}
	return &ToDoList{ToDos: todos, Options: options, Filters: in}, nil
}

// Options returns the categories and tags of the user that hold to-dos.
func (s *ToDoService) Options(ctx context.Context, user *model.User) (ToDoOptions, error) {
	load := func(ctx context.Context) (any, error) {
		categories, err := s.categoryRepo.ListWithToDos(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("list category options: %w", err)
		}
		tags, err := s.tagRepo.ListWithToDos(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("list tag options: %w", err)
		}
		return ToDoOptions{Categories: categoryOptions(categories), Tags: tagOptions(tags)}, nil
	}

	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return ToDoOptions{}, err
		}
		return v.(ToDoOptions), nil
	}
	var options ToDoOptions
	if err := s.cache.Remember(ctx, toDoOptionsKey(user.ID), &options, load); err != nil {
		return ToDoOptions{}, err
	}
	return options, nil
}

// FormCategories lists every category the user can pick, ordered by title.
func (s *ToDoService) FormCategories(ctx context.Context, user *model.User) ([]model.Category, error) {
	categories, err := s.categoryRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Get loads a to-do the user owns.
func (s *ToDoService) Get(ctx context.Context, user *model.User, id uint) (*model.ToDo, error) {
	todo, err := s.todoRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find to-do: %w", err)
	}
	if todo.UserID != user.ID {
		return nil, ErrForbidden
	}
	return todo, nil
}

func (s *ToDoService) Create(ctx context.Context, user *model.User, in ToDoInput, now time.Time) (*model.ToDo, error) {
	todo := &model.ToDo{UserID: user.ID}
	if err := s.apply(ctx, user, todo, in, now); err != nil {
		return nil, err
	}
	if err := s.todoRepo.Create(ctx, todo, in.Tags); err != nil {
		return nil, err
	}
	forgetOptions(ctx, s.cache, user.ID)
	return s.todoRepo.FindByID(ctx, todo.ID)
}

// Update applies in to a to-do previously loaded with Get.
func (s *ToDoService) Update(ctx context.Context, user *model.User, todo *model.ToDo, in ToDoInput, now time.Time) (*model.ToDo, error) {
	if todo.UserID != user.ID {
		return nil, ErrForbidden
	}
	if err := s.apply(ctx, user, todo, in, now); err != nil {
		return nil, err
	}
	if err := s.todoRepo.Update(ctx, todo, in.Tags); err != nil {
		return nil, err
	}
	forgetOptions(ctx, s.cache, user.ID)
	return s.todoRepo.FindByID(ctx, todo.ID)
}

// Toggle flips the completed flag.
func (s *ToDoService) Toggle(ctx context.Context, user *model.User, id uint) (*model.ToDo, error) {
	todo, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := s.todoRepo.SetCompleted(ctx, todo, !todo.Completed); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *ToDoService) Delete(ctx context.Context, user *model.User, id uint) error {
	todo, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.todoRepo.Delete(ctx, todo); err != nil {
		return err
	}
	forgetOptions(ctx, s.cache, user.ID)
	return nil
}

// apply validates the domain rules of in and copies it onto todo.
func (s *ToDoService) apply(ctx context.Context, user *model.User, todo *model.ToDo, in ToDoInput, now time.Time) error {
	verr := NewValidationError()

	var due *time.Time
	if raw := strings.TrimSpace(in.DueDate); raw != "" {
		parsed, err := s.zone.Parse(raw)
		if err != nil {
			verr.Add("due_date", msgDueDateInvalid)
		} else {
			floor := MinimumAllowedDueDate(todo.DueDate, now, s.zone)
			if parsed.Before(floor) {
				verr.Add("due_date", fmt.Sprintf(msgDueDateBefore, s.zone.Format(floor)))
			}
			due = &parsed
		}
	}

	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, user, *in.CategoryID, todo.ID, verr); err != nil {
			return err
		}
	}

	if err := verr.OrNil(); err != nil {
		return err
	}

	todo.Title = in.Title
	todo.Description = in.Description
	todo.DueDate = due
	todo.CategoryID = in.CategoryID
	todo.Category = nil
	return nil
}

// checkCategory enforces ownership and capacity of the target category. The
// to-do being saved never counts against its own assignment.
func (s *ToDoService) checkCategory(ctx context.Context, user *model.User, categoryID, todoID uint, verr *ValidationError) error {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		verr.Add("category_id", msgCategoryInvalid)
		return nil
	}
	if err != nil {
		return fmt.Errorf("find category: %w", err)
	}
	if category.UserID != user.ID {
		verr.Add("category_id", msgCategoryInvalid)
		return nil
	}

	assigned, err := s.categoryRepo.CountToDos(ctx, categoryID, todoID)
	if err != nil {
		return err
	}
	if !HasFreeSpace(category.MaxToDos, assigned) {
		verr.Add("category_id", msgCategoryFull)
	}
	return nil
}

// resolveFilter checks filter ids against ownership and turns the date range
// into UTC bounds of whole display-zone days.
func (s *ToDoService) resolveFilter(ctx context.Context, user *model.User, in ToDoFilterInput) (repository.ToDoFilter, error) {
	filter := repository.ToDoFilter{Completed: in.Completed}
	verr := NewValidationError()

	if in.CategoryID != nil {
		category, err := s.categoryRepo.FindByID(ctx, *in.CategoryID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			verr.Add("category_id", msgCategoryInvalid)
		case err != nil:
			return filter, fmt.Errorf("find category: %w", err)
		case category.UserID != user.ID:
			return filter, ErrForbidden
		default:
			filter.CategoryID = in.CategoryID
		}
	}

	if in.TagID != nil {
		if err := checkTagFilter(ctx, s.tagRepo, user, *in.TagID, verr); err != nil {
			return filter, err
		}
		filter.TagID = in.TagID
	}

	var start time.Time
	if raw := strings.TrimSpace(in.StartDate); raw != "" {
		day, err := s.zone.ParseDate(raw)
		if err != nil {
			verr.Add("start_date", msgStartDateInvalid)
		} else {
			start = day
			from := day.UTC()
			filter.DueFrom = &from
		}
	}
	if raw := strings.TrimSpace(in.EndDate); raw != "" {
		day, err := s.zone.ParseDate(raw)
		switch {
		case err != nil:
			verr.Add("end_date", msgEndDateInvalid)
		case !start.IsZero() && day.Before(start):
			verr.Add("end_date", msgEndBeforeStart)
		default:
			before := day.AddDate(0, 0, 1).UTC()
			filter.DueBefore = &before
		}
	}

	return filter, verr.OrNil()
}

func checkTagFilter(ctx context.Context, tags *repository.TagRepository, user *model.User, tagID uint, verr *ValidationError) error {
	tag, err := tags.FindByID(ctx, tagID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		verr.Add("tag_id", msgTagInvalid)
		return nil
	case err != nil:
		return fmt.Errorf("find tag: %w", err)
	case tag.UserID != user.ID:
		return ErrForbidden
	}
	return nil
}
