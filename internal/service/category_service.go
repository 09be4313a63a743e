package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"todo-planner/internal/model"
	"todo-planner/internal/repository"
)

// CategoryInput represents data submitted to create or update a category.
type CategoryInput struct {
	Title    string
	MaxToDos int
	Tags     []string
}

// CategoryFilterInput is the raw category filter as submitted by the client.
type CategoryFilterInput struct {
	TagID *uint `json:"tag_id"`
}

// CategoryList is a filtered listing together with what can be filtered on.
type CategoryList struct {
	Categories []model.Category
	Options    CategoryOptions
	Filters    CategoryFilterInput
}

// CategoryService provides category use cases.
type CategoryService struct {
	repo    *repository.CategoryRepository
	tagRepo *repository.TagRepository
	cache   OptionCache
}

func NewCategoryService(repo *repository.CategoryRepository, tagRepo *repository.TagRepository, cache OptionCache) *CategoryService {
	return &CategoryService{repo: repo, tagRepo: tagRepo, cache: cache}
}

func (s *CategoryService) List(ctx context.Context, user *model.User, in CategoryFilterInput) (*CategoryList, error) {
	var filter repository.CategoryFilter
	if in.TagID != nil {
		verr := NewValidationError()
		if err := checkTagFilter(ctx, s.tagRepo, user, *in.TagID, verr); err != nil {
			return nil, err
		}
		if err := verr.OrNil(); err != nil {
			return nil, err
		}
		filter.TagID = in.TagID
	}

	categories, err := s.repo.List(ctx, user.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	options, err := s.Options(ctx, user)
	if err != nil {
		return nil, err
	}
	return &CategoryList{Categories: categories, Options: options, Filters: in}, nil
}

// Options returns the user's tags that label at least one category.
func (s *CategoryService) Options(ctx context.Context, user *model.User) (CategoryOptions, error) {
	load := func(ctx context.Context) (any, error) {
		tags, err := s.tagRepo.ListWithCategories(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("list tag options: %w", err)
		}
		return CategoryOptions{Tags: tagOptions(tags)}, nil
	}

	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return CategoryOptions{}, err
		}
		return v.(CategoryOptions), nil
	}
	var options CategoryOptions
	if err := s.cache.Remember(ctx, categoryOptionsKey(user.ID), &options, load); err != nil {
		return CategoryOptions{}, err
	}
	return options, nil
}

// Get loads a category the user owns.
func (s *CategoryService) Get(ctx context.Context, user *model.User, id uint) (*model.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if category.UserID != user.ID {
		return nil, ErrForbidden
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, user *model.User, in CategoryInput) (*model.Category, error) {
	category := &model.Category{UserID: user.ID, Title: in.Title, MaxToDos: in.MaxToDos}
	if err := s.repo.Create(ctx, category, in.Tags); err != nil {
		return nil, err
	}
	forgetOptions(ctx, s.cache, user.ID)
	return category, nil
}

// Update applies in to a category previously loaded with Get.
func (s *CategoryService) Update(ctx context.Context, user *model.User, category *model.Category, in CategoryInput) (*model.Category, error) {
	if category.UserID != user.ID {
		return nil, ErrForbidden
	}
	category.Title = in.Title
	category.MaxToDos = in.MaxToDos
	if err := s.repo.Update(ctx, category, in.Tags); err != nil {
		return nil, err
	}
	forgetOptions(ctx, s.cache, user.ID)
	return category, nil
}

// Delete removes the category; its to-dos are kept without a category.
func (s *CategoryService) Delete(ctx context.Context, user *model.User, id uint) error {
	category, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, category); err != nil {
		return err
	}
	forgetOptions(ctx, s.cache, user.ID)
	return nil
}
