package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"todo-planner/internal/model"
)

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	TagID *uint
}

// Empty reports whether no filter is set.
func (f CategoryFilter) Empty() bool {
	return f.TagID == nil
}

// CategoryRepository manages to-do categories.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create stores the category and its tags in one transaction.
func (r *CategoryRepository) Create(ctx context.Context, category *model.Category, tagNames []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(category).Error; err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		tags, err := attachTags(tx, categoryTags, category.ID, category.UserID, tagNames)
		if err != nil {
			return err
		}
		category.Tags = tags
		return nil
	})
	if err != nil {
		return err
	}
	return r.fillRemaining(ctx, []*model.Category{category})
}

// Update saves title and capacity and replaces the tag set.
func (r *CategoryRepository) Update(ctx context.Context, category *model.Category, tagNames []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(category).Select("title", "max_to_dos").Updates(category).Error; err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		tags, err := attachTags(tx, categoryTags, category.ID, category.UserID, tagNames)
		if err != nil {
			return err
		}
		category.Tags = tags
		return nil
	})
	if err != nil {
		return err
	}
	return r.fillRemaining(ctx, []*model.Category{category})
}

// Delete removes the category. Its to-dos stay and lose the category.
func (r *CategoryRepository) Delete(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ToDo{}).Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("release to-dos: %w", err)
		}
		if err := detachTags(tx, categoryTags, category.ID); err != nil {
			return err
		}
		if err := tx.Delete(&model.Category{}, category.ID).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

// FindByID loads a category with its tags and remaining capacity, whoever owns it.
func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	tags, err := loadTags(r.db.WithContext(ctx), categoryTags, []uint{category.ID})
	if err != nil {
		return nil, err
	}
	category.Tags = tags[category.ID]
	if err := r.fillRemaining(ctx, []*model.Category{&category}); err != nil {
		return nil, err
	}
	return &category, nil
}

// List returns the user's categories ordered by title, with tags and remaining capacity.
func (r *CategoryRepository) List(ctx context.Context, userID uint, filter CategoryFilter) ([]model.Category, error) {
	q := r.db.WithContext(ctx).Scopes(OwnedBy(userID))
	if filter.TagID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM category_tags WHERE category_tags.category_id = categories.id AND category_tags.tag_id = ?)", *filter.TagID)
	}
	var categories []model.Category
	if err := q.Order("title ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	if err := r.decorate(ctx, categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListByUser returns every category of the user ordered by title, without tags.
func (r *CategoryRepository) ListByUser(ctx context.Context, userID uint) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Scopes(OwnedBy(userID)).Order("title ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListWithToDos returns the user's categories holding at least one to-do.
func (r *CategoryRepository) ListWithToDos(ctx context.Context, userID uint) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Scopes(OwnedBy(userID)).
		Where("EXISTS (SELECT 1 FROM to_dos WHERE to_dos.category_id = categories.id)").
		Order("title ASC, id ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// CountToDos counts to-dos assigned to the category, leaving out excludeToDoID when non-zero.
func (r *CategoryRepository) CountToDos(ctx context.Context, categoryID, excludeToDoID uint) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ToDo{}).Where("category_id = ?", categoryID)
	if excludeToDoID != 0 {
		q = q.Where("id <> ?", excludeToDoID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count category to-dos: %w", err)
	}
	return n, nil
}

func (r *CategoryRepository) decorate(ctx context.Context, categories []model.Category) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(categories))
	ptrs := make([]*model.Category, 0, len(categories))
	for i := range categories {
		ids = append(ids, categories[i].ID)
		ptrs = append(ptrs, &categories[i])
	}
	tags, err := loadTags(r.db.WithContext(ctx), categoryTags, ids)
	if err != nil {
		return err
	}
	for _, c := range ptrs {
		c.Tags = tags[c.ID]
	}
	return r.fillRemaining(ctx, ptrs)
}

type categoryCount struct {
	CategoryID uint
	Total      int
}

func (r *CategoryRepository) fillRemaining(ctx context.Context, categories []*model.Category) error {
	ids := make([]uint, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	var counts []categoryCount
	err := r.db.WithContext(ctx).Model(&model.ToDo{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return fmt.Errorf("count category to-dos: %w", err)
	}
	byID := make(map[uint]int, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.Total
	}
	for _, c := range categories {
		c.RemainingToDos = c.MaxToDos - byID[c.ID]
		if c.Tags == nil {
			c.Tags = []model.Tag{}
		}
	}
	return nil
}
