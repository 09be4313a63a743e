package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo-planner/internal/model"
)

// taggable describes one of the join tables linking tags to an entity kind.
type taggable struct {
	table  string
	column string
	rows   func(entityID uint, tagIDs []uint) interface{}
}

var (
	toDoTags = taggable{
		table:  "todo_tags",
		column: "todo_id",
		rows: func(entityID uint, tagIDs []uint) interface{} {
			rows := make([]model.ToDoTag, 0, len(tagIDs))
			for i, id := range tagIDs {
				rows = append(rows, model.ToDoTag{ToDoID: entityID, TagID: id, Position: i})
			}
			return rows
		},
	}
	categoryTags = taggable{
		table:  "category_tags",
		column: "category_id",
		rows: func(entityID uint, tagIDs []uint) interface{} {
			rows := make([]model.CategoryTag, 0, len(tagIDs))
			for i, id := range tagIDs {
				rows = append(rows, model.CategoryTag{CategoryID: entityID, TagID: id, Position: i})
			}
			return rows
		},
	}
)

// TagRepository manages per-user tags and their associations.
type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) FindByID(ctx context.Context, id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindByName looks a tag up inside the owner's scope.
func (r *TagRepository) FindByName(ctx context.Context, ownerID uint, name string) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", ownerID, name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListWithToDos returns the owner's tags attached to at least one to-do.
func (r *TagRepository) ListWithToDos(ctx context.Context, ownerID uint) ([]model.Tag, error) {
	return r.listAttached(ctx, ownerID, toDoTags)
}

// ListWithCategories returns the owner's tags attached to at least one category.
func (r *TagRepository) ListWithCategories(ctx context.Context, ownerID uint) ([]model.Tag, error) {
	return r.listAttached(ctx, ownerID, categoryTags)
}

func (r *TagRepository) listAttached(ctx context.Context, ownerID uint, t taggable) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.WithContext(ctx).
		Scopes(OwnedBy(ownerID)).
		Where("EXISTS (SELECT 1 FROM " + t.table + " WHERE " + t.table + ".tag_id = tags.id)").
		Order("name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// AttachToDoTags replaces the to-do's tags with the named ones, creating missing tags.
func (r *TagRepository) AttachToDoTags(ctx context.Context, todo *model.ToDo, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := attachTags(tx, toDoTags, todo.ID, todo.UserID, names)
		if err != nil {
			return err
		}
		todo.Tags = tags
		return nil
	})
}

// AttachCategoryTags replaces the category's tags with the named ones, creating missing tags.
func (r *TagRepository) AttachCategoryTags(ctx context.Context, category *model.Category, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := attachTags(tx, categoryTags, category.ID, category.UserID, names)
		if err != nil {
			return err
		}
		category.Tags = tags
		return nil
	})
}

// attachTags resolves names to the owner's tags (first-or-create) and syncs the
// entity's association set to exactly that list, in submission order.
func attachTags(tx *gorm.DB, t taggable, entityID, ownerID uint, names []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(names))
	seen := make(map[uint]bool, len(names))
	for _, name := range names {
		tag, err := firstOrCreateTag(tx, ownerID, name)
		if err != nil {
			return nil, err
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		tags = append(tags, tag)
	}

	ids := make([]uint, 0, len(tags))
	for _, tag := range tags {
		ids = append(ids, tag.ID)
	}
	if err := syncTags(tx, t, entityID, ids); err != nil {
		return nil, err
	}
	return tags, nil
}

// firstOrCreateTag never fails on a concurrent insert of the same name: the
// conflicting insert is skipped and the winner's row is read back.
func firstOrCreateTag(tx *gorm.DB, ownerID uint, name string) (model.Tag, error) {
	var tag model.Tag
	err := tx.Where("user_id = ? AND name = ?", ownerID, name).First(&tag).Error
	switch {
	case err == nil:
		return tag, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return tag, fmt.Errorf("find tag: %w", err)
	}

	tag = model.Tag{UserID: ownerID, Name: name}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return tag, fmt.Errorf("create tag: %w", res.Error)
	}
	if res.Error == nil && res.RowsAffected > 0 && tag.ID != 0 {
		return tag, nil
	}

	tag = model.Tag{}
	if err := tx.Where("user_id = ? AND name = ?", ownerID, name).First(&tag).Error; err != nil {
		return tag, fmt.Errorf("find tag after conflict: %w", err)
	}
	return tag, nil
}

func syncTags(tx *gorm.DB, t taggable, entityID uint, tagIDs []uint) error {
	if err := detachTags(tx, t, entityID); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	if err := tx.Create(t.rows(entityID, tagIDs)).Error; err != nil {
		return fmt.Errorf("attach tags: %w", err)
	}
	return nil
}

func detachTags(tx *gorm.DB, t taggable, entityID uint) error {
	if err := tx.Exec("DELETE FROM "+t.table+" WHERE "+t.column+" = ?", entityID).Error; err != nil {
		return fmt.Errorf("detach tags: %w", err)
	}
	return nil
}

type taggedRow struct {
	model.Tag
	EntityID uint
}

// loadTags returns the tags of every given entity keyed by entity id, in
// association order.
func loadTags(db *gorm.DB, t taggable, entityIDs []uint) (map[uint][]model.Tag, error) {
	out := make(map[uint][]model.Tag, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}
	var rows []taggedRow
	err := db.Table("tags").
		Select("tags.*, "+t.table+"."+t.column+" AS entity_id").
		Joins("JOIN "+t.table+" ON "+t.table+".tag_id = tags.id").
		Where(t.table+"."+t.column+" IN ?", entityIDs).
		Order(t.table + ".position ASC, tags.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	for _, row := range rows {
		out[row.EntityID] = append(out[row.EntityID], row.Tag)
	}
	return out, nil
}
