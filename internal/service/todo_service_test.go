package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
)

func requireFieldError(t *testing.T, err error, field, message string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	require.Contains(t, verr.Fields, field)
	if message != "" {
		assert.Contains(t, verr.Fields[field], message)
	}
}

func TestCreateRespectsCategoryCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	user := f.user(t, "a@example.com")
	category := f.category(t, user, "Work", 2)

	for i := 0; i < 2; i++ {
		_, err := f.todos.Create(ctx, user, ToDoInput{Title: "t", Description: "d", CategoryID: &category.ID}, now)
		require.NoError(t, err)
	}

	loaded, err := f.categories.Get(ctx, user, category.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.RemainingToDos)

	_, err = f.todos.Create(ctx, user, ToDoInput{Title: "t", Description: "d", CategoryID: &category.ID}, now)
	requireFieldError(t, err, "category_id", "Category max to do number is already reached.")
}

func TestUpdateInFullCategoryIsNotBlockedByItself(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	user := f.user(t, "a@example.com")
	full := f.category(t, user, "Full", 1)
	other := f.category(t, user, "Other", 1)

	todo, err := f.todos.Create(ctx, user, ToDoInput{Title: "t", Description: "d", CategoryID: &full.ID}, now)
	require.NoError(t, err)

	updated, err := f.todos.Update(ctx, user, todo, ToDoInput{Title: "renamed", Description: "d", CategoryID: &full.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	stranger, err := f.todos.Create(ctx, user, ToDoInput{Title: "s", Description: "d", CategoryID: &other.ID}, now)
	require.NoError(t, err)
	_, err = f.todos.Update(ctx, user, stranger, ToDoInput{Title: "s", Description: "d", CategoryID: &full.ID}, now)
	requireFieldError(t, err, "category_id", "Category max to do number is already reached.")
}

func TestCreateRejectsForeignAndUnknownCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	bobs := f.category(t, bob, "Bob's", 5)

	_, err := f.todos.Create(ctx, alice, ToDoInput{Title: "t", Description: "d", CategoryID: &bobs.ID}, time.Now())
	requireFieldError(t, err, "category_id", "The selected category id is invalid.")

	_, err = f.todos.Create(ctx, alice, ToDoInput{Title: "t", Description: "d", CategoryID: uintPtr(999)}, time.Now())
	requireFieldError(t, err, "category_id", "The selected category id is invalid.")
}

func TestDueDateFloorOnCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "a@example.com")
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	_, err := f.todos.Create(ctx, user, ToDoInput{Title: "t", Description: "d", DueDate: "2026-10-16 23:59:59"}, now)
	requireFieldError(t, err, "due_date", "The due date must be a date after or equal to 2026-10-17 00:00:00.")

	_, err = f.todos.Create(ctx, user, ToDoInput{Title: "t", Description: "d", DueDate: "not date"}, now)
	requireFieldError(t, err, "due_date", "The due date is not a valid date.")

	todo, err := f.todos.Create(ctx, user, ToDoInput{Title: "t", Description: "d", DueDate: "2026-10-17 00:00:00"}, now)
	require.NoError(t, err)
	require.NotNil(t, todo.DueDate)
	assert.Equal(t, "2026-10-17 00:00:00", f.zone.Format(*todo.DueDate))
}

func TestDueDateFloorOnUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "a@example.com")
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	undated := f.insertToDo(t, user, "undated", nil, nil)
	_, err := f.todos.Update(ctx, user, undated, ToDoInput{Title: "t", Description: "d", DueDate: "2026-10-16 10:00"}, now)
	requireFieldError(t, err, "due_date", "")

	overdue := f.insertToDo(t, user, "overdue", f.local(2026, 10, 15, 14, 0), nil)
	loaded, err := f.todos.Get(ctx, user, overdue.ID)
	require.NoError(t, err)
	_, err = f.todos.Update(ctx, user, loaded, ToDoInput{Title: "t", Description: "d", DueDate: "2026-10-16 10:00"}, now)
	require.NoError(t, err)

	loaded, err = f.todos.Get(ctx, user, overdue.ID)
	require.NoError(t, err)
	_, err = f.todos.Update(ctx, user, loaded, ToDoInput{Title: "t", Description: "d", DueDate: "2026-10-14 10:00"}, now)
	requireFieldError(t, err, "due_date", "The due date must be a date after or equal to 2026-10-16 00:00:00.")
}

func TestDueDateRoundTripThroughEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "a@example.com")
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	created, err := f.todos.Create(ctx, user, ToDoInput{Title: "t", Description: "d", DueDate: "2026-11-02 08:15:30"}, now)
	require.NoError(t, err)
	stored := *created.DueDate

	shown := f.zone.Format(stored)
	updated, err := f.todos.Update(ctx, user, created, ToDoInput{Title: "t", Description: "d", DueDate: shown}, now)
	require.NoError(t, err)
	assert.True(t, stored.Equal(*updated.DueDate))
	assert.Equal(t, "2026-11-02 06:15:30", updated.DueDate.UTC().Format("2006-01-02 15:04:05"))
}

func TestStartDateFilterExcludesUndated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "a@example.com")

	today := f.insertToDo(t, user, "today", f.local(2026, 10, 17, 23, 30), nil)
	f.insertToDo(t, user, "yesterday", f.local(2026, 10, 16, 12, 0), nil)
	later := f.insertToDo(t, user, "later", f.local(2026, 10, 20, 0, 0), nil)
	f.insertToDo(t, user, "undated", nil, nil)

	list, err := f.todos.List(ctx, user, ToDoFilterInput{StartDate: "2026-10-17"})
	require.NoError(t, err)
	require.Len(t, list.ToDos, 2)
	assert.Equal(t, today.ID, list.ToDos[0].ID)
	assert.Equal(t, later.ID, list.ToDos[1].ID)
	assert.Equal(t, "2026-10-17", list.Filters.StartDate)

	list, err = f.todos.List(ctx, user, ToDoFilterInput{StartDate: "2026-10-16", EndDate: "2026-10-17"})
	require.NoError(t, err)
	assert.Len(t, list.ToDos, 2)

	_, err = f.todos.List(ctx, user, ToDoFilterInput{StartDate: "2026-10-17", EndDate: "2026-10-16"})
	requireFieldError(t, err, "end_date", "")

	_, err = f.todos.List(ctx, user, ToDoFilterInput{StartDate: "2026-10-17garbage"})
	requireFieldError(t, err, "start_date", "The start date is not a valid date.")
}

func TestTagSyncLeavesOrphanTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "a@example.com")
	now := time.Now()

	todo, err := f.todos.Create(ctx, user, ToDoInput{Title: "t", Description: "d", Tags: []string{"a", "b"}}, now)
	require.NoError(t, err)

	updated, err := f.todos.Update(ctx, user, todo, ToDoInput{Title: "t", Description: "d", Tags: []string{"b", "c"}}, now)
	require.NoError(t, err)
	names := make([]string, 0, len(updated.Tags))
	for _, tag := range updated.Tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"b", "c"}, names)

	var tagCount int64
	require.NoError(t, f.db.Model(&model.Tag{}).Where("user_id = ?", user.ID).Count(&tagCount).Error)
	assert.EqualValues(t, 3, tagCount)

	options, err := f.todos.Options(ctx, user)
	require.NoError(t, err)
	require.Len(t, options.Tags, 2)
	assert.Equal(t, "b", options.Tags[0].Name)
	assert.Equal(t, "c", options.Tags[1].Name)
}

func TestOwnershipIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	bobsCategory := f.category(t, bob, "Bob", 3, "private")
	bobsToDo := f.insertToDo(t, bob, "secret", nil, &bobsCategory.ID, "private")

	_, err := f.todos.Get(ctx, alice, bobsToDo.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.todos.Toggle(ctx, alice, bobsToDo.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.todos.Delete(ctx, alice, bobsToDo.ID), ErrForbidden)
	_, err = f.todos.Get(ctx, alice, 12345)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.todos.List(ctx, alice, ToDoFilterInput{CategoryID: &bobsCategory.ID})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.todos.List(ctx, alice, ToDoFilterInput{CategoryID: uintPtr(999)})
	requireFieldError(t, err, "category_id", "The selected category id is invalid.")

	tag := bobsToDo.Tags[0]
	_, err = f.todos.List(ctx, alice, ToDoFilterInput{TagID: &tag.ID})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.categories.List(ctx, alice, CategoryFilterInput{TagID: &tag.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := f.todos.List(ctx, alice, ToDoFilterInput{})
	require.NoError(t, err)
	assert.Empty(t, list.ToDos)
	assert.Empty(t, list.Options.Categories)
	assert.Empty(t, list.Options.Tags)
}

func TestToggleAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "a@example.com")
	todo := f.insertToDo(t, user, "t", nil, nil, "x")

	toggled, err := f.todos.Toggle(ctx, user, todo.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	list, err := f.todos.List(ctx, user, ToDoFilterInput{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.Len(t, list.ToDos, 1)

	toggled, err = f.todos.Toggle(ctx, user, todo.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	require.NoError(t, f.todos.Delete(ctx, user, todo.ID))
	_, err = f.todos.Get(ctx, user, todo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

type memoryCache struct {
	values map[string]any
	loads  int
	forgot []string
}

func (m *memoryCache) Remember(ctx context.Context, key string, dest any, load func(context.Context) (any, error)) error {
	v, ok := m.values[key]
	if !ok {
		var err error
		if v, err = load(ctx); err != nil {
			return err
		}
		m.loads++
		m.values[key] = v
	}
	switch d := dest.(type) {
	case *ToDoOptions:
		*d = v.(ToDoOptions)
	case *CategoryOptions:
		*d = v.(CategoryOptions)
	}
	return nil
}

func (m *memoryCache) Forget(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	m.forgot = append(m.forgot, keys...)
	return nil
}

func TestOptionsAreCachedAndForgottenOnWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := &memoryCache{values: map[string]any{}}
	f.todos.cache = cache
	user := f.user(t, "a@example.com")

	_, err := f.todos.Options(ctx, user)
	require.NoError(t, err)
	_, err = f.todos.Options(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.loads)

	_, err = f.todos.Create(ctx, user, ToDoInput{Title: "t", Description: "d", Tags: []string{"fresh"}}, time.Now())
	require.NoError(t, err)
	assert.Contains(t, cache.forgot, "filters:todos:1")

	options, err := f.todos.Options(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.loads)
	require.Len(t, options.Tags, 1)
	assert.Equal(t, "fresh", options.Tags[0].Name)
}
