package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemainingSlotsFollowAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "a@example.com")
	category := f.category(t, user, "Home", 3, "house")
	assert.Equal(t, 3, category.RemainingToDos)

	f.insertToDo(t, user, "one", nil, &category.ID)
	f.insertToDo(t, user, "two", nil, &category.ID)

	list, err := f.categories.List(ctx, user, CategoryFilterInput{})
	require.NoError(t, err)
	require.Len(t, list.Categories, 1)
	assert.Equal(t, 1, list.Categories[0].RemainingToDos)
	require.Len(t, list.Options.Tags, 1)
	assert.Equal(t, "house", list.Options.Tags[0].Name)
}

func TestCategoryUpdateReplacesTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "a@example.com")
	category := f.category(t, user, "Home", 3, "a", "b")

	loaded, err := f.categories.Get(ctx, user, category.ID)
	require.NoError(t, err)
	updated, err := f.categories.Update(ctx, user, loaded, CategoryInput{Title: "House", MaxToDos: 5, Tags: []string{"b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, "House", updated.Title)
	assert.Equal(t, 5, updated.RemainingToDos)
	require.Len(t, updated.Tags, 2)
	assert.Equal(t, "b", updated.Tags[0].Name)
	assert.Equal(t, "c", updated.Tags[1].Name)

	list, err := f.categories.List(ctx, user, CategoryFilterInput{TagID: &updated.Tags[1].ID})
	require.NoError(t, err)
	require.Len(t, list.Categories, 1)
	assert.Equal(t, &updated.Tags[1].ID, list.Filters.TagID)
}

func TestCategoryDeleteKeepsToDos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "a@example.com")
	category := f.category(t, user, "Temp", 2)
	todo := f.insertToDo(t, user, "kept", nil, &category.ID)

	require.NoError(t, f.categories.Delete(ctx, user, category.ID))

	_, err := f.categories.Get(ctx, user, category.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	kept, err := f.todos.Get(ctx, user, todo.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.CategoryID)
	assert.Nil(t, kept.Category)
}

func TestCategoryOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	category := f.category(t, bob, "Bob", 1)

	_, err := f.categories.Get(ctx, alice, category.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.categories.Delete(ctx, alice, category.ID), ErrForbidden)
	_, err = f.categories.Update(ctx, alice, category, CategoryInput{Title: "x", MaxToDos: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := f.categories.List(ctx, alice, CategoryFilterInput{})
	require.NoError(t, err)
	assert.Empty(t, list.Categories)
}
