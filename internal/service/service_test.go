package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todo-planner/internal/model"
	"todo-planner/internal/repository"
	"todo-planner/internal/timezone"
)

type fixture struct {
	db         *gorm.DB
	zone       *timezone.Zone
	users      *repository.UserRepository
	todoRepo   *repository.ToDoRepository
	categories *CategoryService
	todos      *ToDoService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.NewDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	zone, err := timezone.Load("Europe/Vilnius")
	require.NoError(t, err)

	categoryRepo := repository.NewCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)
	todoRepo := repository.NewToDoRepository(db)
	return &fixture{
		db:         db,
		zone:       zone,
		users:      repository.NewUserRepository(db),
		todoRepo:   todoRepo,
		categories: NewCategoryService(categoryRepo, tagRepo, nil),
		todos:      NewToDoService(todoRepo, categoryRepo, tagRepo, zone, nil),
	}
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	u := &model.User{Name: email, Email: email, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) category(t *testing.T, owner *model.User, title string, max int, tags ...string) *model.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), owner, CategoryInput{Title: title, MaxToDos: max, Tags: tags})
	require.NoError(t, err)
	return c
}

// insertToDo stores a to-do directly, bypassing the due-date floor.
func (f *fixture) insertToDo(t *testing.T, owner *model.User, title string, due *time.Time, categoryID *uint, tags ...string) *model.ToDo {
	t.Helper()
	todo := &model.ToDo{UserID: owner.ID, Title: title, Description: "d", DueDate: due, CategoryID: categoryID}
	require.NoError(t, f.todoRepo.Create(context.Background(), todo, tags))
	return todo
}

// local builds an instant from a wall-clock time in the display zone.
func (f *fixture) local(y int, m time.Month, d, hh, mm int) *time.Time {
	t := time.Date(y, m, d, hh, mm, 0, 0, f.zone.Location()).UTC()
	return &t
}

func uintPtr(v uint) *uint { return &v }

func boolPtr(v bool) *bool { return &v }
