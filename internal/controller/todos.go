package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"todo-planner/internal/service"
)

type toDoRequest struct {
	Title       string   `json:"title" binding:"required,notblank,max=255"`
	Description string   `json:"description" binding:"required,notblank"`
	DueDate     *string  `json:"due_date"`
	CategoryID  *uint    `json:"category_id"`
	Tags        []string `json:"tags" binding:"omitempty,dive,required,notblank,max=255"`
}

func (r toDoRequest) input() service.ToDoInput {
	in := service.ToDoInput{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		CategoryID:  r.CategoryID,
		Tags:        trimmed(r.Tags),
	}
	if r.DueDate != nil {
		in.DueDate = *r.DueDate
	}
	return in
}

// ToDoController serves the to-do endpoints.
type ToDoController struct {
	todos *service.ToDoService
	now   func() time.Time
}

func NewToDoController(todos *service.ToDoService) *ToDoController {
	return &ToDoController{todos: todos, now: time.Now}
}

// Index lists the user's to-dos filtered by the query string.
func (h *ToDoController) Index(c *gin.Context) {
	verr := service.NewValidationError()
	in := service.ToDoFilterInput{
		CategoryID: queryUint(c, "category_id", verr),
		TagID:      queryUint(c, "tag_id", verr),
		Completed:  queryBool(c, "completed", verr),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	}
	if err := verr.OrNil(); err != nil {
		respondError(c, err)
		return
	}

	list, err := h.todos.List(c.Request.Context(), CurrentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    toDoViews(list.ToDos, h.todos.Zone()),
		"options": list.Options,
		"filters": list.Filters,
	})
}

// Create returns what the create form needs.
func (h *ToDoController) Create(c *gin.Context) {
	categories, err := h.todos.FormCategories(c.Request.Context(), CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categoryRefs(categories)})
}

func (h *ToDoController) Store(c *gin.Context) {
	var req toDoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	todo, err := h.todos.Create(c.Request.Context(), CurrentUser(c), req.input(), h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "To Do created successfully",
		"data":    newToDoView(todo, h.todos.Zone()),
	})
}

// Edit returns the to-do with the categories it can be moved to.
func (h *ToDoController) Edit(c *gin.Context) {
	ctx := c.Request.Context()
	user := CurrentUser(c)
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	todo, err := h.todos.Get(ctx, user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	categories, err := h.todos.FormCategories(ctx, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       newToDoView(todo, h.todos.Zone()),
		"categories": categoryRefs(categories),
	})
}

func (h *ToDoController) Update(c *gin.Context) {
	ctx := c.Request.Context()
	user := CurrentUser(c)
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	todo, err := h.todos.Get(ctx, user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req toDoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}
	todo, err = h.todos.Update(ctx, user, todo, req.input(), h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "To Do updated successfully",
		"data":    newToDoView(todo, h.todos.Zone()),
	})
}

// Toggle flips the finished flag.
func (h *ToDoController) Toggle(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	todo, err := h.todos.Toggle(c.Request.Context(), CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newToDoView(todo, h.todos.Zone())})
}

func (h *ToDoController) Destroy(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.todos.Delete(c.Request.Context(), CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "To Do deleted successfully"})
}
