package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"todo-planner/internal/service"
)

type categoryRequest struct {
	Title    string   `json:"title" binding:"required,notblank,max=255"`
	MaxToDos int      `json:"max_to_dos" binding:"required,min=1"`
	Tags     []string `json:"tags" binding:"omitempty,dive,required,notblank,max=255"`
}

func (r categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{Title: strings.TrimSpace(r.Title), MaxToDos: r.MaxToDos, Tags: trimmed(r.Tags)}
}

// CategoryController serves the category endpoints.
type CategoryController struct {
	categories *service.CategoryService
}

func NewCategoryController(categories *service.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

func (h *CategoryController) Index(c *gin.Context) {
	verr := service.NewValidationError()
	in := service.CategoryFilterInput{TagID: queryUint(c, "tag_id", verr)}
	if err := verr.OrNil(); err != nil {
		respondError(c, err)
		return
	}

	list, err := h.categories.List(c.Request.Context(), CurrentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    categoryViews(list.Categories),
		"options": list.Options,
		"filters": list.Filters,
	})
}

func (h *CategoryController) Store(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}
	category, err := h.categories.Create(c.Request.Context(), CurrentUser(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Category created successfully",
		"data":    newCategoryView(category),
	})
}

func (h *CategoryController) Edit(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	category, err := h.categories.Get(c.Request.Context(), CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newCategoryView(category)})
}

func (h *CategoryController) Update(c *gin.Context) {
	ctx := c.Request.Context()
	user := CurrentUser(c)
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	category, err := h.categories.Get(ctx, user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}
	category, err = h.categories.Update(ctx, user, category, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Category updated successfully",
		"data":    newCategoryView(category),
	})
}

func (h *CategoryController) Destroy(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.categories.Delete(c.Request.Context(), CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
