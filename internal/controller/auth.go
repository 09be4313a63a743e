package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	TelegramLinkCode *string `json:"telegram_link_code" binding:"required"`
}

type userView struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	TelegramChatID *int64 `json:"telegram_chat_id"`
}

func newUserView(u *model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, TelegramChatID: u.TelegramChatID}
}

// AuthController handles registration, login and the profile.
type AuthController struct {
	auth *service.AuthService
	now  func() time.Time
}

func NewAuthController(auth *service.AuthService) *AuthController {
	return &AuthController{auth: auth, now: time.Now}
}

func (h *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}
	user, token, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password, h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": newUserView(user)})
}

func (h *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": newUserView(user)})
}

func (h *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": newUserView(CurrentUser(c))})
}

// UpdateMe links the Telegram chat whose /start issued the code; an empty
// code unlinks.
func (h *AuthController) UpdateMe(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}
	user := CurrentUser(c)
	if err := h.auth.LinkTelegram(c.Request.Context(), user, *req.TelegramLinkCode, h.now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "data": newUserView(user)})
}
