package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todo-planner/internal/controller"
	"todo-planner/internal/service"
	"todo-planner/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags every request's logger with a request id and logs the
// outcome once the handler returns.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		ctx := logger.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		started := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(started).Milliseconds(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn(ctx, "request", args...)
			return
		}
		logger.Info(ctx, "request", args...)
	}
}

// AuthMiddleware resolves the bearer token to a user. Browsers asking for HTML
// are sent to the login page instead of getting a 401.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if header == "" || !strings.HasPrefix(header, prefix) {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			unauthenticated(c)
			return
		}

		user, err := auth.Authenticate(ctx, strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			logger.Debug(ctx, "token rejected", "error", err)
			unauthenticated(c)
			return
		}

		controller.SetCurrentUser(c, user)
		c.Request = c.Request.WithContext(logger.With(ctx, "user_id", user.ID))
		c.Next()
	}
}

func unauthenticated(c *gin.Context) {
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
}
