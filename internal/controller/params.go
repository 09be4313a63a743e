package controller

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

const currentUserKey = "user"

// SetCurrentUser stores the authenticated user on the request.
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the user stored by the auth middleware.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// pathID parses the :id route parameter. A malformed id is reported as not found.
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ErrNotFound
	}
	return uint(id), nil
}

// queryUint reads an optional id; empty values count as absent.
func queryUint(c *gin.Context, key string, verr *service.ValidationError) *uint {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		verr.Add(key, "The "+attribute(key)+" must be an integer.")
		return nil
	}
	id := uint(v)
	return &id
}

// queryBool accepts the usual boolean spellings of form submissions.
func queryBool(c *gin.Context, key string, verr *service.ValidationError) *bool {
	raw := strings.ToLower(strings.TrimSpace(c.Query(key)))
	var v bool
	switch raw {
	case "":
		return nil
	case "1", "true", "on", "yes":
		v = true
	case "0", "false", "off", "no":
		v = false
	default:
		verr.Add(key, "The "+attribute(key)+" field must be true or false.")
		return nil
	}
	return &v
}
