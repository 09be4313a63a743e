package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"todo-planner/internal/service"
	"todo-planner/pkg/logger"
)

const msgInvalidData = "The given data was invalid."

var registerOnce sync.Once

// RegisterValidation makes binding errors report json field names and adds
// the notblank rule for whitespace-only strings.
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}

// respondError writes the HTTP form of err.
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": verr.Error(), "errors": verr.Fields})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found."})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "These credentials do not match our records."})
	case errors.Is(err, service.ErrEmailTaken):
		taken := service.NewValidationError()
		taken.Add("email", "The email has already been taken.")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": taken.Error(), "errors": taken.Fields})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Debug(ctx, "request cancelled", "error", err)
	default:
		logger.Error(ctx, "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// bindingError turns a binding failure into field messages keyed like
// "title" or "tags.0".
func bindingError(err error) *service.ValidationError {
	verr := service.NewValidationError()

	var fieldErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			key := fieldKey(fe.Namespace())
			verr.Add(key, fieldMessage(key, fe))
		}
	case errors.As(err, &typeErr):
		key := typeErr.Field
		if key == "" {
			key = "body"
		}
		verr.Add(key, fmt.Sprintf("The %s must be %s.", attribute(key), typeName(typeErr.Type)))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		verr.Add("body", "The request body must be valid JSON.")
	default:
		verr.Add("body", msgInvalidData)
	}
	return verr
}

// fieldKey drops the struct name and writes slice indexes with dots.
func fieldKey(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}

// trimmed drops surrounding whitespace from every submitted string.
func trimmed(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func attribute(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

func fieldMessage(key string, fe validator.FieldError) string {
	name := attribute(key)
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("The %s field is required.", name)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s must not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s must not be greater than %s.", name, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", name, fe.Param())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "valid"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Bool:
		return "true or false"
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "valid"
	}
}
