package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("this action is unauthorized")
	ErrInvalidCredentials = errors.New("these credentials do not match our records")
	ErrEmailTaken         = errors.New("the email has already been taken")
)

const (
	msgCategoryInvalid  = "The selected category id is invalid."
	msgCategoryFull     = "Category max to do number is already reached."
	msgTagInvalid       = "The selected tag id is invalid."
	msgDueDateInvalid   = "The due date is not a valid date."
	msgDueDateBefore    = "The due date must be a date after or equal to %s."
	msgStartDateInvalid = "The start date is not a valid date."
	msgEndDateInvalid   = "The end date is not a valid date."
	msgEndBeforeStart   = "The end date must be a date after or equal to start date."
	msgLinkCodeInvalid  = "The telegram link code is invalid or has expired."
	msgChatLinked       = "This Telegram chat is already linked to another account."
)

// ValidationError carries user-facing messages keyed by request field.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty error ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Error returns the first message in field order, with a count of the rest.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "the given data was invalid"
	}
	keys := make([]string, 0, len(e.Fields))
	total := 0
	for k, msgs := range e.Fields {
		keys = append(keys, k)
		total += len(msgs)
	}
	sort.Strings(keys)
	first := e.Fields[keys[0]][0]
	if total == 1 {
		return first
	}
	var sb strings.Builder
	sb.WriteString(first)
	sb.WriteString(" (and ")
	sb.WriteString(plural(total - 1))
	sb.WriteString(")")
	return sb.String()
}

// OrNil returns nil when no message was added.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func plural(n int) string {
	if n == 1 {
		return "1 more error"
	}
	return fmt.Sprintf("%d more errors", n)
}
