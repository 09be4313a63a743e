package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/timezone"
)

func TestMinimumAllowedDueDate(t *testing.T) {
	zone, err := timezone.Load("Europe/Vilnius")
	require.NoError(t, err)
	loc := zone.Location()

	// 2026-10-17 00:30 in Vilnius is still 2026-10-16 in UTC.
	now := time.Date(2026, 10, 16, 21, 30, 0, 0, time.UTC)
	today := time.Date(2026, 10, 17, 0, 0, 0, 0, loc)

	future := time.Date(2026, 10, 20, 12, 0, 0, 0, loc)
	earlierToday := time.Date(2026, 10, 17, 0, 10, 0, 0, loc)
	twoDaysAgo := time.Date(2026, 10, 15, 14, 45, 0, 0, loc)

	tests := []struct {
		name     string
		existing *time.Time
		want     time.Time
	}{
		{"no existing date", nil, today},
		{"existing in the future", &future, today},
		{"existing earlier today", &earlierToday, today},
		{"existing in the past", &twoDaysAgo, time.Date(2026, 10, 15, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinimumAllowedDueDate(tt.existing, now, zone)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestHasFreeSpace(t *testing.T) {
	tests := []struct {
		max      int
		assigned int64
		want     bool
	}{
		{3, 0, true},
		{3, 2, true},
		{3, 3, false},
		{3, 5, false},
		{1, 0, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasFreeSpace(tt.max, tt.assigned), "max=%d assigned=%d", tt.max, tt.assigned)
		assert.Equal(t, int64(tt.max)-tt.assigned, RemainingSlots(tt.max, tt.assigned))
	}
}

func TestValidationErrorMessage(t *testing.T) {
	verr := NewValidationError()
	assert.Nil(t, verr.OrNil())

	verr.Add("title", "The title field is required.")
	assert.Equal(t, "The title field is required.", verr.Error())

	verr.Add("due_date", "The due date is not a valid date.")
	verr.Add("due_date", "again")
	assert.Equal(t, "The due date is not a valid date. (and 2 more errors)", verr.Error())
	assert.True(t, verr.Has("title"))
}
