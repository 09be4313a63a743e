package service

import (
	"time"

	"todo-planner/internal/timezone"
)

// MinimumAllowedDueDate is the earliest due date a to-do may be given.
// New or undated to-dos, and to-dos due today or later, get the start of
// today in the zone. An overdue to-do may keep its day: the floor is the
// start of its current due day.
func MinimumAllowedDueDate(existing *time.Time, now time.Time, zone *timezone.Zone) time.Time {
	today := zone.StartOfDay(now)
	if existing == nil || !existing.Before(today) {
		return today
	}
	return zone.StartOfDay(*existing)
}

// RemainingSlots is the capacity left in a category holding assigned to-dos.
func RemainingSlots(maxToDos int, assigned int64) int64 {
	return int64(maxToDos) - assigned
}

// HasFreeSpace reports whether one more to-do fits.
func HasFreeSpace(maxToDos int, assigned int64) bool {
	return RemainingSlots(maxToDos, assigned) > 0
}
