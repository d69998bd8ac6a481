package scheduler

import "errors"

var (
	// ErrScheduleNotFound is returned when a device has no rule.
	ErrScheduleNotFound = errors.New("scheduler: schedule not found")

	// ErrInvalidRule is returned when a rule fails validation.
	ErrInvalidRule = errors.New("scheduler: invalid rule")
)
