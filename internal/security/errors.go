package security

import "errors"

var (
	// ErrInvalidMode is returned for a mode outside ARMED, DISARMED, STAY, AWAY.
	ErrInvalidMode = errors.New("security: invalid mode")

	// ErrAlertNotFound is returned when acknowledging an unknown alert ID.
	ErrAlertNotFound = errors.New("security: alert not found")
)
