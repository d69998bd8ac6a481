package device

import "errors"

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // unknown device name
//	}
var (
	// ErrDeviceNotFound is returned for a name outside the known set.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidAction is returned for anything other than ON or OFF.
	ErrInvalidAction = errors.New("device: invalid action")

	// ErrInvalidState is returned for a state other than ON or OFF.
	ErrInvalidState = errors.New("device: invalid state")
)
