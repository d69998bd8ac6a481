package orchestrator

import "errors"

// ErrValidation wraps every rejected command. Nothing is mutated when it
// is returned.
var ErrValidation = errors.New("orchestrator: validation failed")
