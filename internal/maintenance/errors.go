package maintenance

import "errors"

// ErrInvalidDate is returned when a service date is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("maintenance: invalid date")
