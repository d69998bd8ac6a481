package auth

import "errors"

// Role is an authorisation tier carried in tokens.
type Role string

const (
	// RoleViewer can read state and history.
	RoleViewer Role = "viewer"

	// RoleOperator can also switch devices and manage schedules.
	RoleOperator Role = "operator"

	// RoleAdmin can do everything, including security and maintenance changes.
	RoleAdmin Role = "admin"
)

// ValidRoles lists every role a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Domain errors.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrForbidden    = errors.New("insufficient permissions")
	ErrInvalidRole  = errors.New("invalid role")
	ErrNoSecret     = errors.New("signing secret is empty")
)
