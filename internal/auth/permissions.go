package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermDeviceRead        Permission = "device:read"
	PermDeviceOperate     Permission = "device:operate"
	PermScheduleManage    Permission = "schedule:manage"
	PermSecurityManage    Permission = "security:manage"
	PermMaintenanceManage Permission = "maintenance:manage"
)

// rolePermissions maps each role to its granted permissions.
// Higher roles include everything below them.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermDeviceRead,
	},
	RoleOperator: {
		PermDeviceRead,
		PermDeviceOperate,
		PermScheduleManage,
	},
	RoleAdmin: {
		PermDeviceRead,
		PermDeviceOperate,
		PermScheduleManage,
		PermSecurityManage,
		PermMaintenanceManage,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
