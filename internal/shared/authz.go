package shared

// Activity log permissions.
const (
	PermActivityView   = "activity.view"
	PermActivityExport = "activity.export"
)

// Admin roles of the village dashboard.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleOperator   = "operator"
)

var rolePermissions = map[string][]string{
	RoleSuperadmin: {PermActivityView, PermActivityExport},
	RoleAdmin:      {PermActivityView, PermActivityExport},
	RoleOperator:   {PermActivityView},
}

// ActivityScopes lists permissions related to the activity log.
func ActivityScopes() []string {
	return []string{PermActivityView, PermActivityExport}
}

// Roles lists known roles in display order.
func Roles() []string {
	return []string{RoleSuperadmin, RoleAdmin, RoleOperator}
}

// RolePermissions returns the permissions granted to role. Unknown roles get none.
func RolePermissions(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// KnownRole reports whether role is one of Roles.
func KnownRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}
