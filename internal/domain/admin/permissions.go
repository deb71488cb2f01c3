package admin

// Permission represents an admin permission
type Permission string

const (
	// User management
	PermViewUsers   Permission = "users.view"
	PermManageUsers Permission = "users.manage"

	// Credits
	PermAdjustCredits Permission = "credits.adjust"
	PermBulkCredits   Permission = "credits.bulk"

	// Platform settings
	PermManageSettings Permission = "settings.manage"

	// System
	PermViewDashboard Permission = "dashboard.view"
	PermViewAuditLogs Permission = "audit.view"
	PermExportReports Permission = "reports.export"
	PermManageAdmins  Permission = "admins.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermViewUsers, PermManageUsers,
		PermAdjustCredits, PermBulkCredits,
		PermManageSettings,
		PermViewDashboard, PermViewAuditLogs, PermExportReports,
		PermManageAdmins,
	},
	RoleAdmin: {
		PermViewUsers, PermManageUsers,
		PermAdjustCredits, PermBulkCredits,
		PermManageSettings,
		PermViewDashboard, PermViewAuditLogs, PermExportReports,
	},
	RoleSupport: {
		PermViewUsers,
		PermViewDashboard,
	},
}

// RoleHierarchy defines role levels (higher = more permissions)
var RoleHierarchy = map[Role]int{
	RoleSuperAdmin: 100,
	RoleAdmin:      80,
	RoleSupport:    40,
}

// CanManage checks if role1 can manage role2
func CanManage(role1, role2 Role) bool {
	return RoleHierarchy[role1] > RoleHierarchy[role2]
}
