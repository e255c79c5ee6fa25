package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermDashboardRead  Permission = "dashboard:read"
	PermContentManage  Permission = "content:manage"
	PermEventManage    Permission = "event:manage"
	PermDonationRecord Permission = "donation:record"
	PermProductManage  Permission = "product:manage"
	PermDeviceManage   Permission = "device:manage"
	PermUserManage     Permission = "user:manage"
	PermMasjidManage   Permission = "masjid:manage"
	PermMasjidCreate   Permission = "masjid:create"
	PermSystemAdmin    Permission = "system:admin"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
// Device identities (kiosks, displays) never carry user permissions;
// they authenticate separately for their own endpoints.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermDashboardRead,
	},
	RoleStaff: {
		PermDashboardRead,
		PermContentManage,
		PermEventManage,
		PermDonationRecord,
		PermProductManage,
	},
	RoleAdmin: {
		PermDashboardRead,
		PermContentManage,
		PermEventManage,
		PermDonationRecord,
		PermProductManage,
		PermDeviceManage,
		PermUserManage,
		PermMasjidManage,
	},
	RoleOwner: {
		PermDashboardRead,
		PermContentManage,
		PermEventManage,
		PermDonationRecord,
		PermProductManage,
		PermDeviceManage,
		PermUserManage,
		PermMasjidManage,
		PermMasjidCreate,
		PermSystemAdmin,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
