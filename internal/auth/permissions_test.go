package auth

import "testing"

func TestHasPermission_Owner(t *testing.T) {
	// Owner should have all permissions
	allPerms := []Permission{
		PermDashboardRead, PermContentManage, PermEventManage,
		PermDonationRecord, PermProductManage,
		PermDeviceManage, PermUserManage,
		PermMasjidManage, PermMasjidCreate, PermSystemAdmin,
	}

	for _, perm := range allPerms {
		if !HasPermission(RoleOwner, perm) {
			t.Errorf("owner should have %s", perm)
		}
	}
}

func TestHasPermission_Admin(t *testing.T) {
	// Admin runs their masjid but cannot create tenants or touch
	// platform settings
	should := []Permission{
		PermDashboardRead, PermContentManage, PermEventManage,
		PermDonationRecord, PermProductManage,
		PermDeviceManage, PermUserManage, PermMasjidManage,
	}
	shouldNot := []Permission{
		PermMasjidCreate, PermSystemAdmin,
	}

	for _, perm := range should {
		if !HasPermission(RoleAdmin, perm) {
			t.Errorf("admin should have %s", perm)
		}
	}
	for _, perm := range shouldNot {
		if HasPermission(RoleAdmin, perm) {
			t.Errorf("admin should NOT have %s", perm)
		}
	}
}

func TestHasPermission_Staff(t *testing.T) {
	should := []Permission{
		PermDashboardRead, PermContentManage, PermEventManage,
		PermDonationRecord, PermProductManage,
	}
	shouldNot := []Permission{
		PermDeviceManage, PermUserManage,
		PermMasjidManage, PermMasjidCreate, PermSystemAdmin,
	}

	for _, perm := range should {
		if !HasPermission(RoleStaff, perm) {
			t.Errorf("staff should have %s", perm)
		}
	}
	for _, perm := range shouldNot {
		if HasPermission(RoleStaff, perm) {
			t.Errorf("staff should NOT have %s", perm)
		}
	}
}

func TestHasPermission_Viewer(t *testing.T) {
	if !HasPermission(RoleViewer, PermDashboardRead) {
		t.Error("viewer should have dashboard:read")
	}

	shouldNot := []Permission{
		PermContentManage, PermEventManage, PermDonationRecord,
		PermProductManage, PermDeviceManage, PermUserManage,
		PermMasjidManage, PermMasjidCreate, PermSystemAdmin,
	}
	for _, perm := range shouldNot {
		if HasPermission(RoleViewer, perm) {
			t.Errorf("viewer should NOT have %s", perm)
		}
	}
}

func TestHasPermission_InvalidRole(t *testing.T) {
	if HasPermission(Role("nonexistent"), PermDashboardRead) {
		t.Error("unknown role should have no permissions")
	}
}

func TestPermissionsForRole(t *testing.T) {
	perms := PermissionsForRole(RoleAdmin)
	if perms == nil {
		t.Fatal("PermissionsForRole(admin) should not return nil")
	}
	if len(perms) == 0 {
		t.Error("PermissionsForRole(admin) should return permissions")
	}

	// Should return a copy, not the original slice
	perms[0] = "modified"
	original := PermissionsForRole(RoleAdmin)
	if original[0] == "modified" {
		t.Error("PermissionsForRole should return a copy, not the original")
	}
}

func TestPermissionsForRole_Unknown(t *testing.T) {
	perms := PermissionsForRole(Role("unknown"))
	if perms != nil {
		t.Error("PermissionsForRole(unknown) should return nil")
	}
}

func TestCrossesMasjids(t *testing.T) {
	if !RoleOwner.CrossesMasjids() {
		t.Error("owner should cross masjids")
	}
	for _, r := range []Role{RoleViewer, RoleStaff, RoleAdmin} {
		if r.CrossesMasjids() {
			t.Errorf("%s should be tenant-scoped", r)
		}
	}
}

func TestIsValidUserRole(t *testing.T) {
	for _, r := range []Role{RoleViewer, RoleStaff, RoleAdmin, RoleOwner} {
		if !IsValidUserRole(r) {
			t.Errorf("%s should be a valid user role", r)
		}
	}
	if IsValidUserRole(Role("guest")) {
		t.Error("guest should NOT be a valid user role")
	}
}
