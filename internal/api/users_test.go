package api

import (
	"net/http"
	"testing"

	"github.com/XolifyDev/mizan-core/internal/auth"
)

func TestCreateUserScoped(t *testing.T) {
	env := newTestServer(t)

	// Scoped admin omits masjid_id; the account lands in their masjid.
	rec := env.do(t, http.MethodPost, "/api/v1/users", env.admin, map[string]any{
		"username": "new_staff",
		"name":     "New Staff",
		"email":    "new_staff@example.com",
		"password": "long-enough-password",
		"role":     "staff",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}

	var user auth.User
	decodeBody(t, rec, &user)
	if user.MasjidID != masjidAlnoor {
		t.Errorf("expected masjid from claims, got %q", user.MasjidID)
	}
	if user.Role != auth.RoleStaff || !user.Active {
		t.Errorf("unexpected account: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Error("password hash must never be serialised")
	}

	// The new account can log in.
	if _, code := login(t, env, "new_staff", "long-enough-password"); code != http.StatusOK {
		t.Errorf("expected new account to log in, got %d", code)
	}

	// Duplicate usernames conflict.
	rec = env.do(t, http.MethodPost, "/api/v1/users", env.admin, map[string]any{
		"username": "new_staff",
		"name":     "Duplicate",
		"email":    "other@example.com",
		"password": "long-enough-password",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", rec.Code)
	}
}

func TestCreateUserGuards(t *testing.T) {
	env := newTestServer(t)

	// Short passwords are refused.
	rec := env.do(t, http.MethodPost, "/api/v1/users", env.admin, map[string]any{
		"username": "weak",
		"name":     "Weak",
		"email":    "weak@example.com",
		"password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", rec.Code)
	}

	// Staff lack user management entirely.
	rec = env.do(t, http.MethodPost, "/api/v1/users", env.staff, map[string]any{
		"username": "sneaky",
		"name":     "Sneaky",
		"email":    "sneaky@example.com",
		"password": "long-enough-password",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", rec.Code)
	}

	// Scoped admins cannot create accounts in other masjids.
	rec = env.do(t, http.MethodPost, "/api/v1/users", env.admin, map[string]any{
		"username":  "intruder",
		"name":      "Intruder",
		"email":     "intruder@example.com",
		"password":  "long-enough-password",
		"masjid_id": masjidRahma,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-masjid create, got %d", rec.Code)
	}

	// Only owners mint owner accounts.
	rec = env.do(t, http.MethodPost, "/api/v1/users", env.admin, map[string]any{
		"username": "wannabe",
		"name":     "Wannabe",
		"email":    "wannabe@example.com",
		"password": "long-enough-password",
		"role":     "owner",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin creating owner, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/users", env.owner, map[string]any{
		"username": "second_owner",
		"name":     "Second Owner",
		"email":    "owner2@example.com",
		"password": "long-enough-password",
		"role":     "owner",
		// Any masjid_id sent with an owner role is discarded.
		"masjid_id": masjidAlnoor,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for owner-created owner, got %d %s", rec.Code, rec.Body.String())
	}
	var owner auth.User
	decodeBody(t, rec, &owner)
	if owner.MasjidID != "" {
		t.Errorf("owner accounts must not be masjid-scoped, got %q", owner.MasjidID)
	}
}

func TestListUsersScoped(t *testing.T) {
	env := newTestServer(t)

	var body struct {
		Users []auth.User `json:"users"`
		Count int         `json:"count"`
	}

	rec := env.do(t, http.MethodGet, "/api/v1/users", env.admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &body)
	if body.Count != 3 {
		t.Fatalf("expected 3 alnoor users, got %d", body.Count)
	}
	for _, u := range body.Users {
		if u.MasjidID != masjidAlnoor {
			t.Errorf("scoped list leaked user %s of %q", u.Username, u.MasjidID)
		}
	}

	// Owner sees all five seeded accounts.
	rec = env.do(t, http.MethodGet, "/api/v1/users", env.owner, nil)
	decodeBody(t, rec, &body)
	if body.Count != 5 {
		t.Errorf("expected 5 users for owner, got %d", body.Count)
	}
}

func TestUpdateUserSelfProtection(t *testing.T) {
	env := newTestServer(t)

	// Admins cannot deactivate themselves.
	rec := env.do(t, http.MethodPatch, "/api/v1/users/usr-admin", env.admin, map[string]any{
		"active": false,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for self-deactivation, got %d", rec.Code)
	}

	// Nor change their own role.
	rec = env.do(t, http.MethodPatch, "/api/v1/users/usr-admin", env.admin, map[string]any{
		"role": "viewer",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for self-role-change, got %d", rec.Code)
	}

	// Promoting someone else works.
	rec = env.do(t, http.MethodPatch, "/api/v1/users/usr-viewer", env.admin, map[string]any{
		"role": "staff",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 promoting viewer, got %d %s", rec.Code, rec.Body.String())
	}
	var user auth.User
	decodeBody(t, rec, &user)
	if user.Role != auth.RoleStaff {
		t.Errorf("expected staff role, got %s", user.Role)
	}

	// Scoped admins cannot touch owner accounts.
	rec = env.do(t, http.MethodPatch, "/api/v1/users/usr-owner", env.admin, map[string]any{
		"active": false,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin editing an owner, got %d", rec.Code)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	env := newTestServer(t)

	resp, code := login(t, env, "viewer_alnoor", testPassword)
	if code != http.StatusOK {
		t.Fatalf("login failed: %d", code)
	}

	rec := env.do(t, http.MethodPut, "/api/v1/users/usr-viewer/password", env.admin, map[string]any{
		"password": "a-brand-new-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 changing password, got %d %s", rec.Code, rec.Body.String())
	}

	// Old password is dead, new one works.
	if _, code := login(t, env, "viewer_alnoor", testPassword); code != http.StatusUnauthorized {
		t.Errorf("expected old password to fail, got %d", code)
	}
	if _, code := login(t, env, "viewer_alnoor", "a-brand-new-password"); code != http.StatusOK {
		t.Errorf("expected new password to work, got %d", code)
	}

	// Existing refresh tokens were revoked with the password change.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": resp.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 refreshing after password change, got %d", rec.Code)
	}
}

func TestDeleteUserGuards(t *testing.T) {
	env := newTestServer(t)

	// No self-deletion.
	rec := env.do(t, http.MethodDelete, "/api/v1/users/usr-admin", env.admin, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for self-delete, got %d", rec.Code)
	}

	// Cross-masjid deletion is refused.
	rec = env.do(t, http.MethodDelete, "/api/v1/users/usr-admin2", env.admin, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-masjid delete, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/users/usr-viewer", env.admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting user, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/users/usr-viewer", env.admin, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
