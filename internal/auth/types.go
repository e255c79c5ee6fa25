package auth

import (
	"errors"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 1-64 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleViewer can read dashboards for their masjid: donations,
	// events, device status. No writes.
	RoleViewer Role = "viewer"

	// RoleStaff manages day-to-day content for their masjid: content,
	// events, donations, kiosk products. Cannot manage users or devices.
	RoleStaff Role = "staff"

	// RoleAdmin has full control of their masjid: everything staff can
	// do plus device management, user management, and masjid settings.
	RoleAdmin Role = "admin"

	// RoleOwner is the platform operator: everything admin can do,
	// across every masjid, plus creating masjids and managing admins.
	RoleOwner Role = "owner"
)

// ValidRoles is the set of valid user roles.
var ValidRoles = []Role{RoleViewer, RoleStaff, RoleAdmin, RoleOwner}

// IsValidUserRole returns true if the role is a valid role for a user account.
func IsValidUserRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// CrossesMasjids returns true if the role may operate outside its own
// masjid. Everyone else is tenant-scoped.
func (r Role) CrossesMasjids() bool {
	return r == RoleOwner
}

// User represents an authenticated dashboard account, scoped to a masjid.
type User struct {
	ID           string    `json:"id"`
	MasjidID     string    `json:"masjid_id,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken represents a stored refresh token for session management.
type RefreshToken struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FamilyID   string    `json:"family_id"`
	TokenHash  string    `json:"-"` // never serialised
	DeviceInfo string    `json:"device_info,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	Revoked    bool      `json:"revoked"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUsernameExists     = errors.New("username or email already exists")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenReuse         = errors.New("refresh token reuse detected")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrSelfModification   = errors.New("cannot modify own account in this way")
)
