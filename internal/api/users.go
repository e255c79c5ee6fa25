package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/XolifyDev/mizan-core/internal/auth"
)

// ─── Request/Response Types ────────────────────────────────────────

type createUserRequest struct {
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role"`
	MasjidID string    `json:"masjid_id,omitempty"`
}

type updateUserRequest struct {
	Name   *string    `json:"name,omitempty"`
	Email  *string    `json:"email,omitempty"`
	Role   *auth.Role `json:"role,omitempty"`
	Active *bool      `json:"active,omitempty"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleListUsers returns user accounts. Masjid-scoped admins see their
// own masjid's accounts; owners see everyone or scope with ?masjid_id=.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	masjidID := effectiveMasjidID(r)

	var (
		users []auth.User
		err   error
	)
	if masjidID != "" {
		users, err = s.userRepo.ListByMasjid(r.Context(), masjidID)
	} else {
		users, err = s.userRepo.List(r.Context())
	}
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// handleCreateUser creates a new user account.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) { //nolint:gocognit // user creation: validation + permission checks + password hashing pipeline
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Username == "" || req.Password == "" || req.Name == "" || req.Email == "" {
		writeBadRequest(w, "username, password, name, and email are required")
		return
	}

	if len(req.Password) < 8 { //nolint:mnd // minimum password length
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	if req.Role == "" {
		req.Role = auth.RoleViewer
	}

	if !auth.IsValidUserRole(req.Role) {
		writeBadRequest(w, "invalid role: must be viewer, staff, admin, or owner")
		return
	}

	claims := claimsFromContext(r.Context())

	// Only owners can create owner accounts, and owners carry no masjid.
	if req.Role == auth.RoleOwner {
		if !auth.HasPermission(claims.Role, auth.PermSystemAdmin) {
			writeForbidden(w, "only owners can create owner accounts")
			return
		}
		req.MasjidID = ""
	} else {
		// Masjid-scoped admins create users only within their masjid.
		if req.MasjidID == "" && !claims.Role.CrossesMasjids() {
			req.MasjidID = claims.MasjidID
		}
		if req.MasjidID == "" {
			writeBadRequest(w, "masjid_id is required for masjid-scoped roles")
			return
		}
		if !canAccessMasjid(claims, req.MasjidID) {
			writeForbidden(w, "cannot create users for another masjid")
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	user := &auth.User{
		MasjidID:     req.MasjidID,
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
		CreatedBy:    claims.Subject,
	}

	if err := s.userRepo.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeConflict(w, "username or email already exists")
			return
		}
		s.logger.Error("create user failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	s.logger.Info("user created",
		"user_id", user.ID,
		"username", user.Username,
		"role", user.Role,
		"masjid_id", user.MasjidID,
		"created_by", claims.Subject,
	)

	writeJSON(w, http.StatusCreated, user)
}

// handleGetUser returns a single user by ID.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.loadScopedUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser modifies a user's mutable fields.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) { //nolint:gocognit,gocyclo // user update: field patching + self-protection + role escalation guards
	claims := claimsFromContext(r.Context())

	user, ok := s.loadScopedUser(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	// Self-protection: cannot deactivate yourself
	if req.Active != nil && !*req.Active && user.ID == claims.Subject {
		writeForbidden(w, "cannot deactivate your own account")
		return
	}

	// Self-protection: cannot change your own role
	if req.Role != nil && user.ID == claims.Subject && *req.Role != claims.Role {
		writeForbidden(w, "cannot change your own role")
		return
	}

	// Only owners can modify owner accounts or promote to owner
	if user.Role == auth.RoleOwner && !auth.HasPermission(claims.Role, auth.PermSystemAdmin) {
		writeForbidden(w, "only owners can modify owner accounts")
		return
	}
	if req.Role != nil && *req.Role == auth.RoleOwner && !auth.HasPermission(claims.Role, auth.PermSystemAdmin) {
		writeForbidden(w, "only owners can promote users to owner")
		return
	}

	if req.Role != nil && !auth.IsValidUserRole(*req.Role) {
		writeBadRequest(w, "invalid role: must be viewer, staff, admin, or owner")
		return
	}

	// Apply patches
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.userRepo.Update(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeConflict(w, "email already in use")
			return
		}
		s.logger.Error("update user failed", "user_id", user.ID, "error", err)
		writeInternalError(w, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleChangePassword sets a new password and revokes every session.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	user, ok := s.loadScopedUser(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Password) < 8 { //nolint:mnd // minimum password length
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	if user.Role == auth.RoleOwner && !auth.HasPermission(claims.Role, auth.PermSystemAdmin) {
		writeForbidden(w, "only owners can modify owner accounts")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to change password")
		return
	}

	if err := s.userRepo.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		s.logger.Error("update password failed", "user_id", user.ID, "error", err)
		writeInternalError(w, "failed to change password")
		return
	}

	// Existing refresh tokens are dead after a password change.
	if err := s.tokenRepo.RevokeAllForUser(r.Context(), user.ID); err != nil {
		s.logger.Warn("session revocation after password change failed", "user_id", user.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeleteUser removes a user account.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	user, ok := s.loadScopedUser(w, r)
	if !ok {
		return
	}

	if user.ID == claims.Subject {
		writeForbidden(w, "cannot delete your own account")
		return
	}

	if user.Role == auth.RoleOwner && !auth.HasPermission(claims.Role, auth.PermSystemAdmin) {
		writeForbidden(w, "only owners can delete owner accounts")
		return
	}

	if err := s.userRepo.Delete(r.Context(), user.ID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("delete user failed", "user_id", user.ID, "error", err)
		writeInternalError(w, "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": user.ID})
}

// loadScopedUser fetches a user from the URL and enforces tenant
// access. Writes the error response and returns false on failure.
func (s *Server) loadScopedUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	id := chi.URLParam(r, "id")

	user, err := s.userRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return nil, false
		}
		s.logger.Error("get user failed", "user_id", id, "error", err)
		writeInternalError(w, "failed to get user")
		return nil, false
	}

	claims := claimsFromContext(r.Context())
	if claims != nil && !claims.Role.CrossesMasjids() && user.MasjidID != claims.MasjidID {
		writeForbidden(w, "user belongs to another masjid")
		return nil, false
	}

	return user, true
}
