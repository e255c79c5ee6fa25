package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/XolifyDev/mizan-core/internal/auth"
)

// Auth constants.
const (
	// ticketTTL is how long a WebSocket ticket is valid.
	ticketTTL = 60 * time.Second

	// defaultRefreshTTLMinutes is used when the config leaves the
	// refresh token TTL unset (7 days).
	defaultRefreshTTLMinutes = 7 * 24 * 60
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse is the response body for login and refresh.
type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	User         *auth.User `json:"user,omitempty"`
}

// refreshRequest is the request body for POST /auth/refresh and /auth/logout.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleLogin authenticates a user against the user store and issues an
// access token plus a refresh token starting a new rotation family.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	user, err := s.userRepo.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			// Same response as a bad password so usernames cannot be probed.
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	if !user.Active {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	resp, err := s.issueTokens(r, user, "")
	if err != nil {
		s.logger.Error("token issue failed", "user_id", user.ID, "error", err)
		writeInternalError(w, "login failed")
		return
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username, "masjid_id", user.MasjidID)
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh rotates a refresh token and issues a fresh access token.
//
// Presenting an already-consumed token is treated as theft: the whole
// rotation family is revoked and the caller gets a 401.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "refresh_token is required")
		return
	}

	ctx := r.Context()

	stored, err := s.tokenRepo.GetByTokenHash(ctx, auth.HashToken(req.RefreshToken))
	if err != nil {
		writeUnauthorized(w, "invalid refresh token")
		return
	}

	if stored.Revoked {
		// Reuse of a rotated token: revoke every descendant in the family.
		if err := s.tokenRepo.RevokeFamily(ctx, stored.FamilyID); err != nil {
			s.logger.Error("family revocation failed", "family_id", stored.FamilyID, "error", err)
		}
		s.logger.Warn("refresh token reuse detected", "user_id", stored.UserID, "family_id", stored.FamilyID)
		writeUnauthorized(w, "refresh token reuse detected")
		return
	}

	if time.Now().After(stored.ExpiresAt) {
		writeUnauthorized(w, "refresh token expired")
		return
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil || !user.Active {
		writeUnauthorized(w, "invalid refresh token")
		return
	}

	raw, err := auth.GenerateRefreshToken()
	if err != nil {
		s.logger.Error("refresh token generation failed", "error", err)
		writeInternalError(w, "refresh failed")
		return
	}

	newToken := &auth.RefreshToken{
		UserID:     user.ID,
		FamilyID:   stored.FamilyID,
		TokenHash:  auth.HashToken(raw),
		DeviceInfo: r.UserAgent(),
		ExpiresAt:  time.Now().Add(s.refreshTTL()),
	}
	if err := s.tokenRepo.RotateRefreshToken(ctx, stored.ID, newToken); err != nil {
		s.logger.Error("token rotation failed", "user_id", user.ID, "error", err)
		writeInternalError(w, "refresh failed")
		return
	}

	access, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, s.secCfg.JWT.AccessTokenTTL)
	if err != nil {
		s.logger.Error("access token generation failed", "user_id", user.ID, "error", err)
		writeInternalError(w, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTLSeconds(),
	})
}

// handleLogout revokes the presented refresh token. The access token
// simply ages out; it is short-lived by design.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "refresh_token is required")
		return
	}

	stored, err := s.tokenRepo.GetByTokenHash(r.Context(), auth.HashToken(req.RefreshToken))
	if err != nil {
		// Unknown token: logout is idempotent.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	if err := s.tokenRepo.Revoke(r.Context(), stored.ID); err != nil {
		s.logger.Error("logout revocation failed", "token_id", stored.ID, "error", err)
		writeInternalError(w, "logout failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAuthMe returns the authenticated user's account.
func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	user, err := s.userRepo.GetByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, "account no longer exists")
			return
		}
		s.logger.Error("auth me lookup failed", "user_id", claims.Subject, "error", err)
		writeInternalError(w, "failed to load account")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// issueTokens creates an access token and a refresh token for the user.
// An empty familyID starts a new rotation family.
func (s *Server) issueTokens(r *http.Request, user *auth.User, familyID string) (*tokenResponse, error) {
	access, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, s.secCfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	raw, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	token := &auth.RefreshToken{
		UserID:     user.ID,
		FamilyID:   familyID,
		TokenHash:  auth.HashToken(raw),
		DeviceInfo: r.UserAgent(),
		ExpiresAt:  time.Now().Add(s.refreshTTL()),
	}
	if err := s.tokenRepo.Create(r.Context(), token); err != nil {
		return nil, err
	}

	return &tokenResponse{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTLSeconds(),
		User:         user,
	}, nil
}

func (s *Server) refreshTTL() time.Duration {
	ttl := s.secCfg.JWT.RefreshTokenTTL
	if ttl <= 0 {
		ttl = defaultRefreshTTLMinutes
	}
	return time.Duration(ttl) * time.Minute
}

func (s *Server) accessTTLSeconds() int {
	ttl := s.secCfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 //nolint:mnd // default 15-minute access token TTL
	}
	return ttl * 60
}

// ─── WebSocket tickets ─────────────────────────────────────────────

// ticketStore holds pending WebSocket authentication tickets.
// Tickets are single-use and expire after ticketTTL.
type ticketStore struct {
	tickets map[string]ticketEntry
	mu      sync.Mutex
}

// ticketEntry carries the caller's identity from the ticket request to
// the WebSocket upgrade, so the connection inherits tenant scoping.
type ticketEntry struct {
	expiresAt time.Time
	userID    string
	masjidID  string
	role      auth.Role
}

var wsTickets = &ticketStore{
	tickets: make(map[string]ticketEntry),
}

// handleWSTicket generates a single-use WebSocket authentication ticket.
// The client uses this ticket to authenticate the WebSocket connection
// without exposing the JWT in the URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	ticket := generateTicket()

	wsTickets.mu.Lock()
	wsTickets.tickets[ticket] = ticketEntry{
		expiresAt: time.Now().Add(ticketTTL),
		userID:    claims.Subject,
		masjidID:  claims.MasjidID,
		role:      claims.Role,
	}
	wsTickets.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(ticketTTL.Seconds()),
	})
}

// validateTicket checks if a ticket is valid and consumes it (single-use).
func validateTicket(ticket string) (ticketEntry, bool) {
	wsTickets.mu.Lock()
	defer wsTickets.mu.Unlock()

	entry, ok := wsTickets.tickets[ticket]
	if !ok {
		return ticketEntry{}, false
	}

	// Remove ticket (single-use)
	delete(wsTickets.tickets, ticket)

	if time.Now().After(entry.expiresAt) {
		return ticketEntry{}, false
	}
	return entry, true
}

// ticketBytes is the number of random bytes used for WebSocket tickets.
const ticketBytes = 32

// generateTicket creates a cryptographically random ticket string.
func generateTicket() string {
	b := make([]byte, ticketBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// cleanExpiredTickets removes expired tickets from the store.
func cleanExpiredTickets() {
	wsTickets.mu.Lock()
	defer wsTickets.mu.Unlock()

	now := time.Now()
	for ticket, entry := range wsTickets.tickets {
		if now.After(entry.expiresAt) {
			delete(wsTickets.tickets, ticket)
		}
	}
}

// cleanTicketsLoop runs cleanExpiredTickets periodically until the context is cancelled.
func (s *Server) cleanTicketsLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanExpiredTickets()
		}
	}
}
