package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultAccessTTLMinutes = 15
	refreshTokenBytes       = 32
)

// CustomClaims carries the tenant scope alongside the registered JWT
// claims. MasjidID is empty for owner accounts, which see all tenants.
type CustomClaims struct {
	jwt.RegisteredClaims
	MasjidID  string `json:"mid"`
	Role      Role   `json:"role"`
	SessionID string `json:"sid"`
}

// GenerateAccessToken signs a short-lived HS256 access token for the
// user. Validation is signature-only, so revocation happens at refresh
// time rather than per request.
func GenerateAccessToken(user *User, secret string, ttlMinutes int) (string, error) {
	if ttlMinutes <= 0 {
		ttlMinutes = defaultAccessTTLMinutes
	}

	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlMinutes) * time.Minute)),
			ID:        uuid.NewString(),
		},
		MasjidID:  user.MasjidID,
		Role:      user.Role,
		SessionID: uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken returns a 256-bit random token, hex encoded. The
// raw value goes to the client; only its hash is stored.
func GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ParseToken verifies an access token's signature and expiry and returns
// its claims. Tokens without a subject or role are rejected even when
// the signature checks out.
func ParseToken(tokenString, secret string) (*CustomClaims, error) {
	keyFunc := func(_ *jwt.Token) (any, error) { return []byte(secret), nil }

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role", ErrTokenInvalid)
	}

	return claims, nil
}
