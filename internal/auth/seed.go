package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

const (
	seedOwnerUsername = "owner"
	seedOwnerEmail    = "owner@localhost"

	// 16 random bytes, hex-encoded to a 32-character password.
	seedPasswordBytes = 16
)

// SeedOwner creates the initial owner account when the users table is
// empty. The generated password is returned and logged once at warn
// level so the operator can capture it on first boot; it is not stored
// anywhere in plaintext. Returns "" when seeding was skipped.
func SeedOwner(ctx context.Context, userRepo UserRepository, logger *slog.Logger) (string, error) {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}
	if count > 0 {
		logger.Info("users exist, skipping owner seed")
		return "", nil
	}

	password, err := randomPassword()
	if err != nil {
		return "", err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	owner := &User{
		Username:     seedOwnerUsername,
		Email:        seedOwnerEmail,
		Name:         "Platform Owner",
		PasswordHash: hash,
		Role:         RoleOwner,
		Active:       true,
	}
	if err := userRepo.Create(ctx, owner); err != nil {
		return "", fmt.Errorf("creating seed owner: %w", err)
	}

	logger.Warn("seed owner account created",
		"username", seedOwnerUsername,
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}

func randomPassword() (string, error) {
	buf := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
