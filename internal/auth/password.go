package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Sized for a small VPS handling dashboard
// logins, not bulk authentication: one login per staff member per day
// is the realistic load.
const (
	hashIterations  = 3
	hashMemoryKiB   = 64 * 1024
	hashParallelism = 1
	hashKeyLen      = 32
	hashSaltLen     = 16
)

// phcParts is the number of $-delimited segments in a PHC-formatted hash.
const phcParts = 6

// HashPassword derives an Argon2id hash of the given password and encodes
// it in PHC string format ($argon2id$v=19$m=...,t=...,p=...$salt$hash).
// The salt is freshly generated per call.
func HashPassword(password string) (string, error) {
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, hashIterations, hashMemoryKiB, hashParallelism, hashKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hashMemoryKiB, hashIterations, hashParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// VerifyPassword reports whether password matches the stored PHC hash.
// The stored parameters are honoured, so hashes created under older cost
// settings keep verifying after the constants above change.
func VerifyPassword(password, stored string) (bool, error) {
	h, err := parsePHC(stored)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), h.salt, h.iterations, h.memoryKiB, h.parallelism, uint32(len(h.key))) //nolint:gosec // G115: key length always fits uint32

	return subtle.ConstantTimeCompare(h.key, candidate) == 1, nil
}

// phcHash holds the decoded fields of a PHC-formatted Argon2id hash.
type phcHash struct {
	iterations  uint32
	memoryKiB   uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// parsePHC decodes a PHC string into its salt, key, and cost parameters.
func parsePHC(encoded string) (*phcHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != phcParts {
		return nil, fmt.Errorf("malformed password hash")
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported hash algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return nil, fmt.Errorf("parsing hash version: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	h := &phcHash{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memoryKiB, &h.iterations, &h.parallelism); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return nil, fmt.Errorf("parsing hash parameters: %w", err)
	}

	var err error
	h.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}
	h.key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, fmt.Errorf("decoding hash: %w", err)
	}

	return h, nil
}
