package auth

import (
	"strings"
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	const password = "bismillah-ir-rahman"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("hash should be PHC argon2id format, got %q", hash)
	}

	ok, err := VerifyPassword(password, hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("correct password should verify")
	}

	ok, err = VerifyPassword("not-the-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if ok {
		t.Error("wrong password should not verify")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	second, err := HashPassword("same-input")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if first == second {
		t.Error("hashing the same password twice should produce different salts")
	}
}

func TestParsePHCFields(t *testing.T) {
	hash, err := HashPassword("migrated-user")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	parsed, err := parsePHC(hash)
	if err != nil {
		t.Fatalf("parsePHC() error = %v", err)
	}
	if parsed.memoryKiB != hashMemoryKiB || parsed.iterations != hashIterations {
		t.Errorf("parsePHC() params = m=%d,t=%d, want m=%d,t=%d",
			parsed.memoryKiB, parsed.iterations, hashMemoryKiB, hashIterations)
	}
	if len(parsed.salt) != hashSaltLen {
		t.Errorf("salt length = %d, want %d", len(parsed.salt), hashSaltLen)
	}
	if len(parsed.key) != hashKeyLen {
		t.Errorf("key length = %d, want %d", len(parsed.key), hashKeyLen)
	}
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{"empty", ""},
		{"plaintext", "hunter2"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
		{"truncated", "$argon2id$v=19$m=65536,t=3,p=1"},
		{"bad version", "$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=1$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyPassword("anything", tt.stored); err == nil {
				t.Errorf("VerifyPassword(%q) should fail", tt.stored)
			}
		})
	}
}
