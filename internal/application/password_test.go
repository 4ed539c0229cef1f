package application

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("secret-pass", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	if err := VerifyPassword(hash, "secret-pass"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := VerifyPassword(hash, "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	if err := VerifyPassword("not-a-hash", "whatever"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
