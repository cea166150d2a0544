package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.Contains(hash, ":") {
		t.Fatalf("expected salt:hash format, got %q", hash)
	}

	if !VerifyPassword("secret123", hash) {
		t.Fatalf("correct password must verify")
	}
	if VerifyPassword("wrongpass", hash) {
		t.Fatalf("wrong password must not verify")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	b, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if a == b {
		t.Fatalf("two hashes of the same password must differ")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, hash := range []string{"", "nocolon", "zz:zz", "abcd:"} {
		if VerifyPassword("secret123", hash) {
			t.Fatalf("malformed hash %q must not verify", hash)
		}
	}
}
