package identity

import "testing"

func TestToken_RoundTrip(t *testing.T) {
	tok, err := MintToken("secret", 42, RoleEditor)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	uid, role, err := ParseToken("secret", tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != 42 || role != RoleEditor {
		t.Fatalf("unexpected claims: uid=%d role=%q", uid, role)
	}
}

func TestToken_RejectsWrongSecret(t *testing.T) {
	tok, err := MintToken("secret", 42, RoleAdmin)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, _, err := ParseToken("other", tok); err == nil {
		t.Fatalf("expected rejection with wrong secret")
	}
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "hunter2") {
		t.Fatalf("expected match")
	}
	if CheckPassword(hash, "hunter3") {
		t.Fatalf("expected mismatch")
	}
}
