package auth

import (
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	now := time.Now()
	token, expiresAt, err := IssueSessionToken("secret", time.Hour, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.After(now) {
		t.Fatalf("expiry not in the future: %v", expiresAt)
	}
	if err := ValidateSessionToken("secret", token); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := ValidateSessionToken("wrong-secret", token); err == nil {
		t.Fatalf("expected validation failure with wrong secret")
	}
}

func TestSessionTokenExpiry(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	token, _, err := IssueSessionToken("secret", time.Hour, past)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := ValidateSessionToken("secret", token); err == nil {
		t.Fatalf("expected expired token to fail validation")
	}
}

func TestCheckPassword(t *testing.T) {
	if !CheckPassword("azura", "azura") {
		t.Fatalf("plain match failed")
	}
	if CheckPassword("azura", "wrong") {
		t.Fatalf("plain mismatch accepted")
	}

	hash, err := HashPassword("azura")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "azura") {
		t.Fatalf("bcrypt match failed")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("bcrypt mismatch accepted")
	}
}
