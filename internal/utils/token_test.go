package utils

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	token, err := NewSessionToken(secret, "abc123", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	sid, err := ParseSessionToken(secret, token)
	if err != nil {
		t.Fatalf("ParseSessionToken: %v", err)
	}
	if sid != "abc123" {
		t.Errorf("sid = %q, want abc123", sid)
	}
}

func TestSessionTokenWrongSecretRejected(t *testing.T) {
	token, err := NewSessionToken("secret-a", "abc123", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if _, err := ParseSessionToken("secret-b", token); !errors.Is(err, ErrBadSessionToken) {
		t.Errorf("err = %v, want ErrBadSessionToken", err)
	}
}

func TestSessionTokenExpiredRejected(t *testing.T) {
	const secret = "test-secret"
	token, err := NewSessionToken(secret, "abc123", -time.Minute)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if _, err := ParseSessionToken(secret, token); !errors.Is(err, ErrBadSessionToken) {
		t.Errorf("err = %v, want ErrBadSessionToken", err)
	}
}

func TestSessionTokenGarbageRejected(t *testing.T) {
	if _, err := ParseSessionToken("secret", "not-a-token"); !errors.Is(err, ErrBadSessionToken) {
		t.Errorf("err = %v, want ErrBadSessionToken", err)
	}
}

func TestRandomTokenLengthAndUniqueness(t *testing.T) {
	a, err := RandomToken(32)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RandomToken(32)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 64 || len(b) != 64 {
		t.Errorf("lengths = %d, %d, want 64", len(a), len(b))
	}
	if a == b {
		t.Error("two tokens identical")
	}
}
