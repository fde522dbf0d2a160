package utils

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("open-sesame", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "open-sesame") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordOutOfRangeCostFallsBack(t *testing.T) {
	// A misconfigured BCRYPT_COST must not break account creation.
	hash, err := HashPassword("open-sesame", 99)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "open-sesame") {
		t.Error("correct password rejected after cost fallback")
	}
}
