package auth

import (
	"testing"
	"time"
)

func TestBuildAndParseJWT(t *testing.T) {
	secret := []byte("test-secret-min-32-chars!!")
	userID := "user-123"
	username := "maria.santos"
	role := RoleAssistant
	tok, err := BuildJWT(secret, userID, username, role, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	claims, err := ParseJWT(secret, tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != userID || claims.Username != username || claims.Role != role {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tok, err := BuildJWT([]byte("test-secret-min-32-chars!!"), "u1", "u1", RoleProfessional, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT([]byte("another-secret-min-32-chars!"), tok); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}
