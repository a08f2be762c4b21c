package utils

import (
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "secret"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !CheckPassword(password, hash) {
		t.Errorf("Expected password check to pass")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Errorf("Expected password check to fail")
	}
}

func TestJWT(t *testing.T) {
	secret := "supersecret"
	userID := "123"
	role := "patient"

	token, err := GenerateToken(userID, role, secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("Expected UserID %s, got %s", userID, claims.UserID)
	}

	if claims.Role != role {
		t.Errorf("Expected Role %s, got %s", role, claims.Role)
	}

	_, err = ValidateToken(token, "wrongsecret")
	if err == nil {
		t.Errorf("Expected error with wrong secret")
	}
}

func TestChatTokenAudienceIsolation(t *testing.T) {
	secret := "supersecret"

	chatToken, err := GenerateChatToken("42", "professional", secret)
	if err != nil {
		t.Fatalf("GenerateChatToken: %v", err)
	}

	claims, err := ValidateChatToken(chatToken, secret)
	if err != nil {
		t.Fatalf("ValidateChatToken: %v", err)
	}
	if claims.UserID != "42" || claims.Role != "professional" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if _, err := ValidateToken(chatToken, secret); err == nil {
		t.Errorf("Expected chat token to be rejected as API token")
	}

	apiToken, err := GenerateToken("42", "professional", secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateChatToken(apiToken, secret); err == nil {
		t.Errorf("Expected API token to be rejected as chat token")
	}
}
