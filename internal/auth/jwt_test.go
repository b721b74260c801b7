package auth

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	a := New("test-secret")

	token, err := a.GenerateClientToken("client-42")
	if err != nil {
		t.Fatalf("GenerateClientToken failed: %v", err)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.ClientID != "client-42" {
		t.Errorf("Expected client-42, got %s", claims.ClientID)
	}
	if claims.Role != clientRole {
		t.Errorf("Expected role %s, got %s", clientRole, claims.Role)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	token, _ := New("secret-a").GenerateClientToken("client-1")

	if _, err := New("secret-b").ValidateToken(token); err == nil {
		t.Error("Token signed with a different secret should be rejected")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	if _, err := New("secret").ValidateToken("not.a.token"); err == nil {
		t.Error("Malformed token should be rejected")
	}
}

func TestEnabled(t *testing.T) {
	if New("").Enabled() {
		t.Error("Empty secret should disable auth")
	}
	if !New("secret").Enabled() {
		t.Error("Non-empty secret should enable auth")
	}
}
