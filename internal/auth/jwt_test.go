package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 2*time.Hour)

	tests := []struct {
		name     string
		username string
	}{
		{"simple username", "casey"},
		{"email-like username", "casey@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := manager.GenerateToken(tt.username)
			if err != nil {
				t.Fatalf("Failed to generate token: %v", err)
			}
			if token == "" {
				t.Fatal("Generated empty token")
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				t.Fatalf("Failed to validate token: %v", err)
			}
			if claims.Username != tt.username {
				t.Errorf("claims username = %q, want %q", claims.Username, tt.username)
			}
		})
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-a", time.Hour)
	other := NewJWTManager("secret-b", time.Hour)

	token, err := manager.GenerateToken("casey")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := other.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	if _, err := manager.ValidateToken("not.a.token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := manager.ValidateToken(""); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)

	token, err := manager.GenerateToken("casey")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := manager.ValidateToken(token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestSessionDuration(t *testing.T) {
	manager := NewJWTManager("test-secret", 36*time.Hour)
	if got := manager.SessionDuration(); got != 36*time.Hour {
		t.Errorf("SessionDuration = %v, want 36h", got)
	}
}
