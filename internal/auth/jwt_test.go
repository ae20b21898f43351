package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTManager(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, err := m.Generate("owner-1")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		claims, err := m.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.OwnerID != "owner-1" {
			t.Errorf("OwnerID = %q, want owner-1", claims.OwnerID)
		}
	})

	t.Run("empty owner rejected", func(t *testing.T) {
		if _, err := m.Generate(""); err == nil {
			t.Error("expected error for empty owner")
		}
	})

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"garbage", func(t *testing.T) string { return "not-a-token" }},
		{"wrong secret", func(t *testing.T) string {
			token, err := NewJWTManager("ffffffffffffffffffffffffffffffff", time.Hour).Generate("owner-1")
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			return token
		}},
		{"expired", func(t *testing.T) string {
			token, err := NewJWTManager(testSecret, -time.Minute).Generate("owner-1")
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			return token
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Validate(tt.token(t)); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
