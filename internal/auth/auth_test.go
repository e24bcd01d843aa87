package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-token-tests"

func newTestService() *AuthService {
	// Token operations never touch the store
	return NewAuthService(nil, testSecret, 24*time.Hour, 4)
}

func TestAuthService_Register_Validation(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{
			name:     "EmptyName",
			userName: "",
			email:    "alice@example.com",
			password: "password123",
		},
		{
			name:     "EmptyEmail",
			userName: "Alice",
			email:    "",
			password: "password123",
		},
		{
			name:     "EmptyPassword",
			userName: "Alice",
			email:    "alice@example.com",
			password: "",
		},
		{
			name:     "LongName",
			userName: strings.Repeat("a", 101),
			email:    "alice@example.com",
			password: "password123",
		},
		{
			name:     "LongEmail",
			userName: "Alice",
			email:    strings.Repeat("a", 250) + "@example.com",
			password: "password123",
		},
		{
			name:     "LongPassword",
			userName: "Alice",
			email:    "alice@example.com",
			password: strings.Repeat("p", 73),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.userName, tt.email, tt.password)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_IssueAndVerifyToken(t *testing.T) {
	s := newTestService()

	token, err := s.IssueToken(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID, err := s.VerifyToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != 42 {
		t.Errorf("expected user ID 42, got %d", userID)
	}
}

func TestAuthService_VerifyToken(t *testing.T) {
	s := newTestService()

	valid, err := s.IssueToken(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	expiredStr, err := expired.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	wrongKeyStr, err := wrongKey.SignedString([]byte("some-other-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	unsignedStr, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "not-a-number",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	badSubjectStr, err := badSubject.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name         string
		token        string
		expectUserID int64
		expectError  bool
	}{
		{
			name:         "Valid",
			token:        valid,
			expectUserID: 7,
		},
		{
			name:        "Expired",
			token:       expiredStr,
			expectError: true,
		},
		{
			name:        "WrongKey",
			token:       wrongKeyStr,
			expectError: true,
		},
		{
			name:        "NoneAlgorithm",
			token:       unsignedStr,
			expectError: true,
		},
		{
			name:        "NonNumericSubject",
			token:       badSubjectStr,
			expectError: true,
		},
		{
			name:        "Empty",
			token:       "",
			expectError: true,
		},
		{
			name:        "Garbage",
			token:       "not.a.token",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := s.VerifyToken(tt.token)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrTokenInvalid) {
					t.Errorf("expected ErrTokenInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if userID != tt.expectUserID {
				t.Errorf("expected user ID %d, got %d", tt.expectUserID, userID)
			}
		})
	}
}

func TestAuthService_TokenTTL(t *testing.T) {
	// The exp claim tracks the configured lifetime
	s := NewAuthService(nil, testSecret, time.Hour, 4)
	token, err := s.IssueToken(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("invalid token: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("invalid token claims")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		t.Fatalf("missing exp claim: %v", err)
	}
	remaining := time.Until(exp.Time)
	if remaining <= 0 || remaining > time.Hour {
		t.Errorf("expected expiry within one hour, got %v", remaining)
	}
}
