package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nightchill/checkin-service/pkg/apperr"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v, err := NewVerifier("secret")
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	token, err := v.Issue("user-1", "a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	v, _ := NewVerifier("secret")
	other, _ := NewVerifier("other-secret")

	expired := &Verifier{secret: []byte("secret"), now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
	expiredToken, _ := expired.Issue("user-1", "", time.Hour)
	foreignToken, _ := other.Issue("user-1", "", time.Hour)

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"expired", expiredToken},
		{"wrong secret", foreignToken},
		{"alg none", noneToken},
		{"no subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if !errors.Is(err, apperr.ErrUnauthorized) {
				t.Errorf("Verify() error = %v, expected unauthorized", err)
			}
		})
	}
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	if _, err := NewVerifier(""); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("NewVerifier() error = %v, expected configuration error", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header   string
		expected string
		wantErr  bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc ", "abc", false},
		{"Basic abc", "", true},
		{"Bearer ", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if (err != nil) != tt.wantErr {
			t.Errorf("BearerToken(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("BearerToken(%q) = %q, expected %q", tt.header, got, tt.expected)
		}
	}
}

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()
	if UserID(ctx) != "" {
		t.Error("UserID() on empty context should be empty")
	}

	ctx = WithClaims(ctx, &Claims{UserID: "user-9"})
	if UserID(ctx) != "user-9" {
		t.Errorf("UserID() = %q, expected user-9", UserID(ctx))
	}
}
