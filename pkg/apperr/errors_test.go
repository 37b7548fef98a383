package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIs_MatchesOnKind(t *testing.T) {
	err := fmt.Errorf("redeem: %w", Conflict("reward %s already redeemed", "r1"))

	if !errors.Is(err, ErrConflict) {
		t.Error("Expected wrapped conflict to match ErrConflict")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Expected conflict not to match ErrNotFound")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", Validation("bad"), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"invalid signature", InvalidSignature("tampered"), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"unauthorized", Unauthorized("no token"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not found", NotFound("reward not found"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", Conflict("redeemed"), http.StatusConflict, "CONFLICT"},
		{"expired", Expired("expired"), http.StatusConflict, "EXPIRED"},
		{"internal", errors.New("redis down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := HTTPStatus(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, expected %d", status, tt.wantStatus)
			}
			if code != tt.wantCode {
				t.Errorf("code = %s, expected %s", code, tt.wantCode)
			}
		})
	}
}

func TestPublicMessage_HidesInternals(t *testing.T) {
	if got := PublicMessage(errors.New("dial tcp 10.0.0.1:6379: refused")); got != "internal server error" {
		t.Errorf("PublicMessage() = %q, expected generic message", got)
	}
	if got := PublicMessage(NotFound("Reward not found")); got != "Reward not found" {
		t.Errorf("PublicMessage() = %q, expected domain message", got)
	}
}
