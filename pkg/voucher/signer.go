package voucher

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/nightchill/checkin-service/pkg/apperr"
	"github.com/sirupsen/logrus"
)

const (
	// DevSecret is used only outside production when no secret is configured.
	DevSecret = "dev-secret-change-in-production"

	// DeepLinkPrefix is the app link encoded into voucher QR images.
	DeepLinkPrefix = "nightchill://redeem?d="

	environmentProduction = "production"
)

// Payload is the signed part of a voucher token. Field order defines the
// canonical serialisation and must not change.
type Payload struct {
	VoucherID string  `json:"v"`
	SponsorID string  `json:"s"`
	Amount    float64 `json:"a"`
	IssuedAt  int64   `json:"t"`
	ExpiresAt int64   `json:"e"`
}

// ExpiresAtTime returns the expiry as a time.Time
func (p Payload) ExpiresAtTime() time.Time {
	return time.UnixMilli(p.ExpiresAt)
}

type signedPayload struct {
	Payload
	Sig string `json:"sig"`
}

// Signer issues and verifies voucher tokens with HMAC-SHA256.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer. An empty secret is a configuration error in
// production and falls back to DevSecret elsewhere.
func NewSigner(secret, environment string) (*Signer, error) {
	if secret == "" {
		if environment == environmentProduction {
			return nil, apperr.Configuration("QR_SECRET must be set in production")
		}
		logrus.Warnf("QR_SECRET not set, using development secret (environment=%s)", environment)
		secret = DevSecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the hex signature of the canonical payload serialisation
func (s *Signer) Sign(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Encode signs the payload and returns the base64 token and its signature
func (s *Signer) Encode(p Payload) (token string, sig string, err error) {
	sig, err = s.Sign(p)
	if err != nil {
		return "", "", err
	}

	data, err := json.Marshal(signedPayload{Payload: p, Sig: sig})
	if err != nil {
		return "", "", err
	}

	return base64.StdEncoding.EncodeToString(data), sig, nil
}

// Decode parses a token and verifies its signature. Any malformed or
// tampered token yields an invalid-signature error. Expiry is not checked.
// Only the exact canonical encoding is accepted, so a token that decodes to
// the same payload through different bytes is rejected.
func (s *Signer) Decode(token string) (Payload, error) {
	invalid := apperr.InvalidSignature("invalid or expired QR code")

	raw, err := base64.StdEncoding.Strict().DecodeString(token)
	if err != nil || base64.StdEncoding.EncodeToString(raw) != token {
		return Payload{}, invalid
	}

	var sp signedPayload
	if err := json.Unmarshal(raw, &sp); err != nil {
		return Payload{}, invalid
	}

	canonical, err := json.Marshal(sp)
	if err != nil || !bytes.Equal(canonical, raw) {
		return Payload{}, invalid
	}

	expected, err := s.Sign(sp.Payload)
	if err != nil {
		return Payload{}, err
	}

	if !hmac.Equal([]byte(expected), []byte(sp.Sig)) {
		return Payload{}, invalid
	}

	return sp.Payload, nil
}

// DeepLink returns the app link carrying the token
func DeepLink(token string) string {
	return DeepLinkPrefix + token
}
