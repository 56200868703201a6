// Package guardtoken mints and verifies the signed capability token that
// proves an utterance already passed the safety classifier. The token is a
// stateless bearer capability: whoever holds an unexpired, correctly signed
// token is treated as pre-screened.
package guardtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TTL is how long a freshly minted token stays valid.
const TTL = 120 * time.Second

// Claim is the token payload. Allowed must be true and ExpiresAt must not
// be in the past for the token to verify.
type Claim struct {
	Allowed   bool  `json:"allowed"`
	ExpiresAt int64 `json:"expiresAt"`
}

// NewClaim builds an allowed claim expiring ttl from now.
func NewClaim(now time.Time, ttl time.Duration) Claim {
	return Claim{
		Allowed:   true,
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

// Verification failure modes. The HTTP surface collapses all of them into a
// single 403 so callers learn nothing about why a token failed, but they are
// kept distinct here for logging and audit events.
var (
	ErrMalformed = errors.New("guard token: malformed structure")
	ErrSignature = errors.New("guard token: signature mismatch")
	ErrPayload   = errors.New("guard token: invalid payload")
	ErrDenied    = errors.New("guard token: not allowed")
	ErrExpired   = errors.New("guard token: expired")
)

// Mint serializes the claim to JSON, encodes it with unpadded URL-safe
// base64, and appends an HMAC-SHA256 signature computed over the encoded
// payload bytes. The result is exactly two dot-separated segments.
func Mint(claim Claim, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("guard token: empty signing secret")
	}

	payload, err := json.Marshal(claim)
	if err != nil {
		return "", fmt.Errorf("guard token: failed to serialize claim: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	signature := sign([]byte(encoded), secret)
	return encoded + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// Verify reports whether the token is authentic, allowed, and unexpired.
// It fails closed: any malformed input yields false, never a panic or error.
func Verify(token string, secret []byte) bool {
	return CheckAt(token, secret, time.Now()) == nil
}

// CheckAt verifies the token against the given instant and returns the
// specific failure mode, or nil for a valid token. The expiry boundary is
// inclusive: a token is still valid at the exact expiry second.
func CheckAt(token string, secret []byte, now time.Time) error {
	if len(secret) == 0 {
		return ErrSignature
	}

	segments := strings.Split(token, ".")
	if len(segments) != 2 {
		return ErrMalformed
	}
	encodedPayload, encodedSignature := segments[0], segments[1]

	providedSignature, err := base64.RawURLEncoding.DecodeString(encodedSignature)
	if err != nil {
		return ErrSignature
	}
	if !hmac.Equal(providedSignature, sign([]byte(encodedPayload), secret)) {
		return ErrSignature
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return ErrPayload
	}

	// Pointer fields distinguish "missing" from zero values: a payload
	// without allowed or expiresAt is invalid, not merely expired.
	var claim struct {
		Allowed   *bool  `json:"allowed"`
		ExpiresAt *int64 `json:"expiresAt"`
	}
	if err := json.Unmarshal(payload, &claim); err != nil {
		return ErrPayload
	}
	if claim.Allowed == nil || claim.ExpiresAt == nil {
		return ErrPayload
	}

	if !*claim.Allowed {
		return ErrDenied
	}
	if *claim.ExpiresAt < now.Unix() {
		return ErrExpired
	}
	return nil
}

func sign(data, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	return mac.Sum(nil)
}
