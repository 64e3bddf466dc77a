package token

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

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrEmptySecret      = errors.New("token secret is empty")
)

// Expirer is implemented by claims that carry an expiry.
type Expirer interface {
	ExpiresAt() time.Time
}

var encoding = base64.RawURLEncoding

// GenerateToken encodes payload as JSON and signs it with secret.
func GenerateToken(payload any, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token payload: %w", err)
	}

	body := encoding.EncodeToString(data)
	return body + "." + encoding.EncodeToString(sign(body, secret)), nil
}

// ParseToken verifies the signature of token and decodes its payload into T.
// Claims implementing Expirer are checked against the current time.
func ParseToken[T any](token, secret string) (T, error) {
	return ParseTokenAt[T](token, secret, time.Now())
}

// ParseTokenAt is ParseToken with expiry checked against now.
func ParseTokenAt[T any](token, secret string, now time.Time) (T, error) {
	var out T
	if secret == "" {
		return out, ErrEmptySecret
	}

	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return out, ErrInvalidToken
	}

	gotSig, err := encoding.DecodeString(sig)
	if err != nil {
		return out, ErrInvalidToken
	}
	if !hmac.Equal(gotSig, sign(body, secret)) {
		return out, ErrSignatureInvalid
	}

	data, err := encoding.DecodeString(body)
	if err != nil {
		return out, ErrInvalidToken
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if e, ok := any(out).(Expirer); ok {
		if exp := e.ExpiresAt(); !exp.IsZero() && !now.Before(exp) {
			return out, ErrTokenExpired
		}
	}
	return out, nil
}

func sign(body, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return mac.Sum(nil)
}
