package account

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hyperlocaleyes/backend/middleware"
	"github.com/hyperlocaleyes/backend/pkg/token"
)

const (
	purposeAccess = "access"
	purposeReset  = "reset"
)

var (
	ErrWrongTokenPurpose = errors.New("token not valid for this use")
	// ErrResetTokenUsed is returned for reset tokens issued before the last
	// password change.
	ErrResetTokenUsed = errors.New("reset token already used")
)

type claims struct {
	Subject string `json:"sub"`
	Role    string `json:"role,omitempty"`
	Email   string `json:"email,omitempty"`
	Stamp   string `json:"stamp,omitempty"`
	Purpose string `json:"purpose"`
	Expires int64  `json:"exp"`
}

func (c claims) ExpiresAt() time.Time {
	return time.Unix(c.Expires, 0)
}

// Tokens issues and verifies signed bearer tokens. It implements
// middleware.Authenticator.
type Tokens struct {
	Secret   string
	TTL      time.Duration
	ResetTTL time.Duration
	Now      func() time.Time
}

// NewTokens returns Tokens with a 30 day access TTL and a 10 minute reset TTL.
func NewTokens(secret string) *Tokens {
	return &Tokens{
		Secret:   secret,
		TTL:      30 * 24 * time.Hour,
		ResetTTL: 10 * time.Minute,
		Now:      time.Now,
	}
}

// Issue returns an access token for u.
func (t *Tokens) Issue(u *User) (string, error) {
	return t.sign(claims{Subject: u.ID, Role: u.Role, Purpose: purposeAccess}, t.TTL)
}

// IssueReset returns a password reset token for u. The token is bound to the
// current password hash, so it stops working once the password changes.
func (t *Tokens) IssueReset(u *User) (string, error) {
	return t.sign(claims{
		Subject: u.ID,
		Email:   u.Email,
		Stamp:   passwordStamp(u.PasswordHash),
		Purpose: purposeReset,
	}, t.ResetTTL)
}

// ResetSubject returns the user id carried by a valid reset token.
func (t *Tokens) ResetSubject(raw string) (string, error) {
	c, err := t.parse(raw)
	if err != nil {
		return "", err
	}
	if c.Purpose != purposeReset || c.Subject == "" {
		return "", ErrWrongTokenPurpose
	}
	return c.Subject, nil
}

// CheckReset reports whether raw was issued for the current password of u.
func (t *Tokens) CheckReset(raw string, u *User) error {
	c, err := t.parse(raw)
	if err != nil {
		return err
	}
	if c.Purpose != purposeReset || c.Subject != u.ID {
		return ErrWrongTokenPurpose
	}
	if subtle.ConstantTimeCompare([]byte(c.Stamp), []byte(passwordStamp(u.PasswordHash))) != 1 {
		return ErrResetTokenUsed
	}
	return nil
}

func passwordStamp(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}

func (t *Tokens) parse(raw string) (claims, error) {
	return token.ParseTokenAt[claims](raw, t.Secret, t.Now())
}

func (t *Tokens) sign(c claims, ttl time.Duration) (string, error) {
	c.Expires = t.Now().Add(ttl).Unix()
	tok, err := token.GenerateToken(c, t.Secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

// Verify accepts requests carrying a valid access token.
func (t *Tokens) Verify(r *http.Request) (middleware.Principal, error) {
	raw, err := middleware.BearerToken(r)
	if err != nil {
		return middleware.Principal{}, err
	}

	c, err := t.parse(raw)
	if err != nil {
		return middleware.Principal{}, err
	}
	if c.Purpose != purposeAccess || c.Subject == "" {
		return middleware.Principal{}, ErrWrongTokenPurpose
	}
	return middleware.Principal{UserID: c.Subject, Role: c.Role}, nil
}

var _ middleware.Authenticator = (*Tokens)(nil)
