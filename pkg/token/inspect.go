package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info is what the client can learn from a token without the signing key.
type Info struct {
	Opaque    bool      `json:"opaque"`
	Subject   string    `json:"subject,omitempty"`
	Role      string    `json:"role,omitempty"`
	IssuedAt  time.Time `json:"issuedAt,omitzero"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Expired reports whether the token carries an expiry earlier than now.
// Opaque tokens and tokens without expiry never count as expired.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Remaining returns the time left until expiry, or zero.
func (i Info) Remaining(now time.Time) time.Duration {
	if i.ExpiresAt.IsZero() || !now.Before(i.ExpiresAt) {
		return 0
	}
	return i.ExpiresAt.Sub(now)
}

type claims struct {
	jwt.RegisteredClaims
	ID   string `json:"id"`
	Role string `json:"role"`
}

// ErrEmpty is returned by Inspect for an empty token.
var ErrEmpty = errors.New("token: empty")

// Inspect decodes the claims of a JWT without verifying its signature.
// Tokens that are not JWTs are reported as opaque rather than failing.
func Inspect(raw string) (Info, error) {
	if raw == "" {
		return Info{}, ErrEmpty
	}

	var c claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &c); err != nil {
		return Info{Opaque: true}, nil
	}

	info := Info{Subject: c.Subject, Role: c.Role}
	if info.Subject == "" {
		info.Subject = c.ID
	}
	if c.IssuedAt != nil {
		info.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		info.ExpiresAt = c.ExpiresAt.Time
	}
	return info, nil
}
