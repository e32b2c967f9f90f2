package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the displayable payload of the backend-issued bearer token.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

type wireClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Inspect decodes a token without verifying its signature; the signing key
// lives on the backend. The result is for display only and never gates
// navigation — a stale token is discovered by the next rejected API call.
func Inspect(tokenStr string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(tokenStr, &wireClaims{})
	if err != nil {
		return Claims{}, err
	}
	wc := parsed.Claims.(*wireClaims)
	out := Claims{Subject: wc.Subject, Role: wc.Role}
	if wc.ExpiresAt != nil {
		out.ExpiresAt = wc.ExpiresAt.Time
	}
	if wc.IssuedAt != nil {
		out.IssuedAt = wc.IssuedAt.Time
	}
	return out, nil
}

// Expired reports whether the token carries an expiry in the past.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}
