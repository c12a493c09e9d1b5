package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned before any request is sent with a bearer
// token whose exp claim has passed.
var ErrTokenExpired = errors.New("API token has expired; sign in again and update api.token")

// TokenInfo describes the claims of a JWT bearer token. The signature is not
// verified; the service does that.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// InspectToken decodes the registered claims of a JWT. ok is false for
// opaque tokens that are not JWTs.
func InspectToken(token string) (info TokenInfo, ok bool, err error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return TokenInfo{}, false, nil
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, false, fmt.Errorf("parse token claims: %w", err)
	}

	info.Subject = claims.Subject
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, true, nil
}

// Expired reports whether the token carries an exp claim before now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// checkToken fails fast on an expired JWT. Opaque and malformed tokens are
// passed through for the service to judge.
func (c *Client) checkToken() error {
	if c.Token == "" {
		return nil
	}
	info, ok, err := InspectToken(c.Token)
	if err != nil || !ok {
		return nil
	}
	if info.Expired(c.clock()) {
		return ErrTokenExpired
	}
	return nil
}
