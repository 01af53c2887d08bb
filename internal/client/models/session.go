package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

// Session is the authenticated identity cached locally after login. It is
// passed explicitly to every collaborator that needs identity or credentials;
// nothing reads it from ambient storage.
type Session struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
	Token    string `json:"token"`
}

func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// TokenExpired reports whether the bearer token carries an exp claim in the
// past. The client has no signing secret, so the parse is unverified; opaque
// or claim-less tokens are treated as live and left for the server to judge.
func (s *Session) TokenExpired(now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}
