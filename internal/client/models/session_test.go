package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestSession_TokenExpired(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	live := &Session{Token: signedToken(t, now.Add(time.Hour))}
	assert.False(t, live.TokenExpired(now))

	stale := &Session{Token: signedToken(t, now.Add(-time.Hour))}
	assert.True(t, stale.TokenExpired(now))
}

func TestSession_TokenExpired_OpaqueTokenTreatedAsLive(t *testing.T) {
	s := &Session{Token: "not-a-jwt"}
	assert.False(t, s.TokenExpired(time.Now()))
}

func TestSession_IsAdmin(t *testing.T) {
	assert.True(t, (&Session{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&Session{Role: RoleDriver}).IsAdmin())
}
