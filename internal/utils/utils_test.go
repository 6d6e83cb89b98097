package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := NewSessionToken("s3cret", "acct-1", "client", time.Hour, now)
	require.NoError(t, err)

	claims, err := ParseSessionToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", claims.AccountID)
	assert.Equal(t, "client", claims.Role)
	assert.Equal(t, tok.ID, claims.ID)
	assert.Equal(t, tok.Exp.Unix(), claims.ExpiresAt.Unix())
}

func TestSessionTokensAreUnique(t *testing.T) {
	now := time.Now()
	a, err := NewSessionToken("k", "acct", "admin", time.Hour, now)
	require.NoError(t, err)
	b, err := NewSessionToken("k", "acct", "admin", time.Hour, now)
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, HashToken(a.Token), HashToken(b.Token))
}

func TestParseSessionTokenRejects(t *testing.T) {
	tok, err := NewSessionToken("right", "acct", "client", time.Hour, time.Now())
	require.NoError(t, err)
	_, err = ParseSessionToken("wrong", tok.Token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	expired, err := NewSessionToken("right", "acct", "client", time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = ParseSessionToken("right", expired.Token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ParseSessionToken("right", "not-a-jwt")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))

	p, err := GeneratePassword()
	require.NoError(t, err)
	assert.Len(t, p, 20)
}
