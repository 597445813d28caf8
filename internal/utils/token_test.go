package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 42, 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	claims, err := VerifyToken(tok.Token, testAccessSecret)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tok, err := NewRefreshToken(testRefreshSecret, 7, 30)
	require.NoError(t, err)

	claims, err := VerifyToken(tok.Raw, testRefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 1, 15)
	require.NoError(t, err)

	// A refresh secret must never validate an access token.
	_, err = VerifyToken(tok.Token, testRefreshSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyTokenExpired(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 9, -1)
	require.NoError(t, err)

	_, err = VerifyToken(tok.Token, testAccessSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTokenMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"not-a-token",
		"one.two",
		"a.b.c.d",
	} {
		_, err := VerifyToken(raw, testAccessSecret)
		assert.ErrorIs(t, err, ErrTokenMalformed, "input %q", raw)
	}
}

func TestVerifyTokenTampered(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 5, 15)
	require.NoError(t, err)

	tampered := tok.Token[:len(tok.Token)-2] + "xx"
	_, err = VerifyToken(tampered, testAccessSecret)
	assert.Error(t, err)
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("some-refresh-token")
	h2 := HashRefreshRaw("some-refresh-token")
	h3 := HashRefreshRaw("another-refresh-token")

	// Deterministic so the same cookie always maps to the same session
	// row, including across restarts.
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "some-refresh-token")
}
