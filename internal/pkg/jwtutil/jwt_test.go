package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("super-secret", time.Hour, 42)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := ParseToken("super-secret", tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("secret", -time.Minute, 1)
	require.NoError(t, err)

	_, err = ParseToken("secret", tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("right-secret", time.Hour, 2)
	require.NoError(t, err)

	_, err = ParseToken("wrong-secret", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("k", "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID: 3,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = ParseToken("k", signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_RequiresSubject(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("k", time.Hour, 0)
	require.NoError(t, err)

	_, err = ParseToken("k", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("k", time.Minute)
	tok, err := iss.Issue(9)
	require.NoError(t, err)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
}
