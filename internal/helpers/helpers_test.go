package helpers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer  ", "Basic abc", "abc"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, ErrMissingToken, h)
	}
}

func signed(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestSecretVerifier(t *testing.T) {
	v := NewSecretVerifier("top-secret")
	defer v.Close()

	claims := &Claims{
		Email:        "ana@x.com",
		UserMetadata: map[string]any{"name": "Ana"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	got, err := v.Verify(signed(t, "top-secret", claims))
	require.NoError(t, err)
	id := got.Identity()
	assert.Equal(t, "user-1", id.ID)
	assert.Equal(t, "ana@x.com", id.Email)
	assert.Equal(t, "Ana", id.Name)

	_, err = v.Verify(signed(t, "other-secret", claims))
	assert.Error(t, err)

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = v.Verify(signed(t, "top-secret", claims))
	assert.Error(t, err)

	noExp := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}
	_, err = v.Verify(signed(t, "top-secret", noExp))
	assert.Error(t, err)
}
