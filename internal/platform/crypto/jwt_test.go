package crypto

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken_WithJTI(t *testing.T) {
	token, jti, err := GenerateToken("test-secret", "user-1", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, jti)

	claims, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, jti, claims.ID)
}

func TestGenerateToken_UniqueJTIs(t *testing.T) {
	_, jti1, err1 := GenerateToken("test-secret", "user-1", time.Hour)
	_, jti2, err2 := GenerateToken("test-secret", "user-1", time.Hour)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotEqual(t, jti1, jti2)
}

func TestParseToken(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := GenerateToken("other-secret", "user-1", time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken("test-secret", token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("expired", func(t *testing.T) {
		token := sign(t, Claims{
			Sub: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}, jwt.SigningMethodHS256)

		_, err := ParseToken("test-secret", token)
		assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
	})

	t.Run("no expiry", func(t *testing.T) {
		token := sign(t, Claims{Sub: "user-1"}, jwt.SigningMethodHS256)

		_, err := ParseToken("test-secret", token)
		assert.Error(t, err)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token := sign(t, Claims{
			Sub: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, jwt.SigningMethodHS512)

		_, err := ParseToken("test-secret", token)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := sign(t, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, jwt.SigningMethodHS256)

		_, err := ParseToken("test-secret", token)
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseToken("test-secret", "not.a.valid.token")
		assert.Error(t, err)
	})
}

func sign(t *testing.T, c Claims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}
