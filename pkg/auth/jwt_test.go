package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	gen, err := NewJWTGenerator("test-secret", "memoria-dev", time.Hour)
	require.NoError(t, err)
	val, err := NewJWTValidator("test-secret", "memoria-dev")
	require.NoError(t, err)

	token, err := gen.GenerateToken("user-1", "u1@example.com", []string{"admin"})
	require.NoError(t, err)

	claims, err := val.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.True(t, claims.IsAdmin())
}

func TestValidateRejects(t *testing.T) {
	gen, err := NewJWTGenerator("test-secret", "memoria-dev", time.Hour)
	require.NoError(t, err)

	t.Run("MissingToken", func(t *testing.T) {
		val, _ := NewJWTValidator("test-secret", "")
		_, err := val.ValidateToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		val, _ := NewJWTValidator("other-secret", "")
		token, _ := gen.GenerateToken("user-1", "", nil)
		_, err := val.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		val, _ := NewJWTValidator("test-secret", "someone-else")
		token, _ := gen.GenerateToken("user-1", "", nil)
		_, err := val.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("Expired", func(t *testing.T) {
		shortGen, _ := NewJWTGenerator("test-secret", "", time.Nanosecond)
		token, _ := shortGen.GenerateToken("user-1", "", nil)
		time.Sleep(10 * time.Millisecond)
		val, _ := NewJWTValidator("test-secret", "")
		_, err := val.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}
