package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "memoria-client/pkg/errors"
)

func TestStaticTokenProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsToken", func(t *testing.T) {
		p := NewStaticTokenProvider("abc123")
		token, err := p.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc123", token)
	})

	t.Run("FailsFastWhenEmpty", func(t *testing.T) {
		p := NewStaticTokenProvider("")
		_, err := p.Token(ctx)
		require.Error(t, err)
		assert.True(t, appErrors.IsUnauthorized(err))
	})
}

func TestSessionTokenProvider(t *testing.T) {
	ctx := context.Background()
	p := NewSessionTokenProvider()

	_, err := p.Token(ctx)
	require.Error(t, err)
	assert.True(t, appErrors.IsUnauthorized(err))

	p.SetToken("session-token")
	token, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
}
