// Package auth supplies bearer tokens to the REST client. The token
// source is an explicit capability object injected into every client
// rather than process-wide state, so tests can substitute their own.
package auth

import (
	"context"
	"sync"

	appErrors "memoria-client/pkg/errors"
)

// TokenProvider yields the bearer token attached to every backend call.
// An empty token is a client-fatal precondition: providers return an
// unauthorized error rather than letting an unauthenticated call out.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider returns a fixed token. Used by the CLI when a
// token is supplied directly and by tests.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider around a fixed token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Token implements TokenProvider.
func (p *StaticTokenProvider) Token(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", appErrors.NewUnauthorized("no bearer token configured")
	}
	return p.token, nil
}

// SessionTokenProvider holds a token obtained from a sign-in flow and
// allows it to be replaced on refresh. Safe for concurrent use.
type SessionTokenProvider struct {
	mu    sync.RWMutex
	token string
}

// NewSessionTokenProvider creates an empty session provider; calls fail
// fast until SetToken is called.
func NewSessionTokenProvider() *SessionTokenProvider {
	return &SessionTokenProvider{}
}

// SetToken installs or replaces the session token.
func (p *SessionTokenProvider) SetToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}

// Token implements TokenProvider.
func (p *SessionTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == "" {
		return "", appErrors.NewUnauthorized("not signed in")
	}
	return p.token, nil
}
