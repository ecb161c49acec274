package auth

import (
	"context"
	"sync"

	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	appErrors "memoria-client/pkg/errors"
)

// SupabaseTokenProvider signs in against the external Supabase auth
// collaborator and serves the resulting access token. Token issuance
// itself is entirely Supabase's concern; this type only holds the
// session.
type SupabaseTokenProvider struct {
	client *supabase.Client
	logger *zap.Logger

	mu          sync.RWMutex
	accessToken string
}

// NewSupabaseTokenProvider creates a provider against the given Supabase
// project. No network call is made until SignIn.
func NewSupabaseTokenProvider(url, anonKey string, logger *zap.Logger) (*SupabaseTokenProvider, error) {
	client, err := supabase.NewClient(url, anonKey, nil)
	if err != nil {
		return nil, appErrors.NewInternal("failed to create supabase client", err)
	}
	return &SupabaseTokenProvider{client: client, logger: logger}, nil
}

// SignIn authenticates with email and password and caches the access
// token for subsequent Token calls.
func (p *SupabaseTokenProvider) SignIn(ctx context.Context, email, password string) error {
	session, err := p.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return appErrors.NewUnauthorized("sign-in failed: " + err.Error())
	}

	p.mu.Lock()
	p.accessToken = session.AccessToken
	p.mu.Unlock()

	p.logger.Info("signed in", zap.String("email", email))
	return nil
}

// Token implements TokenProvider.
func (p *SupabaseTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.accessToken == "" {
		return "", appErrors.NewUnauthorized("not signed in")
	}
	return p.accessToken, nil
}
