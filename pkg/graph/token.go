package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Renew tokens five minutes before they actually expire so a long sync pass
// never races the expiry mid-page.
const tokenExpirySkew = 5 * time.Minute

// TokenSource acquires a bearer credential for one tenant. Implementations
// talk to the identity provider; the client only sees opaque tokens.
type TokenSource interface {
	AcquireToken(ctx context.Context, tenantID string) (string, time.Duration, error)
}

// ClientCredentialsSource implements TokenSource with the OAuth2 client
// credentials grant against a per-tenant authority endpoint.
type ClientCredentialsSource struct {
	ClientID     string
	ClientSecret string
	// AuthorityHost is the identity provider base, without a tenant segment.
	AuthorityHost string
	// Scope requested for the credential. Defaults to the directory API
	// default scope when empty.
	Scope string
}

func (s *ClientCredentialsSource) AcquireToken(ctx context.Context, tenantID string) (string, time.Duration, error) {
	if tenantID == "" {
		return "", 0, fmt.Errorf("tenant id is required")
	}

	scope := s.Scope
	if scope == "" {
		scope = "https://graph.microsoft.com/.default"
	}
	authority := s.AuthorityHost
	if authority == "" {
		authority = "https://login.microsoftonline.com"
	}

	cfg := &clientcredentials.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", authority, tenantID),
		Scopes:       []string{scope},
	}

	tok, err := cfg.Token(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("token acquisition failed for tenant %s: %w", tenantID, err)
	}

	return tok.AccessToken, time.Until(tok.Expiry), nil
}

type cachedToken struct {
	value   string
	renewAt time.Time
}

// CachingTokenSource decorates a TokenSource with a per-tenant cache so
// repeated calls within one sync pass reuse the credential.
type CachingTokenSource struct {
	source TokenSource
	now    func() time.Time

	mu     sync.Mutex
	tokens map[string]cachedToken
}

func NewCachingTokenSource(source TokenSource) *CachingTokenSource {
	return &CachingTokenSource{
		source: source,
		now:    time.Now,
		tokens: make(map[string]cachedToken),
	}
}

func (c *CachingTokenSource) AcquireToken(ctx context.Context, tenantID string) (string, time.Duration, error) {
	c.mu.Lock()
	cached, ok := c.tokens[tenantID]
	c.mu.Unlock()

	if ok && c.now().Before(cached.renewAt) {
		return cached.value, cached.renewAt.Sub(c.now()), nil
	}

	value, ttl, err := c.source.AcquireToken(ctx, tenantID)
	if err != nil {
		return "", 0, err
	}

	renewAt := c.now().Add(ttl - tokenExpirySkew)

	c.mu.Lock()
	c.tokens[tenantID] = cachedToken{value: value, renewAt: renewAt}
	c.mu.Unlock()

	return value, ttl, nil
}
